package models

import "time"

// Order event types written by the billing service and the admin order flow.
const (
	OrderEventPaymentCompleted = "payment_completed"
	OrderEventPaymentDuplicate = "payment_duplicate"
	OrderEventPaymentFailed    = "payment_failed"
	OrderEventPaymentRejected  = "payment_rejected"
	OrderEventStatusChanged    = "status_changed"
)

// OrderEvent is an append-only audit record. One event is written per
// processed payment notification (including rejected and no-op ones) and per
// admin status change. Events are never updated or deleted.
type OrderEvent struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	OrderID       uint      `gorm:"index;not null" json:"order_id"`
	EventType     string    `gorm:"type:varchar(50);not null;index" json:"event_type"`
	FromStatus    string    `gorm:"type:varchar(20)" json:"from_status"`
	ToStatus      string    `gorm:"type:varchar(20)" json:"to_status"`
	Detail        string    `gorm:"type:text" json:"detail"`
	PayloadDigest string    `gorm:"type:varchar(100)" json:"payload_digest"` // sha256 of the raw notification for audit
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
