package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Order statuses. pending is the initial status set at checkout; delivered,
// cancelled and refunded are terminal.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusPaid       = "paid"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

// Order is the aggregate root for a checkout. Monetary amounts are stored in
// cents. Subtotal, shipping, tax and total are fixed at creation; only
// Status, PaymentID and UpdatedAt mutate afterwards, and status changes go
// through the order repository's conditional update so concurrent payment
// notifications serialize correctly.
type Order struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	OrderNo       string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_no"`
	UserID        uint       `gorm:"index" json:"user_id"`
	User          User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CustomerName  string     `gorm:"type:varchar(150);not null" json:"customer_name" validate:"required,min=2,max=150"`
	CustomerEmail string     `gorm:"type:varchar(200);not null" json:"customer_email" validate:"required,email"`
	ShippingAddr  string     `gorm:"type:text" json:"shipping_address"`
	Items         []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	SubtotalCents int64      `gorm:"not null" json:"subtotal_cents"`
	ShippingCents int64      `gorm:"not null;default:0" json:"shipping_cents"`
	TaxCents      int64      `gorm:"not null;default:0" json:"tax_cents"`
	TotalCents    int64      `gorm:"not null" json:"total_cents"`
	Currency      string     `gorm:"type:varchar(3);not null;default:'ZAR'" json:"currency"`
	Status        string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status" validate:"oneof=pending processing paid shipped delivered cancelled refunded"`
	PaymentMethod string     `gorm:"type:varchar(30)" json:"payment_method"`
	PaymentID     string     `gorm:"type:varchar(100);index" json:"payment_id"` // external processor reference, empty until first successful notification
	Notes         string     `gorm:"type:text" json:"notes"`
	PaidAt        *time.Time `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// OrderItem is a single line of an order. LineTotalCents is computed once at
// checkout and never recalculated.
type OrderItem struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrderID        uint      `gorm:"index;not null" json:"order_id"`
	ArtworkID      uint      `gorm:"index;not null" json:"artwork_id"`
	Artwork        Artwork   `gorm:"foreignKey:ArtworkID" json:"artwork,omitempty"`
	Quantity       int       `gorm:"not null;default:1" json:"quantity" validate:"required,min=1"`
	UnitPriceCents int64     `gorm:"not null" json:"unit_price_cents"`
	LineTotalCents int64     `gorm:"not null" json:"line_total_cents"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (o *Order) Validate() error {
	v := validator.New()

	return v.Struct(o)
}

// IsTerminal reports whether the order can never leave its current status.
func (o *Order) IsTerminal() bool {
	switch o.Status {
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	default:
		return false
	}
}
