package repository

import (
	"time"

	"github.com/MarcoWillems/Galleria/app/models"
	"gorm.io/gorm"
)

// orderRepository implements the OrderRepository interface
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository instance
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create persists a new order together with its line items
func (r *orderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// GetByID retrieves an order with items and events by its ID
func (r *orderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").Preload("Items.Artwork").First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo retrieves an order by its public order number. This is the
// lookup the webhook path uses (m_payment_id carries the order number), so
// it always reads authoritative state fresh from the database.
func (r *orderRepository) GetByOrderNo(orderNo string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").Where("order_no = ?", orderNo).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List retrieves orders with pagination, newest first
func (r *orderRepository) List(offset, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").Order("created_at DESC").
		Offset(offset).Limit(limit).Find(&orders).Error
	return orders, err
}

// ListByStatus retrieves orders in a given status with pagination
func (r *orderRepository) ListByStatus(status string, offset, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").Where("status = ?", status).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error
	return orders, err
}

// Count returns the total number of orders
func (r *orderRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Order{}).Count(&count).Error
	return count, err
}

// ApplyTransition performs the conditional status update plus event append in
// one transaction. The UPDATE only matches when the row still carries
// expectedStatus, so of two concurrent attempts from the same source status
// exactly one sees RowsAffected == 1; the loser gets (false, nil) and must
// re-read and re-evaluate. PaymentID is only ever set, never overwritten.
func (r *orderRepository) ApplyTransition(orderID uint, expectedStatus, nextStatus, paymentID string, event *models.OrderEvent) (bool, error) {
	applied := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":     nextStatus,
			"updated_at": time.Now(),
		}
		if paymentID != "" {
			updates["payment_id"] = gorm.Expr("IF(payment_id = '' OR payment_id IS NULL, ?, payment_id)", paymentID)
		}
		if nextStatus == models.OrderStatusPaid {
			now := time.Now()
			updates["paid_at"] = &now
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, expectedStatus).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the compare-and-swap; caller re-evaluates against the
			// fresh status. Nothing to append here.
			return nil
		}

		applied = true
		if event != nil {
			return tx.Create(event).Error
		}
		return nil
	})
	return applied, err
}

// AppendEvent writes an audit event outside of a status change (no-op and
// rejection notifications still get their audit record)
func (r *orderRepository) AppendEvent(event *models.OrderEvent) error {
	return r.db.Create(event).Error
}

// GetEvents retrieves the audit trail for an order, oldest first
func (r *orderRepository) GetEvents(orderID uint) ([]models.OrderEvent, error) {
	var events []models.OrderEvent
	err := r.db.Where("order_id = ?", orderID).Order("created_at ASC").Find(&events).Error
	return events, err
}
