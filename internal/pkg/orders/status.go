package orders

// Status is an order lifecycle status. The string values match the enum
// stored on app/models.Order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusPaid       Status = "paid"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// IsTerminal reports whether a status has no outgoing transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	default:
		return false
	}
}

// IsValid reports whether s is one of the known order statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusPaid, StatusShipped,
		StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	default:
		return false
	}
}
