package constants

// Static route constants
const (
	APIRoute           = "/api/v1"
	PayFastNotifyRoute = "/payfast/notify"
	AdminRoute         = "/admin"
)
