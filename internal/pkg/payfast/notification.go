package payfast

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/MarcoWillems/Galleria/internal/pkg/orders"
)

// ErrMalformedPayload marks a notification that cannot be processed at all,
// as opposed to one that fails verification or business rules. It indicates
// an unexpected integration change, so the route layer maps it to a 500.
var ErrMalformedPayload = errors.New("malformed ITN payload")

// Notification is the typed form of a PayFast Instant Transaction
// Notification. Raw keeps every posted field (including ones this code does
// not know about) for the audit trail.
type Notification struct {
	PaymentID       string               // pf_payment_id, PayFast's reference
	MerchantOrderID string               // m_payment_id, maps to Order.OrderNo
	PaymentStatus   orders.PaymentStatus // COMPLETE, FAILED, CANCELLED, PENDING
	Signature       string
	AmountGross     string
	ItemName        string
	EmailAddress    string
	MerchantID      string
	Raw             map[string]string
}

// ParseNotification converts raw form fields into a Notification. The
// merchant order id and signature are required: without them the notification
// can be neither attributed nor authenticated.
func ParseNotification(fields map[string]string) (*Notification, error) {
	merchantOrderID := strings.TrimSpace(fields["m_payment_id"])
	if merchantOrderID == "" {
		return nil, fmt.Errorf("%w: missing m_payment_id", ErrMalformedPayload)
	}
	signature := strings.TrimSpace(fields["signature"])
	if signature == "" {
		return nil, fmt.Errorf("%w: missing signature", ErrMalformedPayload)
	}

	raw := make(map[string]string, len(fields))
	for k, v := range fields {
		raw[k] = v
	}

	return &Notification{
		PaymentID:       strings.TrimSpace(fields["pf_payment_id"]),
		MerchantOrderID: merchantOrderID,
		PaymentStatus:   orders.PaymentStatus(strings.ToUpper(strings.TrimSpace(fields["payment_status"]))),
		Signature:       signature,
		AmountGross:     strings.TrimSpace(fields["amount_gross"]),
		ItemName:        fields["item_name"],
		EmailAddress:    strings.TrimSpace(fields["email_address"]),
		MerchantID:      strings.TrimSpace(fields["merchant_id"]),
		Raw:             raw,
	}, nil
}

// PayloadDigest returns a stable sha256 over the raw fields, stored on the
// order event so a notification can be matched to its audit record without
// persisting the payload itself.
func PayloadDigest(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(fields[k])
	}

	sum := sha256.Sum256([]byte(b.String()))
	return "sha256:" + hex.EncodeToString(sum[:])
}
