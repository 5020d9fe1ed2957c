package payfast_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarcoWillems/Galleria/internal/pkg/orders"
	"github.com/MarcoWillems/Galleria/internal/pkg/payfast"
)

func TestParseNotification(t *testing.T) {
	fields := map[string]string{
		"m_payment_id":   "GAL-20250614-1A2B3C4D5E",
		"pf_payment_id":  "1089250",
		"payment_status": "COMPLETE",
		"signature":      "abc123",
		"amount_gross":   "2500.00",
		"email_address":  "thandi@example.com",
		"merchant_id":    "10000100",
		"custom_str1":    "something-unknown",
	}

	n, err := payfast.ParseNotification(fields)
	require.NoError(t, err)

	assert.Equal(t, "GAL-20250614-1A2B3C4D5E", n.MerchantOrderID)
	assert.Equal(t, "1089250", n.PaymentID)
	assert.Equal(t, orders.PaymentComplete, n.PaymentStatus)
	assert.Equal(t, "2500.00", n.AmountGross)
	assert.Equal(t, "thandi@example.com", n.EmailAddress)
	assert.Equal(t, "10000100", n.MerchantID)
	assert.Equal(t, "something-unknown", n.Raw["custom_str1"], "unknown fields survive in Raw")
}

func TestParseNotificationNormalizesPaymentStatus(t *testing.T) {
	fields := map[string]string{
		"m_payment_id":   "order-1",
		"payment_status": " complete ",
		"signature":      "abc123",
	}

	n, err := payfast.ParseNotification(fields)
	require.NoError(t, err)
	assert.Equal(t, orders.PaymentComplete, n.PaymentStatus)
}

func TestParseNotificationMissingOrderID(t *testing.T) {
	_, err := payfast.ParseNotification(map[string]string{
		"payment_status": "COMPLETE",
		"signature":      "abc123",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, payfast.ErrMalformedPayload)
}

func TestParseNotificationMissingSignature(t *testing.T) {
	_, err := payfast.ParseNotification(map[string]string{
		"m_payment_id":   "order-1",
		"payment_status": "COMPLETE",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, payfast.ErrMalformedPayload)
}

func TestParseNotificationCopiesRaw(t *testing.T) {
	fields := map[string]string{
		"m_payment_id": "order-1",
		"signature":    "abc123",
	}
	n, err := payfast.ParseNotification(fields)
	require.NoError(t, err)

	fields["m_payment_id"] = "mutated"
	assert.Equal(t, "order-1", n.Raw["m_payment_id"], "Raw must be a copy, not an alias")
}

func TestPayloadDigest(t *testing.T) {
	fields := map[string]string{
		"m_payment_id":   "order-1",
		"payment_status": "COMPLETE",
	}

	digest := payfast.PayloadDigest(fields)
	assert.True(t, strings.HasPrefix(digest, "sha256:"))
	assert.Len(t, strings.TrimPrefix(digest, "sha256:"), 64)

	// Stable across calls and map iteration order.
	for i := 0; i < 5; i++ {
		assert.Equal(t, digest, payfast.PayloadDigest(fields))
	}

	fields["payment_status"] = "FAILED"
	assert.NotEqual(t, digest, payfast.PayloadDigest(fields))
}
