package payfast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MarcoWillems/Galleria/internal/pkg/payfast"
)

const testPassphrase = "jt7NOE43FZPn"

func validFields() map[string]string {
	fields := map[string]string{
		"m_payment_id":   "GAL-20250614-1A2B3C4D5E",
		"pf_payment_id":  "1089250",
		"payment_status": "COMPLETE",
		"item_name":      "Galleria order GAL-20250614-1A2B3C4D5E",
		"amount_gross":   "2500.00",
		"amount_fee":     "-57.50",
		"amount_net":     "2442.50",
		"name_first":     "Thandi",
		"name_last":      "Nkosi",
		"email_address":  "thandi@example.com",
		"merchant_id":    "10000100",
	}
	fields["signature"] = payfast.Sign(fields, testPassphrase)
	return fields
}

func TestVerifySignatureRoundTrip(t *testing.T) {
	fields := validFields()
	assert.True(t, payfast.VerifySignature(fields, testPassphrase))
}

func TestVerifySignatureRejectsTamperedFields(t *testing.T) {
	for _, key := range []string{"m_payment_id", "pf_payment_id", "payment_status", "amount_gross", "email_address"} {
		fields := validFields()
		fields[key] = fields[key] + "x"
		assert.False(t, payfast.VerifySignature(fields, testPassphrase), "tampered %s must fail verification", key)
	}
}

func TestVerifySignatureRejectsWrongPassphrase(t *testing.T) {
	fields := validFields()
	assert.False(t, payfast.VerifySignature(fields, "wrong-passphrase"))
}

func TestVerifySignatureRejectsMissingSignature(t *testing.T) {
	fields := validFields()
	delete(fields, "signature")
	assert.False(t, payfast.VerifySignature(fields, testPassphrase))

	fields["signature"] = ""
	assert.False(t, payfast.VerifySignature(fields, testPassphrase))
}

func TestVerifySignatureRejectsForgedSignature(t *testing.T) {
	fields := validFields()
	fields["signature"] = "d41d8cd98f00b204e9800998ecf8427e"
	assert.False(t, payfast.VerifySignature(fields, testPassphrase))
}

func TestVerifySignatureAcceptsUppercaseHex(t *testing.T) {
	// Providers sometimes send the hex digest uppercased.
	fields := validFields()
	upper := ""
	for _, r := range fields["signature"] {
		if r >= 'a' && r <= 'f' {
			r = r - 'a' + 'A'
		}
		upper += string(r)
	}
	fields["signature"] = upper
	assert.True(t, payfast.VerifySignature(fields, testPassphrase))
}

func TestSignIsDeterministic(t *testing.T) {
	fields := map[string]string{
		"m_payment_id":   "order-1",
		"payment_status": "COMPLETE",
	}
	first := payfast.Sign(fields, testPassphrase)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, payfast.Sign(fields, testPassphrase))
	}
	assert.Len(t, first, 32, "md5 hex digest")
}

func TestSignIgnoresEmptyAndSignatureFields(t *testing.T) {
	base := map[string]string{
		"m_payment_id":   "order-1",
		"payment_status": "COMPLETE",
	}
	withNoise := map[string]string{
		"m_payment_id":   "order-1",
		"payment_status": "COMPLETE",
		"custom_str1":    "",
		"signature":      "deadbeef",
	}
	assert.Equal(t, payfast.Sign(base, testPassphrase), payfast.Sign(withNoise, testPassphrase))
}

func TestSignIncludesUnknownExtraFields(t *testing.T) {
	base := map[string]string{
		"m_payment_id":   "order-1",
		"payment_status": "COMPLETE",
	}
	extra := map[string]string{
		"m_payment_id":   "order-1",
		"payment_status": "COMPLETE",
		"new_field":      "1",
	}
	assert.NotEqual(t, payfast.Sign(base, testPassphrase), payfast.Sign(extra, testPassphrase))
}

func TestSignWithoutPassphrase(t *testing.T) {
	fields := map[string]string{
		"m_payment_id":   "order-1",
		"payment_status": "COMPLETE",
	}
	withPass := payfast.Sign(fields, testPassphrase)
	withoutPass := payfast.Sign(fields, "")
	assert.NotEqual(t, withPass, withoutPass)
	assert.Len(t, withoutPass, 32)
}
