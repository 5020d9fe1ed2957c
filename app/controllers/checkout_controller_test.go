package controllers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MarcoWillems/Galleria/app/models"
	"github.com/MarcoWillems/Galleria/internal/pkg/payfast"
)

func TestGenerateOrderNo(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		no := generateOrderNo()
		assert.True(t, strings.HasPrefix(no, "GAL-"), "order no %q", no)
		assert.LessOrEqual(t, len(no), 64, "must fit the order_no column")
		assert.False(t, seen[no], "order numbers must not collide")
		seen[no] = true
	}
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in    string
		first string
		last  string
	}{
		{"Thandi Nkosi", "Thandi", "Nkosi"},
		{"Thandi", "Thandi", ""},
		{"Jan van der Merwe", "Jan", "van der Merwe"},
		{"", "", ""},
	}
	for _, tt := range tests {
		first, last := splitName(tt.in)
		assert.Equal(t, tt.first, first, "input %q", tt.in)
		assert.Equal(t, tt.last, last, "input %q", tt.in)
	}
}

func TestBuildPaymentFieldsAreSigned(t *testing.T) {
	order := &models.Order{
		OrderNo:       "GAL-20250614-1A2B3C4D5E",
		CustomerName:  "Thandi Nkosi",
		CustomerEmail: "thandi@example.com",
		TotalCents:    251500,
		Currency:      "ZAR",
	}

	fields := buildPaymentFields(order)

	assert.Equal(t, "GAL-20250614-1A2B3C4D5E", fields["m_payment_id"])
	assert.Equal(t, "2515.00", fields["amount"])
	assert.Equal(t, "Thandi", fields["name_first"])
	assert.Equal(t, "Nkosi", fields["name_last"])
	assert.NotEmpty(t, fields["notify_url"])

	// The form signature must verify under the same rules the webhook uses.
	assert.True(t, payfast.VerifySignature(fields, ""))
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Thandi Nkosi", "thandi-nkosi"},
		{"  Jan  van der Merwe ", "jan-van-der-merwe"},
		{"Émile & Co.", "mile-co"},
		{"already-slugged", "already-slugged"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.in), "input %q", tt.in)
	}
}
