package payfast

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// itnFieldOrder is the canonical ordering of ITN post variables used to build
// the signing string, per the PayFast notification format. Fields the
// provider adds later are appended alphabetically after the known ones.
var itnFieldOrder = []string{
	"m_payment_id",
	"pf_payment_id",
	"payment_status",
	"item_name",
	"item_description",
	"amount_gross",
	"amount_fee",
	"amount_net",
	"custom_str1",
	"custom_str2",
	"custom_str3",
	"custom_str4",
	"custom_str5",
	"custom_int1",
	"custom_int2",
	"custom_int3",
	"custom_int4",
	"custom_int5",
	"name_first",
	"name_last",
	"email_address",
	"merchant_id",
}

// VerifySignature checks a notification's signature against the shared
// passphrase. It is a pure function of the posted fields (the "signature"
// field itself is excluded from the signing string) and compares digests in
// constant time so a mismatch leaks nothing about where it occurred.
func VerifySignature(fields map[string]string, passphrase string) bool {
	sig := strings.ToLower(strings.TrimSpace(fields["signature"]))
	if sig == "" {
		return false
	}

	expected := Sign(fields, passphrase)
	return subtle.ConstantTimeCompare([]byte(sig), []byte(expected)) == 1
}

// Sign computes the MD5 signature for a set of notification fields. Exported
// so checkout can sign outbound payment requests with the same rules.
func Sign(fields map[string]string, passphrase string) string {
	var b strings.Builder
	seen := make(map[string]struct{}, len(fields))

	appendField := func(key string) {
		val, ok := fields[key]
		if !ok || val == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(encodeValue(val))
	}

	for _, key := range itnFieldOrder {
		appendField(key)
		seen[key] = struct{}{}
	}

	// Unknown extra fields, in a stable order.
	extras := make([]string, 0)
	for key := range fields {
		if key == "signature" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		extras = append(extras, key)
	}
	sort.Strings(extras)
	for _, key := range extras {
		appendField(key)
	}

	if passphrase != "" {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString("passphrase=")
		b.WriteString(encodeValue(passphrase))
	}

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// encodeValue urlencodes a value the way PayFast expects: spaces become '+'
// and reserved characters use uppercase percent encoding.
func encodeValue(v string) string {
	return url.QueryEscape(strings.TrimSpace(v))
}
