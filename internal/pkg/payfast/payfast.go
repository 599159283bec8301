package payfast

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"sort"
	"strings"
)

// Well-known PayFast field names used across initiation and ITN handling.
const (
	FieldMerchantID    = "merchant_id"
	FieldMerchantKey   = "merchant_key"
	FieldReturnURL     = "return_url"
	FieldCancelURL     = "cancel_url"
	FieldNotifyURL     = "notify_url"
	FieldPaymentID     = "m_payment_id"
	FieldAmount        = "amount"
	FieldAmountGross   = "amount_gross"
	FieldItemName      = "item_name"
	FieldEmailAddress  = "email_address"
	FieldCustomStr1    = "custom_str1"
	FieldPaymentStatus = "payment_status"
	FieldSignature     = "signature"
)

// PaymentStatusComplete is the only payment_status value that marks a
// payment as finally successful.
const PaymentStatusComplete = "COMPLETE"

// SignaturePolicy selects between the signing variants PayFast merchant
// accounts have been observed to require. Both knobs exist because the
// upstream documentation is ambiguous; neither behavior is hardcoded.
type SignaturePolicy struct {
	// IncludeMerchantKey controls whether merchant_key is part of the
	// signed field set even though it is always transmitted.
	IncludeMerchantKey bool
	// EncodePassphrase controls whether the passphrase is percent-encoded
	// before it is appended to the canonical string.
	EncodePassphrase bool
}

// DefaultPolicy matches the merchant account configuration PanelFlow ships
// with: merchant_key signed, passphrase percent-encoded.
var DefaultPolicy = SignaturePolicy{IncludeMerchantKey: true, EncodePassphrase: true}

// BuildCanonicalString serializes a field set into the deterministic byte
// string PayFast hashes. Excluded keys and keys whose trimmed value is empty
// are dropped, the remaining keys are sorted in ascending codepoint order,
// and each pair is emitted as key=<encoded trimmed value> joined by "&".
func BuildCanonicalString(fields map[string]string, excluded map[string]struct{}) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if _, skip := excluded[k]; skip {
			continue
		}
		if strings.TrimSpace(fields[k]) == "" {
			continue
		}
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
		b.WriteString(encodeComponent(strings.TrimSpace(fields[k])))
	}
	return b.String()
}

// Sign computes the lowercase hex MD5 signature for a field set. The
// signature field itself is always excluded; merchant_key only when the
// policy says so. A non-empty passphrase is appended as a trailing
// passphrase= pair before hashing and is never part of the field set.
// MD5 is mandated by the gateway's legacy protocol.
func Sign(fields map[string]string, passphrase string, policy SignaturePolicy) string {
	excluded := map[string]struct{}{FieldSignature: {}}
	if !policy.IncludeMerchantKey {
		excluded[FieldMerchantKey] = struct{}{}
	}
	base := BuildCanonicalString(fields, excluded)

	if pp := strings.TrimSpace(passphrase); pp != "" {
		if policy.EncodePassphrase {
			pp = encodeComponent(pp)
		}
		base += "&passphrase=" + pp
	}

	sum := md5.Sum([]byte(base))
	return hex.EncodeToString(sum[:])
}

// VerifySignature recomputes the expected signature for a received field set
// and compares it against the transmitted signature field. The comparison is
// constant-time; the signature is the only authentication the ITN has.
func VerifySignature(fields map[string]string, passphrase string, policy SignaturePolicy) bool {
	received := strings.TrimSpace(fields[FieldSignature])
	if received == "" {
		return false
	}
	expected := Sign(fields, passphrase, policy)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(received))) == 1
}

// encodeComponent percent-encodes s the way JavaScript's encodeURIComponent
// does: UTF-8 bytes, uppercase hex, space as %20, and the unreserved set
// A-Za-z0-9 -_.!~*'() left alone. PayFast's reference implementations were
// built against this exact encoding, so url.QueryEscape (space as "+") is
// not interchangeable here.
func encodeComponent(s string) string {
	const upperhex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreservedComponent(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0f])
	}
	return b.String()
}

func isUnreservedComponent(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
