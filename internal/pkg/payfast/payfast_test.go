package payfast

import (
	"strings"
	"testing"
)

var goldenFields = map[string]string{
	"merchant_id":  "10000100",
	"merchant_key": "46f0cd694581a",
	"amount":       "99.00",
	"item_name":    "Test",
	"m_payment_id": "1",
}

func TestBuildCanonicalString_Golden(t *testing.T) {
	want := "amount=99.00&item_name=Test&m_payment_id=1&merchant_id=10000100&merchant_key=46f0cd694581a"
	got := BuildCanonicalString(goldenFields, map[string]struct{}{FieldSignature: {}})
	if got != want {
		t.Fatalf("canonical string = %q, want %q", got, want)
	}
}

func TestBuildCanonicalString_Deterministic(t *testing.T) {
	excluded := map[string]struct{}{FieldSignature: {}}
	first := BuildCanonicalString(goldenFields, excluded)
	for i := 0; i < 50; i++ {
		if got := BuildCanonicalString(goldenFields, excluded); got != first {
			t.Fatalf("run %d produced %q, first run produced %q", i, got, first)
		}
	}
}

func TestBuildCanonicalString_DropsEmptyAndExcluded(t *testing.T) {
	fields := map[string]string{
		"b_key":     "value",
		"a_empty":   "",
		"c_blank":   "   ",
		"signature": "deadbeef",
		"secret":    "hidden",
	}
	got := BuildCanonicalString(fields, map[string]struct{}{"signature": {}, "secret": {}})
	if got != "b_key=value" {
		t.Fatalf("canonical string = %q, want %q", got, "b_key=value")
	}
}

func TestBuildCanonicalString_KeysSortedAscending(t *testing.T) {
	got := BuildCanonicalString(goldenFields, map[string]struct{}{FieldSignature: {}})
	keys := []string{}
	for _, pair := range strings.Split(got, "&") {
		keys = append(keys, strings.SplitN(pair, "=", 2)[0])
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			t.Fatalf("keys not in ascending order: %q before %q", keys[i-1], keys[i])
		}
	}
}

func TestBuildCanonicalString_Empty(t *testing.T) {
	if got := BuildCanonicalString(map[string]string{}, nil); got != "" {
		t.Fatalf("expected empty canonical string, got %q", got)
	}
}

func TestEncodeComponent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "PanelFlow Pro", want: "PanelFlow%20Pro"},
		{in: "https://panelflow.app/pricing", want: "https%3A%2F%2Fpanelflow.app%2Fpricing"},
		{in: "a-b_c.d!e~f*g'h(i)j", want: "a-b_c.d!e~f*g'h(i)j"},
		{in: "café ☕", want: "caf%C3%A9%20%E2%98%95"},
		{in: "a+b=c&d", want: "a%2Bb%3Dc%26d"},
	}
	for _, tt := range tests {
		if got := encodeComponent(tt.in); got != tt.want {
			t.Fatalf("encodeComponent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSign_GoldenDigest(t *testing.T) {
	// MD5 of the golden canonical string, pinned as a reproducible output.
	const want = "c0f742341e8933cfcfa4ae175df1aafc"
	got := Sign(goldenFields, "", SignaturePolicy{IncludeMerchantKey: true})
	if got != want {
		t.Fatalf("Sign() = %q, want %q", got, want)
	}
	if len(got) != 32 || strings.ToLower(got) != got {
		t.Fatalf("signature %q is not 32-char lowercase hex", got)
	}
}

func TestSign_PolicyVariants(t *testing.T) {
	tests := []struct {
		name       string
		passphrase string
		policy     SignaturePolicy
		want       string
	}{
		{
			name:   "merchant key excluded",
			policy: SignaturePolicy{IncludeMerchantKey: false},
			// MD5("amount=99.00&item_name=Test&m_payment_id=1&merchant_id=10000100")
			want: "d6f60502f00250027d66871c2fe2b13d",
		},
		{
			name:       "encoded passphrase",
			passphrase: "secret",
			policy:     SignaturePolicy{IncludeMerchantKey: true, EncodePassphrase: true},
			want:       "f109939eda8e25224ced39a5b456c941",
		},
		{
			name:       "encoded passphrase with space",
			passphrase: "top secret",
			policy:     SignaturePolicy{IncludeMerchantKey: true, EncodePassphrase: true},
			want:       "a3c5ec0420db54a8f9d4ae5029800204",
		},
		{
			name:       "raw passphrase with space",
			passphrase: "top secret",
			policy:     SignaturePolicy{IncludeMerchantKey: true, EncodePassphrase: false},
			want:       "22bc8d5639418c455463f221a2e27e1a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sign(goldenFields, tt.passphrase, tt.policy); got != tt.want {
				t.Fatalf("Sign() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSign_PassphraseChangesDigest(t *testing.T) {
	without := Sign(goldenFields, "", DefaultPolicy)
	with := Sign(goldenFields, "secret", DefaultPolicy)
	if without == with {
		t.Fatalf("signatures with and without passphrase must differ, both %q", with)
	}
	if again := Sign(goldenFields, "secret", DefaultPolicy); again != with {
		t.Fatalf("Sign is not idempotent: %q vs %q", again, with)
	}
}

func TestVerifySignature(t *testing.T) {
	fields := map[string]string{}
	for k, v := range goldenFields {
		fields[k] = v
	}
	fields[FieldSignature] = Sign(fields, "secret", DefaultPolicy)

	if !VerifySignature(fields, "secret", DefaultPolicy) {
		t.Fatal("expected valid signature to verify")
	}
	if VerifySignature(fields, "other", DefaultPolicy) {
		t.Fatal("expected wrong passphrase to fail verification")
	}

	fields[FieldAmount] = "199.00"
	if VerifySignature(fields, "secret", DefaultPolicy) {
		t.Fatal("expected tampered field set to fail verification")
	}

	delete(fields, FieldSignature)
	if VerifySignature(fields, "secret", DefaultPolicy) {
		t.Fatal("expected missing signature to fail verification")
	}
}
