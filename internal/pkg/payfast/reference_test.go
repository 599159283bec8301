package payfast

import (
	"errors"
	"strings"
	"testing"
)

func TestMakePaymentReference_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		ref := MakePaymentReference(42)
		if seen[ref] {
			t.Fatalf("duplicate reference generated: %s", ref)
		}
		seen[ref] = true
		if !strings.HasPrefix(ref, "pf_42_") {
			t.Fatalf("reference %q missing pf_42_ prefix", ref)
		}
	}
}

func TestParsePaymentReference_RoundTrip(t *testing.T) {
	ref := MakePaymentReference(7)
	id, err := ParsePaymentReference(ref)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if id != 7 {
		t.Fatalf("parsed user id = %d, want 7", id)
	}
}

func TestParsePaymentReference_Invalid(t *testing.T) {
	tests := []string{
		"",
		"pf_42",
		"xx_42_123",
		"pf_abc_123",
		"pf_0_123",
		"1699999999999",
	}
	for _, ref := range tests {
		if _, err := ParsePaymentReference(ref); !errors.Is(err, ErrInvalidReference) {
			t.Fatalf("ParsePaymentReference(%q) err = %v, want ErrInvalidReference", ref, err)
		}
	}
}
