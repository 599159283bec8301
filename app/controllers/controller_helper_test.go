package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	stripe "github.com/stripe/stripe-go/v81"
)

func TestFormatTimePtr(t *testing.T) {
	assert.Nil(t, formatTimePtr(nil))

	now := time.Date(2024, 5, 1, 12, 34, 56, 0, time.Local)
	formatted := formatTimePtr(&now)
	assert.IsType(t, "", formatted)

	expected := now.UTC().Format(time.RFC3339)
	assert.Equal(t, expected, formatted)
}

func TestParseStripeUserID(t *testing.T) {
	sess := &stripe.CheckoutSession{ClientReferenceID: "42"}
	assert.Equal(t, uint(42), parseStripeUserID(sess))

	// Falls back to metadata when the reference is empty
	sess = &stripe.CheckoutSession{Metadata: map[string]string{"user_id": "7"}}
	assert.Equal(t, uint(7), parseStripeUserID(sess))

	sess = &stripe.CheckoutSession{ClientReferenceID: "not-a-number"}
	assert.Equal(t, uint(0), parseStripeUserID(sess))

	sess = &stripe.CheckoutSession{}
	assert.Equal(t, uint(0), parseStripeUserID(sess))
}

func TestSeriesPrefix(t *testing.T) {
	assert.Equal(t, "42/abcd-1234/", seriesPrefix(42, "abcd-1234"))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "a", firstNonEmpty("a", "b"))
	assert.Equal(t, "b", firstNonEmpty("", "b"))
	assert.Equal(t, "", firstNonEmpty("", ""))
}
