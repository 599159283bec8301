package payfast

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const referencePrefix = "pf"

// ErrInvalidReference is returned when a payment reference does not match
// the pf_<userID>_<nonce> format or does not carry a usable user id.
var ErrInvalidReference = errors.New("invalid payment reference")

// MakePaymentReference builds a fresh payment reference embedding the user
// id and a nanosecond timestamp. The timestamp component makes references
// unique per initiation attempt so one ITN can never satisfy two intents.
func MakePaymentReference(userID uint) string {
	return fmt.Sprintf("%s_%d_%d", referencePrefix, userID, time.Now().UnixNano())
}

// ParsePaymentReference recovers the user id embedded in a payment
// reference. The gateway echoes the reference back unmodified in the ITN,
// so this is the inverse of MakePaymentReference.
func ParsePaymentReference(ref string) (uint, error) {
	parts := strings.Split(strings.TrimSpace(ref), "_")
	if len(parts) < 3 || parts[0] != referencePrefix {
		return 0, ErrInvalidReference
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidReference
	}
	return uint(id), nil
}
