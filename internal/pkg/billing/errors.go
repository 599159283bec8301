package billing

import (
	"errors"
	"fmt"
)

// Validation failures are permanent: the same payload will never succeed,
// so callers answer HTTP 400 and the gateway stops productive retries.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrBadSignature    = errors.New("bad signature")
	ErrAmountMismatch  = errors.New("amount mismatch")
	ErrBadReference    = errors.New("bad payment reference")
)

// ConfigurationError reports a missing required setting by name so an
// operator can fix the deployment without reading code.
type ConfigurationError struct {
	Missing string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", e.Missing)
}

// TransientStorageError wraps a persistence failure that is worth retrying.
// The ITN handler maps it to HTTP 500, which tells the gateway to redeliver.
type TransientStorageError struct {
	Err error
}

func (e *TransientStorageError) Error() string {
	return fmt.Sprintf("transient storage error: %v", e.Err)
}

func (e *TransientStorageError) Unwrap() error { return e.Err }
