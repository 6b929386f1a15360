package types

import (
	"errors"
	"fmt"
)

// Store availability errors. ErrOffline wraps ErrStoreUnavailable so callers
// that only care whether the store answered can test for the latter.
var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrOffline          = fmt.Errorf("%w: client is offline", ErrStoreUnavailable)
)

// Backend lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// ErrValidation is the parent of every input validation error. Validation
// errors are raised before any store call is issued.
var ErrValidation = errors.New("validation failed")

// Input validation errors.
var (
	ErrInvalidName     = fmt.Errorf("%w: name must not be empty", ErrValidation)
	ErrInvalidCategory = fmt.Errorf("%w: unknown category", ErrValidation)
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must not be negative", ErrValidation)
	ErrInvalidID       = fmt.Errorf("%w: invalid item ID", ErrValidation)
	ErrInvalidUser     = fmt.Errorf("%w: user ID must not be empty", ErrValidation)
	ErrInvalidCursor   = fmt.Errorf("%w: malformed cursor", ErrValidation)
	ErrCursorMismatch  = fmt.Errorf("%w: cursor belongs to a different query", ErrInvalidCursor)
)

// IsValidation reports whether err is an input validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
