package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateIdempotencyKey indicates two enqueues with the same
	// idempotency tuple raced inside the same unit of work. Across separate
	// commits the duplicate is swallowed and the existing message id returned.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
	// ErrAmbiguousDelegation indicates two delegations share the highest
	// sequence number for the same delegator, grid area and process type.
	ErrAmbiguousDelegation = errors.New("ambiguous delegation: duplicate max sequence number")
	// ErrBundleClosed indicates a message was assigned to a bundle that no
	// longer accepts messages.
	ErrBundleClosed = errors.New("bundle is closed")
	// ErrBundleNotClosed indicates a peek/dequeue transition was attempted on
	// a bundle that is still accumulating.
	ErrBundleNotClosed = errors.New("bundle is not closed")
)

// ValidationError describes a malformed input field. It is surfaced
// synchronously and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
