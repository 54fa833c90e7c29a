package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrStoragePathCollision indicates the computed blob path already
	// exists. Paths embed a fresh uuid, so a collision means misconfigured
	// storage and is fatal.
	ErrStoragePathCollision = errors.New("archive storage path already exists")
)

// ValidationError describes a malformed search or append input. It is
// surfaced before any query executes and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
