package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input rejected at the boundary.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned by repositories when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrLocationUnavailable means no reference point could be obtained and
	// no fallback is configured.
	ErrLocationUnavailable = errors.New("reference location unavailable")

	// ErrUnavailable means an optional backend (reminders) is not configured.
	ErrUnavailable = errors.New("service unavailable")
)

// ValidationError describes a single rejected field.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Unwrap lets callers match with errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}
