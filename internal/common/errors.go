package common

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks lookups for rows that do not exist, or do not
	// exist for the requesting user.
	ErrNotFound = errors.New("not found")

	// ErrUnauthenticated marks a missing or unverifiable credential.
	ErrUnauthenticated = errors.New("authentication failed")
)

// ValidationError rejects bad input before anything touches the database.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
