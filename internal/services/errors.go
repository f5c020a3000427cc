package services

import (
	"errors"
	"fmt"
)

// Common service errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidState = errors.New("invalid state transition")
	ErrConflict     = errors.New("record was modified concurrently")
)

// ValidationError reports a malformed or out-of-range input with a
// field-level message suitable for direct display to the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a field-level validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
