package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session id is unknown or expired
var ErrSessionNotFound = errors.New("session not found")

// ValidationError is a client input problem reported verbatim to the caller
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// ExtractionError wraps a failure to read text from an uploaded document
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract text from %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ModelError wraps a failure of the external text generation service
type ModelError struct {
	Provider string
	Err      error
}

func (e *ModelError) Error() string {
	return e.Err.Error()
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError creates a new model error
func NewModelError(provider string, err error) *ModelError {
	return &ModelError{Provider: provider, Err: err}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
