package auth

import "fmt"

// ValidationError reports a domain validation failure on a single
// credential field. Form handlers recover it locally and surface it as a
// field-level message; it never crosses the dispatcher boundary.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
