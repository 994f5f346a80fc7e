// Package errs defines the error taxonomy shared by the store, the services
// and the HTTP layer. Callers classify errors with errors.Is against the
// sentinels below; the handlers translate them into status codes.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
)

var (
	ErrTaskNotFound = fmt.Errorf("task %w", ErrNotFound)
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)

	ErrEmailRegistered = fmt.Errorf("email already registered: %w", ErrConflict)

	// ErrInvalidCredentials is returned for an unknown email and for a wrong
	// password alike.
	ErrInvalidCredentials = fmt.Errorf("incorrect email or password: %w", ErrUnauthorized)

	// ErrInvalidToken never says whether the signature, the structure or the
	// expiry was at fault.
	ErrInvalidToken = fmt.Errorf("invalid token: %w", ErrUnauthorized)
)

// ValidationError reports malformed or missing input. It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
