package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a requested note or session does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a request does not fit the current state, such as
	// moving a note that is in the trash.
	ErrConflict = errors.New("conflict")
	// ErrSearchUnavailable is returned when the search worker cannot serve a request.
	// Note CRUD keeps working while search is unavailable.
	ErrSearchUnavailable = errors.New("search unavailable")
)

// ValidationError reports a rejected field value. It matches ErrInvalidInput with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func invalidField(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// WrapError wraps an error with additional context. A nil error stays nil.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
