package serverutils

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("note not found")
	ErrDuplicateNote      = errors.New("duplicate note")
	ErrArchiveUnavailable = errors.New("notes archive is not available")
)

// ValidationError reports malformed client input. Message is safe to
// return to the client as-is.
type ValidationError struct {
	Field   string
	Rule    string
	Message string
}

func NewValidationError(field, rule, message string) *ValidationError {
	return &ValidationError{Field: field, Rule: rule, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StoreError wraps a persistence failure. Message is the generic text
// shown to the client, the cause is only logged.
type StoreError struct {
	Op      string
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// WrapStoreError turns a repository failure into a *StoreError. Domain
// errors (not found, duplicates, validation) pass through untouched.
func WrapStoreError(op, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicateNote) || errors.Is(err, ErrArchiveUnavailable) {
		return err
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return err
	}

	var se *StoreError
	if errors.As(err, &se) {
		return err
	}

	return &StoreError{Op: op, Message: message, Err: err}
}
