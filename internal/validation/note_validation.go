// Package validation holds the field rules for notes. Every function is
// pure: it only looks at its arguments.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"birthday-notes-be/internal/pkg/serverutils"

	"github.com/go-playground/validator/v10"
)

const (
	MessageMinLength   = 2
	MessageMaxLength   = 300
	SignatureMinLength = 2
	SignatureMaxLength = 50

	FieldMessage   = "message"
	FieldSignature = "signature"

	MessageFieldsRequired = "Message and signature are required."
	MessageNoUpdateFields = "No update fields provided."
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// NoteFields are the trimmed, accepted values for a new note.
type NoteFields struct {
	Message   string
	Signature string
}

// NoteUpdate holds the trimmed values that were supplied for an update.
// A nil field was not supplied (or was blank) and keeps its stored value.
type NoteUpdate struct {
	Message   *string
	Signature *string
}

// IsBlank reports whether s is empty or whitespace only.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func isBlankPtr(s *string) bool {
	return s == nil || IsBlank(*s)
}

func ValidateCreate(message, signature string) (NoteFields, error) {
	if IsBlank(message) || IsBlank(signature) {
		return NoteFields{}, serverutils.NewValidationError("", "required", MessageFieldsRequired)
	}

	fields := NoteFields{
		Message:   strings.TrimSpace(message),
		Signature: strings.TrimSpace(signature),
	}

	if err := ValidateMessage(fields.Message); err != nil {
		return NoteFields{}, err
	}
	if err := ValidateSignature(fields.Signature); err != nil {
		return NoteFields{}, err
	}

	return fields, nil
}

// RequireUpdateFields fails when neither field carries a value.
func RequireUpdateFields(message, signature *string) error {
	if isBlankPtr(message) && isBlankPtr(signature) {
		return serverutils.NewValidationError("", "required", MessageNoUpdateFields)
	}
	return nil
}

func ValidateUpdate(message, signature *string) (NoteUpdate, error) {
	if err := RequireUpdateFields(message, signature); err != nil {
		return NoteUpdate{}, err
	}

	var update NoteUpdate

	if !isBlankPtr(message) {
		trimmed := strings.TrimSpace(*message)
		if err := ValidateMessage(trimmed); err != nil {
			return NoteUpdate{}, err
		}
		update.Message = &trimmed
	}

	if !isBlankPtr(signature) {
		trimmed := strings.TrimSpace(*signature)
		if err := ValidateSignature(trimmed); err != nil {
			return NoteUpdate{}, err
		}
		update.Signature = &trimmed
	}

	return update, nil
}

// ValidateMessage checks an already trimmed message against its bounds.
func ValidateMessage(trimmed string) error {
	return checkLength(FieldMessage, trimmed, MessageMinLength, MessageMaxLength)
}

// ValidateSignature checks an already trimmed signature against its bounds.
func ValidateSignature(trimmed string) error {
	return checkLength(FieldSignature, trimmed, SignatureMinLength, SignatureMaxLength)
}

// checkLength counts runes, so multi-byte characters count once.
func checkLength(field, value string, min, max int) error {
	err := validate.Var(value, fmt.Sprintf("min=%d,max=%d", min, max))
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return err
	}

	label := fieldLabel(field)
	rule := fieldErrors[0].Tag()

	switch rule {
	case "min":
		return serverutils.NewValidationError(field, rule, fmt.Sprintf("%s must be at least %d characters long.", label, min))
	default:
		return serverutils.NewValidationError(field, rule, fmt.Sprintf("%s must not exceed %d characters.", label, max))
	}
}

func fieldLabel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + field[1:]
}
