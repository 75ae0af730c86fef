package store

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a message id does not exist (or no longer exists).
var ErrNotFound = errors.New("message not found")

// ValidationError reports a required field that is missing or blank.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return e.Field + " is required"
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// ValidateNew checks the fields of a message about to be created.
func ValidateNew(sender, text string) error {
	if blank(sender) {
		return &ValidationError{Field: "sender"}
	}
	return ValidateText(text)
}

// ValidateText checks the text of a create or update.
func ValidateText(text string) error {
	if blank(text) {
		return &ValidationError{Field: "text"}
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
