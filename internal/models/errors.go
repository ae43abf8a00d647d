package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a player, ledger or bank account does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError marks user-correctable input problems: bad amounts, rates
// or terms, insufficient funds, insufficient credit score. Handlers report
// these as structured 400 responses and never retry them.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Invalid builds a ValidationError from a format string.
func Invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
