package model

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrDuplicateID is returned when a trade id is already active
var ErrDuplicateID = errors.New("duplicate trade id")

// DuplicateIDError wraps ErrDuplicateID with the offending id
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("trade %s is already active: %v", e.ID, ErrDuplicateID)
}

func (e *DuplicateIDError) Unwrap() error {
	return ErrDuplicateID
}

// ValidationError reports a malformed or missing event field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func quote(s string) string {
	return strconv.Quote(s)
}
