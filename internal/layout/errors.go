package layout

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownFieldType = errors.New("unknown field type")
	ErrAlreadyConfirmed = errors.New("field is already confirmed")
	ErrFieldNotFound    = errors.New("field not found")
	ErrNoFieldAtPoint   = errors.New("no field at point")
	ErrGestureActive    = errors.New("another gesture is active")
	ErrGestureReleased  = errors.New("gesture already released")
	ErrInvalidMode      = errors.New("operation not allowed in current mode")
)

// ValidationCode names the reason a field configuration was rejected
type ValidationCode string

const (
	EmptyName    ValidationCode = "EmptyName"
	EmptyOptions ValidationCode = "EmptyOptions"
)

// ValidationError is returned when a field cannot be confirmed. The field
// stays provisional and the persisted list is left untouched.
type ValidationError struct {
	Code    ValidationCode `json:"code"`
	FieldID int            `json:"field_id"`
}

func (e *ValidationError) Error() string {
	switch e.Code {
	case EmptyName:
		return "please enter a field name"
	case EmptyOptions:
		return "please enter at least one option for the dropdown"
	}
	return fmt.Sprintf("invalid field configuration: %s", e.Code)
}

// IsValidationCode reports whether err is a ValidationError with the given code
func IsValidationCode(err error, code ValidationCode) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.Code == code
}
