// Package apperrors defines the error kinds shared across the calculator,
// the formatter and the configuration loader.
package apperrors

import (
	"errors"
	"fmt"
)

// ErrInvalidInput indicates that a value handed to a calculation or formatter was rejected.
var ErrInvalidInput = errors.New("invalid input")

// ErrInvalidConfiguration indicates that the tax configuration breaks one of its invariants.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// InvalidInputError describes a rejected input value.
type InvalidInputError struct {
	Field  string
	Value  float64
	Reason string
}

// NewInvalidInput builds an InvalidInputError for the named field.
func NewInvalidInput(field string, value float64, reason string) *InvalidInputError {
	return &InvalidInputError{Field: field, Value: value, Reason: reason}
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Is reports whether target is ErrInvalidInput so callers can use errors.Is.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}
