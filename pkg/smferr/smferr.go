// Package smferr defines the error kinds shared by the SMF codec packages.
// Callers test for a kind with errors.Is and recover the offending field
// and value of a range violation with errors.As on *RangeError.
package smferr

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned when a field or length is outside its valid domain.
var ErrOutOfRange = errors.New("value out of range")

// ErrMalformedData is returned when encoded input cannot be decoded.
var ErrMalformedData = errors.New("malformed data")

// ErrInvalidState is returned when an operation's whole-object precondition fails.
var ErrInvalidState = errors.New("invalid state")

// ErrNullArgument is returned when a required collaborator is nil.
var ErrNullArgument = errors.New("required argument is nil")

// RangeError reports a value rejected by a field validator.
type RangeError struct {
	Field string
	Value int64
	Min   int64
	Max   int64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: %s %d not in [%d, %d]", ErrOutOfRange, e.Field, e.Value, e.Min, e.Max)
}

// Unwrap makes errors.Is(err, ErrOutOfRange) hold for every RangeError.
func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}

// CheckRange returns a *RangeError when v is outside [min, max].
func CheckRange(field string, v, min, max int64) error {
	if v < min || v > max {
		return &RangeError{Field: field, Value: v, Min: min, Max: max}
	}
	return nil
}

// Malformed wraps ErrMalformedData with a formatted reason.
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedData, fmt.Sprintf(format, args...))
}

// Null wraps ErrNullArgument with the name of the missing argument.
func Null(name string) error {
	return fmt.Errorf("%w: %s", ErrNullArgument, name)
}
