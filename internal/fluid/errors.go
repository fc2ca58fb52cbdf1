package fluid

import (
	"errors"
	"fmt"
)

// Domain errors for solver operations.
var (
	// ErrOutOfRange indicates a cell coordinate outside [0, N).
	ErrOutOfRange = errors.New("fluid: cell index out of range")

	// ErrParameterBounds indicates a construction parameter outside its valid range.
	ErrParameterBounds = errors.New("fluid: parameter out of valid bounds")

	// ErrUnstable indicates the fields contain NaN or Inf values.
	ErrUnstable = errors.New("fluid: field diverged (NaN or Inf detected)")
)

// RangeError reports the offending coordinate of a rejected impulse or query.
type RangeError struct {
	I, J int
	N    int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("fluid: cell (%d, %d) outside grid [0, %d)", e.I, e.J, e.N)
}

func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}
