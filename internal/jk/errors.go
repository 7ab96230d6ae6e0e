package jk

import (
	"errors"
	"fmt"
)

// Common errors. Every validation failure matches one of these via errors.Is.
var (
	ErrShape              = errors.New("jk: shape error")
	ErrDimensionMismatch  = errors.New("jk: dimension mismatch")
	ErrNilTensor          = errors.New("jk: nil tensor")
	ErrUnknownOp          = errors.New("jk: unknown operation")
	ErrInvalidContraction = errors.New("jk: invalid contraction")
)

// ShapeError reports an operand whose rank is not the one the kernel expects.
type ShapeError struct {
	Operand string // "g" or "D"
	Want    int    // Expected rank
	Got     int    // Actual rank
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	switch e.Want {
	case 4:
		return fmt.Sprintf("jk: %s is not a four-tensor (rank %d)", e.Operand, e.Got)
	case 2:
		return fmt.Sprintf("jk: %s is not a matrix (rank %d)", e.Operand, e.Got)
	default:
		return fmt.Sprintf("jk: %s has rank %d, want %d", e.Operand, e.Got, e.Want)
	}
}

// Unwrap returns ErrShape.
func (e *ShapeError) Unwrap() error {
	return ErrShape
}

// DimensionMismatchError reports an axis whose length differs from the basis
// size n taken from g's first axis.
type DimensionMismatchError struct {
	Operand string // Operand holding the offending axis
	Axis    int    // Offending axis
	Got     int    // Length of that axis
	Want    int    // n, the length of g's first axis
}

// Error implements the error interface.
func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("jk: dimension mismatch: %s axis %d has length %d, g has %d basis functions",
		e.Operand, e.Axis, e.Got, e.Want)
}

// Unwrap returns ErrDimensionMismatch.
func (e *DimensionMismatchError) Unwrap() error {
	return ErrDimensionMismatch
}
