package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrInvalidHeader    = errors.New("safetensors: invalid header")
	ErrHeaderTooLarge   = errors.New("safetensors: header exceeds maximum size")
	ErrTensorNotFound   = errors.New("safetensors: tensor not found")
	ErrUnsupportedDType = errors.New("safetensors: unsupported dtype")
	ErrOutOfBounds      = errors.New("safetensors: tensor extends beyond data section")
	ErrOffsetOverlap    = errors.New("safetensors: tensor offsets overlap")
	ErrClosed           = errors.New("safetensors: file is closed")
)

// ValidationError provides detailed information about validation failures.
type ValidationError struct {
	Err     error  // Sentinel the failure matches
	Tensor  string // Primary tensor name involved
	Tensor2 string // Secondary tensor name (for overlap errors)
	Details string // Additional details
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Tensor2 != "" {
		return fmt.Sprintf("%v: tensors %q and %q: %s", e.Err, e.Tensor, e.Tensor2, e.Details)
	}
	if e.Tensor != "" {
		return fmt.Sprintf("%v: tensor %q: %s", e.Err, e.Tensor, e.Details)
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Details)
}

// Unwrap returns the sentinel error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
