package tensor

import "errors"

// Construction and indexing errors. Callers match them with errors.Is.
var (
	ErrInvalidShape  = errors.New("tensor: invalid shape")
	ErrInvalidStride = errors.New("tensor: invalid stride")
	ErrOutOfRange    = errors.New("tensor: index out of range")
	ErrDataLength    = errors.New("tensor: data length does not match shape")
)
