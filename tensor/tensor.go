// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/jk/internal/tensor"
)

// Type aliases for public API

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Dense is a strided float64 tensor.
type Dense = tensor.Dense

// Strided is the layout abstraction: per-axis length and element stride.
type Strided = tensor.Strided

// Compile-time check that Dense implements Strided.
var _ Strided = (*Dense)(nil)

// Float64Size is the byte size of one element.
const Float64Size = tensor.Float64Size

// Errors returned by tensor construction and indexing.
var (
	ErrInvalidShape  = tensor.ErrInvalidShape
	ErrInvalidStride = tensor.ErrInvalidStride
	ErrOutOfRange    = tensor.ErrOutOfRange
	ErrDataLength    = tensor.ErrDataLength
)

// New creates a zero-filled contiguous tensor.
//
// Example:
//
//	d, err := tensor.New(tensor.Shape{n, n})
func New(shape Shape) (*Dense, error) {
	return tensor.New(shape)
}

// FromSlice creates a contiguous row-major tensor holding a copy of data.
func FromSlice(data []float64, shape Shape) (*Dense, error) {
	return tensor.FromSlice(data, shape)
}

// Wrap creates a contiguous row-major tensor sharing data.
func Wrap(data []float64, shape Shape) (*Dense, error) {
	return tensor.Wrap(data, shape)
}

// FromStrided creates a view over data with element strides and offset.
//
// Example:
//
//	// Column-major 3x4 matrix.
//	m, err := tensor.FromStrided(buf, tensor.Shape{3, 4}, []int{1, 3}, 0)
func FromStrided(data []float64, shape Shape, strides []int, offset int) (*Dense, error) {
	return tensor.FromStrided(data, shape, strides, offset)
}

// FromByteStrides creates a view from byte strides and a byte offset.
func FromByteStrides(data []float64, shape Shape, byteStrides []int, byteOffset int) (*Dense, error) {
	return tensor.FromByteStrides(data, shape, byteStrides, byteOffset)
}
