// Package tensor provides the strided float64 tensor used by the jk kernels.
package tensor

import (
	"fmt"
	"math"
)

// Float64Size is the byte size of one element.
const Float64Size = 8

// Strided is the layout view the contraction kernels are written against.
// Strides are expressed in elements, not bytes.
type Strided interface {
	Rank() int
	Dim(axis int) int
	Stride(axis int) int
}

// Dense is a float64 tensor over a shared backing slice.
//
// A Dense is described by its shape, a per-axis stride (in elements) and an
// offset into the backing slice, so transposes, permutations and slices are
// views that share storage with their parent. Element (i0, i1, ...) lives at
// data[offset + i0*stride[0] + i1*stride[1] + ...].
type Dense struct {
	data   []float64
	shape  Shape
	stride []int
	offset int
}

// New creates a zero-filled contiguous tensor.
func New(shape Shape) (*Dense, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return &Dense{
		data:   make([]float64, shape.NumElements()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
	}, nil
}

// FromSlice creates a contiguous row-major tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice(data []float64, shape Shape) (*Dense, error) {
	t, err := Wrap(data, shape)
	if err != nil {
		return nil, err
	}
	t.data = append([]float64(nil), data...)
	return t, nil
}

// Wrap creates a contiguous row-major tensor sharing data.
func Wrap(data []float64, shape Shape) (*Dense, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("%w: shape %v requires %d elements, but got %d",
			ErrDataLength, shape, shape.NumElements(), len(data))
	}
	return &Dense{
		data:   data,
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
	}, nil
}

// FromStrided creates a view over data with explicit element strides and
// offset. Strides may be zero or negative; every reachable element must lie
// inside data.
func FromStrided(data []float64, shape Shape, strides []int, offset int) (*Dense, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(strides) != len(shape) {
		return nil, fmt.Errorf("%w: %d strides for %d dimensions", ErrInvalidStride, len(strides), len(shape))
	}
	t := &Dense{
		data:   data,
		shape:  shape.Clone(),
		stride: append([]int(nil), strides...),
		offset: offset,
	}
	if err := t.checkBounds(); err != nil {
		return nil, err
	}
	return t, nil
}

// FromByteStrides is FromStrided for callers that describe layout in bytes,
// as buffer-protocol style hosts do. Byte strides and the byte offset must
// be multiples of Float64Size.
func FromByteStrides(data []float64, shape Shape, byteStrides []int, byteOffset int) (*Dense, error) {
	strides := make([]int, len(byteStrides))
	for i, bs := range byteStrides {
		if bs%Float64Size != 0 {
			return nil, fmt.Errorf("%w: byte stride %d on axis %d is not a multiple of %d",
				ErrInvalidStride, bs, i, Float64Size)
		}
		strides[i] = bs / Float64Size
	}
	if byteOffset%Float64Size != 0 {
		return nil, fmt.Errorf("%w: byte offset %d is not a multiple of %d", ErrInvalidStride, byteOffset, Float64Size)
	}
	return FromStrided(data, shape, strides, byteOffset/Float64Size)
}

// checkBounds verifies that the lowest and highest reachable element indices
// fall inside the backing slice. An axis whose extent alone exceeds the
// slice is rejected before its span is computed, so no product overflows.
func (t *Dense) checkBounds() error {
	size := len(t.data)
	if t.offset < 0 || t.offset >= size {
		return fmt.Errorf("%w: offset %d outside %d elements", ErrOutOfRange, t.offset, size)
	}
	lo, hi := t.offset, t.offset
	for i, dim := range t.shape {
		stride := t.stride[i]
		if dim == 1 || stride == 0 {
			continue
		}
		if stride == math.MinInt || dim-1 > size/abs(stride) {
			return fmt.Errorf("%w: axis %d with length %d and stride %d exceeds %d elements",
				ErrOutOfRange, i, dim, stride, size)
		}
		span := (dim - 1) * stride
		if span < 0 {
			lo += span
		} else {
			hi += span
		}
	}
	if lo < 0 || hi >= size {
		return fmt.Errorf("%w: layout shape=%v strides=%v offset=%d reaches [%d, %d] in %d elements",
			ErrOutOfRange, t.shape, t.stride, t.offset, lo, hi, size)
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Shape returns the tensor's shape.
func (t *Dense) Shape() Shape {
	return t.shape
}

// Strides returns the tensor's strides in elements.
func (t *Dense) Strides() []int {
	return t.stride
}

// Offset returns the element offset of index (0, ..., 0) in Data.
func (t *Dense) Offset() int {
	return t.offset
}

// Rank returns the number of dimensions.
func (t *Dense) Rank() int {
	return len(t.shape)
}

// Dim returns the length of axis.
func (t *Dense) Dim(axis int) int {
	return t.shape[axis]
}

// Stride returns the element stride of axis.
func (t *Dense) Stride(axis int) int {
	return t.stride[axis]
}

// NumElements returns the total number of elements.
func (t *Dense) NumElements() int {
	return t.shape.NumElements()
}

// Data returns the whole backing slice. Index it with Offset and Strides.
// WARNING: Direct access to underlying memory, shared with every view.
func (t *Dense) Data() []float64 {
	return t.data
}

// IsContiguous reports whether the tensor is laid out row-major without gaps.
func (t *Dense) IsContiguous() bool {
	want := t.shape.ComputeStrides()
	for i := range want {
		if t.shape[i] > 1 && t.stride[i] != want[i] {
			return false
		}
	}
	return true
}

// Index returns the position of an element in Data.
func (t *Dense) Index(idx ...int) (int, error) {
	if len(idx) != len(t.shape) {
		return 0, fmt.Errorf("%w: %d indices for rank %d", ErrOutOfRange, len(idx), len(t.shape))
	}
	pos := t.offset
	for i, v := range idx {
		if v < 0 || v >= t.shape[i] {
			return 0, fmt.Errorf("%w: index %d on axis %d with length %d", ErrOutOfRange, v, i, t.shape[i])
		}
		pos += v * t.stride[i]
	}
	return pos, nil
}

// At returns the element at idx. It panics if idx is out of range.
func (t *Dense) At(idx ...int) float64 {
	pos, err := t.Index(idx...)
	if err != nil {
		panic(err)
	}
	return t.data[pos]
}

// Set stores v at idx. It panics if idx is out of range.
// Views sharing the backing slice observe the change.
func (t *Dense) Set(v float64, idx ...int) {
	pos, err := t.Index(idx...)
	if err != nil {
		panic(err)
	}
	t.data[pos] = v
}

// Values returns the elements in row-major order. For contiguous tensors the
// returned slice shares storage with t; otherwise it is a fresh copy.
func (t *Dense) Values() []float64 {
	n := t.NumElements()
	if t.IsContiguous() {
		return t.data[t.offset : t.offset+n]
	}
	out := make([]float64, 0, n)
	t.walk(0, t.offset, func(pos int) {
		out = append(out, t.data[pos])
	})
	return out
}

// walk visits every element position in row-major order.
func (t *Dense) walk(axis, pos int, visit func(pos int)) {
	if axis == len(t.shape) {
		visit(pos)
		return
	}
	for i := 0; i < t.shape[axis]; i++ {
		t.walk(axis+1, pos+i*t.stride[axis], visit)
	}
}

// Contiguous returns t if it is already row-major contiguous, otherwise a
// materialized copy.
func (t *Dense) Contiguous() *Dense {
	if t.IsContiguous() {
		return t
	}
	return t.Clone()
}

// Clone returns a contiguous deep copy of t.
func (t *Dense) Clone() *Dense {
	var data []float64
	if t.IsContiguous() {
		data = append([]float64(nil), t.data[t.offset:t.offset+t.NumElements()]...)
	} else {
		data = t.Values()
	}
	return &Dense{
		data:   data,
		shape:  t.shape.Clone(),
		stride: t.shape.ComputeStrides(),
	}
}
