package tensor

import "fmt"

// Permute returns a view with axes reordered: axis i of the result is axis
// axes[i] of t. No data is copied.
//
// Example:
//
//	g, _ := tensor.New(tensor.Shape{n, n, n, n})
//	chem, _ := g.Permute(0, 2, 1, 3) // (pq|rs) -> <pr|qs> ordering
func (t *Dense) Permute(axes ...int) (*Dense, error) {
	if len(axes) != len(t.shape) {
		return nil, fmt.Errorf("%w: permute expects %d axes, got %d", ErrInvalidShape, len(t.shape), len(axes))
	}
	seen := make([]bool, len(axes))
	shape := make(Shape, len(axes))
	stride := make([]int, len(axes))
	for i, a := range axes {
		if a < 0 || a >= len(axes) || seen[a] {
			return nil, fmt.Errorf("%w: invalid permutation %v", ErrInvalidShape, axes)
		}
		seen[a] = true
		shape[i] = t.shape[a]
		stride[i] = t.stride[a]
	}
	return &Dense{data: t.data, shape: shape, stride: stride, offset: t.offset}, nil
}

// Transpose returns a view with axes a and b swapped.
func (t *Dense) Transpose(a, b int) (*Dense, error) {
	axes := make([]int, len(t.shape))
	for i := range axes {
		axes[i] = i
	}
	if a < 0 || a >= len(axes) || b < 0 || b >= len(axes) {
		return nil, fmt.Errorf("%w: transpose axes %d, %d for rank %d", ErrInvalidShape, a, b, len(axes))
	}
	axes[a], axes[b] = axes[b], axes[a]
	return t.Permute(axes...)
}

// Narrow returns a view of length elements along axis, starting at start.
func (t *Dense) Narrow(axis, start, length int) (*Dense, error) {
	if axis < 0 || axis >= len(t.shape) {
		return nil, fmt.Errorf("%w: axis %d for rank %d", ErrInvalidShape, axis, len(t.shape))
	}
	if start < 0 || length <= 0 || start+length > t.shape[axis] {
		return nil, fmt.Errorf("%w: narrow [%d, %d) on axis %d with length %d",
			ErrOutOfRange, start, start+length, axis, t.shape[axis])
	}
	shape := t.shape.Clone()
	shape[axis] = length
	return &Dense{
		data:   t.data,
		shape:  shape,
		stride: append([]int(nil), t.stride...),
		offset: t.offset + start*t.stride[axis],
	}, nil
}
