package tensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func TestNew(t *testing.T) {
	d, err := New(Shape{2, 3})
	require.NoError(t, err)

	assert.Equal(t, Shape{2, 3}, d.Shape())
	assert.Equal(t, []int{3, 1}, d.Strides())
	assert.Equal(t, 6, d.NumElements())
	assert.True(t, d.IsContiguous())
	assert.Equal(t, make([]float64, 6), d.Values())
}

func TestNew_InvalidShape(t *testing.T) {
	_, err := New(Shape{2, 0})
	assert.ErrorIs(t, err, ErrInvalidShape)

	_, err = New(Shape{-1})
	assert.ErrorIs(t, err, ErrInvalidShape)
}

func TestShapeValidate_Overflow(t *testing.T) {
	huge := Shape{1 << 62, 4}
	assert.ErrorIs(t, huge.Validate(), ErrInvalidShape)

	_, err := Wrap(nil, huge)
	assert.ErrorIs(t, err, ErrInvalidShape)

	assert.NoError(t, Shape{1 << 30, 1 << 30}.Validate())
}

func TestFromSlice_Copies(t *testing.T) {
	src := []float64{1, 2, 3, 4}
	d, err := FromSlice(src, Shape{2, 2})
	require.NoError(t, err)

	src[0] = 100
	assert.Equal(t, 1.0, d.At(0, 0))
	assert.Equal(t, 3.0, d.At(1, 0))
}

func TestWrap_SharesStorage(t *testing.T) {
	src := []float64{1, 2, 3, 4}
	d, err := Wrap(src, Shape{2, 2})
	require.NoError(t, err)

	src[3] = 40
	assert.Equal(t, 40.0, d.At(1, 1))
}

func TestFromSlice_LengthMismatch(t *testing.T) {
	_, err := FromSlice([]float64{1, 2, 3}, Shape{2, 2})
	assert.ErrorIs(t, err, ErrDataLength)
}

func TestFromStrided(t *testing.T) {
	data := seq(12)

	t.Run("ColumnMajor", func(t *testing.T) {
		// 3x4 column-major over the same storage.
		d, err := FromStrided(data, Shape{3, 4}, []int{1, 3}, 0)
		require.NoError(t, err)
		assert.False(t, d.IsContiguous())
		assert.Equal(t, 7.0, d.At(1, 2))
	})

	t.Run("Offset", func(t *testing.T) {
		d, err := FromStrided(data, Shape{2, 2}, []int{4, 1}, 5)
		require.NoError(t, err)
		assert.Equal(t, []float64{5, 6, 9, 10}, d.Values())
	})

	t.Run("NegativeStride", func(t *testing.T) {
		d, err := FromStrided(data, Shape{3}, []int{-2}, 4)
		require.NoError(t, err)
		assert.Equal(t, []float64{4, 2, 0}, d.Values())
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		_, err := FromStrided(data, Shape{3, 4}, []int{4, 1}, 1)
		assert.ErrorIs(t, err, ErrOutOfRange)

		_, err = FromStrided(data, Shape{3}, []int{-5}, 4)
		assert.ErrorIs(t, err, ErrOutOfRange)
	})

	t.Run("Overflow", func(t *testing.T) {
		_, err := FromStrided([]float64{1}, Shape{5, 5, 5, 5}, []int{1 << 62, 0, 0, 0}, 0)
		assert.ErrorIs(t, err, ErrOutOfRange)

		_, err = FromStrided(data, Shape{3}, []int{math.MinInt}, 0)
		assert.ErrorIs(t, err, ErrOutOfRange)

		_, err = FromStrided(data, Shape{2}, []int{1}, math.MaxInt)
		assert.ErrorIs(t, err, ErrOutOfRange)
	})

	t.Run("StrideCount", func(t *testing.T) {
		_, err := FromStrided(data, Shape{3, 4}, []int{4}, 0)
		assert.ErrorIs(t, err, ErrInvalidStride)
	})
}

func TestFromByteStrides(t *testing.T) {
	data := seq(6)

	d, err := FromByteStrides(data, Shape{3, 2}, []int{8, 24}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, d.Strides())
	assert.Equal(t, []float64{0, 3, 1, 4, 2, 5}, d.Values())

	_, err = FromByteStrides(data, Shape{3, 2}, []int{12, 8}, 0)
	assert.ErrorIs(t, err, ErrInvalidStride)

	_, err = FromByteStrides(data, Shape{2}, []int{8}, 4)
	assert.ErrorIs(t, err, ErrInvalidStride)
}

func TestIndexOutOfRange(t *testing.T) {
	d, err := New(Shape{2, 2})
	require.NoError(t, err)

	_, err = d.Index(2, 0)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = d.Index(0)
	assert.ErrorIs(t, err, ErrOutOfRange)

	assert.Panics(t, func() { d.At(0, 5) })
}

func TestSet_VisibleThroughViews(t *testing.T) {
	d, err := New(Shape{2, 3})
	require.NoError(t, err)
	tr, err := d.Transpose(0, 1)
	require.NoError(t, err)

	d.Set(7, 1, 2)
	assert.Equal(t, 7.0, tr.At(2, 1))
}

func TestPermute(t *testing.T) {
	d, err := FromSlice(seq(24), Shape{2, 3, 4})
	require.NoError(t, err)

	p, err := d.Permute(2, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, Shape{4, 2, 3}, p.Shape())
	assert.Equal(t, []int{1, 12, 4}, p.Strides())
	assert.False(t, p.IsContiguous())

	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 4; k++ {
				assert.Equal(t, d.At(i, j, k), p.At(k, i, j))
			}
		}
	}

	_, err = d.Permute(0, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidShape)
	_, err = d.Permute(0, 1)
	assert.ErrorIs(t, err, ErrInvalidShape)
}

func TestTranspose_Invalid(t *testing.T) {
	d, err := New(Shape{2, 2})
	require.NoError(t, err)

	_, err = d.Transpose(0, 2)
	assert.ErrorIs(t, err, ErrInvalidShape)
}

func TestNarrow(t *testing.T) {
	d, err := FromSlice(seq(12), Shape{3, 4})
	require.NoError(t, err)

	n, err := d.Narrow(1, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, Shape{3, 2}, n.Shape())
	assert.Equal(t, []float64{1, 2, 5, 6, 9, 10}, n.Values())

	_, err = d.Narrow(0, 2, 2)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestContiguous(t *testing.T) {
	d, err := FromSlice(seq(6), Shape{2, 3})
	require.NoError(t, err)

	assert.Same(t, d, d.Contiguous())

	tr, err := d.Transpose(0, 1)
	require.NoError(t, err)
	c := tr.Contiguous()
	assert.NotSame(t, tr, c)
	assert.True(t, c.IsContiguous())
	assert.Equal(t, []float64{0, 3, 1, 4, 2, 5}, c.Values())

	// The copy is detached from the source.
	c.Set(-1, 0, 0)
	assert.Equal(t, 0.0, d.At(0, 0))
}

func TestClone_ContiguousView(t *testing.T) {
	d, err := FromSlice(seq(12), Shape{3, 4})
	require.NoError(t, err)
	row, err := d.Narrow(0, 1, 1)
	require.NoError(t, err)

	c := row.Clone()
	assert.Equal(t, 0, c.Offset())
	assert.Equal(t, []float64{4, 5, 6, 7}, c.Values())
}

func TestShapeString(t *testing.T) {
	assert.Equal(t, "(2, 3, 4)", Shape{2, 3, 4}.String())
	assert.Equal(t, "()", Shape{}.String())
}
