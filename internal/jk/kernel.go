package jk

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas64"

	"github.com/born-ml/jk/internal/parallel"
	"github.com/born-ml/jk/internal/tensor"
)

// Contraction selects how g[i,j,:,:] is contracted against D for one
// result cell. The three entry points differ only in this descriptor.
type Contraction struct {
	// Triangular restricts the (k,l) sum to l <= k.
	Triangular bool
	// SymmetryFactor weighs off-diagonal (k,l) terms by 2, standing in for
	// the unread upper triangle of a symmetric D.
	SymmetryFactor bool
	// Flat computes the full (k,l) sum as one length n*n dot product
	// between the flattened D and the g slice.
	Flat bool
}

// Predefined contractions.
var (
	Coulomb  = Contraction{Triangular: true, SymmetryFactor: true}
	Exchange = Contraction{}
	FlatDot  = Contraction{Flat: true}
)

// String returns a short description of the descriptor.
func (c Contraction) String() string {
	switch c {
	case Coulomb:
		return "coulomb"
	case Exchange:
		return "exchange"
	case FlatDot:
		return "flat"
	default:
		return fmt.Sprintf("contraction{triangular=%t factor=%t flat=%t}", c.Triangular, c.SymmetryFactor, c.Flat)
	}
}

// Validate rejects descriptors whose meaning would depend on the layout of
// g. Flat is a full unweighted sum and cannot be combined with Triangular or
// SymmetryFactor; SymmetryFactor only applies to a triangular sum.
func (c Contraction) Validate() error {
	if c.Flat && (c.Triangular || c.SymmetryFactor) {
		return fmt.Errorf("%w: %v: flat excludes triangular and symmetry factor", ErrInvalidContraction, c)
	}
	if c.SymmetryFactor && !c.Triangular {
		return fmt.Errorf("%w: %v: symmetry factor requires triangular", ErrInvalidContraction, c)
	}
	return nil
}

// validate checks ranks and axis lengths before anything is allocated.
// The g/D first-axis comparison is checked before the remaining axes so
// the most common caller mistake is reported first.
func validate(g, d *tensor.Dense) error {
	if g == nil || d == nil {
		return ErrNilTensor
	}
	if g.Rank() != 4 {
		return &ShapeError{Operand: "g", Want: 4, Got: g.Rank()}
	}
	if d.Rank() != 2 {
		return &ShapeError{Operand: "D", Want: 2, Got: d.Rank()}
	}
	n := g.Dim(0)
	if d.Dim(0) != n {
		return &DimensionMismatchError{Operand: "D", Axis: 0, Got: d.Dim(0), Want: n}
	}
	for axis := 1; axis < 4; axis++ {
		if g.Dim(axis) != n {
			return &DimensionMismatchError{Operand: "g", Axis: axis, Got: g.Dim(axis), Want: n}
		}
	}
	if d.Dim(1) != n {
		return &DimensionMismatchError{Operand: "D", Axis: 1, Got: d.Dim(1), Want: n}
	}
	return nil
}

// Contract applies c to every lower-triangle cell (i, j) and mirrors the
// value into (j, i). The result is a new contiguous n x n tensor.
//
// Each cell is reduced by a single goroutine, so results do not depend on
// how the (i, j) space is split across workers.
func Contract(g, d *tensor.Dense, c Contraction, opts ...Option) (*tensor.Dense, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := validate(g, d); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	n := g.Dim(0)
	dm := d.Contiguous().Values()

	out, err := tensor.New(tensor.Shape{n, n})
	if err != nil {
		return nil, err
	}
	res := out.Values()

	cell := c.cellFunc(g, dm, n)
	gOff, s1, s2 := g.Offset(), g.Stride(0), g.Stride(1)

	parallel.ForLowerTriangle(n, func(i, j int) {
		v := cell(gOff + i*s1 + j*s2)
		res[i*n+j] = v
		res[j*n+i] = v
	}, o.parallel)

	return out, nil
}

// cellFunc returns the per-cell reduction for a valid c. base is the
// position of g[i,j,0,0] in the backing slice. Flat descriptors whose g slice
// is not a uniform run use the full strided loop.
func (c Contraction) cellFunc(g *tensor.Dense, dm []float64, n int) func(base int) float64 {
	gd := g.Data()
	s3, s4 := g.Stride(2), g.Stride(3)

	switch {
	case c.Flat && s4 > 0 && s3 == n*s4:
		// g[i,j,:,:] is one uniformly strided run of n*n elements.
		dv := blas64.Vector{N: n * n, Inc: 1, Data: dm}
		return func(base int) float64 {
			gv := blas64.Vector{N: n * n, Inc: s4, Data: gd[base:]}
			return blas64.Dot(dv, gv)
		}
	case c.Triangular:
		return func(base int) float64 {
			var val float64
			for k := 0; k < n; k++ {
				for l := 0; l <= k; l++ {
					fac := 1.0
					if c.SymmetryFactor && k != l {
						fac = 2.0
					}
					val += fac * gd[base+k*s3+l*s4] * dm[k*n+l]
				}
			}
			return val
		}
	default:
		return func(base int) float64 {
			var val float64
			for k := 0; k < n; k++ {
				for l := 0; l < n; l++ {
					val += gd[base+k*s3+l*s4] * dm[k*n+l]
				}
			}
			return val
		}
	}
}
