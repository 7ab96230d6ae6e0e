package jk

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/jk/internal/parallel"
	"github.com/born-ml/jk/internal/tensor"
)

const tolerance = 1e-12

// symmetricERI builds a random (n,n,n,n) tensor with the 8-fold
// permutational symmetry of real two-electron integrals.
func symmetricERI(t testing.TB, n int, seed int64) *tensor.Dense {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	g, err := tensor.New(tensor.Shape{n, n, n, n})
	require.NoError(t, err)
	for p := 0; p < n; p++ {
		for q := 0; q <= p; q++ {
			for r := 0; r < n; r++ {
				for s := 0; s <= r; s++ {
					if p*(p+1)/2+q < r*(r+1)/2+s {
						continue
					}
					v := rng.Float64()
					for _, idx := range [][4]int{
						{p, q, r, s}, {q, p, r, s}, {p, q, s, r}, {q, p, s, r},
						{r, s, p, q}, {s, r, p, q}, {r, s, q, p}, {s, r, q, p},
					} {
						g.Set(v, idx[0], idx[1], idx[2], idx[3])
					}
				}
			}
		}
	}
	return g
}

// symmetricDensity builds a random symmetric (n,n) matrix.
func symmetricDensity(t testing.TB, n int, seed int64) *tensor.Dense {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	d, err := tensor.New(tensor.Shape{n, n})
	require.NoError(t, err)
	for k := 0; k < n; k++ {
		for l := 0; l <= k; l++ {
			v := rng.Float64() - 0.5
			d.Set(v, k, l)
			d.Set(v, l, k)
		}
	}
	return d
}

func mustFromSlice(t testing.TB, data []float64, shape tensor.Shape) *tensor.Dense {
	t.Helper()
	d, err := tensor.FromSlice(data, shape)
	require.NoError(t, err)
	return d
}

// referenceK is the naive quadruple loop with no triangular restriction.
func referenceK(g, d *tensor.Dense) []float64 {
	n := g.Dim(0)
	out := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var val float64
			for k := 0; k < n; k++ {
				for l := 0; l < n; l++ {
					val += g.At(i, j, k, l) * d.At(k, l)
				}
			}
			out[i*n+j] = val
		}
	}
	return out
}

// referenceJ is the naive triangular loop with the off-diagonal factor 2.
func referenceJ(g, d *tensor.Dense) []float64 {
	n := g.Dim(0)
	out := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var val float64
			for k := 0; k < n; k++ {
				for l := 0; l <= k; l++ {
					fac := 2.0
					if k == l {
						fac = 1.0
					}
					val += fac * g.At(i, j, k, l) * d.At(k, l)
				}
			}
			out[i*n+j] = val
		}
	}
	return out
}

func assertSymmetric(t *testing.T, m *tensor.Dense) {
	t.Helper()
	n := m.Dim(0)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			assert.Equal(t, m.At(i, j), m.At(j, i), "result[%d,%d] != result[%d,%d]", i, j, j, i)
		}
	}
}

func TestSingleBasisFunction(t *testing.T) {
	g := mustFromSlice(t, []float64{2}, tensor.Shape{1, 1, 1, 1})
	d := mustFromSlice(t, []float64{3}, tensor.Shape{1, 1})

	for _, op := range Ops() {
		t.Run(string(op), func(t *testing.T) {
			m, err := Compute(op, g, d)
			require.NoError(t, err)
			assert.Equal(t, tensor.Shape{1, 1}, m.Shape())
			assert.Equal(t, []float64{6}, m.Values())
		})
	}
}

func TestAgainstReference(t *testing.T) {
	for _, n := range []int{2, 3, 5} {
		g := symmetricERI(t, n, int64(n))
		d := symmetricDensity(t, n, int64(100+n))

		t.Run("K", func(t *testing.T) {
			k, err := GetK(g, d)
			require.NoError(t, err)
			// Same summation order as the reference, so bit-for-bit.
			assert.Equal(t, referenceK(g, d), k.Values())
		})

		t.Run("J", func(t *testing.T) {
			j, err := GetJ(g, d)
			require.NoError(t, err)
			assert.Equal(t, referenceJ(g, d), j.Values())
		})

		t.Run("JK", func(t *testing.T) {
			jk, err := GetJK(g, d)
			require.NoError(t, err)
			assert.InDeltaSlice(t, referenceK(g, d), jk.Values(), tolerance)
		})
	}
}

func TestHandBuiltTwoBasis(t *testing.T) {
	// (00|00)=1, (11|11)=2, (00|11)=(11|00)=0.5, (01|01)-type entries 0.25,
	// (00|01)-type entries 0.1.
	g, err := tensor.New(tensor.Shape{2, 2, 2, 2})
	require.NoError(t, err)
	for p := 0; p < 2; p++ {
		for q := 0; q < 2; q++ {
			for r := 0; r < 2; r++ {
				for s := 0; s < 2; s++ {
					ones := p + q + r + s
					var v float64
					switch {
					case ones == 0:
						v = 1
					case ones == 4:
						v = 2
					case ones == 2 && p == q:
						v = 0.5
					case ones == 2:
						v = 0.25
					default:
						v = 0.1
					}
					g.Set(v, p, q, r, s)
				}
			}
		}
	}
	d := mustFromSlice(t, []float64{1, 0.5, 0.5, 2}, tensor.Shape{2, 2})

	k, err := GetK(g, d)
	require.NoError(t, err)
	j, err := GetJ(g, d)
	require.NoError(t, err)
	jk, err := GetJK(g, d)
	require.NoError(t, err)

	// K[0,0] = 1*1 + 0.1*0.5 + 0.1*0.5 + 0.5*2
	assert.InDelta(t, 2.1, k.At(0, 0), tolerance)
	// K[1,0] = 0.1*1 + 0.25*0.5 + 0.25*0.5 + 0.1*2
	assert.InDelta(t, 0.55, k.At(1, 0), tolerance)
	// K[1,1] = 0.5*1 + 0.1*0.5 + 0.1*0.5 + 2*2
	assert.InDelta(t, 4.6, k.At(1, 1), tolerance)

	// With symmetric g and D the triangular sum equals the full sum.
	assert.InDeltaSlice(t, k.Values(), j.Values(), tolerance)
	assert.InDeltaSlice(t, k.Values(), jk.Values(), tolerance)
}

func TestOutputsAreSymmetric(t *testing.T) {
	g := symmetricERI(t, 6, 7)
	d := symmetricDensity(t, 6, 8)

	for _, op := range Ops() {
		t.Run(string(op), func(t *testing.T) {
			m, err := Compute(op, g, d)
			require.NoError(t, err)
			assert.True(t, m.IsContiguous())
			assertSymmetric(t, m)
		})
	}
}

func TestJDiffersFromK(t *testing.T) {
	ones := make([]float64, 16)
	for i := range ones {
		ones[i] = 1
	}
	g := mustFromSlice(t, ones, tensor.Shape{2, 2, 2, 2})
	// Non-symmetric D: J reads only the lower triangle and doubles it.
	d := mustFromSlice(t, []float64{1, 2, 3, 4}, tensor.Shape{2, 2})

	j, err := GetJ(g, d)
	require.NoError(t, err)
	k, err := GetK(g, d)
	require.NoError(t, err)
	jk, err := GetJK(g, d)
	require.NoError(t, err)

	assert.Equal(t, []float64{11, 11, 11, 11}, j.Values())
	assert.Equal(t, []float64{10, 10, 10, 10}, k.Values())
	assert.NotEqual(t, j.Values(), k.Values())
	// The flat path applies no triangular factor.
	assert.InDeltaSlice(t, k.Values(), jk.Values(), tolerance)
}

func TestStridedInputMatchesContiguous(t *testing.T) {
	n := 4
	g := symmetricERI(t, n, 11)
	d := symmetricDensity(t, n, 12)

	// Same logical tensor stored in reversed axis order.
	reversed, err := g.Permute(3, 2, 1, 0)
	require.NoError(t, err)
	stored := reversed.Clone()
	view, err := stored.Permute(3, 2, 1, 0)
	require.NoError(t, err)
	require.False(t, view.IsContiguous())

	// Same logical tensor spread over every other element, so the flat
	// path runs with a non-unit increment.
	spread := make([]float64, 2*n*n*n*n)
	for i, v := range g.Values() {
		spread[2*i] = v
	}
	gapped, err := tensor.FromStrided(spread, tensor.Shape{n, n, n, n},
		[]int{2 * n * n * n, 2 * n * n, 2 * n, 2}, 0)
	require.NoError(t, err)

	// Same layout described in bytes.
	bytes, err := tensor.FromByteStrides(spread, tensor.Shape{n, n, n, n},
		[]int{16 * n * n * n, 16 * n * n, 16 * n, 16}, 0)
	require.NoError(t, err)

	for _, op := range Ops() {
		want, err := Compute(op, g, d)
		require.NoError(t, err)

		for name, in := range map[string]*tensor.Dense{
			"permuted": view,
			"gapped":   gapped,
			"bytes":    bytes,
		} {
			t.Run(string(op)+"/"+name, func(t *testing.T) {
				got, err := Compute(op, in, d)
				require.NoError(t, err)
				if op == OpJK {
					assert.InDeltaSlice(t, want.Values(), got.Values(), tolerance)
					return
				}
				assert.Equal(t, want.Values(), got.Values())
			})
		}
	}
}

func TestNonContiguousDensity(t *testing.T) {
	n := 3
	g := symmetricERI(t, n, 21)
	d := symmetricDensity(t, n, 22)
	dt, err := d.Transpose(0, 1)
	require.NoError(t, err)

	for _, op := range Ops() {
		want, err := Compute(op, g, d)
		require.NoError(t, err)
		got, err := Compute(op, g, dt)
		require.NoError(t, err)
		assert.Equal(t, want.Values(), got.Values(), string(op))
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	n := 9
	g := symmetricERI(t, n, 31)
	d := symmetricDensity(t, n, 32)
	cfg := parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}

	for _, op := range Ops() {
		seq, err := Compute(op, g, d)
		require.NoError(t, err)
		par, err := Compute(op, g, d, WithParallel(cfg))
		require.NoError(t, err)
		assert.Equal(t, seq.Values(), par.Values(), string(op))
	}
}

func TestInputsNotMutated(t *testing.T) {
	g := symmetricERI(t, 3, 41)
	d := symmetricDensity(t, 3, 42)
	gBefore := append([]float64(nil), g.Values()...)
	dBefore := append([]float64(nil), d.Values()...)

	for _, op := range Ops() {
		out, err := Compute(op, g, d)
		require.NoError(t, err)
		assert.NotSame(t, &g.Data()[0], &out.Data()[0])
	}

	assert.Equal(t, gBefore, g.Values())
	assert.Equal(t, dBefore, d.Values())
}

func TestValidation(t *testing.T) {
	g4, err := tensor.New(tensor.Shape{2, 2, 2, 2})
	require.NoError(t, err)
	g3, err := tensor.New(tensor.Shape{2, 2, 2})
	require.NoError(t, err)
	gRagged, err := tensor.New(tensor.Shape{2, 2, 3, 2})
	require.NoError(t, err)
	d2, err := tensor.New(tensor.Shape{2, 2})
	require.NoError(t, err)
	d3, err := tensor.New(tensor.Shape{3, 3})
	require.NoError(t, err)
	dRect, err := tensor.New(tensor.Shape{2, 3})
	require.NoError(t, err)
	dVec, err := tensor.New(tensor.Shape{2})
	require.NoError(t, err)

	tests := []struct {
		name    string
		g, d    *tensor.Dense
		target  error
		operand string
		axis    int
	}{
		{name: "g rank 3", g: g3, d: d2, target: ErrShape, operand: "g"},
		{name: "D rank 1", g: g4, d: dVec, target: ErrShape, operand: "D"},
		{name: "D rank 4", g: g4, d: g4, target: ErrShape, operand: "D"},
		{name: "leading mismatch", g: g4, d: d3, target: ErrDimensionMismatch, operand: "D", axis: 0},
		{name: "ragged g", g: gRagged, d: d2, target: ErrDimensionMismatch, operand: "g", axis: 2},
		{name: "rectangular D", g: g4, d: dRect, target: ErrDimensionMismatch, operand: "D", axis: 1},
		{name: "nil g", g: nil, d: d2, target: ErrNilTensor},
		{name: "nil D", g: g4, d: nil, target: ErrNilTensor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, op := range Ops() {
				out, err := Compute(op, tt.g, tt.d)
				require.Error(t, err)
				assert.Nil(t, out)
				assert.ErrorIs(t, err, tt.target)

				var shapeErr *ShapeError
				if errors.As(err, &shapeErr) {
					assert.Equal(t, tt.operand, shapeErr.Operand)
				}
				var dimErr *DimensionMismatchError
				if errors.As(err, &dimErr) {
					assert.Equal(t, tt.operand, dimErr.Operand)
					assert.Equal(t, tt.axis, dimErr.Axis)
				}
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.EqualError(t, &ShapeError{Operand: "g", Want: 4, Got: 3}, "jk: g is not a four-tensor (rank 3)")
	assert.EqualError(t, &ShapeError{Operand: "D", Want: 2, Got: 1}, "jk: D is not a matrix (rank 1)")
	assert.EqualError(t, &DimensionMismatchError{Operand: "D", Axis: 0, Got: 3, Want: 2},
		"jk: dimension mismatch: D axis 0 has length 3, g has 2 basis functions")
}

func TestParseOp(t *testing.T) {
	for in, want := range map[string]Op{"jk": OpJK, "J": OpJ, " k ": OpK} {
		op, err := ParseOp(in)
		require.NoError(t, err)
		assert.Equal(t, want, op)
	}

	_, err := ParseOp("coulomb")
	assert.ErrorIs(t, err, ErrUnknownOp)

	_, err = Compute(Op("x"), nil, nil)
	assert.ErrorIs(t, err, ErrUnknownOp)
}

func TestContractionString(t *testing.T) {
	assert.Equal(t, "coulomb", Coulomb.String())
	assert.Equal(t, "exchange", Exchange.String())
	assert.Equal(t, "flat", FlatDot.String())
	assert.Contains(t, Contraction{Triangular: true}.String(), "triangular=true")
}

func TestContract_InvalidDescriptor(t *testing.T) {
	n := 3
	g := symmetricERI(t, n, 31)
	d := symmetricDensity(t, n, 32)
	kl, err := g.Transpose(2, 3)
	require.NoError(t, err)
	require.False(t, kl.IsContiguous())

	descriptors := []Contraction{
		{Flat: true, Triangular: true},
		{Flat: true, SymmetryFactor: true},
		{Flat: true, Triangular: true, SymmetryFactor: true},
		{SymmetryFactor: true},
	}
	for _, c := range descriptors {
		t.Run(c.String(), func(t *testing.T) {
			for _, in := range []*tensor.Dense{g, kl} {
				_, err := Contract(in, d, c)
				assert.ErrorIs(t, err, ErrInvalidContraction)
			}
		})
	}
}

func TestContract_LayoutIndependent(t *testing.T) {
	n := 3
	g := symmetricERI(t, n, 41)
	d := symmetricDensity(t, n, 42)
	// g[i,j,k,l] == g[i,j,l,k], so the (k,l)-transposed view is the same
	// logical tensor with a different layout.
	kl, err := g.Transpose(2, 3)
	require.NoError(t, err)

	for _, c := range []Contraction{Coulomb, Exchange, FlatDot, {Triangular: true}} {
		t.Run(c.String(), func(t *testing.T) {
			want, err := Contract(g, d, c)
			require.NoError(t, err)
			got, err := Contract(kl, d, c)
			require.NoError(t, err)
			assert.InDeltaSlice(t, want.Values(), got.Values(), tolerance)
		})
	}
}

func BenchmarkContract(b *testing.B) {
	n := 16
	g := symmetricERI(b, n, 1)
	d := symmetricDensity(b, n, 2)

	for _, op := range Ops() {
		b.Run(string(op), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := Compute(op, g, d); err != nil {
					b.Fatal(err)
				}
			}
		})
		b.Run(string(op)+"/parallel", func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := Compute(op, g, d, WithParallel(parallel.DefaultConfig())); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
