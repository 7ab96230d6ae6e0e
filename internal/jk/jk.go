// Package jk computes Coulomb (J) and exchange (K) matrices from a dense
// two-electron tensor g[p,q,r,s] and a symmetric density matrix D[r,s].
//
// All entry points share one input contract: g is (n, n, n, n) with
// arbitrary strides, D is (n, n). Inputs are never mutated and every call
// returns a freshly allocated, contiguous, symmetric n x n result.
package jk

import (
	"fmt"
	"strings"

	"github.com/born-ml/jk/internal/parallel"
	"github.com/born-ml/jk/internal/tensor"
)

// Option configures a contraction call.
type Option func(*options)

type options struct {
	parallel parallel.Config
}

func buildOptions(opts []Option) options {
	o := options{parallel: parallel.Sequential()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithParallel splits the (i, j) cells across workers as described by cfg.
// Results are bit-identical to sequential execution.
func WithParallel(cfg parallel.Config) Option {
	return func(o *options) {
		o.parallel = cfg
	}
}

// GetJ computes the Coulomb matrix
//
//	J[i,j] = sum_{l <= k} f(k,l) * g[i,j,k,l] * D[k,l],  f = 1 if k == l else 2
//
// reading only the lower triangle of D.
func GetJ(g, d *tensor.Dense, opts ...Option) (*tensor.Dense, error) {
	return Contract(g, d, Coulomb, opts...)
}

// GetK computes the exchange matrix
//
//	K[i,j] = sum_{k,l} g[i,j,k,l] * D[k,l]
//
// over the full (k, l) square.
func GetK(g, d *tensor.Dense, opts ...Option) (*tensor.Dense, error) {
	return Contract(g, d, Exchange, opts...)
}

// GetJK is the flattened fast path: each cell is the dot product of the
// whole D with the g[i,j,:,:] slice. It trusts D to carry whatever symmetry
// convention the caller wants and applies no triangular factor, so for a
// symmetric D it matches GetK rather than GetJ. Despite the name, only one
// matrix is returned.
func GetJK(g, d *tensor.Dense, opts ...Option) (*tensor.Dense, error) {
	return Contract(g, d, FlatDot, opts...)
}

// Op names one of the three entry points.
type Op string

// Supported operations.
const (
	OpJK Op = "jk"
	OpJ  Op = "j"
	OpK  Op = "k"
)

// Ops lists the supported operations.
func Ops() []Op {
	return []Op{OpJK, OpJ, OpK}
}

// ParseOp converts a case-insensitive name into an Op.
func ParseOp(s string) (Op, error) {
	op := Op(strings.ToLower(strings.TrimSpace(s)))
	switch op {
	case OpJK, OpJ, OpK:
		return op, nil
	default:
		return "", fmt.Errorf("%w: %q (want jk, j or k)", ErrUnknownOp, s)
	}
}

// Contraction returns the descriptor op evaluates.
func (op Op) Contraction() (Contraction, error) {
	switch op {
	case OpJK:
		return FlatDot, nil
	case OpJ:
		return Coulomb, nil
	case OpK:
		return Exchange, nil
	default:
		return Contraction{}, fmt.Errorf("%w: %q", ErrUnknownOp, string(op))
	}
}

// Compute dispatches to the entry point named by op.
func Compute(op Op, g, d *tensor.Dense, opts ...Option) (*tensor.Dense, error) {
	c, err := op.Contraction()
	if err != nil {
		return nil, err
	}
	return Contract(g, d, c, opts...)
}
