// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package jk

import (
	internaljk "github.com/born-ml/jk/internal/jk"
	"github.com/born-ml/jk/internal/parallel"
	"github.com/born-ml/jk/tensor"
)

// Option configures a contraction call.
type Option = internaljk.Option

// Op names one of the three entry points.
type Op = internaljk.Op

// Contraction describes how g[i,j,:,:] is reduced against D.
type Contraction = internaljk.Contraction

// ShapeError reports an operand with the wrong rank.
type ShapeError = internaljk.ShapeError

// DimensionMismatchError reports an axis whose length differs from n.
type DimensionMismatchError = internaljk.DimensionMismatchError

// ParallelConfig controls how result cells are split across goroutines.
type ParallelConfig = parallel.Config

// Supported operations.
const (
	OpJK = internaljk.OpJK
	OpJ  = internaljk.OpJ
	OpK  = internaljk.OpK
)

// Predefined contractions.
var (
	Coulomb  = internaljk.Coulomb
	Exchange = internaljk.Exchange
	FlatDot  = internaljk.FlatDot
)

// Errors returned by the kernels.
var (
	ErrShape             = internaljk.ErrShape
	ErrDimensionMismatch = internaljk.ErrDimensionMismatch
	ErrNilTensor         = internaljk.ErrNilTensor
	ErrUnknownOp         = internaljk.ErrUnknownOp

	ErrInvalidContraction = internaljk.ErrInvalidContraction
)

// WithParallel splits result cells across workers. Results are unchanged.
func WithParallel(cfg ParallelConfig) Option {
	return internaljk.WithParallel(cfg)
}

// DefaultParallel returns a parallel configuration sized to the CPU count.
func DefaultParallel() ParallelConfig {
	return parallel.DefaultConfig()
}

// GetJ computes J[i,j] = sum_{l<=k} f(k,l) g[i,j,k,l] D[k,l], f = 1 on the
// diagonal and 2 elsewhere.
func GetJ(g, d *tensor.Dense, opts ...Option) (*tensor.Dense, error) {
	return internaljk.GetJ(g, d, opts...)
}

// GetK computes K[i,j] = sum_{k,l} g[i,j,k,l] D[k,l].
func GetK(g, d *tensor.Dense, opts ...Option) (*tensor.Dense, error) {
	return internaljk.GetK(g, d, opts...)
}

// GetJK computes each cell as the flat dot product of D with g[i,j,:,:].
// No triangular factor is applied and a single matrix is returned.
func GetJK(g, d *tensor.Dense, opts ...Option) (*tensor.Dense, error) {
	return internaljk.GetJK(g, d, opts...)
}

// Contract evaluates an arbitrary contraction descriptor.
func Contract(g, d *tensor.Dense, c Contraction, opts ...Option) (*tensor.Dense, error) {
	return internaljk.Contract(g, d, c, opts...)
}

// Compute dispatches to the entry point named by op.
func Compute(op Op, g, d *tensor.Dense, opts ...Option) (*tensor.Dense, error) {
	return internaljk.Compute(op, g, d, opts...)
}

// ParseOp converts "jk", "j" or "k" (any case) into an Op.
func ParseOp(s string) (Op, error) {
	return internaljk.ParseOp(s)
}
