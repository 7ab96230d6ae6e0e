// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package jk computes Coulomb (J) and exchange (K) matrices for mean-field
// quantum chemistry from a dense two-electron tensor and a density matrix.
//
// # Overview
//
// Three entry points share one input contract: g is an (n, n, n, n) tensor
// with arbitrary strides and D is an (n, n) matrix.
//   - GetJ: lower-triangle (k, l) sum with off-diagonal factor 2
//   - GetK: full (k, l) sum
//   - GetJK: flattened dot product of D with g[i,j,:,:], no triangular factor
//
// Every result is a new contiguous, symmetric n x n tensor. Inputs are
// never modified.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/jk/jk"
//	    "github.com/born-ml/jk/tensor"
//	)
//
//	func main() {
//	    g, _ := tensor.FromSlice(eri, tensor.Shape{n, n, n, n})
//	    d, _ := tensor.FromSlice(density, tensor.Shape{n, n})
//
//	    j, err := jk.GetJ(g, d)
//	    k, err := jk.GetK(g, d, jk.WithParallel(jk.DefaultParallel()))
//	}
//
// # Errors
//
// Validation runs before any allocation. Rank errors match ErrShape and
// unwrap from *ShapeError; axis length errors match ErrDimensionMismatch
// and unwrap from *DimensionMismatchError.
package jk
