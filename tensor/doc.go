// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the strided float64 tensor consumed by the jk kernels.
//
// # Overview
//
// A Dense tensor is a shape, a per-axis stride (in elements) and an offset
// into a shared backing slice. Transposes and permutations are views, so
// a caller can hand the kernels a non-contiguous layout without copying.
//
// # Basic Usage
//
//	import "github.com/born-ml/jk/tensor"
//
//	func main() {
//	    g, _ := tensor.FromSlice(eri, tensor.Shape{n, n, n, n})
//	    d, _ := tensor.FromSlice(density, tensor.Shape{n, n})
//
//	    // Column-major buffer from a foreign host, described in bytes.
//	    h, _ := tensor.FromByteStrides(buf, tensor.Shape{n, n, n, n},
//	        []int{8, 8 * n, 8 * n * n, 8 * n * n * n}, 0)
//	}
//
// # Memory Management
//
// Wrap and FromStrided share the caller's slice; FromSlice, New and Clone
// allocate. Views never copy.
package tensor
