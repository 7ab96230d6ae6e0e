// Package parallel provides parallel execution utilities for the jk kernels.
package parallel

import (
	"math"
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64, // Typical cache line aware chunk.
	}
}

// Sequential returns a Config that always runs on the calling goroutine.
func Sequential() Config {
	return Config{}
}

// WithWorkers returns DefaultConfig with the worker count overridden.
// workers <= 1 disables parallelism.
func WithWorkers(workers int) Config {
	cfg := DefaultConfig()
	cfg.NumWorkers = workers
	cfg.Enabled = workers > 1
	return cfg
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n < cfg.MinChunkSize {
		// Sequential fallback.
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize, 1)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForLowerTriangle executes f(i, j) once for every pair 0 <= j <= i < n.
//
// The n(n+1)/2 pairs are numbered row by row and split evenly across
// workers, so rows near the bottom of the triangle do not pile up on one
// goroutine. Sequential execution visits pairs in row-major order.
func ForLowerTriangle(n int, f func(i, j int), cfg Config) {
	if !cfg.Enabled || cfg.NumWorkers <= 1 {
		for i := 0; i < n; i++ {
			for j := 0; j <= i; j++ {
				f(i, j)
			}
		}
		return
	}
	For(TriangleSize(n), func(p int) {
		i, j := TrianglePair(p)
		f(i, j)
	}, cfg)
}

// TriangleSize returns the number of pairs 0 <= j <= i < n.
func TriangleSize(n int) int {
	return n * (n + 1) / 2
}

// TrianglePair maps a row-major pair number p back to (i, j), j <= i.
func TrianglePair(p int) (i, j int) {
	i = int((math.Sqrt(8*float64(p)+1) - 1) / 2)
	// Correct float rounding at row boundaries.
	for TriangleSize(i) > p {
		i--
	}
	for TriangleSize(i+1) <= p {
		i++
	}
	return i, p - TriangleSize(i)
}
