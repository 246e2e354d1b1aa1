// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package parallel splits per-row pixel work across goroutines.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// MinBand is the smallest number of rows handed to one goroutine. Smaller
// jobs run on the calling goroutine.
const MinBand = 64

// Rows calls fn for consecutive bands [y0, y1) covering [0, n). Bands run
// concurrently, at most GOMAXPROCS at a time, and must touch disjoint memory.
// Rows returns after every band is done.
func Rows(n int, fn func(y0, y1 int)) {
	RowsN(n, runtime.GOMAXPROCS(0), fn)
}

// RowsN is Rows with an explicit worker limit.
func RowsN(n, workers int, fn func(y0, y1 int)) {
	if n <= 0 {
		return
	}
	bands := min(workers, n/MinBand)
	if bands <= 1 {
		fn(0, n)
		return
	}

	var g errgroup.Group
	g.SetLimit(workers)
	size := (n + bands - 1) / bands
	for y0 := 0; y0 < n; y0 += size {
		y1 := min(y0+size, n)
		g.Go(func() error {
			fn(y0, y1)
			return nil
		})
	}
	_ = g.Wait()
}
