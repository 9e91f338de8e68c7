package starttree

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// parallelRows splits the half-open range [lo, n) into contiguous
// row-ranges and runs fn over each range concurrently, using up to
// workers goroutines. Ranges never overlap, so fn may write to
// non-overlapping row-indexed slices without additional synchronization.
//
// workers <= 1 (or a range of fewer than 2 rows) runs fn sequentially,
// inline, with no goroutines at all.
//
// If any fn call returns a non-nil error, parallelRows returns the first
// error observed; the other ranges are not cancelled and still run to
// completion.
func parallelRows(lo, n, workers int, fn func(start, end int) error) error {
	if n-lo <= 0 {
		return nil
	}
	if workers <= 1 || n-lo < 2 {
		return fn(lo, n)
	}

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(workers)

	rowsPerWorker := (n - lo + workers - 1) / workers
	for start := lo; start < n; start += rowsPerWorker {
		start, end := start, start+rowsPerWorker
		if end > n {
			end = n
		}
		g.Go(func() error {
			return fn(start, end)
		})
	}

	return g.Wait()
}
