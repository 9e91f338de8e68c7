package starttree

import (
	"fmt"
	"math"
)

// base holds the state shared by every clustering engine: the live
// distance matrix, the row→cluster mapping, and the cluster tree being
// built. UPGMA, NJ, and BIONJ embed it directly; the bounding and
// vectorized engines wrap an engine that embeds it.
type base struct {
	D            *Matrix
	rowToCluster []int
	tree         *ClusterTree
	cfg          Config
}

// engine is implemented by each clustering algorithm's core: the
// row-minimum search and the merge rule. constructTree (below) is the
// generic loop spec §2 describes UPGMA as owning and NJ/BIONJ as
// reusing — written once here instead of once per algorithm.
type engine interface {
	// rowMinima returns, for every row r in [1, n), the best (row,
	// column, value) found scanning columns [0, r); rowMinima()[0] is
	// unused filler. Parallel over rows; n <= 1 callers never call this.
	rowMinima() ([]position, error)

	// merge performs the distance/variance update for columns a < b,
	// appends the new internal cluster, rewires rowToCluster, and
	// shrinks the matrix (removeRowAndColumn on b). Returns
	// ErrInvariantViolation if a new branch length is NaN (UPGMA also
	// rejects an infinite one; BIONJ also rejects a NaN λ); the updated
	// distances themselves are not checked.
	merge(a, b int) error

	// finish appends the terminal 3-link cluster assuming exactly 3
	// live rows remain, and leaves the matrix at n==0.
	finish() error
}

// constructTree drives e to completion from its current state,
// handling the N<2 and N==2 boundary cases directly against b (which
// every engine's base is reachable through), then delegating to e's
// row-minimum search and merge rule until 3 rows remain, then calling
// e.finish().
func constructTree(b *base, e engine) error {
	n := b.D.size()
	switch {
	case n < 2:
		return fmt.Errorf("%w: constructTree: need at least 2 taxa, got %d", ErrInputMalformed, n)
	case n == 2:
		d := b.D.row(0)[1]
		half := 0.5 * d
		b.tree.AddInternal(b.rowToCluster[0], half, b.rowToCluster[1], half)
		return nil
	}

	for b.D.size() > 3 {
		minima, err := e.rowMinima()
		if err != nil {
			return err
		}
		best, err := globalMinimum(minima)
		if err != nil {
			return err
		}
		if err := e.merge(best.column, best.row); err != nil {
			return err
		}
	}
	return e.finish()
}

// checkFiniteLengths guards the terminal 3-leaf close: a NaN or
// infinite distance that never won a row-minimum comparison (NaN is
// never "less than" anything, so it can slip past every merge) would
// otherwise reach the output tree silently.
func checkFiniteLengths(a, b, c float64) error {
	if math.IsNaN(a) || math.IsInf(a, 0) ||
		math.IsNaN(b) || math.IsInf(b, 0) ||
		math.IsNaN(c) || math.IsInf(c, 0) {
		return fmt.Errorf("%w: finish: non-finite branch length in terminal 3-leaf close", ErrInvariantViolation)
	}
	return nil
}

// globalMinimum scans per-row minima (indices 1..len(minima)-1; index 0
// is unused filler) and returns the smallest, breaking ties by lower
// row then lower column — which falls out for free from scanning rows
// in ascending order with a strict less-than comparison.
func globalMinimum(minima []position) (position, error) {
	best := newPosition(0, 0, infiniteDistance)
	for r := 1; r < len(minima); r++ {
		if minima[r].less(best) {
			best = minima[r]
		}
	}
	if best.value >= infiniteDistance {
		return best, fmt.Errorf("%w: globalMinimum: no finite row minimum found among %d rows (NaN contamination?)", ErrInvariantViolation, len(minima))
	}
	return best, nil
}
