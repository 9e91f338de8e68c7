package starttree

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// upgmaEngine implements UPGMA (unweighted pair group method with
// arithmetic mean): at every step, merge the two clusters at minimum
// distance, weighting the new row by cluster size.
type upgmaEngine struct {
	base
}

// newUPGMAEngine wraps an already-loaded distance matrix, row→cluster
// map, and tree into a UPGMA engine.
func newUPGMAEngine(b base) *upgmaEngine {
	return &upgmaEngine{base: b}
}

func (e *upgmaEngine) rowMinima() ([]position, error) {
	n := e.D.size()
	minima := make([]position, n)
	minima[0] = newPosition(0, 0, infiniteDistance)

	err := parallelRows(1, n, e.cfg.Workers, func(start, end int) error {
		for row := start; row < end; row++ {
			prefix := e.D.row(row)[:row]
			col := floats.MinIdx(prefix)
			minima[row] = newPosition(row, col, prefix[col])
		}
		return nil
	})
	return minima, err
}

// merge implements spec §4.3's UPGMA merge rule: branch lengths are
// half the pre-merge distance; the new row is the cluster-size-weighted
// average of rows a and b.
func (e *upgmaEngine) merge(a, b int) error {
	D := e.D
	half := 0.5 * D.row(a)[b]
	if math.IsNaN(half) || math.IsInf(half, 0) {
		return fmt.Errorf("%w: UPGMA merge(%d,%d): non-finite branch length", ErrInvariantViolation, a, b)
	}

	clusterA := e.rowToCluster[a]
	clusterB := e.rowToCluster[b]
	countA := e.tree.records[clusterA].exteriorCount
	countB := e.tree.records[clusterB].exteriorCount
	lambda := float64(countA) / float64(countA+countB)
	mu := 1 - lambda

	n := D.size()
	rowA, rowB := D.row(a), D.row(b)
	for i := 0; i < n; i++ {
		if i == a || i == b {
			continue
		}
		dci := lambda*rowA[i] + mu*rowB[i]
		rowA[i] = dci
		D.row(i)[a] = dci
	}

	newCluster := e.tree.AddInternal(clusterA, half, clusterB, half)
	e.rowToCluster[a] = newCluster
	e.rowToCluster[b] = e.rowToCluster[n-1]
	return D.removeRowAndColumn(b)
}

// finish appends the 3-leaf terminal close. spec §4.3/§9: this emits a
// single unrooted 3-link node, the same shape NJ/BIONJ use for their
// 3-leaf close (with UPGMA's own cluster-size-weighted half-distances as
// the lengths), rather than the rooted bifurcating node a textbook
// description of UPGMA implies. That's deliberate, not a bug: it lets one ClusterTree
// emitter serve all three algorithms. Do not "fix" it.
func (e *upgmaEngine) finish() error {
	D := e.D
	var weights [3]float64
	var denominator float64
	for i := 0; i < 3; i++ {
		weights[i] = float64(e.tree.records[e.rowToCluster[i]].exteriorCount)
		denominator += weights[i]
	}
	for i := 0; i < 3; i++ {
		weights[i] /= 2 * denominator
	}

	d01, d02, d12 := D.row(0)[1], D.row(0)[2], D.row(1)[2]
	lenA := weights[1]*d01 + weights[2]*d02
	lenB := weights[0]*d01 + weights[2]*d12
	lenC := weights[0]*d02 + weights[1]*d12
	if err := checkFiniteLengths(lenA, lenB, lenC); err != nil {
		return err
	}
	e.tree.AddInternal3(
		e.rowToCluster[0], lenA,
		e.rowToCluster[1], lenB,
		e.rowToCluster[2], lenC,
	)
	return D.setSize(0, e.cfg.Workers)
}
