package starttree

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// bionjEngine implements BIONJ (Gascuel, Cong [2009]): a variance-aware
// variant of NJ that tracks an auxiliary variance matrix V alongside D
// and chooses the merge weight λ from it instead of fixing λ=0.5.
type bionjEngine struct {
	base
	V     *Matrix
	scale float64
}

// newBIONJEngine wraps b with a variance matrix cloned from the
// starting distance matrix, per bionj2.cpp's BIONJMatrix constructor
// (variance of a raw distance observation is taken to equal the
// distance itself, absent a better prior).
func newBIONJEngine(b base) (*bionjEngine, error) {
	e := &bionjEngine{base: b}
	e.V = &Matrix{}
	if err := e.V.assign(b.D); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *bionjEngine) scaledTotal(r int) float64 {
	return e.D.rowTotals[r] * e.scale
}

// setScale refreshes scale to 1/(n-2) for a matrix of the given size,
// mirroring njEngine.setScale for the bounding engine's benefit.
func (e *bionjEngine) setScale(n int) { e.scale = 1 / float64(n-2) }

func (e *bionjEngine) rowMinima() ([]position, error) {
	n := e.D.size()
	if n <= 2 {
		return nil, fmt.Errorf("%w: bionjEngine.rowMinima: need more than 2 rows, got %d", ErrInvariantViolation, n)
	}
	e.scale = 1 / float64(n-2)

	totals := make([]float64, n)
	for r := 0; r < n; r++ {
		totals[r] = e.scaledTotal(r)
	}

	minima := make([]position, n)
	minima[0] = newPosition(0, 0, infiniteDistance)

	err := parallelRows(1, n, e.cfg.Workers, func(start, end int) error {
		for row := start; row < end; row++ {
			d := e.D.row(row)
			bestCol := 0
			bestQ := infiniteDistance
			tr := totals[row]
			for col := 0; col < row; col++ {
				q := d[col] - tr - totals[col]
				if q < bestQ {
					bestQ = q
					bestCol = col
				}
			}
			minima[row] = newPosition(row, bestCol, bestQ)
		}
		return nil
	})
	return minima, err
}

// chooseLambda implements bionj2.cpp BIONJMatrix<T>::chooseLambda:
// λ=0.5 when the pair's variance is zero (no information to weight by),
// otherwise a variance-balancing estimate clamped into [0,1].
func (e *bionjEngine) chooseLambda(a, b int) float64 {
	vab := e.V.row(a)[b]
	if vab == 0 {
		return 0.5
	}
	n := e.D.size()
	vRowA, vRowB := e.V.row(a), e.V.row(b)
	var sum float64
	for i := 0; i < n; i++ {
		if i == a || i == b {
			continue
		}
		sum += vRowB[i] - vRowA[i]
	}
	lambda := 0.5 + sum/(2*float64(n-2)*vab)
	switch {
	case lambda < 0:
		e.cfg.Logger.Debug("bionj: lambda clamped", "raw", lambda, "clamped", 0.0, "a", a, "b", b)
		return 0
	case lambda > 1:
		e.cfg.Logger.Debug("bionj: lambda clamped", "raw", lambda, "clamped", 1.0, "a", a, "b", b)
		return 1
	default:
		return lambda
	}
}

// merge follows bionj2.cpp BIONJMatrix<T>::cluster: branch lengths are
// the same as NJ's, but both the distance-matrix update and the variance
// update are λ-weighted (λ from chooseLambda, μ = 1-λ) instead of using
// NJ's fixed 0.5. Row a's distance total is then recomputed by direct
// summation rather than incrementally.
func (e *bionjEngine) merge(a, b int) error {
	D, V := e.D, e.V
	n := D.size()
	rowA, rowB := D.row(a), D.row(b)
	dab := rowA[b]

	medianLength := 0.5 * dab
	fudge := (D.rowTotals[a] - D.rowTotals[b]) * 0.5 * e.scale
	aLength := medianLength + fudge
	bLength := medianLength - fudge

	if math.IsNaN(aLength) || math.IsNaN(bLength) {
		return fmt.Errorf("%w: BIONJ merge(%d,%d): non-finite branch length", ErrInvariantViolation, a, b)
	}

	lambda := e.chooseLambda(a, b)
	if math.IsNaN(lambda) {
		return fmt.Errorf("%w: BIONJ merge(%d,%d): non-finite lambda", ErrInvariantViolation, a, b)
	}
	mu := 1 - lambda
	dCorrection := -lambda*aLength - mu*bLength
	vRowA, vRowB := V.row(a), V.row(b)
	vCorrection := -lambda * mu * vRowA[b]

	clusterA := e.rowToCluster[a]
	clusterB := e.rowToCluster[b]

	for i := 0; i < n; i++ {
		if i == a || i == b {
			continue
		}
		dai, dbi := rowA[i], rowB[i]
		dci := lambda*dai + mu*dbi + dCorrection
		D.rowTotals[i] += dci - dai - dbi
		rowA[i] = dci
		D.row(i)[a] = dci

		vai, vbi := vRowA[i], vRowB[i]
		vci := lambda*vai + mu*vbi + vCorrection
		vRowA[i] = vci
		V.row(i)[a] = vci
	}
	D.rowTotals[a] = floats.Sum(rowA[:a]) + floats.Sum(rowA[a+1:b]) + floats.Sum(rowA[b+1:n])

	newCluster := e.tree.AddInternal(clusterA, aLength, clusterB, bLength)
	e.rowToCluster[a] = newCluster
	e.rowToCluster[b] = e.rowToCluster[n-1]

	if err := V.removeRowAndColumn(b); err != nil {
		return err
	}
	return D.removeRowAndColumn(b)
}

// finish appends the 3-leaf terminal close, identical in form to NJ's:
// at n==3 BIONJ's variance bookkeeping no longer matters.
func (e *bionjEngine) finish() error {
	D := e.D
	d01, d02, d12 := D.row(0)[1], D.row(0)[2], D.row(1)[2]
	half01, half02, half12 := 0.5*d01, 0.5*d02, 0.5*d12

	lenA, lenB, lenC := half01+half02-half12, half01+half12-half02, half02+half12-half01
	if err := checkFiniteLengths(lenA, lenB, lenC); err != nil {
		return err
	}
	e.tree.AddInternal3(
		e.rowToCluster[0], lenA,
		e.rowToCluster[1], lenB,
		e.rowToCluster[2], lenC,
	)
	if err := e.V.setSize(0, e.cfg.Workers); err != nil {
		return err
	}
	return D.setSize(0, e.cfg.Workers)
}
