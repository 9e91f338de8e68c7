package starttree

import (
	"fmt"
	"math"
)

// njEngine implements Neighbour-Joining (Saitou, Nei [1987]): at every
// step, merge the pair minimizing the Q-criterion
// Q(r,c) = D[r][c] - T[r] - T[c], where T is the row total scaled by
// 1/(n-2).
type njEngine struct {
	base
	scale float64 // 1/(n-2), refreshed by every row-minimum search
}

func newNJEngine(b base) *njEngine {
	return &njEngine{base: b}
}

// scaledTotal is T[r] = rowTotal[r] * scale.
func (e *njEngine) scaledTotal(r int) float64 {
	return e.D.rowTotals[r] * e.scale
}

// setScale refreshes scale to 1/(n-2) for a matrix of the given size.
// Exposed so the bounding engine can share NJ's Q-criterion scale
// without duplicating row-minimum logic.
func (e *njEngine) setScale(n int) { e.scale = 1 / float64(n-2) }

func (e *njEngine) rowMinima() ([]position, error) {
	n := e.D.size()
	if n <= 2 {
		return nil, fmt.Errorf("%w: njEngine.rowMinima: need more than 2 rows, got %d", ErrInvariantViolation, n)
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

// merge implements bionj2.cpp NJMatrix<T>::cluster: branch lengths split
// the pre-merge distance with a "fudge" term from the scaled row totals,
// and the new row's entries are updated incrementally (no whole-row
// resummation) via U[i] += Dci - Dai - Dbi.
func (e *njEngine) merge(a, b int) error {
	D := e.D
	n := D.size()
	rowA, rowB := D.row(a), D.row(b)
	dab := rowA[b]

	medianLength := 0.5 * dab
	fudge := (D.rowTotals[a] - D.rowTotals[b]) * 0.5 * e.scale
	aLength := medianLength + fudge
	bLength := medianLength - fudge
	dCorrection := -medianLength

	if math.IsNaN(aLength) || math.IsNaN(bLength) {
		return fmt.Errorf("%w: NJ merge(%d,%d): non-finite branch length", ErrInvariantViolation, a, b)
	}

	clusterA := e.rowToCluster[a]
	clusterB := e.rowToCluster[b]

	newTotalA := D.rowTotals[a]
	for i := 0; i < n; i++ {
		if i == a || i == b {
			continue
		}
		dai, dbi := rowA[i], rowB[i]
		dci := 0.5*(dai+dbi) + dCorrection
		delta := dci - dai - dbi
		D.rowTotals[i] += delta
		newTotalA += delta
		rowA[i] = dci
		D.row(i)[a] = dci
	}
	newTotalA -= dab
	D.rowTotals[a] = newTotalA

	newCluster := e.tree.AddInternal(clusterA, aLength, clusterB, bLength)
	e.rowToCluster[a] = newCluster
	e.rowToCluster[b] = e.rowToCluster[n-1]
	return D.removeRowAndColumn(b)
}

// finish appends the 3-leaf terminal close using the classic NJ formula
// for the three pendant edge lengths off the single internal node.
func (e *njEngine) finish() error {
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
	return D.setSize(0, e.cfg.Workers)
}
