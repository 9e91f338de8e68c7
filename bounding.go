package starttree

import (
	"fmt"
	"math"
	"sort"
	"sync/atomic"
)

// qCriterionEngine is implemented by njEngine and bionjEngine: the part
// of the engine interface the bounding engine needs direct access to,
// to compute Q(row,col) = D[row][col] - scaledTotal(row) - scaledTotal(col)
// itself instead of delegating the whole row scan.
type qCriterionEngine interface {
	engine
	scaledTotal(row int) float64
	setScale(n int)
}

// boundingEngine wraps an NJ or BIONJ engine and replaces its O(n) linear
// row-minimum scan with the Rapid NJ/BIONJ branch-and-bound search: each
// row keeps a list of its entries sorted by distance (S/I), and a
// monotonically-tightening bound (qBest) lets most rows stop scanning
// after a handful of entries instead of all of them.
//
// Merges and the terminal close are unchanged from the wrapped engine;
// only row-minimum search differs.
type boundingEngine struct {
	base
	inner qCriterionEngine

	S      *Matrix // S.row(r) holds sorted (ascending) distances for row r
	I      [][]int // I[r][k] is the cluster id paired with S.row(r)[k]
	sCount []int   // live length of I[r] (and the valid prefix of S.row(r))

	clusterToRow        []int     // cluster id -> current row, or -1 if merged away
	clusterTotals       []float64 // cluster id -> unscaled row total
	scaledClusterTotals []float64 // cluster id -> scaled row total

	nAtLastPurge int // live row count the last time the bulk purge fired

	qBestBits atomic.Uint64
}

// newBoundingEngine builds the S/I auxiliary structures for every
// initial row of b.D and wraps inner.
func newBoundingEngine(b base, inner qCriterionEngine) (*boundingEngine, error) {
	n := b.D.size()
	S, err := newMatrix(n, b.cfg.Workers)
	if err != nil {
		return nil, err
	}

	maxClusters := 2*n + 1 // n leaves + n-3 merges + the 3-leaf close = 2n-2 ids, with headroom
	e := &boundingEngine{
		base:                b,
		inner:               inner,
		S:                   S,
		I:                   make([][]int, n),
		sCount:              make([]int, n),
		clusterToRow:        make([]int, maxClusters),
		clusterTotals:       make([]float64, maxClusters),
		scaledClusterTotals: make([]float64, maxClusters),
	}
	for i := range e.clusterToRow {
		e.clusterToRow[i] = -1
	}
	for r := 0; r < n; r++ {
		e.clusterToRow[b.rowToCluster[r]] = r
		e.I[r] = make([]int, n)
		e.sortRow(r)
	}
	e.nAtLastPurge = n
	return e, nil
}

// newRapidNJEngine is the "NJ-R" builder: branch-and-bound NJ.
func newRapidNJEngine(b base) (*boundingEngine, error) {
	return newBoundingEngine(b, newNJEngine(b))
}

// newRapidBIONJEngine is the "BIONJ-R" builder: branch-and-bound BIONJ.
func newRapidBIONJEngine(b base) (*boundingEngine, error) {
	inner, err := newBIONJEngine(b)
	if err != nil {
		return nil, err
	}
	return newBoundingEngine(b, inner)
}

// sortRow rebuilds row's sorted (distance, cluster) list from the live
// contents of D.row(row).
func (e *boundingEngine) sortRow(row int) {
	n := e.D.size()
	d := e.D.row(row)
	s := e.S.rawRow(row)
	idx := e.I[row]

	cnt := 0
	for col := 0; col < n; col++ {
		if col == row {
			continue
		}
		s[cnt] = d[col]
		idx[cnt] = e.rowToCluster[col]
		cnt++
	}
	mirroredHeapsort(s[:cnt], idx[:cnt], cnt)
	e.sCount[row] = cnt
}

// purgeRow drops entries whose cluster has since been merged away,
// compacting the surviving entries in place (order-preserving, so the
// result is still sorted).
func (e *boundingEngine) purgeRow(row int) {
	s := e.S.rawRow(row)
	idx := e.I[row]
	cnt := e.sCount[row]

	write := 0
	for read := 0; read < cnt; read++ {
		cluster := idx[read]
		if e.clusterToRow[cluster] < 0 {
			continue
		}
		if write != read {
			s[write] = s[read]
			idx[write] = idx[read]
		}
		write++
	}
	e.sCount[row] = write
}

func (e *boundingEngine) loadQBest() float64 {
	return math.Float64frombits(e.qBestBits.Load())
}

// lowerQBest atomically tightens the shared bound, tolerating the
// benign race of two rows both computing a slightly-better candidate
// concurrently: whichever write loses the compare-and-swap race simply
// retries against the other's value, which is never worse than its own.
func (e *boundingEngine) lowerQBest(v float64) {
	for {
		cur := e.qBestBits.Load()
		if v >= math.Float64frombits(cur) {
			return
		}
		if e.qBestBits.CompareAndSwap(cur, math.Float64bits(v)) {
			return
		}
	}
}

// decideRowScanningOrder picks the order rows are scanned in: rows whose
// cluster currently has a small scaled total are scanned first, since
// those are the ones most likely to quickly tighten qBest for everyone
// scanned after them.
func (e *boundingEngine) decideRowScanningOrder(n int) []int {
	order := make([]int, n-1)
	for r := 1; r < n; r++ {
		order[r-1] = r
	}
	sort.Slice(order, func(i, j int) bool {
		ri, rj := order[i], order[j]
		return e.scaledClusterTotals[e.rowToCluster[ri]] < e.scaledClusterTotals[e.rowToCluster[rj]]
	})
	return order
}

func (e *boundingEngine) rowMinima() ([]position, error) {
	n := e.D.size()
	if n <= 2 {
		return nil, fmt.Errorf("%w: boundingEngine.rowMinima: need more than 2 rows, got %d", ErrInvariantViolation, n)
	}
	e.inner.setScale(n)

	maxEarlierTotal := make([]float64, n)
	running := -infiniteDistance
	for r := 0; r < n; r++ {
		cluster := e.rowToCluster[r]
		e.clusterToRow[cluster] = r
		e.clusterTotals[cluster] = e.D.rowTotals[r]
		st := e.inner.scaledTotal(r)
		e.scaledClusterTotals[cluster] = st
		maxEarlierTotal[r] = running
		if st > running {
			running = st
		}
	}

	if e.cfg.EnablePeriodicPurge && n <= (2*e.nAtLastPurge)/3 {
		for r := 1; r < n; r++ {
			e.purgeRow(r)
		}
		e.nAtLastPurge = n
	}

	e.qBestBits.Store(math.Float64bits(infiniteDistance))
	order := e.decideRowScanningOrder(n)

	minima := make([]position, n)
	minima[0] = newPosition(0, 0, infiniteDistance)

	err := parallelRows(0, len(order), e.cfg.Workers, func(start, end int) error {
		for oi := start; oi < end; oi++ {
			row := order[oi]
			pos := e.getRowMinimum(row, maxEarlierTotal[row])
			minima[row] = pos
			e.lowerQBest(pos.value)
		}
		return nil
	})
	return minima, err
}

// getRowMinimum implements the branch-and-bound search: purge stale
// entries, then walk row's sorted list only as far as its distances
// stay under the current bound, since any entry past that point cannot
// beat qBest no matter which live cluster it names.
func (e *boundingEngine) getRowMinimum(row int, maxEarlier float64) position {
	e.purgeRow(row)

	rowTotal := e.inner.scaledTotal(row)
	bound := e.loadQBest() + maxEarlier + rowTotal

	s := e.S.rawRow(row)[:e.sCount[row]]
	idx := e.I[row]

	bestCol := -1
	bestQ := infiniteDistance
	for k := 0; k < len(s) && s[k] < bound; k++ {
		row2 := e.clusterToRow[idx[k]]
		if row2 < 0 || row2 >= row {
			continue
		}
		q := s[k] - rowTotal - e.inner.scaledTotal(row2)
		if q < bestQ {
			bestQ = q
			bestCol = row2
		}
	}
	if bestCol < 0 {
		bestCol, bestQ = e.fullRowScan(row, rowTotal)
	}
	return newPosition(row, bestCol, bestQ)
}

// fullRowScan is the fallback when the sorted prefix under bound yields
// no live candidate at all (possible right after a purge thins a row
// down close to empty): an ordinary linear scan, same as the wrapped
// engine would do unbounded.
func (e *boundingEngine) fullRowScan(row int, rowTotal float64) (int, float64) {
	d := e.D.row(row)
	bestCol := 0
	bestQ := infiniteDistance
	for col := 0; col < row; col++ {
		q := d[col] - rowTotal - e.inner.scaledTotal(col)
		if q < bestQ {
			bestQ = q
			bestCol = col
		}
	}
	return bestCol, bestQ
}

func (e *boundingEngine) merge(a, b int) error {
	clusterA := e.rowToCluster[a]
	clusterB := e.rowToCluster[b]

	if err := e.inner.merge(a, b); err != nil {
		return err
	}

	e.clusterToRow[clusterA] = -1
	e.clusterToRow[clusterB] = -1
	newCluster := e.rowToCluster[a]
	e.clusterToRow[newCluster] = a

	last := e.S.size() - 1
	e.S.removeRowOnly(b)
	e.I[b] = e.I[last]
	e.I[last] = nil
	e.sCount[b] = e.sCount[last]

	e.sortRow(a)
	return nil
}

func (e *boundingEngine) finish() error {
	return e.inner.finish()
}
