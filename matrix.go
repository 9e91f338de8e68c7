package starttree

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// matrixAlignment is the row-start byte boundary the reference
// implementation aligns to so that vectorized row scans stay on
// cache-line boundaries. Go's allocator gives no alignment guarantee
// for an arbitrary byte boundary, so rows here are padded to a multiple
// of matrixAlignment/8 float64 lanes instead: the row-pointer
// indirection and O(1) removeRowAndColumn/removeRowOnly contract from
// spec §4.1 hold regardless of the underlying buffer's true alignment.
const matrixAlignment = 64

// Matrix is a dense, square (or, for the S/I auxiliary matrices,
// rectangular-but-square-capacity) 2-D array of float64 with row-pointer
// indirection: rows[r] points at the start of row r within one
// contiguous backing buffer. Supports O(1) row swap and "remove
// row/column by swap-with-last" shrinkage (spec §3/§4.1).
type Matrix struct {
	n         int
	width     int // allocated columns per row, >= n, padded for alignment
	data      []float64
	rows      [][]float64
	rowTotals []float64
	workers   int
}

// newMatrix allocates a Matrix of the given rank. workers controls the
// degree of parallelism used by calculateRowTotals and
// removeRowAndColumn; 0 or 1 runs sequentially.
func newMatrix(rank, workers int) (*Matrix, error) {
	m := &Matrix{}
	if err := m.setSize(rank, workers); err != nil {
		return nil, err
	}
	return m, nil
}

// setSize (re)allocates the matrix to the given rank, clearing any
// previous contents. Returns ErrOutOfMemory (wrapped) on allocation
// failure, leaving the matrix cleared, per spec §4.1's failure contract.
// Go's allocator panics rather than returning an error on exhaustion,
// so this can only practically fail via an invalid (negative) rank; the
// error return exists so callers have a single contract to check.
func (m *Matrix) setSize(rank, workers int) error {
	m.clear()
	if rank < 0 {
		return fmt.Errorf("%w: Matrix.setSize: negative rank %d", ErrOutOfMemory, rank)
	}
	if workers < 1 {
		workers = 1
	}
	m.workers = workers
	if rank == 0 {
		return nil
	}

	lane := matrixAlignment / 8 // float64 lanes per alignment boundary
	width := rank
	if leftover := width % lane; leftover != 0 {
		width += lane - leftover
	}

	m.n = rank
	m.width = width
	m.data = make([]float64, rank*width)
	m.rows = make([][]float64, rank)
	m.rowTotals = make([]float64, rank)
	for r := 0; r < rank; r++ {
		m.rows[r] = m.data[r*width : r*width+rank]
	}
	return nil
}

// clear releases the matrix's storage, leaving it zero-sized.
func (m *Matrix) clear() {
	m.n = 0
	m.width = 0
	m.data = nil
	m.rows = nil
	m.rowTotals = nil
}

func (m *Matrix) size() int { return m.n }

// row returns the logical contents of row r: the first n entries of its
// backing slice. Rows keep their full allocated length across shrinkage
// (removeRowAndColumn/removeRowOnly only swap pointers), so every read
// of a whole row must go through this accessor rather than m.rows[r]
// directly, or it will pick up stale entries beyond the live rank.
func (m *Matrix) row(r int) []float64 {
	return m.rows[r][:m.n]
}

// rawRow returns row r's full allocated-width slice, bypassing the
// live-rank truncation row() applies. Only the bounding engine's S
// auxiliary matrix uses this: each of its rows tracks its own live
// length independently of the matrix's global n (see bounding.go).
func (m *Matrix) rawRow(r int) []float64 {
	return m.rows[r]
}

// zeroRow sets every live entry of row r to 0.
func (m *Matrix) zeroRow(r int) {
	row := m.row(r)
	for i := range row {
		row[i] = 0
	}
}

// assign deep-copies rhs into m, reallocating as needed.
func (m *Matrix) assign(rhs *Matrix) error {
	if m == rhs {
		return nil
	}
	if err := m.setSize(rhs.n, rhs.workers); err != nil {
		return err
	}
	for r := 0; r < m.n; r++ {
		copy(m.rows[r], rhs.row(r))
		m.rowTotals[r] = rhs.rowTotals[r]
	}
	return nil
}

// calculateRowTotals recomputes rowTotals[r] as the sum of row r
// excluding the diagonal, for every live row, in parallel over rows.
func (m *Matrix) calculateRowTotals() error {
	return parallelRows(0, m.n, m.workers, func(start, end int) error {
		for r := start; r < end; r++ {
			row := m.row(r)
			total := floats.Sum(row[:r])
			total += floats.Sum(row[r+1:])
			m.rowTotals[r] = total
		}
		return nil
	})
}

// removeRowAndColumn removes row k (and the matching column) from a
// square matrix by swapping the last row/column into its place, then
// shrinking n. Column k in every remaining row is overwritten by the
// former column n-1; rows[k] adopts rows[n-1]; rowTotals[k] adopts
// rowTotals[n-1].
func (m *Matrix) removeRowAndColumn(k int) error {
	last := m.n - 1
	err := parallelRows(0, m.n, m.workers, func(start, end int) error {
		for r := start; r < end; r++ {
			m.rows[r][k] = m.rows[r][last]
		}
		return nil
	})
	if err != nil {
		return err
	}
	m.rowTotals[k] = m.rowTotals[last]
	m.rows[k] = m.rows[last]
	m.rows[last] = nil
	m.n--
	return nil
}

// removeRowOnly removes row k from a rectangular matrix (used for the S
// and I auxiliary matrices) without touching any row's in-row contents:
// only the row pointer and row total are swapped.
func (m *Matrix) removeRowOnly(k int) {
	last := m.n - 1
	m.rowTotals[k] = m.rowTotals[last]
	m.rows[k] = m.rows[last]
	m.rows[last] = nil
	m.n--
}
