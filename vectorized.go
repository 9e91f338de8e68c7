package starttree

// vectorLanes is the block width the row-minimum scans below process at
// a time. There is no cgo/assembly SIMD here — this is the pure-Go
// rendition: unrolling a fixed-width block lets the compiler keep the
// per-lane accumulators in registers and overlap loads, which is as
// close to the reference implementation's Vec4d blocks as plain Go
// slice arithmetic gets.
const vectorLanes = 4

// vectorizedUPGMAEngine is the "UPGMA-V" builder: same merge/finish as
// plain UPGMA, with a lane-width block scan for row minima.
type vectorizedUPGMAEngine struct {
	upgmaEngine
}

func newVectorizedUPGMAEngine(b base) *vectorizedUPGMAEngine {
	return &vectorizedUPGMAEngine{upgmaEngine: upgmaEngine{base: b}}
}

func (e *vectorizedUPGMAEngine) rowMinima() ([]position, error) {
	n := e.D.size()
	minima := make([]position, n)
	minima[0] = newPosition(0, 0, infiniteDistance)

	err := parallelRows(1, n, e.cfg.Workers, func(start, end int) error {
		for row := start; row < end; row++ {
			col, val := plainRowMin(e.D.row(row)[:row])
			minima[row] = newPosition(row, col, val)
		}
		return nil
	})
	return minima, err
}

// plainRowMin finds the minimum of row[0:len(row)] and its index, via a
// lane-width block scan with a scalar tail for the remainder. No bias
// term: this is UPGMA's plain distance minimum, matching bionj2.cpp's
// VectorizedUPGMA_Matrix (which, unlike VectorizedMatrix, does not
// subtract a per-column scaled total inside the reduction).
func plainRowMin(row []float64) (int, float64) {
	n := len(row)
	bestCol := 0
	bestVal := infiniteDistance
	if n == 0 {
		return bestCol, bestVal
	}

	blocks := n - n%vectorLanes
	for base := 0; base < blocks; base += vectorLanes {
		var lane [vectorLanes]float64
		for l := 0; l < vectorLanes; l++ {
			lane[l] = row[base+l]
		}
		for l := 0; l < vectorLanes; l++ {
			if lane[l] < bestVal {
				bestVal = lane[l]
				bestCol = base + l
			}
		}
	}
	for col := blocks; col < n; col++ {
		if row[col] < bestVal {
			bestVal = row[col]
			bestCol = col
		}
	}
	return bestCol, bestVal
}

// vectorizedNJEngine is the "NJ-V" builder: same merge/finish as plain
// NJ, with a lane-width block scan for the Q-criterion row minima.
type vectorizedNJEngine struct {
	njEngine
}

func newVectorizedNJEngine(b base) *vectorizedNJEngine {
	return &vectorizedNJEngine{njEngine: njEngine{base: b}}
}

func (e *vectorizedNJEngine) rowMinima() ([]position, error) {
	return vectorizedQMinima(e.D, &e.njEngine, e.cfg.Workers)
}

// vectorizedBIONJEngine is the "BIONJ-V" builder: same merge/finish as
// plain BIONJ, with a lane-width block scan for the Q-criterion row
// minima.
type vectorizedBIONJEngine struct {
	bionjEngine
}

func newVectorizedBIONJEngine(b base) (*vectorizedBIONJEngine, error) {
	inner, err := newBIONJEngine(b)
	if err != nil {
		return nil, err
	}
	return &vectorizedBIONJEngine{bionjEngine: *inner}, nil
}

func (e *vectorizedBIONJEngine) rowMinima() ([]position, error) {
	return vectorizedQMinima(e.D, &e.bionjEngine, e.cfg.Workers)
}

// vectorizedQMinima is shared by NJ-V and BIONJ-V: both use the same
// Q(r,c) = D[r][c] - T[r] - T[c] criterion and differ only in how T is
// maintained across merges (handled by setter/setScale on qc).
func vectorizedQMinima(D *Matrix, qc qCriterionEngine, workers int) ([]position, error) {
	n := D.size()
	if n <= 2 {
		return nil, nil
	}
	qc.setScale(n)

	totals := make([]float64, n)
	for r := 0; r < n; r++ {
		totals[r] = qc.scaledTotal(r)
	}

	minima := make([]position, n)
	minima[0] = newPosition(0, 0, infiniteDistance)

	err := parallelRows(1, n, workers, func(start, end int) error {
		for row := start; row < end; row++ {
			col, val := biasedRowMin(D.row(row)[:row], totals, totals[row])
			minima[row] = newPosition(row, col, val)
		}
		return nil
	})
	return minima, err
}

// biasedRowMin finds the minimum of row[c] - rowTotal - totals[c] over
// c in [0, len(row)), via a lane-width block scan with a scalar tail,
// matching bionj2.cpp's VectorizedMatrix (the biased variant NJ/BIONJ
// use, as opposed to UPGMA-V's plainRowMin above).
func biasedRowMin(row, totals []float64, rowTotal float64) (int, float64) {
	n := len(row)
	bestCol := 0
	bestVal := infiniteDistance
	if n == 0 {
		return bestCol, bestVal
	}

	blocks := n - n%vectorLanes
	for base := 0; base < blocks; base += vectorLanes {
		var lane [vectorLanes]float64
		for l := 0; l < vectorLanes; l++ {
			lane[l] = row[base+l] - rowTotal - totals[base+l]
		}
		for l := 0; l < vectorLanes; l++ {
			if lane[l] < bestVal {
				bestVal = lane[l]
				bestCol = base + l
			}
		}
	}
	for col := blocks; col < n; col++ {
		q := row[col] - rowTotal - totals[col]
		if q < bestVal {
			bestVal = q
			bestCol = col
		}
	}
	return bestCol, bestVal
}
