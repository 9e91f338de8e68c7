package starttree

// infiniteDistance is the sentinel used for "no candidate yet" and for
// distances that should never be chosen as a minimum.
const infiniteDistance = 1e300

// position is a candidate (row, column, value) found by a row-minimum
// scan. column is always strictly less than row; that's the convention
// used throughout this package for identifying a merge pair.
type position struct {
	row    int
	column int
	value  float64
}

func newPosition(row, column int, value float64) position {
	return position{row: row, column: column, value: value}
}

// less reports whether p should be preferred over other as the overall
// minimum. Only value participates in the comparison; tie-breaking by
// row/column is handled by the scan that produces positions, per
// spec's "lower row index, then lower column index" rule.
func (p position) less(other position) bool {
	return p.value < other.value
}
