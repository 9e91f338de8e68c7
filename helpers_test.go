package starttree

import "testing"

// newTestBase builds a base from a dense symmetric distance matrix and
// one leaf per row, ready to hand to an engine constructor.
func newTestBase(t *testing.T, rows [][]float64, workers int) base {
	t.Helper()
	n := len(rows)
	D, err := newMatrix(n, workers)
	if err != nil {
		t.Fatalf("newMatrix: %v", err)
	}
	for i := 0; i < n; i++ {
		copy(D.row(i), rows[i])
	}
	if err := D.calculateRowTotals(); err != nil {
		t.Fatalf("calculateRowTotals: %v", err)
	}

	tree := NewClusterTree()
	rowToCluster := make([]int, n)
	for i := 0; i < n; i++ {
		rowToCluster[i] = tree.AddLeaf(string(rune('A' + i)))
	}

	cfg := DefaultConfig()
	cfg.Workers = workers
	applyDefaults(&cfg)

	return base{D: D, rowToCluster: rowToCluster, tree: tree, cfg: cfg}
}

func approxEqual(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}
