package starttree

import (
	"bufio"
	"errors"
	"strings"
	"testing"
)

func newickOf(t *testing.T, tree *ClusterTree) string {
	t.Helper()
	var sb strings.Builder
	w := bufio.NewWriter(&sb)
	if err := tree.writeNewickTo(w); err != nil {
		t.Fatalf("writeNewickTo: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	return sb.String()
}

func TestClusterTreeTwoLeafMerge(t *testing.T) {
	tree := NewClusterTree()
	a := tree.AddLeaf("A")
	b := tree.AddLeaf("B")
	tree.AddInternal(a, 1.5, b, 2.5)

	got := newickOf(t, tree)
	want := "(A:1.50000000,B:2.50000000);\n"
	if got != want {
		t.Errorf("Newick = %q, want %q", got, want)
	}
}

func TestClusterTreeThreeLeafClose(t *testing.T) {
	tree := NewClusterTree()
	a := tree.AddLeaf("A")
	b := tree.AddLeaf("B")
	c := tree.AddLeaf("C")
	tree.AddInternal3(a, 1, b, 2, c, 3)

	got := newickOf(t, tree)
	want := "(A:1.00000000,B:2.00000000,C:3.00000000);\n"
	if got != want {
		t.Errorf("Newick = %q, want %q", got, want)
	}
}

func TestClusterTreeNestedMerges(t *testing.T) {
	tree := NewClusterTree()
	a := tree.AddLeaf("A")
	b := tree.AddLeaf("B")
	c := tree.AddLeaf("C")
	ab := tree.AddInternal(a, 0.5, b, 0.5)
	tree.AddInternal(ab, 1, c, 2)

	got := newickOf(t, tree)
	want := "((A:0.50000000,B:0.50000000):1.00000000,C:2.00000000);\n"
	if got != want {
		t.Errorf("Newick = %q, want %q", got, want)
	}
}

func TestClusterTreeExteriorCount(t *testing.T) {
	tree := NewClusterTree()
	a := tree.AddLeaf("A")
	b := tree.AddLeaf("B")
	c := tree.AddLeaf("C")
	d := tree.AddLeaf("D")
	ab := tree.AddInternal(a, 1, b, 1)
	cd := tree.AddInternal(c, 1, d, 1)
	root := tree.AddInternal(ab, 1, cd, 1)

	if got := tree.records[root].exteriorCount; got != 4 {
		t.Errorf("root exteriorCount = %d, want 4", got)
	}
}

func TestClusterTreeEmptyIsInvariantViolation(t *testing.T) {
	tree := NewClusterTree()
	var sb strings.Builder
	w := bufio.NewWriter(&sb)
	err := tree.writeNewickTo(w)
	if !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("writeNewickTo(empty) = %v, want ErrInvariantViolation", err)
	}
}

func TestClusterTreeCycleDetected(t *testing.T) {
	tree := NewClusterTree()
	a := tree.AddLeaf("A")
	b := tree.AddLeaf("B")
	root := tree.AddInternal(a, 1, b, 1)
	// Corrupt the tree: make the root point at itself, simulating the
	// "should be unreachable" cycle writeNewickTo guards against.
	tree.records[root].links[0].clusterIndex = root

	var sb strings.Builder
	w := bufio.NewWriter(&sb)
	err := tree.writeNewickTo(w)
	if !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("writeNewickTo(cycle) = %v, want ErrInvariantViolation", err)
	}
}
