package starttree

import (
	"errors"
	"strings"
	"testing"
)

func TestUPGMATwoTaxa(t *testing.T) {
	b := newTestBase(t, [][]float64{
		{0, 4},
		{4, 0},
	}, 1)
	eng := newUPGMAEngine(b)
	if err := constructTree(&b, eng); err != nil {
		t.Fatalf("constructTree: %v", err)
	}
	got := newickOf(t, b.tree)
	want := "(A:2.00000000,B:2.00000000);\n"
	if got != want {
		t.Errorf("Newick = %q, want %q", got, want)
	}
}

// Two ultrametric pairs (A,B) and (C,D), each at distance 2, with every
// cross-pair distance at 6: UPGMA should merge A,B first (or C,D; ties
// are broken by lower row index, so A,B wins here) before reaching the
// 3-leaf close.
func TestUPGMAFourTaxaUltrametricPairs(t *testing.T) {
	b := newTestBase(t, [][]float64{
		{0, 2, 6, 6},
		{2, 0, 6, 6},
		{6, 6, 0, 2},
		{6, 6, 2, 0},
	}, 1)
	eng := newUPGMAEngine(b)
	if err := constructTree(&b, eng); err != nil {
		t.Fatalf("constructTree: %v", err)
	}

	// Merge 1: A,B join at half the pre-merge distance.
	abRecord := b.tree.records[4]
	if len(abRecord.links) != 2 {
		t.Fatalf("expected A,B to merge first into a 2-link record, got %d links", len(abRecord.links))
	}
	if abRecord.links[0].length != 1 || abRecord.links[1].length != 1 {
		t.Errorf("A,B branch lengths = %v, %v, want 1, 1", abRecord.links[0].length, abRecord.links[1].length)
	}

	root := b.tree.records[len(b.tree.records)-1]
	if len(root.links) != 3 {
		t.Fatalf("root should be the 3-leaf close, got %d links", len(root.links))
	}
	wantLengths := []float64{1.5, 1.75, 1.75}
	for i, link := range root.links {
		if !approxEqual(link.length, wantLengths[i], 1e-9) {
			t.Errorf("root.links[%d].length = %v, want %v", i, link.length, wantLengths[i])
		}
	}
}

func TestUPGMADuplicateTaxa(t *testing.T) {
	// B and C are identical to each other (distance 0); UPGMA should
	// merge them first, and the resulting tree should still be valid
	// Newick with no NaN/Inf contamination.
	b := newTestBase(t, [][]float64{
		{0, 5, 5, 5},
		{5, 0, 0, 5},
		{5, 0, 0, 5},
		{5, 5, 5, 0},
	}, 1)
	eng := newUPGMAEngine(b)
	if err := constructTree(&b, eng); err != nil {
		t.Fatalf("constructTree: %v", err)
	}
	got := newickOf(t, b.tree)
	if got == "" {
		t.Fatal("expected non-empty Newick output")
	}
	bc := b.tree.records[4]
	if len(bc.links) != 2 || bc.links[0].clusterIndex != 1 || bc.links[1].clusterIndex != 2 ||
		bc.links[0].length != 0 || bc.links[1].length != 0 {
		t.Errorf("first merge links = %+v, want B and C joined with zero-length branches", bc.links)
	}
	if strings.Contains(got, "NaN") || strings.Contains(got, "Inf") {
		t.Errorf("Newick contains a non-finite length: %q", got)
	}
}

func TestUPGMATooFewTaxa(t *testing.T) {
	b := newTestBase(t, [][]float64{
		{0},
	}, 1)
	eng := newUPGMAEngine(b)
	err := constructTree(&b, eng)
	if !errors.Is(err, ErrInputMalformed) {
		t.Fatalf("constructTree(n=1) = %v, want ErrInputMalformed", err)
	}
}
