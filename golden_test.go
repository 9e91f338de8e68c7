package starttree

import (
	"errors"
	"math"
	"testing"
)

// TestLargeInstanceAllEnginesAgree builds a 100-taxon starting tree with
// NJ, Rapid NJ, and Vectorized NJ and checks they all produce the same
// set of branch lengths: the three differ only in how they search for
// each iteration's row minimum, never in which minimum they pick.
func TestLargeInstanceAllEnginesAgree(t *testing.T) {
	dist := mediumTestDistances(100)

	bPlain := newTestBase(t, dist, 4)
	plain := newNJEngine(bPlain)
	if err := constructTree(&bPlain, plain); err != nil {
		t.Fatalf("NJ: %v", err)
	}

	bRapid := newTestBase(t, dist, 4)
	rapid, err := newRapidNJEngine(bRapid)
	if err != nil {
		t.Fatalf("newRapidNJEngine: %v", err)
	}
	if err := constructTree(&bRapid, rapid); err != nil {
		t.Fatalf("NJ-R: %v", err)
	}

	bVec := newTestBase(t, dist, 4)
	vec := newVectorizedNJEngine(bVec)
	if err := constructTree(&bVec, vec); err != nil {
		t.Fatalf("NJ-V: %v", err)
	}

	assertSameTopology(t, bPlain.tree, bRapid.tree)
	assertSameTopology(t, bPlain.tree, bVec.tree)
}

func TestBuildWithNonFiniteDistanceIsInvariantViolation(t *testing.T) {
	D, err := newMatrix(4, 1)
	if err != nil {
		t.Fatalf("newMatrix: %v", err)
	}
	rows := mediumTestDistances(4)
	for i := 0; i < 4; i++ {
		copy(D.row(i), rows[i])
	}
	D.row(0)[1] = math.NaN()
	D.row(1)[0] = math.NaN()

	_, err = Build([]string{"A", "B", "C", "D"}, D, DefaultConfig())
	if !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("Build with NaN distance = %v, want ErrInvariantViolation", err)
	}
}

func TestBuildUnknownBuilderName(t *testing.T) {
	D, err := LoadMatrix(flattenDistances(mediumTestDistances(4)), 4, 1)
	if err != nil {
		t.Fatalf("LoadMatrix: %v", err)
	}
	cfg := DefaultConfig()
	cfg.Builder = "not-a-real-builder"
	_, err = Build([]string{"A", "B", "C", "D"}, D, cfg)
	if !errors.Is(err, ErrInputMalformed) {
		t.Fatalf("Build(unknown builder) = %v, want ErrInputMalformed", err)
	}
}

func TestBuildTwoTaxa(t *testing.T) {
	D, err := LoadMatrix([]float64{0, 6, 6, 0}, 2, 1)
	if err != nil {
		t.Fatalf("LoadMatrix: %v", err)
	}
	tree, err := Build([]string{"A", "B"}, D, DefaultConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got := newickOf(t, tree)
	want := "(A:3.00000000,B:3.00000000);\n"
	if got != want {
		t.Errorf("Newick = %q, want %q", got, want)
	}
}
