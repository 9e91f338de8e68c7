package starttree

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTempPhylip(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "distances.phy")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestReadPhylipSquareForm(t *testing.T) {
	path := writeTempPhylip(t, "3\n"+
		"A  0.0 2.0 4.0\n"+
		"B  2.0 0.0 5.0\n"+
		"C  4.0 5.0 0.0\n")

	names, D, err := ReadPhylip(path, 1)
	if err != nil {
		t.Fatalf("ReadPhylip: %v", err)
	}
	if len(names) != 3 || names[0] != "A" || names[2] != "C" {
		t.Fatalf("names = %v, want [A B C]", names)
	}
	if D.row(0)[1] != 2 || D.row(0)[2] != 4 || D.row(1)[2] != 5 {
		t.Errorf("square-form entries not read correctly: %v, %v, %v", D.row(0)[1], D.row(0)[2], D.row(1)[2])
	}
}

func TestReadPhylipLowerTriangularForm(t *testing.T) {
	path := writeTempPhylip(t, "3\n"+
		"A\n"+
		"B  2.0\n"+
		"C  4.0 5.0\n")

	names, D, err := ReadPhylip(path, 1)
	if err != nil {
		t.Fatalf("ReadPhylip: %v", err)
	}
	_ = names
	if D.row(0)[1] != 2 || D.row(0)[2] != 4 || D.row(1)[2] != 5 {
		t.Errorf("lower-triangular entries not read correctly: %v, %v, %v", D.row(0)[1], D.row(0)[2], D.row(1)[2])
	}
}

func TestReadPhylipSymmetryAveraging(t *testing.T) {
	path := writeTempPhylip(t, "2\n"+
		"A  0.0 3.0\n"+
		"B  5.0 0.0\n")

	_, D, err := ReadPhylip(path, 1)
	if err != nil {
		t.Fatalf("ReadPhylip: %v", err)
	}
	want := 4.0 // (3+5)/2
	if D.row(0)[1] != want || D.row(1)[0] != want {
		t.Errorf("D[0][1]=%v D[1][0]=%v, want both %v", D.row(0)[1], D.row(1)[0], want)
	}
}

func TestReadPhylipMalformedCount(t *testing.T) {
	path := writeTempPhylip(t, "not-a-number\n")
	_, _, err := ReadPhylip(path, 1)
	if !errors.Is(err, ErrInputMalformed) {
		t.Fatalf("ReadPhylip(bad count) = %v, want ErrInputMalformed", err)
	}
}

func TestReadPhylipMissingFile(t *testing.T) {
	_, _, err := ReadPhylip(filepath.Join(t.TempDir(), "missing.phy"), 1)
	if !errors.Is(err, ErrIOFailure) {
		t.Fatalf("ReadPhylip(missing file) = %v, want ErrIOFailure", err)
	}
}

// TestLoadMatrixAssumesSymmetry checks that, unlike ReadPhylip,
// LoadMatrix copies entries as given rather than averaging a
// mismatched pair: spec §6 draws this distinction deliberately (the
// in-memory loader "assumes symmetry" instead of correcting for it).
func TestLoadMatrixAssumesSymmetry(t *testing.T) {
	flat := []float64{
		0, 3,
		5, 0,
	}
	D, err := LoadMatrix(flat, 2, 1)
	if err != nil {
		t.Fatalf("LoadMatrix: %v", err)
	}
	if D.row(0)[1] != 3 || D.row(1)[0] != 5 {
		t.Errorf("D[0][1]=%v D[1][0]=%v, want 3 and 5 (no averaging)", D.row(0)[1], D.row(1)[0])
	}
}

func TestLoadMatrixWrongLength(t *testing.T) {
	_, err := LoadMatrix([]float64{1, 2, 3}, 2, 1)
	if !errors.Is(err, ErrInputMalformed) {
		t.Fatalf("LoadMatrix(wrong length) = %v, want ErrInputMalformed", err)
	}
}
