package starttree

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadPhylip loads a distance matrix from a PHYLIP-format distance
// file: a first line giving the taxon count, followed by one line per
// taxon of a name and either a full row (square form) or just the
// entries before the diagonal, diagonal omitted (lower-triangular form).
// The two forms are told apart by how many numeric fields the second
// data line carries. Entries are averaged with their mirror (spec's
// symmetry-averaging rule) so a file with an asymmetric float64
// rounding between D[i][j] and D[j][i] still produces a genuinely
// symmetric Matrix.
func ReadPhylip(path string, workers int) ([]string, *Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: ReadPhylip: %v", ErrIOFailure, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !scanner.Scan() {
		return nil, nil, fmt.Errorf("%w: ReadPhylip: %s: empty file", ErrInputMalformed, path)
	}
	header := strings.Fields(scanner.Text())
	if len(header) == 0 {
		return nil, nil, fmt.Errorf("%w: ReadPhylip: %s: missing taxon count", ErrInputMalformed, path)
	}
	n, err := strconv.Atoi(header[0])
	if err != nil || n < 0 {
		return nil, nil, fmt.Errorf("%w: ReadPhylip: %s: invalid taxon count %q", ErrInputMalformed, path, header[0])
	}

	names := make([]string, n)
	raw := make([][]float64, n)
	square := false

	for i := 0; i < n; i++ {
		if !scanner.Scan() {
			return nil, nil, fmt.Errorf("%w: ReadPhylip: %s: expected %d taxon lines, found %d", ErrInputMalformed, path, n, i)
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 1 {
			return nil, nil, fmt.Errorf("%w: ReadPhylip: %s: line %d has no taxon name", ErrInputMalformed, path, i+2)
		}
		names[i] = fields[0]
		values := fields[1:]

		// The first line can't tell lower-triangular (0 distances) apart
		// from square (n distances, unless n==0); wait for the second
		// line, which always differs between the two forms for n > 1.
		if i == 1 {
			square = len(values) >= n
		}
		if i >= 1 {
			expect := i
			if square {
				expect = n
			}
			if len(values) != expect {
				return nil, nil, fmt.Errorf("%w: ReadPhylip: %s: line %d has %d distances, want %d", ErrInputMalformed, path, i+2, len(values), expect)
			}
		}

		row := make([]float64, len(values))
		for j, tok := range values {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: ReadPhylip: %s: line %d field %d: %v", ErrInputMalformed, path, i+2, j+1, err)
			}
			row[j] = v
		}
		raw[i] = row
	}

	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: ReadPhylip: %v", ErrIOFailure, err)
	}

	D, err := newMatrix(n, workers)
	if err != nil {
		return nil, nil, err
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			D.row(i)[j] = phylipEntry(raw, i, j, square)
		}
	}
	if err := D.calculateRowTotals(); err != nil {
		return nil, nil, err
	}
	return names, D, nil
}

// phylipEntry looks up the (i, j) distance from the raw per-line
// values, averaging the two mirrored readings so the result is exactly
// symmetric regardless of how the source file stored it.
func phylipEntry(raw [][]float64, i, j int, square bool) float64 {
	a := phylipLookup(raw, i, j, square)
	b := phylipLookup(raw, j, i, square)
	return 0.5 * (a + b)
}

func phylipLookup(raw [][]float64, row, col int, square bool) float64 {
	if square {
		return raw[row][col]
	}
	if col <= row {
		return raw[row][col]
	}
	return raw[col][row]
}

// LoadMatrix builds a Matrix from a flattened row-major n×n slice of
// distances (flat[i*n+j] is D[i][j]). Unlike ReadPhylip, this loader
// assumes the input is already symmetric (spec §6) and copies entries
// as-is, with no averaging correction: a caller handing in asymmetric
// data gets that asymmetry reflected verbatim in D[i][j] vs D[j][i]
// rather than silently smoothed over.
func LoadMatrix(flat []float64, n, workers int) (*Matrix, error) {
	if len(flat) != n*n {
		return nil, fmt.Errorf("%w: LoadMatrix: %d entries for an %d×%d matrix", ErrInputMalformed, len(flat), n, n)
	}

	D, err := newMatrix(n, workers)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			D.row(i)[j] = flat[i*n+j]
		}
	}
	if err := D.calculateRowTotals(); err != nil {
		return nil, err
	}
	return D, nil
}
