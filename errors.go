package starttree

import "errors"

// Error kinds surfaced by starttree. Wrap one of these with fmt.Errorf's
// %w and check it with errors.Is; the wrapping message carries the
// operation-specific detail.
var (
	// ErrInputMalformed indicates a distance matrix or PHYLIP file with
	// non-numeric entries, too few rows, a non-square shape, or N < 2.
	ErrInputMalformed = errors.New("starttree: input malformed")

	// ErrIOFailure indicates the named file could not be opened or written.
	ErrIOFailure = errors.New("starttree: I/O failure")

	// ErrOutOfMemory indicates an allocation failure sizing a Matrix.
	ErrOutOfMemory = errors.New("starttree: out of memory")

	// ErrInvariantViolation indicates a cycle in the cluster tree, a
	// non-finite row minimum with n > 1 (NaN contamination), or a
	// non-finite lambda in BIONJ's merge-weight selection.
	ErrInvariantViolation = errors.New("starttree: invariant violation")
)
