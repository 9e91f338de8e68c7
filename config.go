package starttree

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
)

// Config controls how a tree builder is constructed and run.
// Start with DefaultConfig and override the fields you need.
type Config struct {
	// Builder selects the clustering algorithm by name: "NJ", "NJ-R",
	// "NJ-V", "BIONJ", "BIONJ-R", "BIONJ-V", "UPGMA", "UPGMA-V", or ""
	// (defaults to "BIONJ"). See Factory.
	Builder string

	// Workers controls the number of goroutines used for row-parallel
	// phases (row-minimum scans, row-total recomputation, the merge
	// column update). 0 means runtime.NumCPU(). Default: 0 (auto).
	Workers int

	// EnablePeriodicPurge turns on the bounding engine's optional
	// S/I-row compaction once the live cluster count has shrunk to
	// two-thirds of its value at the last purge. Disabled by default,
	// matching the reference implementation: it isn't required for
	// correctness and the reference leaves it off.
	EnablePeriodicPurge bool

	// Logger receives rare, non-fatal diagnostics: a disconnected-
	// looking matrix entry, a BIONJ lambda clamp. nil means discard.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Builder: "",
	}
}

// validateConfig checks that cfg fields are valid and returns a
// descriptive error if not.
func validateConfig(cfg *Config) error {
	if _, ok := builderRegistry[cfg.Builder]; !ok {
		return fmt.Errorf("%w: unknown builder %q", ErrInputMalformed, cfg.Builder)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("%w: Workers must be >= 0, got %d", ErrInputMalformed, cfg.Workers)
	}
	return nil
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}
