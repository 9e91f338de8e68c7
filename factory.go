package starttree

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
)

// builderFunc constructs an engine ready to drive constructTree, given
// the base state (matrix, row→cluster map, tree, config) already loaded.
type builderFunc func(base) (engine, error)

// builder is one entry in the registry: a human-readable description
// (returned by BuilderDescription) plus the constructor.
type builder struct {
	description string
	build       builderFunc
}

// builderRegistry lists every starting-tree algorithm this package can
// build, keyed by the name passed in Config.Builder. The empty string
// is a valid key: it names the default.
var builderRegistry = map[string]builder{
	"": {
		description: "BIONJ (Gascuel, Cong [2009])",
		build:       buildBIONJ,
	},
	"UPGMA": {
		description: "UPGMA (Sokal, Michener [1958])",
		build:       buildUPGMA,
	},
	"UPGMA-V": {
		description: "Vectorized UPGMA (Sokal, Michener [1958])",
		build:       buildVectorizedUPGMA,
	},
	"NJ": {
		description: "Neighbour Joining (Saitou, Nei [1987])",
		build:       buildNJ,
	},
	"NJ-R": {
		description: "Rapid Neighbour Joining (Simonsen, Mailund, Pedersen [2011])",
		build:       buildRapidNJ,
	},
	"NJ-V": {
		description: "Vectorized Neighbour Joining (Saitou, Nei [1987])",
		build:       buildVectorizedNJ,
	},
	"BIONJ": {
		description: "BIONJ (Gascuel, Cong [2009])",
		build:       buildBIONJ,
	},
	"BIONJ-R": {
		description: "Rapid BIONJ (Simonsen, Mailund, Pedersen [2011]; Gascuel, Cong [2009])",
		build:       buildRapidBIONJ,
	},
	"BIONJ-V": {
		description: "Vectorized BIONJ (Gascuel, Cong [2009])",
		build:       buildVectorizedBIONJ,
	},
}

func buildUPGMA(b base) (engine, error) { return newUPGMAEngine(b), nil }

func buildVectorizedUPGMA(b base) (engine, error) { return newVectorizedUPGMAEngine(b), nil }

func buildNJ(b base) (engine, error) { return newNJEngine(b), nil }

func buildVectorizedNJ(b base) (engine, error) { return newVectorizedNJEngine(b), nil }

func buildRapidNJ(b base) (engine, error) { return newRapidNJEngine(b) }

func buildBIONJ(b base) (engine, error) { return newBIONJEngine(b) }

func buildVectorizedBIONJ(b base) (engine, error) { return newVectorizedBIONJEngine(b) }

func buildRapidBIONJ(b base) (engine, error) { return newRapidBIONJEngine(b) }

// BuilderNames returns the registered builder names sorted
// alphabetically. The empty-string default is not included.
func BuilderNames() []string {
	names := make([]string, 0, len(builderRegistry)-1)
	for name := range builderRegistry {
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuilderDescription returns the registered description for name, or
// an error if name is not registered.
func BuilderDescription(name string) (string, error) {
	b, ok := builderRegistry[name]
	if !ok {
		return "", fmt.Errorf("%w: BuilderDescription: unknown builder %q", ErrInputMalformed, name)
	}
	return b.description, nil
}

// Build constructs a starting tree over the given taxa from a symmetric
// pairwise distance matrix, using the algorithm named in cfg.Builder.
// names and D must have the same length; D is consumed (its contents
// are destroyed by clustering) and cfg is not retained past the call.
func Build(names []string, D *Matrix, cfg Config) (*ClusterTree, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if len(names) != D.size() {
		return nil, fmt.Errorf("%w: Build: %d names but a %d×%d matrix", ErrInputMalformed, len(names), D.size(), D.size())
	}

	tree := NewClusterTree()
	rowToCluster := make([]int, len(names))
	for i, name := range names {
		rowToCluster[i] = tree.AddLeaf(name)
	}

	warnDisconnectedEntries(cfg.Logger, names, D)

	if err := D.calculateRowTotals(); err != nil {
		return nil, err
	}

	b := base{D: D, rowToCluster: rowToCluster, tree: tree, cfg: cfg}
	reg := builderRegistry[cfg.Builder]
	eng, err := reg.build(b)
	if err != nil {
		return nil, err
	}
	if err := constructTree(&b, eng); err != nil {
		return nil, err
	}
	return tree, nil
}

// warnDisconnectedEntries logs one Debug line per off-diagonal pair
// (checked in the upper triangle) whose entry
// reads as "no valid entry" (the INF sentinel, or a raw IEEE infinity a
// caller fed in directly): a disconnected-looking distance matrix still
// clusters, since the row-minimum scan simply never picks an INF entry
// while any finite alternative remains, but it's worth a diagnostic the
// same way the teacher logs a disconnected MST edge.
func warnDisconnectedEntries(logger *slog.Logger, names []string, D *Matrix) {
	n := D.size()
	for r := 0; r < n; r++ {
		row := D.row(r)
		for c := r + 1; c < n; c++ {
			v := row[c]
			if v >= infiniteDistance || math.IsInf(v, 1) {
				logger.Debug("starttree: disconnected distance entry", "a", names[r], "b", names[c])
			}
		}
	}
}
