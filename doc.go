// Package starttree builds phylogenetic starting trees from a symmetric
// pairwise distance matrix, by repeatedly merging the two closest
// clusters until three remain and closing the tree with a final 3-way
// link. It implements UPGMA, Neighbour-Joining (NJ), and BIONJ, plus
// branch-and-bound ("Rapid") and lane-width-scanned ("Vectorized")
// variants of NJ and BIONJ that trade implementation strategy, not
// correctness, for speed on large taxon sets.
//
// Basic usage, from a PHYLIP distance file:
//
//	names, D, err := starttree.ReadPhylip("distances.phy", 0)
//	cfg := starttree.DefaultConfig()
//	cfg.Builder = "BIONJ-R"
//	tree, err := starttree.Build(names, D, cfg)
//	err = tree.WriteNewick("starting.tre")
//
// Or from an in-memory flattened distance matrix:
//
//	D, err := starttree.LoadMatrix(flat, n, 0)
//	tree, err := starttree.Build(names, D, starttree.DefaultConfig())
//
// # Builder selection
//
// Config.Builder names the algorithm; DefaultConfig leaves it empty,
// which selects "BIONJ". See BuilderNames and BuilderDescription for
// the full registry.
//
// # Concurrency
//
// Every row-minimum search, row-total recomputation, and merge column
// update runs row-parallel: rows are split into contiguous ranges and
// scanned concurrently, with no parallelism across merge iterations
// (each iteration depends on the last one's result). Config.Workers
// controls the degree of parallelism; 0 means runtime.NumCPU().
package starttree
