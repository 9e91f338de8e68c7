package starttree

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
)

// link describes an outgoing edge from an internal cluster to a cluster
// formed earlier (or a leaf), with its branch length.
type link struct {
	clusterIndex int
	length       float64
}

// clusterRecord is either a leaf (name set, no links) or an internal
// node (links to two or three earlier records). Link targets are
// always strictly lower indices than the record's own index: the tree
// is an append-only DAG rooted at its last record.
type clusterRecord struct {
	name          string
	exteriorCount int
	links         []link
}

func (c *clusterRecord) isLeaf() bool { return len(c.links) == 0 }

// ClusterTree is an append-only sequence of cluster records produced by
// an agglomerative merge. Leaves are added first, one per taxon;
// internal records are appended as merges happen. The tree emits
// Newick via an explicit-stack depth-first walk from its last record.
type ClusterTree struct {
	records []clusterRecord
}

// NewClusterTree returns an empty ClusterTree.
func NewClusterTree() *ClusterTree {
	return &ClusterTree{}
}

// Len returns the number of records appended so far.
func (t *ClusterTree) Len() int { return len(t.records) }

// AddLeaf appends a leaf record for the named taxon and returns its
// index.
func (t *ClusterTree) AddLeaf(name string) int {
	t.records = append(t.records, clusterRecord{name: name, exteriorCount: 1})
	return len(t.records) - 1
}

// AddInternal appends a 2-link internal record joining clusters a and b
// at the given branch lengths, and returns its index. Used for every
// ordinary merge.
func (t *ClusterTree) AddInternal(a int, aLen float64, b int, bLen float64) int {
	rec := clusterRecord{
		links: []link{{a, aLen}, {b, bLen}},
	}
	rec.exteriorCount = t.records[a].exteriorCount + t.records[b].exteriorCount
	t.records = append(t.records, rec)
	return len(t.records) - 1
}

// AddInternal3 appends a 3-link internal record joining clusters a, b,
// c. Used exactly once, for the terminal n==3 close shared by
// NJ/BIONJ/UPGMA's constructTree loop.
func (t *ClusterTree) AddInternal3(a int, aLen float64, b int, bLen float64, c int, cLen float64) int {
	rec := clusterRecord{
		links: []link{{a, aLen}, {b, bLen}, {c, cLen}},
	}
	rec.exteriorCount = t.records[a].exteriorCount + t.records[b].exteriorCount + t.records[c].exteriorCount
	t.records = append(t.records, rec)
	return len(t.records) - 1
}

// place tracks where a Newick-writing stack frame is up to when
// rendering one cluster's children.
type place struct {
	clusterIndex int
	linkNumber   int
}

// WriteNewick renders the tree, starting from its last record, to the
// named file: a parenthesised Newick string ending in ";\n", with
// ":length" on every non-root edge written in fixed-point notation with
// 8 digits after the decimal point (so a length below 0.1 carries fewer
// than 8 significant digits). The traversal is an explicit stack (no recursion, so no
// stack-depth limit tied to tree depth) guarded by a step budget of
// 3*Len(): exceeding it means the records describe a cycle, which
// should be unreachable given the append-only DAG invariant, and is
// reported as ErrInvariantViolation rather than looping forever.
func (t *ClusterTree) WriteNewick(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: WriteNewick: %v", ErrIOFailure, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := t.writeNewickTo(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: WriteNewick: %v", ErrIOFailure, err)
	}
	return nil
}

func (t *ClusterTree) writeNewickTo(w *bufio.Writer) error {
	if len(t.records) == 0 {
		return fmt.Errorf("%w: WriteNewick: empty cluster tree", ErrInvariantViolation)
	}

	stack := []place{{len(t.records) - 1, 0}}
	maxLoop := 3 * len(t.records)

	for len(stack) > 0 {
		maxLoop--
		if maxLoop == 0 {
			return fmt.Errorf("%w: WriteNewick: cycle detected while walking cluster tree", ErrInvariantViolation)
		}

		here := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cluster := &t.records[here.clusterIndex]

		if cluster.isLeaf() {
			w.WriteString(cluster.name)
			continue
		}

		if here.linkNumber == 0 {
			w.WriteByte('(')
			stack = append(stack, place{here.clusterIndex, 1})
			stack = append(stack, place{cluster.links[0].clusterIndex, 0})
			continue
		}

		nextChildNum := here.linkNumber
		prev := cluster.links[nextChildNum-1]
		w.WriteByte(':')
		w.WriteString(strconv.FormatFloat(prev.length, 'f', 8, 64))
		if nextChildNum < len(cluster.links) {
			w.WriteByte(',')
			next := cluster.links[nextChildNum]
			stack = append(stack, place{here.clusterIndex, nextChildNum + 1})
			stack = append(stack, place{next.clusterIndex, 0})
		} else {
			w.WriteByte(')')
		}
	}

	w.WriteString(";\n")
	return nil
}
