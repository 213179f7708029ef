package digraph

import (
	"errors"
	"fmt"
)

// MaxFeedbackSearch bounds the components searched exhaustively for feedback
// vertex sets.
const MaxFeedbackSearch = 24

var ErrSearchTooLarge = errors.New("feedback vertex search too large")

// Induced returns the subgraph on nodes, keeping their order.
func Induced(g *Graph, nodes []NodeID) *Graph {
	keep := NewNodeSet(nodes...)
	out := New()
	for _, n := range nodes {
		out.AddNode(n)
	}
	for _, n := range nodes {
		for _, m := range g.Succ[n] {
			if keep.Has(m) {
				out.AddEdge(n, m)
			}
		}
	}
	return out
}

// IsAcyclic reports whether g has no cycle. Self loops are cycles.
func IsAcyclic(g *Graph) bool {
	for _, n := range g.Nodes {
		if g.HasEdge(n, n) {
			return false
		}
	}
	for _, scc := range SCC(g) {
		if len(scc) > 1 {
			return false
		}
	}
	return true
}

// MinimumFeedbackVertexSets returns every smallest set of nodes whose removal
// leaves the subgraph induced by nodes acyclic, in lexicographic order of the
// sorted nodes. An acyclic subgraph yields one empty set.
func MinimumFeedbackVertexSets(g *Graph, nodes []NodeID) ([][]NodeID, error) {
	if len(nodes) > MaxFeedbackSearch {
		return nil, fmt.Errorf("%w: %d nodes", ErrSearchTooLarge, len(nodes))
	}
	sorted := NewNodeSet(nodes...).Sorted()
	sub := Induced(g, sorted)
	for k := 0; k <= len(sorted); k++ {
		var found [][]NodeID
		Subsets(sorted, k, func(removed []NodeID) bool {
			rest := NewNodeSet(sorted...).Difference(NewNodeSet(removed...))
			if IsAcyclic(Induced(sub, rest.Sorted())) {
				found = append(found, append([]NodeID(nil), removed...))
			}
			return true
		})
		if len(found) > 0 {
			return found, nil
		}
	}
	// removing every node always leaves an acyclic graph
	return [][]NodeID{sorted}, nil
}

// Subsets calls yield with every k-element subset of items in lexicographic
// order of positions until yield returns false. The slice passed to yield is
// reused between calls.
func Subsets(items []NodeID, k int, yield func([]NodeID) bool) {
	if k < 0 || k > len(items) {
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	buf := make([]NodeID, k)
	for {
		for i, j := range idx {
			buf[i] = items[j]
		}
		if !yield(buf) {
			return
		}
		i := k - 1
		for i >= 0 && idx[i] == len(items)-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
