// Package digraph is a small finite directed graph with set algebra, Tarjan
// strongly connected components and the condensation DAG.
package digraph

import "sort"

type NodeID string

// Graph is a finite directed graph: nodes + successor relation.
type Graph struct {
	Nodes []NodeID
	Succ  map[NodeID][]NodeID // R(s) = Succ[s]

	index map[NodeID]struct{}
	edges map[[2]NodeID]struct{}
}

func New() *Graph {
	return &Graph{
		Succ:  make(map[NodeID][]NodeID),
		index: make(map[NodeID]struct{}),
		edges: make(map[[2]NodeID]struct{}),
	}
}

// AddNode adds n once, keeping insertion order.
func (g *Graph) AddNode(n NodeID) {
	if _, ok := g.index[n]; ok {
		return
	}
	g.index[n] = struct{}{}
	g.Nodes = append(g.Nodes, n)
}

// AddEdge adds from -> to once.
func (g *Graph) AddEdge(from, to NodeID) {
	g.AddNode(from)
	g.AddNode(to)
	key := [2]NodeID{from, to}
	if _, ok := g.edges[key]; ok {
		return
	}
	g.edges[key] = struct{}{}
	g.Succ[from] = append(g.Succ[from], to)
}

func (g *Graph) HasNode(n NodeID) bool { _, ok := g.index[n]; return ok }
func (g *Graph) HasEdge(from, to NodeID) bool {
	_, ok := g.edges[[2]NodeID{from, to}]
	return ok
}
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Pred returns the reversed successor relation.
func (g *Graph) Pred() map[NodeID][]NodeID {
	out := make(map[NodeID][]NodeID, len(g.Nodes))
	for _, s := range g.Nodes {
		for _, t := range g.Succ[s] {
			out[t] = append(out[t], s)
		}
	}
	return out
}

// ----- Node sets -----

type NodeSet map[NodeID]struct{}

func NewNodeSet(ids ...NodeID) NodeSet          { s := make(NodeSet, len(ids)); for _, id := range ids { s[id] = struct{}{} }; return s }
func (s NodeSet) Has(id NodeID) bool             { _, ok := s[id]; return ok }
func (s NodeSet) Add(id NodeID)                  { s[id] = struct{}{} }
func (s NodeSet) Copy() NodeSet                  { out := NewNodeSet(); for k := range s { out[k] = struct{}{} }; return out }
func (s NodeSet) Size() int                      { return len(s) }
func (s NodeSet) Equals(other NodeSet) bool      { if len(s) != len(other) { return false }; for k := range s { if !other.Has(k) { return false } }; return true }
func (s NodeSet) Intersect(other NodeSet) NodeSet { out := NewNodeSet(); for k := range s { if other.Has(k) { out.Add(k) } }; return out }
func (s NodeSet) Union(other NodeSet) NodeSet     { out := s.Copy(); for k := range other { out.Add(k) }; return out }
func (s NodeSet) Difference(other NodeSet) NodeSet { out := NewNodeSet(); for k := range s { if !other.Has(k) { out.Add(k) } }; return out }

// Sorted returns the members in ascending order.
func (s NodeSet) Sorted() []NodeID {
	out := make([]NodeID, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Universe builds a set containing all nodes in the graph.
func Universe(g *Graph) NodeSet {
	u := make(NodeSet, len(g.Nodes))
	for _, s := range g.Nodes {
		u.Add(s)
	}
	return u
}

// PreE returns predecessors with SOME successor in W:
// PreE(W) = { s | ∃ s' . R(s,s') ∧ s' ∈ W }
func PreE(W NodeSet, g *Graph) NodeSet {
	out := NewNodeSet()
	for _, s := range g.Nodes {
		for _, s2 := range g.Succ[s] {
			if W.Has(s2) {
				out.Add(s)
				break
			}
		}
	}
	return out
}

// PreA returns predecessors whose ALL successors are in W.
// PreA(W) = { s | Succ(s) ⊆ W } (vacuously true if Succ(s) is empty).
func PreA(W NodeSet, g *Graph) NodeSet {
	out := NewNodeSet()
	for _, s := range g.Nodes {
		all := true
		for _, s2 := range g.Succ[s] {
			if !W.Has(s2) {
				all = false
				break
			}
		}
		if all {
			out.Add(s)
		}
	}
	return out
}

// Ancestors returns every node with a path to one of targets, targets included.
func Ancestors(g *Graph, targets ...NodeID) NodeSet {
	pred := g.Pred()
	out := NewNodeSet(targets...)
	queue := append([]NodeID(nil), targets...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, p := range pred[n] {
			if !out.Has(p) {
				out.Add(p)
				queue = append(queue, p)
			}
		}
	}
	return out
}

// Descendants returns every node reachable from sources, sources included.
func Descendants(g *Graph, sources ...NodeID) NodeSet {
	out := NewNodeSet(sources...)
	queue := append([]NodeID(nil), sources...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, s := range g.Succ[n] {
			if !out.Has(s) {
				out.Add(s)
				queue = append(queue, s)
			}
		}
	}
	return out
}
