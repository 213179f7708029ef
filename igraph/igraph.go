// Package igraph builds the interaction graph of a network: an edge u -> v when
// u occurs in a prime of v.
package igraph

import (
	"github.com/rfielding/boolnet-ctl/digraph"
	"github.com/rfielding/boolnet-ctl/primes"
)

// Of returns the interaction graph with one node per variable.
func Of(net primes.Network) *digraph.Graph {
	g := digraph.New()
	for _, name := range net.Names() {
		g.AddNode(digraph.NodeID(name))
	}
	for _, name := range net.Names() {
		for _, reg := range net.Regulators(name) {
			g.AddEdge(digraph.NodeID(reg), digraph.NodeID(name))
		}
	}
	return g
}

// Ancestors returns the variables that can influence any of names, names
// included, sorted.
func Ancestors(g *digraph.Graph, names []string) []string {
	ids := make([]digraph.NodeID, len(names))
	for i, n := range names {
		ids[i] = digraph.NodeID(n)
	}
	return Strings(digraph.Ancestors(g, ids...).Sorted())
}

// Strings converts node ids back to variable names.
func Strings(ids []digraph.NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
