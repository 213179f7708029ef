package digraph

import "sort"

type tarjanState struct {
	index     int
	nodeIndex map[NodeID]int
	lowlink   map[NodeID]int
	onStack   map[NodeID]bool
	stack     []NodeID
	sccs      [][]NodeID
	succ      map[NodeID][]NodeID
}

// SCC returns the strongly connected components in reverse topological order:
// a component is listed before every component that reaches it. Members of a
// component are sorted.
func SCC(g *Graph) [][]NodeID {
	state := &tarjanState{
		nodeIndex: make(map[NodeID]int, len(g.Nodes)),
		lowlink:   make(map[NodeID]int, len(g.Nodes)),
		onStack:   make(map[NodeID]bool, len(g.Nodes)),
		succ:      g.Succ,
	}
	for _, n := range g.Nodes {
		if _, visited := state.nodeIndex[n]; !visited {
			state.strongConnect(n)
		}
	}
	return state.sccs
}

func (state *tarjanState) strongConnect(v NodeID) {
	state.nodeIndex[v] = state.index
	state.lowlink[v] = state.index
	state.index++
	state.stack = append(state.stack, v)
	state.onStack[v] = true

	for _, w := range state.succ[v] {
		if _, visited := state.nodeIndex[w]; !visited {
			state.strongConnect(w)
			if state.lowlink[w] < state.lowlink[v] {
				state.lowlink[v] = state.lowlink[w]
			}
		} else if state.onStack[w] {
			if state.nodeIndex[w] < state.lowlink[v] {
				state.lowlink[v] = state.nodeIndex[w]
			}
		}
	}

	// v is a root: pop its component
	if state.lowlink[v] == state.nodeIndex[v] {
		var scc []NodeID
		for {
			w := state.stack[len(state.stack)-1]
			state.stack = state.stack[:len(state.stack)-1]
			state.onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		sort.Slice(scc, func(i, j int) bool { return scc[i] < scc[j] })
		state.sccs = append(state.sccs, scc)
	}
}

// Condensed is the DAG of strongly connected components.
type Condensed struct {
	Components [][]NodeID
	Of         map[NodeID]int // node -> component index
	Succ       map[int][]int
	Depth      []int // longest distance from a source component
}

// Condensation contracts every strongly connected component of g to one node.
func Condensation(g *Graph) *Condensed {
	sccs := SCC(g)
	c := &Condensed{
		Components: sccs,
		Of:         make(map[NodeID]int, len(g.Nodes)),
		Succ:       make(map[int][]int),
		Depth:      make([]int, len(sccs)),
	}
	for i, scc := range sccs {
		for _, n := range scc {
			c.Of[n] = i
		}
	}
	seen := map[[2]int]struct{}{}
	for _, n := range g.Nodes {
		for _, m := range g.Succ[n] {
			a, b := c.Of[n], c.Of[m]
			if a == b {
				continue
			}
			if _, ok := seen[[2]int{a, b}]; ok {
				continue
			}
			seen[[2]int{a, b}] = struct{}{}
			c.Succ[a] = append(c.Succ[a], b)
		}
	}
	// Tarjan emits sinks first, so walking backwards visits sources first.
	for i := len(sccs) - 1; i >= 0; i-- {
		for _, j := range c.Succ[i] {
			if c.Depth[i]+1 > c.Depth[j] {
				c.Depth[j] = c.Depth[i] + 1
			}
		}
	}
	return c
}

// TopLayer drops every component contained in seen and returns the components
// without incoming edges in what remains, ordered by their first member.
func (c *Condensed) TopLayer(seen NodeSet) [][]NodeID {
	alive := make([]bool, len(c.Components))
	for i, comp := range c.Components {
		for _, n := range comp {
			if !seen.Has(n) {
				alive[i] = true
				break
			}
		}
	}
	hasIn := make([]bool, len(c.Components))
	for i := range c.Components {
		if !alive[i] {
			continue
		}
		for _, j := range c.Succ[i] {
			hasIn[j] = true
		}
	}
	var out [][]NodeID
	for i, comp := range c.Components {
		if alive[i] && !hasIn[i] {
			out = append(out, comp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// Sinks returns the components without outgoing edges.
func (c *Condensed) Sinks() [][]NodeID {
	var out [][]NodeID
	for i, comp := range c.Components {
		if len(c.Succ[i]) == 0 {
			out = append(out, comp)
		}
	}
	return out
}

// Levels returns, per component, the longest distance to a component without
// successors. Peeling sinks repeatedly removes the components level by level.
func (c *Condensed) Levels() []int {
	levels := make([]int, len(c.Components))
	// Tarjan emits sinks first, so every successor is settled before i.
	for i := range c.Components {
		for _, j := range c.Succ[i] {
			if levels[j]+1 > levels[i] {
				levels[i] = levels[j] + 1
			}
		}
	}
	return levels
}
