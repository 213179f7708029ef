package stg

import (
	"container/heap"
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/rfielding/boolnet-ctl/digraph"
	"github.com/rfielding/boolnet-ctl/primes"
	"github.com/rfielding/boolnet-ctl/space"
)

// MaxExplicitVariables bounds the networks whose state graph is built explicitly.
const MaxExplicitVariables = 20

var ErrTooLarge = errors.New("state space too large")

// Build returns the state transition graph reachable from the states of init.
// Node ids are state strings in the order of net.Names().
func Build(net primes.Network, u Update, init space.Subspace) (*digraph.Graph, error) {
	names := net.Names()
	if len(names) > MaxExplicitVariables {
		return nil, fmt.Errorf("%w: %d variables", ErrTooLarge, len(names))
	}
	if err := space.Validate(init, names); err != nil {
		return nil, err
	}
	succ, err := Successors(u)
	if err != nil {
		return nil, err
	}
	g := digraph.New()
	var queue []space.State
	for _, x := range space.Enumerate(init, names) {
		id := nodeID(x, names)
		if !g.HasNode(id) {
			g.AddNode(id)
			queue = append(queue, x)
		}
	}
	for len(queue) > 0 {
		x := queue[0]
		queue = queue[1:]
		from := nodeID(x, names)
		for _, y := range succ(net, x) {
			to := nodeID(y, names)
			if !g.HasNode(to) {
				queue = append(queue, y)
			}
			g.AddEdge(from, to)
		}
	}
	return g, nil
}

func nodeID(x space.State, names []string) digraph.NodeID {
	s, err := space.StateString(x, names)
	if err != nil {
		panic(err)
	}
	return digraph.NodeID(s)
}

// Attractor is a terminal strongly connected component of a state graph.
type Attractor struct {
	States []string
}

func (a Attractor) IsSteady() bool { return len(a.States) == 1 }
func (a Attractor) IsCyclic() bool { return len(a.States) > 1 }

// Attractors returns the terminal components of g ordered by their first state.
func Attractors(g *digraph.Graph) []Attractor {
	var out []Attractor
	for _, comp := range digraph.Condensation(g).Sinks() {
		a := Attractor{States: make([]string, len(comp))}
		for i, id := range comp {
			a.States[i] = string(id)
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].States[0] < out[j].States[0] })
	return out
}

type searchNode struct {
	dist int
	path []space.State
}

type fringe []searchNode

func (f fringe) Len() int { return len(f) }
func (f fringe) Less(i, j int) bool {
	if f[i].dist != f[j].dist {
		return f[i].dist < f[j].dist
	}
	return len(f[i].path) < len(f[j].path)
}
func (f fringe) Swap(i, j int) { f[i], f[j] = f[j], f[i] }
func (f *fringe) Push(x any)   { *f = append(*f, x.(searchNode)) }
func (f *fringe) Pop() any {
	old := *f
	n := old[len(old)-1]
	*f = old[:len(old)-1]
	return n
}

func goalDistance(x space.State, goal space.Subspace) int {
	d := 0
	for k, v := range goal {
		if x[k] != v {
			d++
		}
	}
	return d
}

// BestFirstReachability searches asynchronous paths from a random state of init
// towards goal, guided by the Hamming distance on the variables goal fixes. It
// gives up after memory states were explored. A nil path proves nothing.
func BestFirstReachability(net primes.Network, init, goal space.Subspace, memory int, rng *rand.Rand) ([]space.State, error) {
	names := net.Names()
	if err := space.Validate(init, names); err != nil {
		return nil, err
	}
	if err := space.Validate(goal, names); err != nil {
		return nil, err
	}
	x := RandomState(rng, names, init)
	seen := map[string]struct{}{x.String(): {}}
	f := &fringe{{dist: goalDistance(x, goal), path: []space.State{x}}}
	for f.Len() > 0 {
		n := heap.Pop(f).(searchNode)
		if n.dist == 0 {
			return n.path, nil
		}
		last := n.path[len(n.path)-1]
		for _, y := range SuccessorsAsync(net, last) {
			if _, ok := seen[y.String()]; ok {
				continue
			}
			seen[y.String()] = struct{}{}
			path := append(append([]space.State(nil), n.path...), y)
			heap.Push(f, searchNode{dist: goalDistance(y, goal), path: path})
		}
		if len(seen) > memory {
			break
		}
	}
	return nil, nil
}
