package kripke

import (
	"fmt"

	"github.com/rfielding/boolnet-ctl/digraph"
	"github.com/rfielding/boolnet-ctl/primes"
	"github.com/rfielding/boolnet-ctl/space"
	"github.com/rfielding/boolnet-ctl/stg"
)

// Explicit evaluates formulas on the full state graph with set based
// fixpoints. It is limited to stg.MaxExplicitVariables variables.
type Explicit struct{}

func NewExplicit() *Explicit { return &Explicit{} }

func (e *Explicit) Check(net primes.Network, u stg.Update, init, spec Formula) (bool, error) {
	holds, _, err := e.check(net, u, init, spec, false)
	return holds, err
}

func (e *Explicit) CheckWithCounterexample(net primes.Network, u stg.Update, init, spec Formula) (bool, []space.State, error) {
	return e.check(net, u, init, spec, true)
}

func (e *Explicit) check(net primes.Network, u stg.Update, init, spec Formula, withPath bool) (bool, []space.State, error) {
	if err := validate(net, init, spec); err != nil {
		return false, nil, err
	}
	g, err := stg.Build(net, u, space.Subspace{})
	if err != nil {
		return false, nil, err
	}
	k := &structure{g: g, net: net, names: net.Names()}
	initSet, err := k.sat(init)
	if err != nil {
		return false, nil, err
	}
	specSet, err := k.sat(spec)
	if err != nil {
		return false, nil, err
	}
	violating := initSet.Difference(specSet)
	if len(violating) == 0 {
		return true, nil, nil
	}
	if !withPath {
		return false, nil, nil
	}
	s0 := violating.Sorted()[0]
	path := []digraph.NodeID{s0}
	if ag, ok := spec.(AG); ok {
		good, err := k.sat(ag.F)
		if err != nil {
			return false, nil, err
		}
		path = k.shortestPath(s0, digraph.Universe(g).Difference(good))
	}
	out := make([]space.State, len(path))
	for i, id := range path {
		if out[i], err = space.ParseState(string(id), k.names); err != nil {
			return false, nil, err
		}
	}
	return false, out, nil
}

// structure labels the nodes of a state graph with network variables.
type structure struct {
	g     *digraph.Graph
	net   primes.Network
	names []string
}

func (k *structure) state(id digraph.NodeID) space.State {
	s, err := space.ParseState(string(id), k.names)
	if err != nil {
		panic(err)
	}
	return s
}

func (k *structure) where(pred func(space.State) bool) digraph.NodeSet {
	out := digraph.NewNodeSet()
	for _, id := range k.g.Nodes {
		if pred(k.state(id)) {
			out.Add(id)
		}
	}
	return out
}

func (k *structure) sat(f Formula) (digraph.NodeSet, error) {
	g := k.g
	switch f := f.(type) {
	case True:
		return digraph.Universe(g), nil
	case False:
		return digraph.NewNodeSet(), nil
	case Var:
		return k.where(func(s space.State) bool { return s[f.Name] == 1 }), nil
	case Unsteady:
		return k.where(func(s space.State) bool {
			return stg.SuccessorSync(k.net, s)[f.Name] != s[f.Name]
		}), nil
	case Not:
		s, err := k.sat(f.F)
		if err != nil {
			return nil, err
		}
		return digraph.Universe(g).Difference(s), nil
	case And:
		res := digraph.Universe(g)
		for _, t := range f.Terms {
			s, err := k.sat(t)
			if err != nil {
				return nil, err
			}
			res = res.Intersect(s)
		}
		return res, nil
	case Or:
		res := digraph.NewNodeSet()
		for _, t := range f.Terms {
			s, err := k.sat(t)
			if err != nil {
				return nil, err
			}
			res = res.Union(s)
		}
		return res, nil
	case Implies:
		return k.sat(Or{Terms: []Formula{Not{F: f.Left}, f.Right}})
	case EX:
		s, err := k.sat(f.F)
		if err != nil {
			return nil, err
		}
		return digraph.PreE(s, g), nil
	case AX:
		s, err := k.sat(f.F)
		if err != nil {
			return nil, err
		}
		return digraph.PreA(s, g), nil
	case EF:
		// EF φ ≡ E[ true U φ ]
		return k.sat(EU{P: True{}, Q: f.F})
	case AF:
		// AF φ ≡ ¬EG ¬φ
		return k.sat(Not{F: EG{F: Not{F: f.F}}})
	case AG:
		// AG φ ≡ ¬EF ¬φ
		return k.sat(Not{F: EF{F: Not{F: f.F}}})
	case EU:
		satP, err := k.sat(f.P)
		if err != nil {
			return nil, err
		}
		satQ, err := k.sat(f.Q)
		if err != nil {
			return nil, err
		}
		// Least fixpoint:
		// W0 = Sat(Q)
		// W_{i+1} = W_i ∪ (Sat(P) ∩ PreE(W_i))
		W := satQ.Copy()
		for {
			next := W.Union(digraph.PreE(W, g).Intersect(satP))
			if next.Equals(W) {
				return W, nil
			}
			W = next
		}
	case EG:
		satP, err := k.sat(f.F)
		if err != nil {
			return nil, err
		}
		// Greatest fixpoint: drop states without a successor in the set.
		Z := satP.Copy()
		for {
			next := Z.Intersect(digraph.PreE(Z, g))
			if next.Equals(Z) {
				return Z, nil
			}
			Z = next
		}
	case AU:
		satP, err := k.sat(f.P)
		if err != nil {
			return nil, err
		}
		satQ, err := k.sat(f.Q)
		if err != nil {
			return nil, err
		}
		// Least fixpoint: W_{i+1} = W_i ∪ (Sat(P) ∩ PreA(W_i))
		W := satQ.Copy()
		for {
			next := W.Union(digraph.PreA(W, g).Intersect(satP))
			if next.Equals(W) {
				return W, nil
			}
			W = next
		}
	default:
		return nil, fmt.Errorf("%w: unsupported formula %T", ErrParse, f)
	}
}

// shortestPath is a breadth first search from s0 to the nearest target node.
func (k *structure) shortestPath(s0 digraph.NodeID, target digraph.NodeSet) []digraph.NodeID {
	parent := map[digraph.NodeID]digraph.NodeID{s0: s0}
	queue := []digraph.NodeID{s0}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if target.Has(n) {
			var path []digraph.NodeID
			for ; n != s0; n = parent[n] {
				path = append(path, n)
			}
			path = append(path, s0)
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path
		}
		for _, m := range k.g.Succ[n] {
			if _, ok := parent[m]; !ok {
				parent[m] = n
				queue = append(queue, m)
			}
		}
	}
	return []digraph.NodeID{s0}
}
