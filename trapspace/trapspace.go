// Package trapspace computes trap spaces of Boolean networks with a SAT solver.
//
// A subspace is a trap space iff for every variable it fixes to c some prime
// implicant of the variable's c-function lies inside it. Each variable v gets two
// solver literals "v fixed to 0" and "v fixed to 1"; models of the encoding are
// exactly the trap spaces.
package trapspace

import (
	"errors"
	"fmt"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
	"go.uber.org/zap"

	"github.com/rfielding/boolnet-ctl/primes"
	"github.com/rfielding/boolnet-ctl/space"
)

var ErrSolver = errors.New("sat solver failed")

// Kind selects minimal or maximal trap spaces.
type Kind int

const (
	Min Kind = iota
	Max
	All
)

func (k Kind) String() string {
	switch k {
	case Min:
		return "min"
	case Max:
		return "max"
	case All:
		return "all"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind accepts "min", "max" and "all".
func ParseKind(s string) (Kind, error) {
	for _, k := range []Kind{Min, Max, All} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown trap space kind %q", s)
}

// Solver enumerates trap spaces. It is stateless; every call builds a fresh
// solver instance, so one Solver may be shared between goroutines.
type Solver struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Solver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Solver{logger: logger}
}

type literal struct {
	index int
	value int
}

type encoding struct {
	g     *gini.Gini
	names []string
	fix   [2][]z.Lit
}

func encode(net primes.Network) *encoding {
	names := net.Names()
	index := make(map[string]int, len(names))
	c := logic.NewC()
	e := &encoding{g: gini.New(), names: names}
	e.fix[0] = make([]z.Lit, len(names))
	e.fix[1] = make([]z.Lit, len(names))
	for i, n := range names {
		index[n] = i
		e.fix[0][i] = c.Lit()
		e.fix[1][i] = c.Lit()
	}

	type implication struct {
		fixed, support z.Lit
	}
	var implications []implication
	var forbidden []z.Lit
	for i, n := range names {
		for v := 0; v < 2; v++ {
			ps := net[n][v]
			always := false
			gates := make([]z.Lit, 0, len(ps))
			for _, p := range ps {
				if len(p) == 0 {
					always = true
					break
				}
				lits := make([]z.Lit, 0, len(p))
				for _, u := range space.Names(p) {
					lits = append(lits, e.fix[p[u]][index[u]])
				}
				gates = append(gates, c.Ands(lits...))
			}
			switch {
			case always:
			case len(gates) == 0:
				forbidden = append(forbidden, e.fix[v][i])
			default:
				implications = append(implications, implication{e.fix[v][i], c.Ors(gates...)})
			}
		}
	}
	c.ToCnf(e.g)

	for i := range names {
		e.clause(e.fix[0][i].Not(), e.fix[1][i].Not())
	}
	for _, m := range forbidden {
		e.clause(m.Not())
	}
	for _, imp := range implications {
		e.clause(imp.fixed.Not(), imp.support)
	}
	return e
}

func (e *encoding) clause(ms ...z.Lit) {
	for _, m := range ms {
		e.g.Add(m)
	}
	e.g.Add(z.LitNull)
}

func (e *encoding) lit(l literal) z.Lit { return e.fix[l.value][l.index] }

// solve runs the solver under assumptions and reports satisfiability.
func (e *encoding) solve(assumptions ...z.Lit) (bool, error) {
	e.g.Assume(assumptions...)
	switch e.g.Solve() {
	case 1:
		return true, nil
	case -1:
		return false, nil
	default:
		return false, ErrSolver
	}
}

// model reads the fixed literals of the last satisfying assignment.
func (e *encoding) model() []literal {
	var out []literal
	for i := range e.names {
		for v := 0; v < 2; v++ {
			if e.g.Value(e.fix[v][i]) {
				out = append(out, literal{i, v})
			}
		}
	}
	return out
}

func (e *encoding) subspace(ls []literal) space.Subspace {
	out := make(space.Subspace, len(ls))
	for _, l := range ls {
		out[e.names[l.index]] = l.value
	}
	return out
}

func (e *encoding) lits(ls []literal) []z.Lit {
	out := make([]z.Lit, len(ls))
	for i, l := range ls {
		out[i] = e.lit(l)
	}
	return out
}

func fixedIndices(ls []literal) map[int]bool {
	out := make(map[int]bool, len(ls))
	for _, l := range ls {
		out[l.index] = true
	}
	return out
}

// extend greedily fixes more variables until the trap space is minimal.
func (e *encoding) extend(ls []literal) ([]literal, error) {
	for i := range e.names {
		if fixedIndices(ls)[i] {
			continue
		}
		for v := 0; v < 2; v++ {
			ok, err := e.solve(append(e.lits(ls), e.fix[v][i])...)
			if err != nil {
				return nil, err
			}
			if ok {
				ls = e.model()
				break
			}
		}
	}
	return ls, nil
}

// shrink greedily frees variables while keeping at least one fixed, ending in a
// maximal proper trap space.
func (e *encoding) shrink(ls []literal) ([]literal, error) {
	for _, drop := range ls {
		current := map[literal]bool{}
		for _, l := range ls {
			current[l] = true
		}
		if !current[drop] {
			continue
		}
		assumptions := []z.Lit{e.lit(drop).Not()}
		for i := range e.names {
			for v := 0; v < 2; v++ {
				if l := (literal{i, v}); !current[l] {
					assumptions = append(assumptions, e.lit(l).Not())
				}
			}
		}
		ok, err := e.solve(assumptions...)
		if err != nil {
			return nil, err
		}
		if ok {
			ls = e.model()
		}
	}
	return ls, nil
}

func (s *Solver) finish(kind string, net primes.Network, out []space.Subspace) []space.Subspace {
	space.SortSubspaces(out, net.Names())
	s.logger.Debug("trap spaces", zap.String("kind", kind), zap.Int("variables", len(net)), zap.Int("found", len(out)))
	return out
}

// Minimal returns the inclusion-minimal trap spaces sorted by string.
func (s *Solver) Minimal(net primes.Network) ([]space.Subspace, error) {
	e := encode(net)
	var out []space.Subspace
	for {
		ok, err := e.solve()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		ls, err := e.extend(e.model())
		if err != nil {
			return nil, err
		}
		out = append(out, e.subspace(ls))
		if len(ls) == 0 {
			break
		}
		// minimal trap spaces are pairwise disjoint
		block := make([]z.Lit, len(ls))
		for i, l := range ls {
			block[i] = e.fix[1-l.value][l.index]
		}
		e.clause(block...)
	}
	return s.finish("min", net, out), nil
}

// Maximal returns the inclusion-maximal trap spaces other than the full space.
func (s *Solver) Maximal(net primes.Network) ([]space.Subspace, error) {
	if len(net) == 0 {
		return nil, nil
	}
	e := encode(net)
	e.clause(append(append([]z.Lit(nil), e.fix[0]...), e.fix[1]...)...)
	return s.maximal(e, net)
}

func (s *Solver) maximal(e *encoding, net primes.Network) ([]space.Subspace, error) {
	var out []space.Subspace
	for {
		ok, err := e.solve()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		ls, err := e.shrink(e.model())
		if err != nil {
			return nil, err
		}
		out = append(out, e.subspace(ls))
		block := e.lits(ls)
		for i := range block {
			block[i] = block[i].Not()
		}
		e.clause(block...)
	}
	return s.finish("max", net, out), nil
}

// All returns every trap space, the full space included.
func (s *Solver) All(net primes.Network) ([]space.Subspace, error) {
	e := encode(net)
	out, err := enumerate(e)
	if err != nil {
		return nil, err
	}
	return s.finish("all", net, out), nil
}

// SteadyStates returns the fixed points of the network.
func (s *Solver) SteadyStates(net primes.Network) ([]space.State, error) {
	e := encode(net)
	for i := range e.names {
		e.clause(e.fix[0][i], e.fix[1][i])
	}
	subs, err := enumerate(e)
	if err != nil {
		return nil, err
	}
	subs = s.finish("steady", net, subs)
	out := make([]space.State, len(subs))
	for i, sub := range subs {
		out[i] = space.State(sub)
	}
	return out, nil
}

// enumerate lists all models, blocking each exact assignment.
func enumerate(e *encoding) ([]space.Subspace, error) {
	var out []space.Subspace
	for {
		ok, err := e.solve()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		ls := e.model()
		out = append(out, e.subspace(ls))
		chosen := map[literal]bool{}
		for _, l := range ls {
			chosen[l] = true
		}
		var block []z.Lit
		for i := range e.names {
			for v := 0; v < 2; v++ {
				l := literal{i, v}
				if chosen[l] {
					block = append(block, e.lit(l).Not())
				} else {
					block = append(block, e.lit(l))
				}
			}
		}
		if len(block) == 0 {
			return out, nil
		}
		e.clause(block...)
	}
}

// Containing returns the minimal trap space containing state, or for Max the
// first maximal trap space containing it (the full space when there is none).
func (s *Solver) Containing(net primes.Network, state space.State, kind Kind) (space.Subspace, error) {
	names := net.Names()
	if err := space.ValidateState(state, names); err != nil {
		return nil, err
	}
	switch kind {
	case Min:
		return smallestContaining(net, state), nil
	case Max:
		if len(net) == 0 {
			return space.Subspace{}, nil
		}
		e := encode(net)
		var consistent []z.Lit
		for i, n := range names {
			e.clause(e.fix[1-state[n]][i].Not())
			consistent = append(consistent, e.fix[state[n]][i])
		}
		e.clause(consistent...)
		found, err := s.maximal(e, net)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return space.Subspace{}, nil
		}
		return found[0], nil
	default:
		return nil, fmt.Errorf("containing: unsupported kind %v", kind)
	}
}

// smallestContaining frees variables whose function is not constant on the
// current subspace until nothing changes.
func smallestContaining(net primes.Network, state space.State) space.Subspace {
	sub := state.Subspace()
	for changed := true; changed; {
		changed = false
		for _, n := range net.Names() {
			c, ok := sub[n]
			if !ok {
				continue
			}
			constant := false
			for _, p := range net[n][c] {
				if space.IsSubspaceOf(sub, p) {
					constant = true
					break
				}
			}
			if !constant {
				delete(sub, n)
				changed = true
			}
		}
	}
	return sub
}

// Energy is the number of free variables of the minimal trap space containing
// state. It never increases along transitions and is 0 exactly at steady states.
func (s *Solver) Energy(net primes.Network, state space.State) (int, error) {
	sub, err := s.Containing(net, state, Min)
	if err != nil {
		return 0, err
	}
	return len(net) - len(sub), nil
}
