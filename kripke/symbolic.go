package kripke

import (
	"errors"
	"fmt"

	"github.com/dalzilio/rudd"
	"go.uber.org/zap"

	"github.com/rfielding/boolnet-ctl/primes"
	"github.com/rfielding/boolnet-ctl/space"
	"github.com/rfielding/boolnet-ctl/stg"
)

// Symbolic checks formulas on BDD encodings of the transition relation. Current
// and next copies of each variable are interleaved: variable i has BDD index 2i
// and its next value 2i+1.
type Symbolic struct {
	nodesize  int
	cachesize int
	logger    *zap.Logger
}

type SymbolicOption func(*Symbolic)

// WithNodesize sets the initial BDD node table size.
func WithNodesize(n int) SymbolicOption { return func(s *Symbolic) { s.nodesize = n } }

// WithCachesize sets the BDD operation cache size.
func WithCachesize(n int) SymbolicOption { return func(s *Symbolic) { s.cachesize = n } }

// WithLogger sets the logger used for query statistics.
func WithLogger(l *zap.Logger) SymbolicOption { return func(s *Symbolic) { s.logger = l } }

func NewSymbolic(opts ...SymbolicOption) *Symbolic {
	s := &Symbolic{nodesize: 10000, cachesize: 5000, logger: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Symbolic) Check(net primes.Network, u stg.Update, init, spec Formula) (bool, error) {
	holds, _, err := s.check(net, u, init, spec, false)
	return holds, err
}

func (s *Symbolic) CheckWithCounterexample(net primes.Network, u stg.Update, init, spec Formula) (bool, []space.State, error) {
	return s.check(net, u, init, spec, true)
}

func (s *Symbolic) check(net primes.Network, u stg.Update, init, spec Formula, withPath bool) (bool, []space.State, error) {
	if err := validate(net, init, spec); err != nil {
		return false, nil, err
	}
	if len(net) == 0 {
		// a BDD needs at least one variable; the single empty state is cheap
		return NewExplicit().check(net, u, init, spec, withPath)
	}
	m, err := newModel(net, u, s.nodesize, s.cachesize)
	if err != nil {
		return false, nil, err
	}
	initSet, err := m.sat(init)
	if err != nil {
		return false, nil, err
	}
	specSet, err := m.sat(spec)
	if err != nil {
		return false, nil, err
	}
	violating := m.bdd.And(initSet, m.bdd.Not(specSet))
	if err := m.err(); err != nil {
		return false, nil, err
	}
	holds := m.isFalse(violating)
	s.logger.Debug("symbolic check",
		zap.Stringer("update", u),
		zap.String("init", init.String()),
		zap.String("spec", spec.String()),
		zap.Bool("holds", holds),
	)
	if holds || !withPath {
		return holds, nil, nil
	}
	path, err := m.counterexample(violating, spec)
	return false, path, err
}

type model struct {
	bdd    *rudd.BDD
	names  []string
	index  map[string]int
	cur    rudd.Node // set of current variables
	next   rudd.Node // set of next variables
	toNext rudd.Replacer
	toCur  rudd.Replacer
	funcs  map[string]rudd.Node
	trans  rudd.Node
}

func newModel(net primes.Network, u stg.Update, nodesize, cachesize int) (*model, error) {
	names := net.Names()
	bdd, err := rudd.New(2*len(names), rudd.Nodesize(nodesize), rudd.Cachesize(cachesize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBDD, err)
	}
	m := &model{bdd: bdd, names: names, index: make(map[string]int, len(names)), funcs: make(map[string]rudd.Node, len(names))}
	curVars := make([]int, len(names))
	nextVars := make([]int, len(names))
	for i, n := range names {
		m.index[n] = i
		curVars[i] = 2 * i
		nextVars[i] = 2*i + 1
	}
	m.cur = bdd.Makeset(curVars)
	m.next = bdd.Makeset(nextVars)
	if m.toNext, err = bdd.NewReplacer(curVars, nextVars); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBDD, err)
	}
	if m.toCur, err = bdd.NewReplacer(nextVars, curVars); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBDD, err)
	}
	for _, n := range names {
		f := bdd.False()
		for _, prime := range net[n][1] {
			f = bdd.Or(f, m.cube(prime))
		}
		m.funcs[n] = f
	}
	m.trans = m.transition(u)
	return m, m.err()
}

func (m *model) err() error {
	if m.bdd.Errored() {
		return fmt.Errorf("%w: %s", ErrBDD, m.bdd.Error())
	}
	return nil
}

func (m *model) x(name string) rudd.Node  { return m.bdd.Ithvar(2 * m.index[name]) }
func (m *model) xp(name string) rudd.Node { return m.bdd.Ithvar(2*m.index[name] + 1) }

func (m *model) isFalse(n rudd.Node) bool { return *n == *m.bdd.False() }

// cube is the conjunction of the literals of an assignment over current variables.
func (m *model) cube(a map[string]int) rudd.Node {
	res := m.bdd.True()
	for k, v := range a {
		if v == 1 {
			res = m.bdd.And(res, m.x(k))
		} else {
			res = m.bdd.And(res, m.bdd.Not(m.x(k)))
		}
	}
	return res
}

func (m *model) unsteady(name string) rudd.Node {
	return m.bdd.Not(m.bdd.Equiv(m.x(name), m.funcs[name]))
}

// transition builds T(x, x') for the update mode. Steady states loop on
// themselves in every mode.
func (m *model) transition(u stg.Update) rudd.Node {
	b := m.bdd
	keep := make(map[string]rudd.Node, len(m.names))
	update := make(map[string]rudd.Node, len(m.names))
	steady := b.True()
	for _, n := range m.names {
		keep[n] = b.Equiv(m.xp(n), m.x(n))
		update[n] = b.Equiv(m.xp(n), m.funcs[n])
		steady = b.And(steady, b.Not(m.unsteady(n)))
	}
	idle := steady
	for _, n := range m.names {
		idle = b.And(idle, keep[n])
	}

	switch u {
	case stg.Synchronous:
		t := b.True()
		for _, n := range m.names {
			t = b.And(t, update[n])
		}
		return t
	case stg.Asynchronous:
		t := idle
		for _, n := range m.names {
			step := b.And(m.unsteady(n), update[n])
			for _, o := range m.names {
				if o != n {
					step = b.And(step, keep[o])
				}
			}
			t = b.Or(t, step)
		}
		return t
	default:
		each := b.True()
		some := b.False()
		for _, n := range m.names {
			each = b.And(each, b.Or(keep[n], update[n]))
			some = b.Or(some, b.Not(keep[n]))
		}
		return b.Or(idle, b.And(each, some))
	}
}

// pre returns the states with some successor in s.
func (m *model) pre(s rudd.Node) rudd.Node {
	return m.bdd.AndExist(m.next, m.trans, m.bdd.Replace(s, m.toNext))
}

// image returns the successors of the states in s.
func (m *model) image(s rudd.Node) rudd.Node {
	return m.bdd.Replace(m.bdd.AndExist(m.cur, m.trans, s), m.toCur)
}

func (m *model) sat(f Formula) (rudd.Node, error) {
	b := m.bdd
	switch f := f.(type) {
	case True:
		return b.True(), nil
	case False:
		return b.False(), nil
	case Var:
		return m.x(f.Name), nil
	case Unsteady:
		return m.unsteady(f.Name), nil
	case Not:
		s, err := m.sat(f.F)
		if err != nil {
			return nil, err
		}
		return b.Not(s), nil
	case And:
		res := b.True()
		for _, t := range f.Terms {
			s, err := m.sat(t)
			if err != nil {
				return nil, err
			}
			res = b.And(res, s)
		}
		return res, nil
	case Or:
		res := b.False()
		for _, t := range f.Terms {
			s, err := m.sat(t)
			if err != nil {
				return nil, err
			}
			res = b.Or(res, s)
		}
		return res, nil
	case Implies:
		return m.sat(Or{Terms: []Formula{Not{F: f.Left}, f.Right}})
	case EX:
		s, err := m.sat(f.F)
		if err != nil {
			return nil, err
		}
		return m.pre(s), nil
	case AX:
		return m.sat(Not{F: EX{F: Not{F: f.F}}})
	case EF:
		return m.sat(EU{P: True{}, Q: f.F})
	case AF:
		return m.sat(Not{F: EG{F: Not{F: f.F}}})
	case AG:
		return m.sat(Not{F: EF{F: Not{F: f.F}}})
	case EU:
		p, err := m.sat(f.P)
		if err != nil {
			return nil, err
		}
		q, err := m.sat(f.Q)
		if err != nil {
			return nil, err
		}
		// Least fixpoint: Z = q ∨ (p ∧ EX Z)
		z := q
		for {
			next := b.Or(z, b.And(p, m.pre(z)))
			if *next == *z {
				return z, m.err()
			}
			z = next
		}
	case EG:
		p, err := m.sat(f.F)
		if err != nil {
			return nil, err
		}
		// Greatest fixpoint: Z = p ∧ EX Z
		z := p
		for {
			next := b.And(z, m.pre(z))
			if *next == *z {
				return z, m.err()
			}
			z = next
		}
	case AU:
		// A[p U q] = ¬(E[¬q U (¬p ∧ ¬q)] ∨ EG ¬q)
		notQ := Not{F: f.Q}
		return m.sat(Not{F: Or{Terms: []Formula{
			EU{P: notQ, Q: And{Terms: []Formula{Not{F: f.P}, notQ}}},
			EG{F: notQ},
		}}})
	default:
		return nil, fmt.Errorf("%w: unsupported formula %T", ErrParse, f)
	}
}

var errStop = errors.New("stop")

// pick returns one state of the non-empty set s; unconstrained variables are 0.
func (m *model) pick(s rudd.Node) (space.State, error) {
	var out space.State
	err := m.bdd.Allsat(func(assign []int) error {
		out = make(space.State, len(m.names))
		for i, n := range m.names {
			if assign[2*i] == 1 {
				out[n] = 1
			} else {
				out[n] = 0
			}
		}
		return errStop
	}, s)
	if err != nil && !errors.Is(err, errStop) {
		return nil, fmt.Errorf("%w: %v", ErrBDD, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: empty set", ErrBDD)
	}
	return out, nil
}

func (m *model) counterexample(violating rudd.Node, spec Formula) ([]space.State, error) {
	s0, err := m.pick(violating)
	if err != nil {
		return nil, err
	}
	ag, ok := spec.(AG)
	if !ok {
		return []space.State{s0}, nil
	}
	good, err := m.sat(ag.F)
	if err != nil {
		return nil, err
	}
	return m.shortestPath(s0, m.bdd.Not(good))
}

// shortestPath runs forward onion rings from s0 until one meets target, then
// walks back through the rings.
func (m *model) shortestPath(s0 space.State, target rudd.Node) ([]space.State, error) {
	b := m.bdd
	start := m.cube(s0)
	rings := []rudd.Node{start}
	reached := start
	frontier := start
	for m.isFalse(b.And(frontier, target)) {
		frontier = b.And(m.image(frontier), b.Not(reached))
		if m.isFalse(frontier) {
			return nil, fmt.Errorf("%w: target unreachable from %v", ErrBDD, s0)
		}
		reached = b.Or(reached, frontier)
		rings = append(rings, frontier)
	}
	last, err := m.pick(b.And(frontier, target))
	if err != nil {
		return nil, err
	}
	path := make([]space.State, len(rings))
	path[len(rings)-1] = last
	for i := len(rings) - 2; i >= 0; i-- {
		prev, err := m.pick(b.And(rings[i], m.pre(m.cube(path[i+1]))))
		if err != nil {
			return nil, err
		}
		path[i] = prev
	}
	return path, m.err()
}
