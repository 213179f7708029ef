// Package attractors decides the attractors of Boolean networks. Minimal trap
// spaces are taken as attractor candidates; random walks confirmed by CTL model
// checking produce witnesses, and the univocality, faithfulness and completeness
// procedures decide whether the candidates describe the attractors exactly.
package attractors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/rfielding/boolnet-ctl/kripke"
	"github.com/rfielding/boolnet-ctl/primes"
	"github.com/rfielding/boolnet-ctl/space"
	"github.com/rfielding/boolnet-ctl/stg"
	"github.com/rfielding/boolnet-ctl/trapspace"
)

// ErrNoAttractorStateFound means every random walk ended outside an attractor.
// It is inconclusive: longer walks or more attempts may succeed.
var ErrNoAttractorStateFound = errors.New("no attractor state found")

// ModelChecker decides CTL formulas on the transition system of a network.
type ModelChecker interface {
	Check(net primes.Network, u stg.Update, init, spec kripke.Formula) (bool, error)
	CheckWithCounterexample(net primes.Network, u stg.Update, init, spec kripke.Formula) (bool, []space.State, error)
}

// TrapSpaceOracle enumerates trap spaces.
type TrapSpaceOracle interface {
	Minimal(net primes.Network) ([]space.Subspace, error)
	Maximal(net primes.Network) ([]space.Subspace, error)
	All(net primes.Network) ([]space.Subspace, error)
	Containing(net primes.Network, state space.State, kind trapspace.Kind) (space.Subspace, error)
}

// Analyzer runs the decision procedures. It is not safe for concurrent use
// because it owns a random source; Compute forks one Analyzer per trap space.
type Analyzer struct {
	checker    ModelChecker
	oracle     TrapSpaceOracle
	rng        *rand.Rand
	walkLength int
	attempts   int
	logger     *zap.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithChecker replaces the default symbolic model checker.
func WithChecker(c ModelChecker) Option { return func(a *Analyzer) { a.checker = c } }

// WithOracle replaces the default SAT trap-space oracle.
func WithOracle(o TrapSpaceOracle) Option { return func(a *Analyzer) { a.oracle = o } }

// WithRand injects the random source used for sampling and walks.
func WithRand(rng *rand.Rand) Option { return func(a *Analyzer) { a.rng = rng } }

// WithSeed is WithRand with a fresh source.
func WithSeed(seed int64) Option {
	return func(a *Analyzer) { a.rng = rand.New(rand.NewSource(seed)) }
}

// WithWalkLength sets the number of transitions per walk; 0 means 10 per variable.
func WithWalkLength(n int) Option { return func(a *Analyzer) { a.walkLength = n } }

// WithAttempts sets how many walks are tried before giving up.
func WithAttempts(n int) Option { return func(a *Analyzer) { a.attempts = n } }

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *zap.Logger) Option { return func(a *Analyzer) { a.logger = l } }

// New returns an Analyzer with the symbolic checker, the SAT oracle, a
// time-seeded random source and ten walk attempts unless opts say otherwise.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{attempts: 10}
	for _, o := range opts {
		o(a)
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.checker == nil {
		a.checker = kripke.NewSymbolic(kripke.WithLogger(a.logger))
	}
	if a.oracle == nil {
		a.oracle = trapspace.New(a.logger)
	}
	if a.rng == nil {
		a.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if a.attempts < 1 {
		a.attempts = 1
	}
	return a
}

// fork returns a copy with its own random source.
func (a *Analyzer) fork(seed int64) *Analyzer {
	b := *a
	b.rng = rand.New(rand.NewSource(seed))
	return &b
}

func validate(net primes.Network, u stg.Update, subs ...space.Subspace) error {
	if err := u.Validate(); err != nil {
		return err
	}
	names := net.Names()
	for _, s := range subs {
		if err := space.Validate(s, names); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) check(ctx context.Context, net primes.Network, u stg.Update, init, spec kripke.Formula) (bool, error) {
	start := time.Now()
	holds, err := a.checker.Check(net, u, init, spec)
	recordOracleCall(ctx, "model_checker", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("model checking %s: %w", spec, err)
	}
	return holds, nil
}

// checkWithCounterexample returns the last state of the counterexample path on
// failure.
func (a *Analyzer) checkWithCounterexample(ctx context.Context, net primes.Network, u stg.Update, init, spec kripke.Formula) (bool, space.State, error) {
	start := time.Now()
	holds, path, err := a.checker.CheckWithCounterexample(net, u, init, spec)
	recordOracleCall(ctx, "model_checker", time.Since(start), err)
	if err != nil {
		return false, nil, fmt.Errorf("model checking %s: %w", spec, err)
	}
	if holds {
		return true, nil, nil
	}
	if len(path) == 0 {
		return false, nil, fmt.Errorf("model checking %s: refuted without counterexample", spec)
	}
	return false, path[len(path)-1], nil
}

func (a *Analyzer) minimal(ctx context.Context, net primes.Network) ([]space.Subspace, error) {
	start := time.Now()
	mints, err := a.oracle.Minimal(net)
	recordOracleCall(ctx, "trap_spaces", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("minimal trap spaces: %w", err)
	}
	return mints, nil
}

func subspaceString(sub space.Subspace, names []string) string {
	s, err := space.SubspaceString(sub, names)
	if err != nil {
		return fmt.Sprint(map[string]int(sub))
	}
	return s
}
