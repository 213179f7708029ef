package attractors

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rfielding/boolnet-ctl/kripke"
	"github.com/rfielding/boolnet-ctl/primes"
	"github.com/rfielding/boolnet-ctl/space"
	"github.com/rfielding/boolnet-ctl/stg"
)

// FindAttractorState walks randomly from states inside sub and returns the first
// walk end that the model checker proves recurrent, i.e. "AG EF state" holds from
// it. The empty network has the empty state as its only attractor.
func (a *Analyzer) FindAttractorState(ctx context.Context, net primes.Network, u stg.Update, sub space.Subspace) (x space.State, err error) {
	if err := validate(net, u, sub); err != nil {
		return nil, err
	}
	names := net.Names()
	length := a.walkLength
	if length <= 0 {
		length = 10 * len(names)
	}
	ctx, span := tracer.Start(ctx, "attractors.FindAttractorState", trace.WithAttributes(
		attribute.String("update", u.String()),
		attribute.Int("variables", len(names)),
		attribute.Int("walk_length", length),
	))
	defer func() { endSpan(span, err) }()

	if len(net) == 0 {
		return space.State{}, nil
	}
	for attempt := 1; attempt <= a.attempts; attempt++ {
		start := stg.RandomState(a.rng, names, sub)
		path, err := stg.RandomWalk(net, u, start, length, a.rng)
		if err != nil {
			return nil, err
		}
		x := path[len(path)-1]
		prop := kripke.StateProp(x)
		holds, err := a.check(ctx, net, u, prop, kripke.AG{F: kripke.EF{F: prop}})
		if err != nil {
			return nil, err
		}
		recordWitnessAttempt(ctx, holds)
		if holds {
			a.logger.Debug("attractor state found",
				zap.String("state", x.String()),
				zap.Int("attempt", attempt),
			)
			span.SetAttributes(attribute.Int("attempts", attempt))
			return x, nil
		}
	}
	a.logger.Warn("no attractor state found",
		zap.String("subspace", subspaceString(sub, names)),
		zap.Int("attempts", a.attempts),
		zap.Int("walk_length", length),
	)
	return nil, fmt.Errorf("%w: %d walks of length %d from %s", ErrNoAttractorStateFound, a.attempts, length, subspaceString(sub, names))
}
