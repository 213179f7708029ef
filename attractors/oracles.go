package attractors

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rfielding/boolnet-ctl/kripke"
	"github.com/rfielding/boolnet-ctl/primes"
	"github.com/rfielding/boolnet-ctl/space"
	"github.com/rfielding/boolnet-ctl/stg"
)

// Pair holds two attractor states of different attractors.
type Pair struct {
	First  space.State `json:"first" yaml:"first"`
	Second space.State `json:"second" yaml:"second"`
}

// reduce fixes sub on a private copy and percolates. The returned network holds
// only the variables left free.
func reduce(net primes.Network, sub space.Subspace) (primes.Network, space.Subspace, error) {
	reduced := net.Copy()
	if err := reduced.FixConstants(sub); err != nil {
		return nil, nil, err
	}
	constants := reduced.PercolateAndDrop()
	return reduced, constants, nil
}

// Univocality decides whether sub contains exactly one attractor. When it does
// not, the returned pair holds states of two different attractors.
func (a *Analyzer) Univocality(ctx context.Context, net primes.Network, u stg.Update, sub space.Subspace) (univocal bool, cex *Pair, err error) {
	if err := validate(net, u, sub); err != nil {
		return false, nil, err
	}
	names := net.Names()
	ctx, span := tracer.Start(ctx, "attractors.Univocality", trace.WithAttributes(
		attribute.String("update", u.String()),
		attribute.String("subspace", subspaceString(sub, names)),
	))
	defer func() {
		if err == nil {
			span.SetAttributes(attribute.Bool("univocal", univocal))
			recordDecision(ctx, "univocality", univocal)
		}
		endSpan(span, err)
	}()

	reduced, constants, err := reduce(net, sub)
	if err != nil {
		return false, nil, err
	}
	if len(reduced) == 0 {
		return true, nil, nil
	}

	x1, err := a.FindAttractorState(ctx, reduced, u, space.Subspace{})
	if err != nil {
		return false, nil, err
	}
	holds, last, err := a.checkWithCounterexample(ctx, reduced, u, kripke.True{}, kripke.EF{F: kripke.StateProp(x1)})
	if err != nil {
		return false, nil, err
	}
	if holds {
		return true, nil, nil
	}
	x2, err := a.FindAttractorState(ctx, reduced, u, last.Subspace())
	if err != nil {
		return false, nil, err
	}

	first, err := space.MergeState(x1, constants)
	if err != nil {
		return false, nil, err
	}
	second, err := space.MergeState(x2, constants)
	if err != nil {
		return false, nil, err
	}
	a.logger.Debug("subspace is not univocal",
		zap.String("subspace", subspaceString(sub, names)),
		zap.String("first", first.String()),
		zap.String("second", second.String()),
	)
	return false, &Pair{First: first, Second: second}, nil
}

// Faithfulness decides whether every variable that sub leaves free oscillates in
// every attractor inside sub. When it does not, the returned state lies in an
// attractor where some free variable is stuck.
func (a *Analyzer) Faithfulness(ctx context.Context, net primes.Network, u stg.Update, sub space.Subspace) (faithful bool, cex space.State, err error) {
	if err := validate(net, u, sub); err != nil {
		return false, nil, err
	}
	names := net.Names()
	ctx, span := tracer.Start(ctx, "attractors.Faithfulness", trace.WithAttributes(
		attribute.String("update", u.String()),
		attribute.String("subspace", subspaceString(sub, names)),
	))
	defer func() {
		if err == nil {
			span.SetAttributes(attribute.Bool("faithful", faithful))
			recordDecision(ctx, "faithfulness", faithful)
		}
		endSpan(span, err)
	}()

	if len(sub) == len(net) {
		return true, nil, nil
	}
	reduced, constants, err := reduce(net, sub)
	if err != nil {
		return false, nil, err
	}

	// percolation fixed a variable that sub leaves free
	if len(constants) > len(sub) {
		x, err := a.FindAttractorState(ctx, reduced, u, space.Subspace{})
		if err != nil {
			return false, nil, err
		}
		merged, err := space.MergeState(x, constants)
		if err != nil {
			return false, nil, err
		}
		return false, merged, nil
	}

	spec := kripke.AG{F: kripke.EFUnsteady(reduced.Names())}
	holds, last, err := a.checkWithCounterexample(ctx, reduced, u, kripke.True{}, spec)
	if err != nil {
		return false, nil, err
	}
	if holds {
		return true, nil, nil
	}
	x, err := a.FindAttractorState(ctx, reduced, u, last.Subspace())
	if err != nil {
		return false, nil, err
	}
	merged, err := space.MergeState(x, constants)
	if err != nil {
		return false, nil, err
	}
	a.logger.Debug("subspace is not faithful",
		zap.String("subspace", subspaceString(sub, names)),
		zap.String("state", merged.String()),
	)
	return false, merged, nil
}
