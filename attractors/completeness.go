package attractors

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rfielding/boolnet-ctl/digraph"
	"github.com/rfielding/boolnet-ctl/igraph"
	"github.com/rfielding/boolnet-ctl/kripke"
	"github.com/rfielding/boolnet-ctl/primes"
	"github.com/rfielding/boolnet-ctl/space"
	"github.com/rfielding/boolnet-ctl/stg"
)

// CompletenessNaive decides with a single query whether every state can reach
// one of family. On failure it returns a state that reaches none of them.
func (a *Analyzer) CompletenessNaive(ctx context.Context, net primes.Network, u stg.Update, family []space.Subspace) (complete bool, cex space.State, err error) {
	if err := validate(net, u, family...); err != nil {
		return false, nil, err
	}
	return a.completeFrom(ctx, net, u, space.Subspace{}, family)
}

// completeFrom decides whether every state of init can reach one of family.
// The counterexample always lies in init.
func (a *Analyzer) completeFrom(ctx context.Context, net primes.Network, u stg.Update, init space.Subspace, family []space.Subspace) (complete bool, cex space.State, err error) {
	ctx, span := tracer.Start(ctx, "attractors.CompletenessNaive", trace.WithAttributes(
		attribute.String("update", u.String()),
		attribute.Int("variables", len(net)),
		attribute.Int("family", len(family)),
		attribute.Int("init_fixed", len(init)),
	))
	defer func() { endSpan(span, err) }()

	holds, last, err := a.checkWithCounterexample(ctx, net, u, kripke.SubspaceProp(init), kripke.EFOneOfSubspaces(family))
	if err != nil {
		return false, nil, err
	}
	if holds {
		return true, nil, nil
	}
	return false, last, nil
}

// workItem is one pending refinement: constants fixed on the network and the
// variables whose autonomous sets are already decided.
type workItem struct {
	constants space.Subspace
	seen      digraph.NodeSet
}

// CompletenessIterative decides whether the minimal trap spaces of net are
// complete, i.e. whether every attractor lies in one of them. It walks the
// hierarchy of autonomous sets of the interaction graph top down and runs the
// naive query only on the ancestor closure of each top layer set. On failure it
// returns a full state that reaches no minimal trap space.
func (a *Analyzer) CompletenessIterative(ctx context.Context, net primes.Network, u stg.Update) (complete bool, cex space.State, err error) {
	if err := validate(net, u); err != nil {
		return false, nil, err
	}
	ctx, span := tracer.Start(ctx, "attractors.Completeness", trace.WithAttributes(
		attribute.String("update", u.String()),
		attribute.Int("variables", len(net)),
	))
	rounds := 0
	defer func() {
		if err == nil {
			span.SetAttributes(attribute.Bool("complete", complete), attribute.Int("rounds", rounds))
			recordDecision(ctx, "completeness", complete)
		}
		endSpan(span, err)
	}()

	base := net.Copy()
	globals := base.PercolateAndDrop()
	mints, err := a.minimal(ctx, base)
	if err != nil {
		return false, nil, err
	}
	if len(mints) == 1 && len(mints[0]) == 0 {
		return true, nil, nil
	}
	names := base.Names()
	known := make(map[string]struct{}, len(mints))
	for _, m := range mints {
		known[subspaceString(m, names)] = struct{}{}
	}

	stack := []workItem{{constants: space.Subspace{}, seen: digraph.NewNodeSet()}}
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		rounds++

		reduced := base.Copy()
		if err := reduced.FixConstants(item.constants); err != nil {
			return false, nil, err
		}
		g := igraph.Of(reduced)
		seen := item.seen.Copy()
		var factors [][]space.Subspace

		for _, top := range digraph.Condensation(g).TopLayer(item.seen) {
			above := igraph.Ancestors(g, igraph.Strings(top))
			restricted := reduced.Copy()
			if err := restricted.RestrictTo(above); err != nil {
				return false, nil, err
			}
			q, err := a.minimal(ctx, restricted)
			if err != nil {
				return false, nil, err
			}
			init := project(item.constants, above)
			ok, local, err := a.completeFrom(ctx, restricted, u, init, q)
			if err != nil {
				return false, nil, err
			}
			if !ok {
				x, err := a.padCounterexample(names, local, item.constants, globals)
				if err != nil {
					return false, nil, err
				}
				a.logger.Debug("autonomous set is not complete",
					zap.Strings("set", igraph.Strings(top)),
					zap.Strings("ancestors", above),
					zap.String("state", x.String()),
				)
				return false, x, nil
			}

			factor := make([]space.Subspace, 0, len(q))
			for _, sub := range q {
				merged, err := space.MergeSubspaces(item.constants, sub)
				if err != nil {
					return false, nil, err
				}
				factor = append(factor, merged)
			}
			factors = append(factors, factor)
			for _, v := range above {
				seen.Add(digraph.NodeID(v))
			}
		}

		for _, q := range intersection(factors) {
			candidate := base.Copy()
			if err := candidate.FixConstants(q); err != nil {
				return false, nil, err
			}
			percolated := candidate.PercolateAndKeep()
			if _, ok := known[subspaceString(percolated, names)]; ok {
				continue
			}
			stack = append(stack, workItem{constants: percolated, seen: seen})
		}
	}
	return true, nil, nil
}

// padCounterexample completes a state of an ancestor closure to a state of the
// whole network. Variables outside the closure are drawn at random.
func (a *Analyzer) padCounterexample(names []string, local space.State, constants, globals space.Subspace) (space.State, error) {
	fixed, err := space.MergeSubspaces(constants, local.Subspace())
	if err != nil {
		return nil, fmt.Errorf("counterexample: %w", err)
	}
	x := stg.RandomState(a.rng, names, fixed)
	return space.MergeState(x, globals)
}

// project keeps the assignments of sub to names.
func project(sub space.Subspace, names []string) space.Subspace {
	out := space.Subspace{}
	for _, n := range names {
		if v, ok := sub[n]; ok {
			out[n] = v
		}
	}
	return out
}

// intersection returns every consistent union that picks one subspace per
// factor. No factors means no candidates.
func intersection(factors [][]space.Subspace) []space.Subspace {
	if len(factors) == 0 {
		return nil
	}
	out := []space.Subspace{{}}
	for _, factor := range factors {
		var next []space.Subspace
		for _, partial := range out {
			for _, sub := range factor {
				if merged, err := space.MergeSubspaces(partial, sub); err == nil {
					next = append(next, merged)
				}
			}
		}
		out = next
	}
	return out
}
