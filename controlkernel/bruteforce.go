package controlkernel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rfielding/boolnet-ctl/digraph"
	"github.com/rfielding/boolnet-ctl/primes"
	"github.com/rfielding/boolnet-ctl/space"
	"github.com/rfielding/boolnet-ctl/stg"
)

// BruteForce returns every smallest set of non-constant variables that, fixed
// to their target values, leaves target as the only attractor of the explicit
// state transition graph under u. It returns nil when no set works, and one
// empty set when target is already the only attractor.
func (f *Finder) BruteForce(ctx context.Context, net primes.Network, u stg.Update, target space.State) (kernels [][]string, err error) {
	names := net.Names()
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := space.ValidateState(target, names); err != nil {
		return nil, err
	}
	want, _ := space.StateString(target, names)
	ctx, span := tracer.Start(ctx, "controlkernel.BruteForce", trace.WithAttributes(
		attribute.String("target", want),
		attribute.String("update", u.String()),
	))
	defer func() { endSpan(span, err) }()

	constants := net.Constants()
	var candidates []digraph.NodeID
	for _, n := range names {
		if _, ok := constants[n]; !ok {
			candidates = append(candidates, digraph.NodeID(n))
		}
	}

	controls := func(sub []digraph.NodeID) (bool, error) {
		pert := net.Copy()
		fixed := space.Subspace{}
		for _, n := range sub {
			fixed[string(n)] = target[string(n)]
		}
		if err := pert.FixConstants(fixed); err != nil {
			return false, err
		}
		g, err := stg.Build(pert, u, space.Subspace{})
		if err != nil {
			return false, err
		}
		atts := stg.Attractors(g)
		return len(atts) == 1 && atts[0].IsSteady() && atts[0].States[0] == want, nil
	}

	for k := 0; k <= len(candidates); k++ {
		var inner error
		digraph.Subsets(candidates, k, func(sub []digraph.NodeID) bool {
			if inner = ctx.Err(); inner != nil {
				return false
			}
			ok, err := controls(sub)
			if err != nil {
				inner = err
				return false
			}
			if ok {
				kernels = append(kernels, stringsOf(sub))
			}
			return true
		})
		if inner != nil {
			return nil, inner
		}
		if len(kernels) > 0 {
			f.logger.Debug("brute force control kernels",
				zap.String("target", want),
				zap.Int("size", k),
				zap.Int("kernels", len(kernels)),
			)
			span.SetAttributes(attribute.Int("kernel_size", k))
			return kernels, nil
		}
	}
	return nil, nil
}

func stringsOf(ids []digraph.NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
