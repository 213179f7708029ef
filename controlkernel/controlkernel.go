// Package controlkernel finds small sets of variables that, fixed to their
// values in a target steady state, drive a Boolean network into that state.
//
// The search follows the hierarchy of strongly connected components of the
// interaction graph. Inside each component only subsets of a minimum feedback
// vertex set are tried, and a subset controls the component when canalization
// (percolation of constants) fixes every variable once everything outside the
// component is held at the target.
package controlkernel

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rfielding/boolnet-ctl/digraph"
	"github.com/rfielding/boolnet-ctl/igraph"
	"github.com/rfielding/boolnet-ctl/primes"
	"github.com/rfielding/boolnet-ctl/space"
)

var tracer = otel.Tracer("boolnet.controlkernel")

var ErrTooManyAssignments = errors.New("too many feedback vertex assignments")

// Component is one strongly connected component of the interaction graph.
type Component struct {
	Nodes []string `json:"nodes" yaml:"nodes"`
	// Level is 0 for components without successors and grows upstream.
	Level int `json:"level" yaml:"level"`
	// FVS lists every minimum feedback vertex set, self loops counted.
	FVS [][]string `json:"fvs" yaml:"fvs"`
	// Control lists the smallest feedback vertex subsets that canalize the
	// component. It holds one empty set when the component needs no control.
	Control [][]string `json:"control" yaml:"control"`
	// Canalized[i] are the feedback vertices left to canalization by Control[i].
	Canalized [][]string `json:"canalized" yaml:"canalized"`
}

// Result is the control kernel of a network for one target state.
type Result struct {
	Target string `json:"target" yaml:"target"`
	// Inputs are the variables fixed by percolating the constant functions.
	Inputs     space.Subspace `json:"inputs" yaml:"inputs"`
	FVS        []string       `json:"fvs" yaml:"fvs"`
	Kernel     []string       `json:"kernel" yaml:"kernel"`
	Components []Component    `json:"components" yaml:"components"`
}

// Finder searches control kernels. It holds no state between calls.
type Finder struct {
	logger *zap.Logger
}

// New returns a Finder logging to logger, or nowhere when logger is nil.
func New(logger *zap.Logger) *Finder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Finder{logger: logger}
}

// Canalize fixes the variables of fixed and percolates the constants of net.
// It returns every variable that ends up constant, fixed included.
func Canalize(net primes.Network, fixed space.Subspace) (space.Subspace, error) {
	c := net.Copy()
	if err := c.FixConstants(fixed); err != nil {
		return nil, err
	}
	return c.PercolateAndKeep(), nil
}

// Kernel computes the control kernel of net for target, component by component
// from the most upstream level down.
func (f *Finder) Kernel(ctx context.Context, net primes.Network, target space.State) (res *Result, err error) {
	names := net.Names()
	if err := space.ValidateState(target, names); err != nil {
		return nil, err
	}
	str, _ := space.StateString(target, names)
	_, span := tracer.Start(ctx, "controlkernel.Kernel", trace.WithAttributes(
		attribute.String("target", str),
		attribute.Int("variables", len(names)),
	))
	defer func() { endSpan(span, err) }()

	g := igraph.Of(net)
	cond := digraph.Condensation(g)
	levels := cond.Levels()
	inputs, err := Canalize(net, space.Subspace{})
	if err != nil {
		return nil, err
	}

	order := make([]int, len(cond.Components))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if levels[a] != levels[b] {
			return levels[a] > levels[b]
		}
		return cond.Components[a][0] < cond.Components[b][0]
	})

	res = &Result{Target: str, Inputs: inputs}
	fvsUnion := map[string]struct{}{}
	kernelUnion := map[string]struct{}{}
	for _, i := range order {
		comp, err := f.component(net, g, cond.Components[i], levels[i], inputs, target)
		if err != nil {
			return nil, err
		}
		for _, n := range comp.FVS[0] {
			fvsUnion[n] = struct{}{}
		}
		for _, n := range comp.Control[0] {
			kernelUnion[n] = struct{}{}
		}
		res.Components = append(res.Components, comp)
	}
	res.FVS = sortedKeys(fvsUnion)
	res.Kernel = sortedKeys(kernelUnion)
	span.SetAttributes(attribute.Int("kernel_size", len(res.Kernel)))
	f.logger.Debug("control kernel",
		zap.String("target", str),
		zap.Strings("kernel", res.Kernel),
		zap.Strings("fvs", res.FVS),
	)
	return res, nil
}

func (f *Finder) component(net primes.Network, g *digraph.Graph, ids []digraph.NodeID, level int, inputs space.Subspace, target space.State) (Component, error) {
	nodes := igraph.Strings(ids)
	sets, err := digraph.MinimumFeedbackVertexSets(g, ids)
	if err != nil {
		return Component{}, fmt.Errorf("component %v: %w", nodes, err)
	}
	comp := Component{Nodes: nodes, Level: level}
	for _, s := range sets {
		comp.FVS = append(comp.FVS, igraph.Strings(s))
	}

	inside := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		inside[n] = struct{}{}
	}
	fixed := space.Subspace{}
	for n, v := range inputs {
		if _, ok := inside[n]; ok {
			fixed[n] = v
		}
	}
	for n, v := range target {
		if _, ok := inside[n]; !ok {
			fixed[n] = v
		}
	}
	base, err := Canalize(net, fixed)
	if err != nil {
		return Component{}, err
	}

	uncontrolled := func() Component {
		comp.Control = [][]string{{}}
		comp.Canalized = [][]string{comp.FVS[0]}
		return comp
	}
	if len(base) == len(net) {
		return uncontrolled(), nil
	}

	type pair struct{ control, canalized []string }
	var found []pair
	seen := map[string]struct{}{}
	for _, set := range comp.FVS {
		var free []digraph.NodeID
		for _, n := range set {
			if _, ok := base[n]; !ok {
				free = append(free, digraph.NodeID(n))
			}
		}
		hit := false
		for k := 1; k <= len(free) && !hit; k++ {
			var inner error
			digraph.Subsets(free, k, func(sub []digraph.NodeID) bool {
				trial := base.Copy()
				for _, n := range sub {
					trial[string(n)] = target[string(n)]
				}
				canal, err := Canalize(net, trial)
				if err != nil {
					inner = err
					return false
				}
				if len(canal) < len(net) {
					return true
				}
				hit = true
				control := igraph.Strings(sub)
				key := fmt.Sprint(control, set)
				if _, dup := seen[key]; !dup {
					seen[key] = struct{}{}
					found = append(found, pair{control: control, canalized: minus(set, control)})
				}
				return true
			})
			if inner != nil {
				return Component{}, inner
			}
		}
	}
	if len(found) == 0 {
		return uncontrolled(), nil
	}

	smallest := len(found[0].control)
	for _, p := range found {
		if len(p.control) < smallest {
			smallest = len(p.control)
		}
	}
	for _, p := range found {
		if len(p.control) == smallest {
			comp.Control = append(comp.Control, p.control)
			comp.Canalized = append(comp.Canalized, p.canalized)
		}
	}
	return comp, nil
}

// minus returns the members of set outside drop, keeping order.
func minus(set, drop []string) []string {
	skip := make(map[string]struct{}, len(drop))
	for _, d := range drop {
		skip[d] = struct{}{}
	}
	out := []string{}
	for _, s := range set {
		if _, ok := skip[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
