package controlkernel

import (
	"fmt"
	"sort"

	"github.com/rfielding/boolnet-ctl/primes"
	"github.com/rfielding/boolnet-ctl/space"
	"github.com/rfielding/boolnet-ctl/stg"
)

// MaxFeedbackAssignments bounds the feedback vertex sets PointAttractors
// enumerates, in variables.
const MaxFeedbackAssignments = 20

// PointAttractors returns the steady states of net, sorted by state string.
// Every assignment of fvs is canalized; a steady state is determined by its
// values on a feedback vertex set, so checking the canalized candidates finds
// them all. Variables canalization leaves open are enumerated.
func PointAttractors(net primes.Network, fvs []string) ([]space.State, error) {
	if len(fvs) > MaxFeedbackAssignments {
		return nil, fmt.Errorf("%w: %d variables", ErrTooManyAssignments, len(fvs))
	}
	names := net.Names()
	seen := map[string]space.State{}
	for bits := 0; bits < 1<<len(fvs); bits++ {
		fixed := space.Subspace{}
		for i, n := range fvs {
			fixed[n] = (bits >> i) & 1
		}
		canal, err := Canalize(net, fixed)
		if err != nil {
			return nil, err
		}
		for _, x := range space.Enumerate(canal, names) {
			if !stg.IsSteady(net, x) {
				continue
			}
			str, err := space.StateString(x, names)
			if err != nil {
				return nil, err
			}
			seen[str] = x
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]space.State, len(keys))
	for i, k := range keys {
		out[i] = seen[k]
	}
	return out, nil
}
