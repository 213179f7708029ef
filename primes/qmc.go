package primes

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/rfielding/boolnet-ctl/space"
)

// MaxInputs bounds the support size of a single update function.
const MaxInputs = 16

var ErrTooManyInputs = errors.New("too many inputs")

type implicant struct {
	value uint32
	mask  uint32 // set bits are free
}

// computePrimes returns the negative and positive prime implicants of a function
// over the given support. Bit i of an assignment is support[i].
func computePrimes(support []string, eval func(assign uint32) bool) ([2][]space.Subspace, error) {
	var out [2][]space.Subspace
	if len(support) > MaxInputs {
		return out, fmt.Errorf("%w: %d > %d", ErrTooManyInputs, len(support), MaxInputs)
	}
	var on, off []uint32
	for a := uint32(0); a < 1<<len(support); a++ {
		if eval(a) {
			on = append(on, a)
		} else {
			off = append(off, a)
		}
	}
	out[0] = toSubspaces(quineMcCluskey(off, len(support)), support)
	out[1] = toSubspaces(quineMcCluskey(on, len(support)), support)
	return out, nil
}

// quineMcCluskey merges minterms differing in one bit until no merge applies;
// implicants that never merge are prime.
func quineMcCluskey(minterms []uint32, width int) []implicant {
	level := make(map[implicant]struct{}, len(minterms))
	for _, m := range minterms {
		level[implicant{value: m}] = struct{}{}
	}
	var primes []implicant
	for len(level) > 0 {
		next := map[implicant]struct{}{}
		used := map[implicant]struct{}{}
		for imp := range level {
			for b := 0; b < width; b++ {
				bit := uint32(1) << b
				if imp.mask&bit != 0 {
					continue
				}
				partner := implicant{value: imp.value ^ bit, mask: imp.mask}
				if _, ok := level[partner]; !ok {
					continue
				}
				used[imp] = struct{}{}
				used[partner] = struct{}{}
				next[implicant{value: imp.value &^ bit, mask: imp.mask | bit}] = struct{}{}
			}
		}
		for imp := range level {
			if _, ok := used[imp]; !ok {
				primes = append(primes, imp)
			}
		}
		level = next
	}
	return primes
}

func toSubspaces(imps []implicant, support []string) []space.Subspace {
	out := make([]space.Subspace, 0, len(imps))
	for _, imp := range imps {
		sub := make(space.Subspace, len(support)-bits.OnesCount32(imp.mask))
		for i, name := range support {
			bit := uint32(1) << i
			if imp.mask&bit != 0 {
				continue
			}
			sub[name] = int((imp.value & bit) >> i)
		}
		out = append(out, sub)
	}
	space.SortSubspaces(out, support)
	return out
}
