package stg

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/rfielding/boolnet-ctl/primes"
	"github.com/rfielding/boolnet-ctl/space"
)

// SuccessorFunc returns all successors of a state under one update mode.
type SuccessorFunc func(net primes.Network, x space.State) []space.State

// RandomFunc returns one successor chosen at random.
type RandomFunc func(net primes.Network, x space.State, rng *rand.Rand) space.State

// Successors returns the successor function of a mode, or ErrUnknownUpdate.
func Successors(u Update) (SuccessorFunc, error) {
	switch u {
	case Synchronous:
		return func(net primes.Network, x space.State) []space.State {
			return []space.State{SuccessorSync(net, x)}
		}, nil
	case Asynchronous:
		return SuccessorsAsync, nil
	case Mixed:
		return SuccessorsMixed, nil
	default:
		return nil, u.Validate()
	}
}

// RandomSuccessor returns the random step function of a mode, or ErrUnknownUpdate.
func RandomSuccessor(u Update) (RandomFunc, error) {
	switch u {
	case Synchronous:
		return func(net primes.Network, x space.State, _ *rand.Rand) space.State {
			return SuccessorSync(net, x)
		}, nil
	case Asynchronous:
		return RandomSuccessorAsync, nil
	case Mixed:
		return RandomSuccessorMixed, nil
	default:
		return nil, u.Validate()
	}
}

// value returns the next value of name: the list of the first prime that
// matches x.
func value(net primes.Network, name string, x space.State) int {
	p := net[name]
	for c := 0; c < 2; c++ {
		for _, prime := range p[c] {
			if space.Contains(prime, x) {
				return c
			}
		}
	}
	panic(fmt.Sprintf("stg: no prime of %q matches %v", name, x))
}

// SuccessorSync updates every variable at once.
func SuccessorSync(net primes.Network, x space.State) space.State {
	y := make(space.State, len(net))
	for name := range net {
		y[name] = value(net, name, x)
	}
	return y
}

// Unstable returns the sorted variables whose synchronous image differs from x.
func Unstable(net primes.Network, x space.State) []string {
	var out []string
	for name := range net {
		if value(net, name, x) != x[name] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// IsSteady reports whether x is a fixed point of every update mode.
func IsSteady(net primes.Network, x space.State) bool {
	return len(Unstable(net, x)) == 0
}

func flip(x space.State, names []string) space.State {
	y := x.Copy()
	for _, n := range names {
		y[n] = 1 - y[n]
	}
	return y
}

// SuccessorsAsync returns x itself when stable, else one successor per unstable
// variable.
func SuccessorsAsync(net primes.Network, x space.State) []space.State {
	unstable := Unstable(net, x)
	if len(unstable) == 0 {
		return []space.State{x.Copy()}
	}
	out := make([]space.State, len(unstable))
	for i, n := range unstable {
		out[i] = flip(x, []string{n})
	}
	return out
}

// SuccessorsMixed returns one successor per non-empty subset of the unstable
// variables, ordered by the subset's bit mask.
func SuccessorsMixed(net primes.Network, x space.State) []space.State {
	unstable := Unstable(net, x)
	if len(unstable) == 0 {
		return []space.State{x.Copy()}
	}
	out := make([]space.State, 0, 1<<len(unstable)-1)
	for mask := 1; mask < 1<<len(unstable); mask++ {
		var subset []string
		for i, n := range unstable {
			if mask&(1<<i) != 0 {
				subset = append(subset, n)
			}
		}
		out = append(out, flip(x, subset))
	}
	return out
}

// RandomSuccessorAsync flips one unstable variable chosen uniformly.
func RandomSuccessorAsync(net primes.Network, x space.State, rng *rand.Rand) space.State {
	succ := SuccessorsAsync(net, x)
	return succ[rng.Intn(len(succ))]
}

// RandomSuccessorMixed draws a subset size uniformly from [1,k] and then a
// uniform subset of that size. Successors are therefore not equally likely.
func RandomSuccessorMixed(net primes.Network, x space.State, rng *rand.Rand) space.State {
	unstable := Unstable(net, x)
	if len(unstable) == 0 {
		return x.Copy()
	}
	k := rng.Intn(len(unstable)) + 1
	subset := make([]string, 0, k)
	for _, i := range rng.Perm(len(unstable))[:k] {
		subset = append(subset, unstable[i])
	}
	return flip(x, subset)
}

// RandomState draws a state of names inside sub, free variables uniformly.
func RandomState(rng *rand.Rand, names []string, sub space.Subspace) space.State {
	x := make(space.State, len(names))
	for _, n := range names {
		if v, ok := sub[n]; ok {
			x[n] = v
		} else {
			x[n] = rng.Intn(2)
		}
	}
	return x
}

// RandomWalk takes length random transitions from start and returns the path,
// start included.
func RandomWalk(net primes.Network, u Update, start space.State, length int, rng *rand.Rand) ([]space.State, error) {
	step, err := RandomSuccessor(u)
	if err != nil {
		return nil, err
	}
	path := make([]space.State, 0, length+1)
	x := start.Copy()
	path = append(path, x)
	for i := 0; i < length; i++ {
		x = step(net, x, rng)
		path = append(path, x)
	}
	return path, nil
}
