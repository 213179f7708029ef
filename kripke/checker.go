package kripke

import (
	"errors"
	"fmt"

	"github.com/rfielding/boolnet-ctl/primes"
	"github.com/rfielding/boolnet-ctl/space"
	"github.com/rfielding/boolnet-ctl/stg"
)

var ErrBDD = errors.New("bdd error")

// Checker decides whether every initial state of a network satisfies a CTL
// formula. On failure CheckWithCounterexample returns a path from a violating
// initial state; for a top level AG φ the path ends in a state violating φ,
// otherwise it is the violating initial state alone.
type Checker interface {
	Check(net primes.Network, u stg.Update, init, spec Formula) (bool, error)
	CheckWithCounterexample(net primes.Network, u stg.Update, init, spec Formula) (bool, []space.State, error)
}

func validate(net primes.Network, fs ...Formula) error {
	for _, f := range fs {
		for _, a := range Atoms(f) {
			if _, ok := net[a]; !ok {
				return fmt.Errorf("%w: %q in %s", space.ErrUnknownVariable, a, f)
			}
		}
	}
	return nil
}
