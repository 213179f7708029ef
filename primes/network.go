// Package primes models Boolean networks by the prime implicants of their update
// functions and provides the copy-fix-percolate-restrict operations the decision
// procedures run on private copies.
package primes

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rfielding/boolnet-ctl/space"
)

var (
	ErrNotClosed    = errors.New("network is not closed under restriction")
	ErrInconsistent = errors.New("inconsistent primes")
)

// Network maps each variable to its negative (index 0) and positive (index 1)
// prime implicants.
type Network map[string][2][]space.Subspace

// Constant returns the prime pair of a variable fixed to value.
func Constant(value int) [2][]space.Subspace {
	var p [2][]space.Subspace
	p[value] = []space.Subspace{{}}
	p[1-value] = []space.Subspace{}
	return p
}

// Names returns the sorted variable names.
func (n Network) Names() []string {
	out := make([]string, 0, len(n))
	for k := range n {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Copy returns a deep copy safe to mutate.
func (n Network) Copy() Network {
	out := make(Network, len(n))
	for name, p := range n {
		var q [2][]space.Subspace
		for c := 0; c < 2; c++ {
			q[c] = make([]space.Subspace, len(p[c]))
			for i, prime := range p[c] {
				q[c][i] = prime.Copy()
			}
		}
		out[name] = q
	}
	return out
}

// Equal compares networks prime by prime, ignoring prime order.
func (n Network) Equal(other Network) bool {
	if len(n) != len(other) {
		return false
	}
	for name, p := range n {
		q, ok := other[name]
		if !ok {
			return false
		}
		for c := 0; c < 2; c++ {
			if !samePrimes(p[c], q[c]) {
				return false
			}
		}
	}
	return true
}

func samePrimes(a, b []space.Subspace) bool {
	if len(a) != len(b) {
		return false
	}
	for _, x := range a {
		found := false
		for _, y := range b {
			if x.Equal(y) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func constantValue(p [2][]space.Subspace) (int, bool) {
	for c := 0; c < 2; c++ {
		for _, prime := range p[c] {
			if len(prime) == 0 {
				return c, true
			}
		}
	}
	return 0, false
}

// Constants returns the variables whose update function is constant.
func (n Network) Constants() space.Subspace {
	out := space.Subspace{}
	for name, p := range n {
		if c, ok := constantValue(p); ok {
			out[name] = c
		}
	}
	return out
}

// Inputs returns the variables whose update function is the identity.
func (n Network) Inputs() []string {
	var out []string
	for _, name := range n.Names() {
		p := n[name]
		if len(p[0]) == 1 && len(p[1]) == 1 &&
			p[0][0].Equal(space.Subspace{name: 0}) && p[1][0].Equal(space.Subspace{name: 1}) {
			out = append(out, name)
		}
	}
	return out
}

// Regulators returns the sorted variables occurring in the primes of name.
func (n Network) Regulators(name string) []string {
	seen := map[string]struct{}{}
	p := n[name]
	for c := 0; c < 2; c++ {
		for _, prime := range p[c] {
			for k := range prime {
				seen[k] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Check verifies that every referenced variable is defined and that no state
// matches both a negative and a positive prime of the same variable.
func (n Network) Check() error {
	for _, name := range n.Names() {
		for _, r := range n.Regulators(name) {
			if _, ok := n[r]; !ok {
				return fmt.Errorf("%w: %q regulates %q", space.ErrUnknownVariable, r, name)
			}
		}
		p := n[name]
		for _, neg := range p[0] {
			for _, pos := range p[1] {
				if space.Consistent(neg, pos) {
					return fmt.Errorf("%w: %q has overlapping primes", ErrInconsistent, name)
				}
			}
		}
	}
	return nil
}

// FixConstants replaces the update function of every variable in sub by the
// constant it is fixed to.
func (n Network) FixConstants(sub space.Subspace) error {
	if err := space.Validate(sub, n.Names()); err != nil {
		return err
	}
	for name, v := range sub {
		n[name] = Constant(v)
	}
	return nil
}

// PercolateAndKeep substitutes constants into the remaining functions until no
// new constant appears. Forced variables stay in the network as constants. The
// returned subspace holds every constant of the resulting network.
func (n Network) PercolateAndKeep() space.Subspace {
	constants := n.Constants()
	frontier := constants.Copy()
	for len(frontier) > 0 {
		next := space.Subspace{}
		for _, name := range n.Names() {
			if _, ok := constants[name]; ok {
				continue
			}
			reduced, changed := restrict(n[name], frontier)
			if !changed {
				continue
			}
			if c, ok := constantValue(reduced); ok {
				reduced = Constant(c)
				constants[name] = c
				next[name] = c
			}
			n[name] = reduced
		}
		frontier = next
	}
	return constants
}

// PercolateAndDrop percolates and then removes all constants from the network.
func (n Network) PercolateAndDrop() space.Subspace {
	constants := n.PercolateAndKeep()
	for name := range constants {
		delete(n, name)
	}
	return constants
}

// RestrictTo removes every variable outside keep. The kept variables must not
// depend on removed ones.
func (n Network) RestrictTo(keep []string) error {
	set := make(map[string]struct{}, len(keep))
	for _, k := range keep {
		if _, ok := n[k]; !ok {
			return fmt.Errorf("%w: %q", space.ErrUnknownVariable, k)
		}
		set[k] = struct{}{}
	}
	for name := range n {
		if _, ok := set[name]; !ok {
			delete(n, name)
		}
	}
	for name := range n {
		for _, r := range n.Regulators(name) {
			if _, ok := set[r]; !ok {
				return fmt.Errorf("%w: %q depends on %q", ErrNotClosed, name, r)
			}
		}
	}
	return nil
}

// restrict applies constants to a prime pair and drops primes that are no
// longer minimal.
func restrict(p [2][]space.Subspace, constants space.Subspace) ([2][]space.Subspace, bool) {
	changed := false
	var out [2][]space.Subspace
	for c := 0; c < 2; c++ {
		var kept []space.Subspace
		for _, prime := range p[c] {
			if !space.Consistent(prime, constants) {
				changed = true
				continue
			}
			reduced, copied := prime, false
			for k := range prime {
				if _, ok := constants[k]; !ok {
					continue
				}
				if !copied {
					reduced, copied = prime.Copy(), true
				}
				delete(reduced, k)
				changed = true
			}
			kept = append(kept, reduced)
		}
		out[c] = minimize(kept)
	}
	return out, changed
}

// minimize removes duplicates and primes that contain another prime.
func minimize(primes []space.Subspace) []space.Subspace {
	out := make([]space.Subspace, 0, len(primes))
	for i, p := range primes {
		dominated := false
		for j, q := range primes {
			if i == j || len(q) > len(p) {
				continue
			}
			if space.IsSubspaceOf(p, q) && (len(q) < len(p) || j < i) {
				dominated = true
				break
			}
		}
		if !dominated {
			out = append(out, p)
		}
	}
	return out
}

// Expression renders the update function of name as a disjunction of its
// positive primes.
func (n Network) Expression(name string) string {
	p := n[name]
	if c, ok := constantValue(p); ok {
		return fmt.Sprint(c)
	}
	terms := make([]string, 0, len(p[1]))
	for _, prime := range p[1] {
		lits := make([]string, 0, len(prime))
		for _, k := range space.Names(prime) {
			if prime[k] == 1 {
				lits = append(lits, k)
			} else {
				lits = append(lits, "!"+k)
			}
		}
		terms = append(terms, strings.Join(lits, "&"))
	}
	sort.Strings(terms)
	return strings.Join(terms, " | ")
}

// String renders the network in bnet format.
func (n Network) String() string {
	var sb strings.Builder
	sb.WriteString("targets, factors\n")
	for _, name := range n.Names() {
		fmt.Fprintf(&sb, "%s, %s\n", name, n.Expression(name))
	}
	return sb.String()
}
