package space

import (
	"fmt"
	"sort"
)

// Contains reports whether the state lies inside the subspace.
func Contains(sub Subspace, s State) bool {
	for k, v := range sub {
		if w, ok := s[k]; !ok || w != v {
			return false
		}
	}
	return true
}

// IsSubspaceOf reports whether a ⊆ b, i.e. a fixes everything b fixes.
func IsSubspaceOf(a, b Subspace) bool {
	for k, v := range b {
		if w, ok := a[k]; !ok || w != v {
			return false
		}
	}
	return true
}

// Consistent reports whether two assignments agree on their shared variables.
func Consistent(a, b map[string]int) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for k, v := range a {
		if w, ok := b[k]; ok && w != v {
			return false
		}
	}
	return true
}

// MergeSubspaces returns the union of consistent subspaces.
func MergeSubspaces(parts ...Subspace) (Subspace, error) {
	out := make(Subspace)
	for _, p := range parts {
		for k, v := range p {
			if w, ok := out[k]; ok && w != v {
				return nil, fmt.Errorf("%w: %s=%d and %s=%d", ErrInconsistent, k, w, k, v)
			}
			out[k] = v
		}
	}
	return out, nil
}

// MergeState extends a state of a reduced network with constants that were
// removed from it. Constants must not contradict the state.
func MergeState(s State, constants ...Subspace) (State, error) {
	out := s.Copy()
	for _, c := range constants {
		for k, v := range c {
			if w, ok := out[k]; ok && w != v {
				return nil, fmt.Errorf("%w: %s=%d and %s=%d", ErrInconsistent, k, w, k, v)
			}
			out[k] = v
		}
	}
	return out, nil
}

// Free lists the variables of names that the subspace leaves free.
func Free(sub Subspace, names []string) []string {
	var out []string
	for _, n := range names {
		if _, ok := sub[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}

// Hamming counts the variables on which two states differ.
func Hamming(x, y State) int {
	d := 0
	for k, v := range x {
		if y[k] != v {
			d++
		}
	}
	return d
}

// BoundingBox returns the smallest subspace containing all states.
func BoundingBox(states []State) Subspace {
	if len(states) == 0 {
		return Subspace{}
	}
	out := states[0].Subspace()
	for _, s := range states[1:] {
		for k, v := range out {
			if s[k] != v {
				delete(out, k)
			}
		}
	}
	return out
}

// Enumerate lists the states of names inside the subspace, counting the free
// variables in binary with the last free variable varying fastest.
func Enumerate(sub Subspace, names []string) []State {
	free := Free(sub, names)
	n := 1 << len(free)
	out := make([]State, 0, n)
	for i := 0; i < n; i++ {
		s := make(State, len(names))
		for k, v := range sub {
			s[k] = v
		}
		for j, f := range free {
			s[f] = (i >> (len(free) - 1 - j)) & 1
		}
		out = append(out, s)
	}
	return out
}

// SortSubspaces orders subspaces by their string in the given variable order.
func SortSubspaces(subs []Subspace, names []string) {
	keys := make([]string, len(subs))
	for i, s := range subs {
		keys[i], _ = SubspaceString(s, names)
	}
	sort.Sort(byKey{keys: keys, subs: subs})
}

type byKey struct {
	keys []string
	subs []Subspace
}

func (b byKey) Len() int           { return len(b.keys) }
func (b byKey) Less(i, j int) bool { return b.keys[i] < b.keys[j] }
func (b byKey) Swap(i, j int) {
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
	b.subs[i], b.subs[j] = b.subs[j], b.subs[i]
}
