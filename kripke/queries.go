package kripke

import "github.com/rfielding/boolnet-ctl/space"

// Conj returns the conjunction of fs, collapsing the empty and singleton cases.
func Conj(fs ...Formula) Formula {
	switch len(fs) {
	case 0:
		return True{}
	case 1:
		return fs[0]
	}
	return And{Terms: fs}
}

// Disj returns the disjunction of fs, collapsing the empty and singleton cases.
func Disj(fs ...Formula) Formula {
	switch len(fs) {
	case 0:
		return False{}
	case 1:
		return fs[0]
	}
	return Or{Terms: fs}
}

// Literal is v or !v.
func Literal(name string, value int) Formula {
	if value == 1 {
		return Var{Name: name}
	}
	return Not{F: Var{Name: name}}
}

// SubspaceProp holds exactly in the states of sub, e.g. "!v1&v3".
func SubspaceProp(sub space.Subspace) Formula {
	names := space.Names(sub)
	lits := make([]Formula, len(names))
	for i, n := range names {
		lits[i] = Literal(n, sub[n])
	}
	return Conj(lits...)
}

// StateProp holds exactly in state s.
func StateProp(s space.State) Formula {
	return SubspaceProp(space.Subspace(s))
}

// OneOf holds in the union of subs.
func OneOf(subs []space.Subspace) Formula {
	terms := make([]Formula, len(subs))
	for i, sub := range subs {
		terms[i] = SubspaceProp(sub)
	}
	return Disj(terms...)
}

// EFOneOfSubspaces is "EF(sub1 | sub2 | ...)".
func EFOneOfSubspaces(subs []space.Subspace) Formula {
	return EF{F: OneOf(subs)}
}

// AGEFOneOfSubspaces is "AG(EF(sub1 | sub2 | ...))".
func AGEFOneOfSubspaces(subs []space.Subspace) Formula {
	return AG{F: EF{F: OneOf(subs)}}
}

// EFUnsteady requires every variable in names to become unsteady eventually.
func EFUnsteady(names []string) Formula {
	terms := make([]Formula, len(names))
	for i, n := range names {
		terms[i] = EF{F: Unsteady{Name: n}}
	}
	return Conj(terms...)
}
