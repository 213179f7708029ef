// Package kripke model checks CTL formulas on the state transition systems of
// Boolean networks, symbolically with BDDs or explicitly on small state graphs.
package kripke

import (
	"fmt"
	"sort"
	"strings"
)

// Formula is a CTL state formula over network variables.
type Formula interface {
	String() string
}

// True represents the boolean constant true
type True struct{}

// False represents the boolean constant false
type False struct{}

// Var holds in states where the variable is 1.
type Var struct {
	Name string
}

// Unsteady holds in states where the variable's update differs from its value.
type Unsteady struct {
	Name string
}

// Not: ¬φ
type Not struct {
	F Formula
}

// And: (φ1 ∧ ... ∧ φn), TRUE when empty
type And struct {
	Terms []Formula
}

// Or: (φ1 ∨ ... ∨ φn), FALSE when empty
type Or struct {
	Terms []Formula
}

// Implies: (φ → ψ)
type Implies struct {
	Left, Right Formula
}

// EX φ: "there exists a next state where φ holds"
type EX struct{ F Formula }

// AX φ: "for all next states, φ holds"
type AX struct{ F Formula }

// EF φ: "there exists a path where EVENTUALLY φ"
type EF struct{ F Formula }

// AF φ: "for all paths, EVENTUALLY φ"
type AF struct{ F Formula }

// EG φ: "there exists a path where φ holds globally"
type EG struct{ F Formula }

// AG φ: "for all paths, φ holds globally"
type AG struct{ F Formula }

// EU(p, q): "there exists a path where p holds UNTIL q holds"
type EU struct {
	P, Q Formula
}

// AU(p, q): "on all paths p holds UNTIL q holds"
type AU struct {
	P, Q Formula
}

func (f True) String() string     { return format(f, plainUnsteady) }
func (f False) String() string    { return format(f, plainUnsteady) }
func (f Var) String() string      { return format(f, plainUnsteady) }
func (f Unsteady) String() string { return format(f, plainUnsteady) }
func (f Not) String() string      { return format(f, plainUnsteady) }
func (f And) String() string      { return format(f, plainUnsteady) }
func (f Or) String() string       { return format(f, plainUnsteady) }
func (f Implies) String() string  { return format(f, plainUnsteady) }
func (f EX) String() string       { return format(f, plainUnsteady) }
func (f AX) String() string       { return format(f, plainUnsteady) }
func (f EF) String() string       { return format(f, plainUnsteady) }
func (f AF) String() string       { return format(f, plainUnsteady) }
func (f EG) String() string       { return format(f, plainUnsteady) }
func (f AG) String() string       { return format(f, plainUnsteady) }
func (f EU) String() string       { return format(f, plainUnsteady) }
func (f AU) String() string       { return format(f, plainUnsteady) }

func plainUnsteady(name string) string { return "unsteady(" + name + ")" }

// precedence of the outermost operator, higher binds tighter
func precedence(f Formula) int {
	switch f := f.(type) {
	case Implies:
		return 0
	case Or:
		if len(f.Terms) == 1 {
			return precedence(f.Terms[0])
		}
		return 1
	case And:
		if len(f.Terms) == 1 {
			return precedence(f.Terms[0])
		}
		return 2
	case Not:
		return 3
	default:
		return 4
	}
}

// format renders a formula in NuSMV syntax; unsteady renders Unsteady atoms.
func format(f Formula, unsteady func(string) string) string {
	wrap := func(g Formula, min int) string {
		s := format(g, unsteady)
		if precedence(g) < min {
			return "(" + s + ")"
		}
		return s
	}
	switch f := f.(type) {
	case True:
		return "TRUE"
	case False:
		return "FALSE"
	case Var:
		return f.Name
	case Unsteady:
		return unsteady(f.Name)
	case Not:
		return "!" + wrap(f.F, 3)
	case And:
		if len(f.Terms) == 0 {
			return "TRUE"
		}
		parts := make([]string, len(f.Terms))
		for i, t := range f.Terms {
			parts[i] = wrap(t, 2)
		}
		return strings.Join(parts, "&")
	case Or:
		if len(f.Terms) == 0 {
			return "FALSE"
		}
		parts := make([]string, len(f.Terms))
		for i, t := range f.Terms {
			parts[i] = wrap(t, 1)
		}
		return strings.Join(parts, " | ")
	case Implies:
		return wrap(f.Left, 1) + " -> " + wrap(f.Right, 0)
	case EX:
		return "EX(" + format(f.F, unsteady) + ")"
	case AX:
		return "AX(" + format(f.F, unsteady) + ")"
	case EF:
		return "EF(" + format(f.F, unsteady) + ")"
	case AF:
		return "AF(" + format(f.F, unsteady) + ")"
	case EG:
		return "EG(" + format(f.F, unsteady) + ")"
	case AG:
		return "AG(" + format(f.F, unsteady) + ")"
	case EU:
		return "E[" + format(f.P, unsteady) + " U " + format(f.Q, unsteady) + "]"
	case AU:
		return "A[" + format(f.P, unsteady) + " U " + format(f.Q, unsteady) + "]"
	default:
		return fmt.Sprintf("<%T>", f)
	}
}

// Atoms returns the sorted variable names a formula mentions.
func Atoms(f Formula) []string {
	seen := map[string]struct{}{}
	var walk func(Formula)
	walk = func(f Formula) {
		switch f := f.(type) {
		case Var:
			seen[f.Name] = struct{}{}
		case Unsteady:
			seen[f.Name] = struct{}{}
		case Not:
			walk(f.F)
		case And:
			for _, t := range f.Terms {
				walk(t)
			}
		case Or:
			for _, t := range f.Terms {
				walk(t)
			}
		case Implies:
			walk(f.Left)
			walk(f.Right)
		case EX:
			walk(f.F)
		case AX:
			walk(f.F)
		case EF:
			walk(f.F)
		case AF:
			walk(f.F)
		case EG:
			walk(f.F)
		case AG:
			walk(f.F)
		case EU:
			walk(f.P)
			walk(f.Q)
		case AU:
			walk(f.P)
			walk(f.Q)
		}
	}
	walk(f)
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
