// Package space holds the canonical in-memory forms of Boolean network states and
// subspaces, their bit-string conversions, and the subspace algebra used by the
// decision procedures.
package space

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrUnknownVariable   = errors.New("unknown variable")
	ErrInvalidValue      = errors.New("invalid value")
	ErrInconsistent      = errors.New("inconsistent assignments")
)

// State is a total assignment of every network variable to 0 or 1.
type State map[string]int

// Subspace is a partial assignment. Variables missing from the map are free.
type Subspace map[string]int

// Names returns the sorted keys of an assignment.
func Names(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s State) Copy() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

func (s Subspace) Copy() Subspace {
	out := make(Subspace, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// String renders the state with its own variables in name order.
func (s State) String() string {
	var sb strings.Builder
	for _, name := range Names(s) {
		sb.WriteByte(byte('0' + s[name]))
	}
	return sb.String()
}

// Subspace views a state as the subspace fixing every one of its variables.
func (s State) Subspace() Subspace { return Subspace(s.Copy()) }

// Equal reports whether two subspaces fix the same variables to the same values.
func (s Subspace) Equal(other Subspace) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		if w, ok := other[k]; !ok || w != v {
			return false
		}
	}
	return true
}

// Validate rejects assignments that reference unknown variables or carry values
// other than 0 and 1.
func Validate(m map[string]int, names []string) error {
	known := make(map[string]struct{}, len(names))
	for _, n := range names {
		known[n] = struct{}{}
	}
	for k, v := range m {
		if _, ok := known[k]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownVariable, k)
		}
		if v != 0 && v != 1 {
			return fmt.Errorf("%w: %s=%d", ErrInvalidValue, k, v)
		}
	}
	return nil
}

// ValidateState additionally requires that every name is assigned.
func ValidateState(s State, names []string) error {
	if len(s) != len(names) {
		return fmt.Errorf("%w: state has %d variables, network has %d", ErrDimensionMismatch, len(s), len(names))
	}
	return Validate(s, names)
}

// StateString renders a state as a bit string in the given variable order.
func StateString(s State, names []string) (string, error) {
	if err := ValidateState(s, names); err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, n := range names {
		sb.WriteByte(byte('0' + s[n]))
	}
	return sb.String(), nil
}

// SubspaceString renders a subspace in the given variable order with '-' for free
// variables.
func SubspaceString(sub Subspace, names []string) (string, error) {
	if err := Validate(sub, names); err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, n := range names {
		if v, ok := sub[n]; ok {
			sb.WriteByte(byte('0' + v))
		} else {
			sb.WriteByte('-')
		}
	}
	return sb.String(), nil
}

// ParseState is the inverse of StateString.
func ParseState(str string, names []string) (State, error) {
	if len(str) != len(names) {
		return nil, fmt.Errorf("%w: %q has length %d, expected %d", ErrDimensionMismatch, str, len(str), len(names))
	}
	out := make(State, len(names))
	for i, n := range names {
		switch str[i] {
		case '0':
			out[n] = 0
		case '1':
			out[n] = 1
		default:
			return nil, fmt.Errorf("%w: %q at position %d", ErrInvalidValue, str[i], i)
		}
	}
	return out, nil
}

// ParseSubspace is the inverse of SubspaceString.
func ParseSubspace(str string, names []string) (Subspace, error) {
	if len(str) != len(names) {
		return nil, fmt.Errorf("%w: %q has length %d, expected %d", ErrDimensionMismatch, str, len(str), len(names))
	}
	out := make(Subspace)
	for i, n := range names {
		switch str[i] {
		case '0':
			out[n] = 0
		case '1':
			out[n] = 1
		case '-':
		default:
			return nil, fmt.Errorf("%w: %q at position %d", ErrInvalidValue, str[i], i)
		}
	}
	return out, nil
}
