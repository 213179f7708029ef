package kripke

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfielding/boolnet-ctl/space"
)

func TestQueryStrings(t *testing.T) {
	subs := []space.Subspace{{"v1": 0, "v2": 0}, {"v1": 1, "v2": 1}}
	assert.Equal(t, "EF(!v1&!v2 | v1&v2)", EFOneOfSubspaces(subs).String())

	subs = []space.Subspace{{"v1": 0, "v2": 0}, {"v2": 1}}
	assert.Equal(t, "AG(EF(!v1&!v2 | v2))", AGEFOneOfSubspaces(subs).String())

	assert.Equal(t, "EF(FALSE)", EFOneOfSubspaces(nil).String())
	assert.Equal(t, "TRUE", SubspaceProp(space.Subspace{}).String())
	assert.Equal(t, "EF(unsteady(v1))&EF(unsteady(v2))", EFUnsteady([]string{"v1", "v2"}).String())
	assert.Equal(t, "TRUE", EFUnsteady(nil).String())
}

func TestStringParenthesizes(t *testing.T) {
	f := Not{F: And{Terms: []Formula{Var{"a"}, Or{Terms: []Formula{Var{"b"}, Var{"c"}}}}}}
	assert.Equal(t, "!(a&(b | c))", f.String())

	g := Implies{Left: Implies{Left: Var{"a"}, Right: Var{"b"}}, Right: EU{P: Var{"a"}, Q: Not{F: Var{"b"}}}}
	assert.Equal(t, "(a -> b) -> E[a U !b]", g.String())
}

func TestParseRoundTrip(t *testing.T) {
	for _, text := range []string{
		"EF(!v1&!v2 | v1&v2)",
		"AG(EF(!v1&!v2 | v2))",
		"EF(unsteady(v1))&EF(unsteady(v2))",
		"!(a&(b | c))",
		"(a -> b) -> E[a U !b]",
		"A[TRUE U AX(EX(x))] | EG(AF(y))",
		"FALSE",
	} {
		f, err := Parse(text)
		require.NoError(t, err, text)
		assert.Equal(t, text, f.String())
	}

	f, err := Parse("EF x & 1")
	require.NoError(t, err)
	assert.Equal(t, And{Terms: []Formula{EF{F: Var{"x"}}, True{}}}, f)
}

func TestParseErrors(t *testing.T) {
	for _, text := range []string{"", "a &", "EF(a", "E[a b]", "unsteady(EF)", "a $ b", "a b"} {
		_, err := Parse(text)
		assert.True(t, errors.Is(err, ErrParse), "%q: %v", text, err)
	}
}

func TestAtoms(t *testing.T) {
	f := MustParse("AG(EF(x&!y)) | E[unsteady(z) U x]")
	assert.Equal(t, []string{"x", "y", "z"}, Atoms(f))
}
