package kripke

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfielding/boolnet-ctl/primes"
	"github.com/rfielding/boolnet-ctl/space"
	"github.com/rfielding/boolnet-ctl/stg"
)

func checkers() map[string]Checker {
	return map[string]Checker{
		"symbolic": NewSymbolic(),
		"explicit": NewExplicit(),
	}
}

// isPath reports whether consecutive states are transitions of the mode.
func isPath(net primes.Network, u stg.Update, path []space.State) bool {
	succ, err := stg.Successors(u)
	if err != nil {
		return false
	}
	for i := 1; i < len(path); i++ {
		found := false
		for _, y := range succ(net, path[i-1]) {
			if y.String() == path[i].String() {
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

func TestCheckReachability(t *testing.T) {
	for name, c := range checkers() {
		t.Run(name, func(t *testing.T) {
			net := primes.MustParse("v1, 0; v2, v2")
			holds, err := c.Check(net, stg.Asynchronous, True{}, EF{F: Var{"v2"}})
			require.NoError(t, err)
			assert.False(t, holds)

			holds, path, err := c.CheckWithCounterexample(net, stg.Asynchronous, True{}, EF{F: Var{"v2"}})
			require.NoError(t, err)
			assert.False(t, holds)
			require.Len(t, path, 1)
			assert.Equal(t, 0, path[0]["v2"])

			holds, err = c.Check(net, stg.Asynchronous, True{}, EF{F: Not{F: Var{"v1"}}})
			require.NoError(t, err)
			assert.True(t, holds)
		})
	}
}

func TestCheckAttractorQueries(t *testing.T) {
	net, err := primes.Repository("xyz")
	require.NoError(t, err)
	names := net.Names()
	attractor := func(s string) space.Subspace {
		sub, err := space.ParseSubspace(s, names)
		require.NoError(t, err)
		return sub
	}
	for name, c := range checkers() {
		t.Run(name, func(t *testing.T) {
			all := []space.Subspace{attractor("101"), attractor("-10")}
			holds, err := c.Check(net, stg.Asynchronous, True{}, EFOneOfSubspaces(all))
			require.NoError(t, err)
			assert.True(t, holds)

			holds, path, err := c.CheckWithCounterexample(net, stg.Asynchronous, True{}, EFOneOfSubspaces(all[:1]))
			require.NoError(t, err)
			assert.False(t, holds)
			require.Len(t, path, 1)
			assert.False(t, path[0]["x"] == 1 && path[0]["y"] == 0 && path[0]["z"] == 1)

			init := StateProp(space.State{"x": 0, "y": 1, "z": 0})
			holds, err = c.Check(net, stg.Asynchronous, init, AGEFOneOfSubspaces([]space.Subspace{attractor("010")}))
			require.NoError(t, err)
			assert.True(t, holds)
		})
	}
}

func TestCheckAGCounterexamplePath(t *testing.T) {
	net := primes.MustParse("a, a | b; b, b; c, !c")
	for name, c := range checkers() {
		t.Run(name, func(t *testing.T) {
			init := MustParse("!a & b & !c")
			holds, path, err := c.CheckWithCounterexample(net, stg.Asynchronous, init, AG{F: Not{F: Var{"a"}}})
			require.NoError(t, err)
			assert.False(t, holds)
			require.Len(t, path, 2)
			assert.Equal(t, space.State{"a": 0, "b": 1, "c": 0}, path[0])
			assert.Equal(t, 1, path[1]["a"])
			assert.True(t, isPath(net, stg.Asynchronous, path))
		})
	}
}

func TestCheckUpdateModes(t *testing.T) {
	swap := primes.MustParse("v1, v2; v2, v1")
	toggles := primes.MustParse("v1, !v1; v2, !v2")
	for name, c := range checkers() {
		t.Run(name, func(t *testing.T) {
			init := MustParse("v1 & !v2")
			holds, err := c.Check(swap, stg.Synchronous, init, MustParse("AG(EF(v1&!v2))"))
			require.NoError(t, err)
			assert.True(t, holds)
			holds, err = c.Check(swap, stg.Synchronous, init, MustParse("EF(v1&v2)"))
			require.NoError(t, err)
			assert.False(t, holds)
			holds, err = c.Check(swap, stg.Asynchronous, init, MustParse("EF(v1&v2)"))
			require.NoError(t, err)
			assert.True(t, holds)

			zero := MustParse("!v1 & !v2")
			holds, err = c.Check(toggles, stg.Mixed, zero, MustParse("EX(v1&v2)"))
			require.NoError(t, err)
			assert.True(t, holds)
			holds, err = c.Check(toggles, stg.Asynchronous, zero, MustParse("EX(v1&v2)"))
			require.NoError(t, err)
			assert.False(t, holds)
			holds, err = c.Check(toggles, stg.Asynchronous, zero, MustParse("AX(v1 | v2)"))
			require.NoError(t, err)
			assert.True(t, holds)
		})
	}
}

func TestCheckUnsteady(t *testing.T) {
	for name, c := range checkers() {
		t.Run(name, func(t *testing.T) {
			osc := primes.MustParse("v1, !v1; v2, v2")
			holds, err := c.Check(osc, stg.Asynchronous, True{}, AG{F: EFUnsteady([]string{"v1"})})
			require.NoError(t, err)
			assert.True(t, holds)

			holds, path, err := c.CheckWithCounterexample(osc, stg.Asynchronous, True{}, AG{F: EFUnsteady([]string{"v1", "v2"})})
			require.NoError(t, err)
			assert.False(t, holds)
			require.NotEmpty(t, path)
		})
	}
}

func TestCheckersAgree(t *testing.T) {
	net, err := primes.Repository("hierarchy")
	require.NoError(t, err)
	formulas := []string{
		"EF(v5 & v6)",
		"AG(EF(!v5))",
		"AF(v3 | !v0)",
		"EG(v1)",
		"A[v0 U v3]",
		"E[!v4 U v4&v2]",
		"AX(v1 -> EX(v2))",
		"AG(EF(unsteady(v5))) | v0",
	}
	sym, exp := NewSymbolic(), NewExplicit()
	for _, u := range stg.Updates {
		for _, text := range formulas {
			f := MustParse(text)
			for _, init := range []Formula{True{}, MustParse("v0 & !v1"), MustParse("!v5&!v6")} {
				a, err := sym.Check(net, u, init, f)
				require.NoError(t, err)
				b, err := exp.Check(net, u, init, f)
				require.NoError(t, err)
				assert.Equal(t, b, a, "%s INIT %s CTLSPEC %s", u, init, f)
			}
		}
	}
}

func TestCheckEmptyNetworkAndUnknownVariables(t *testing.T) {
	for name, c := range checkers() {
		t.Run(name, func(t *testing.T) {
			holds, err := c.Check(primes.Network{}, stg.Asynchronous, True{}, MustParse("AG(EF(TRUE))"))
			require.NoError(t, err)
			assert.True(t, holds)

			_, err = c.Check(primes.MustParse("v1, v1"), stg.Asynchronous, True{}, MustParse("EF(v9)"))
			assert.True(t, errors.Is(err, space.ErrUnknownVariable))
		})
	}
}

func TestWriteSMV(t *testing.T) {
	net := primes.MustParse("v1, !v1 | v2; v2, 0")
	var buf bytes.Buffer
	require.NoError(t, WriteSMV(&buf, net, stg.Asynchronous, True{}, AG{F: EFUnsteady([]string{"v1"})}))
	out := buf.String()
	assert.Contains(t, out, "v1: boolean;")
	assert.Contains(t, out, "v1_IMAGE := !v1 | v2;")
	assert.Contains(t, out, "v2_IMAGE := FALSE;")
	assert.Contains(t, out, "-- asynchronous update")
	assert.Contains(t, out, "INIT TRUE;")
	assert.Contains(t, out, "CTLSPEC AG(EF(!v1_STEADY));")

	buf.Reset()
	require.NoError(t, WriteSMV(&buf, net, stg.Synchronous, True{}, True{}))
	assert.Contains(t, buf.String(), "next(v1) = v1_IMAGE & next(v2) = v2_IMAGE;")
}
