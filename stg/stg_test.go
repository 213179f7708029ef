package stg

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfielding/boolnet-ctl/digraph"
	"github.com/rfielding/boolnet-ctl/primes"
	"github.com/rfielding/boolnet-ctl/space"
)

func stateStrings(t *testing.T, states []space.State, names []string) []string {
	t.Helper()
	out := make([]string, len(states))
	for i, s := range states {
		str, err := space.StateString(s, names)
		require.NoError(t, err)
		out[i] = str
	}
	return out
}

func TestParseUpdate(t *testing.T) {
	for in, want := range map[string]Update{"sync": Synchronous, "asynchronous": Asynchronous, "Mixed": Mixed} {
		got, err := ParseUpdate(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseUpdate("parallel")
	assert.True(t, errors.Is(err, ErrUnknownUpdate))

	var u Update
	require.NoError(t, u.UnmarshalText([]byte("mixed")))
	assert.Equal(t, Mixed, u)
	text, err := Asynchronous.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "asynchronous", string(text))
}

func TestSuccessors(t *testing.T) {
	net := primes.MustParse("v1, !v1; v2, v1; v3, v3")
	names := net.Names()
	x, err := space.ParseState("000", names)
	require.NoError(t, err)

	assert.Equal(t, []string{"v1"}, Unstable(net, x))
	assert.Equal(t, []string{"100"}, stateStrings(t, []space.State{SuccessorSync(net, x)}, names))

	y, err := space.ParseState("100", names)
	require.NoError(t, err)
	succ, err := Successors(Synchronous)
	require.NoError(t, err)
	assert.Equal(t, []string{"010"}, stateStrings(t, succ(net, y), names))
	assert.Equal(t, []string{"000", "110"}, stateStrings(t, SuccessorsAsync(net, y), names))
	assert.Equal(t, []string{"000", "110", "010"}, stateStrings(t, SuccessorsMixed(net, y), names))
}

func TestUnknownUpdateRejected(t *testing.T) {
	net := primes.MustParse("v1, !v1")
	bad := Update(7)

	_, err := Successors(bad)
	assert.ErrorIs(t, err, ErrUnknownUpdate)
	_, err = RandomSuccessor(bad)
	assert.ErrorIs(t, err, ErrUnknownUpdate)

	_, err = RandomWalk(net, bad, space.State{"v1": 0}, 3, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrUnknownUpdate)
	_, err = Build(net, bad, space.Subspace{})
	if !errors.Is(err, ErrUnknownUpdate) {
		t.Errorf("Expected ErrUnknownUpdate from Build, got %v", err)
	}
}

func TestAsyncIsContainedInMixed(t *testing.T) {
	net, err := primes.Repository("hierarchy")
	require.NoError(t, err)
	names := net.Names()
	for _, x := range space.Enumerate(space.Subspace{}, names) {
		mixed := map[string]bool{}
		for _, y := range SuccessorsMixed(net, x) {
			mixed[y.String()] = true
		}
		for _, y := range SuccessorsAsync(net, x) {
			if !mixed[y.String()] {
				t.Errorf("Expected async successor %s of %s among mixed successors", y, x)
			}
		}
		if IsSteady(net, x) {
			assert.Equal(t, []space.State{x}, SuccessorsAsync(net, x))
			assert.Equal(t, []space.State{x}, SuccessorsMixed(net, x))
			assert.Equal(t, x, SuccessorSync(net, x))
		}
	}
}

func TestRandomSuccessorMixedFlipsUnstableSubset(t *testing.T) {
	net := primes.MustParse("a, !a; b, !b; c, !c; d, d")
	x := space.State{"a": 0, "b": 0, "c": 0, "d": 0}
	rng := rand.New(rand.NewSource(7))
	sizes := map[int]int{}
	for i := 0; i < 300; i++ {
		y := RandomSuccessorMixed(net, x, rng)
		assert.Equal(t, 0, y["d"])
		d := space.Hamming(x, y)
		require.True(t, d >= 1 && d <= 3)
		sizes[d]++
	}
	// every subset size is drawn with equal probability
	for k := 1; k <= 3; k++ {
		assert.Greater(t, sizes[k], 60, "size %d", k)
	}
}

func TestRandomStateAndWalk(t *testing.T) {
	net := primes.MustParse("v1, v1; v2, !v2; v3, v1")
	names := net.Names()
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		x := RandomState(rng, names, space.Subspace{"v1": 1})
		assert.Equal(t, 1, x["v1"])
		assert.Len(t, x, 3)
	}

	start := space.State{"v1": 1, "v2": 0, "v3": 0}
	path, err := RandomWalk(net, Synchronous, start, 4, rng)
	require.NoError(t, err)
	require.Len(t, path, 5)
	assert.Equal(t, []string{"100", "111", "101", "111", "101"}, stateStrings(t, path, names))
}

func TestEmptyNetwork(t *testing.T) {
	net := primes.Network{}
	x := space.State{}
	assert.Equal(t, []space.State{x}, SuccessorsAsync(net, x))
	assert.Empty(t, SuccessorSync(net, x))
	assert.Empty(t, RandomState(rand.New(rand.NewSource(1)), nil, nil))
}

func TestTarjanAttractors(t *testing.T) {
	net, err := primes.Repository("xyz")
	require.NoError(t, err)

	g, err := Build(net, Asynchronous, space.Subspace{})
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 8)

	atts := Attractors(g)
	require.Len(t, atts, 2)
	assert.Equal(t, []string{"010", "110"}, atts[0].States)
	assert.True(t, atts[0].IsCyclic())
	assert.Equal(t, []string{"101"}, atts[1].States)
	assert.True(t, atts[1].IsSteady())
}

func TestBuildFromSubspace(t *testing.T) {
	net := primes.MustParse("v1, v1; v2, v1")
	g, err := Build(net, Asynchronous, space.Subspace{"v1": 1})
	require.NoError(t, err)
	assert.ElementsMatch(t, []digraph.NodeID{"10", "11"}, g.Nodes)

	_, err = Build(net, Asynchronous, space.Subspace{"v7": 1})
	assert.True(t, errors.Is(err, space.ErrUnknownVariable))
}

func TestBestFirstReachability(t *testing.T) {
	net, err := primes.Repository("raf")
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(3))

	path, err := BestFirstReachability(net, space.Subspace{"Erk": 0, "Mek": 0, "Raf": 0}, space.Subspace{"Raf": 1}, 100, rng)
	require.NoError(t, err)
	require.NotEmpty(t, path)
	assert.Equal(t, 1, path[len(path)-1]["Raf"])
	for i := 1; i < len(path); i++ {
		assert.Equal(t, 1, space.Hamming(path[i-1], path[i]))
	}
}

func TestExport(t *testing.T) {
	net := primes.MustParse("v1, !v1")
	g, err := Build(net, Asynchronous, space.Subspace{})
	require.NoError(t, err)

	var dot bytes.Buffer
	require.NoError(t, WriteDOT(&dot, g, digraph.NewNodeSet("0"), digraph.NewNodeSet("1")))
	assert.Contains(t, dot.String(), "start -> \"0\";")
	assert.Contains(t, dot.String(), "\"0\" -> \"1\";")
	assert.Contains(t, dot.String(), "\"1\" [style=filled")

	var mm bytes.Buffer
	require.NoError(t, WriteMermaid(&mm, g, digraph.NewNodeSet("0")))
	assert.Contains(t, mm.String(), "[*] --> s0")
	assert.Contains(t, mm.String(), "s1 --> s0")
}
