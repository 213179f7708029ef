package attractors

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfielding/boolnet-ctl/digraph"
	"github.com/rfielding/boolnet-ctl/kripke"
	"github.com/rfielding/boolnet-ctl/primes"
	"github.com/rfielding/boolnet-ctl/space"
	"github.com/rfielding/boolnet-ctl/stg"
	"github.com/rfielding/boolnet-ctl/trapspace"
)

const (
	fiveVariables  = "v1, !v1&v2&v3 | v1&!v2&!v3\nv2, !v1&!v2 | v1&v3\nv3, !v1&v3 | v1&v2\nv4, 1\nv5, v4"
	threeVariables = "v1, !v1&v2&v3 | v1&!v2&!v3\nv2, !v1&!v2 | v1&v3\nv3, v2 | v3"
	// a selects between freezing b, c and swapping them
	gatedSwap      = "a, a\nb, a&c | !a&b\nc, a&b | !a&c"
)

func parseFamily(t *testing.T, names []string, strs ...string) []space.Subspace {
	t.Helper()
	out := make([]space.Subspace, len(strs))
	for i, s := range strs {
		sub, err := space.ParseSubspace(s, names)
		require.NoError(t, err)
		out[i] = sub
	}
	return out
}

func TestCompletenessNaive(t *testing.T) {
	net := primes.MustParse("v1, v1 | v2&!v3\nv2, !v1&v2&v3\nv3, !v2&!v3 | v2&v3")
	names := net.Names()
	ctx := context.Background()

	ok, cex, err := analyzer(1).CompletenessNaive(ctx, net, stg.Asynchronous, parseFamily(t, names, "00-", "10-"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, cex, 3)

	ok, cex, err = analyzer(1).CompletenessNaive(ctx, net, stg.Asynchronous, parseFamily(t, names, "00-", "10-", "011"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, cex)
}

// reachesNone reports whether no state reachable from x lies in a family member.
func reachesNone(t *testing.T, net primes.Network, u stg.Update, x space.State, family []space.Subspace) bool {
	t.Helper()
	g, err := stg.Build(net, u, space.Subspace{})
	require.NoError(t, err)
	names := net.Names()
	start, err := space.StateString(x, names)
	require.NoError(t, err)
	for id := range digraph.Descendants(g, digraph.NodeID(start)) {
		y, err := space.ParseState(string(id), names)
		require.NoError(t, err)
		for _, sub := range family {
			if space.Contains(sub, y) {
				return false
			}
		}
	}
	return true
}

func TestCompletenessHierarchy(t *testing.T) {
	net, err := primes.Repository("hierarchy")
	require.NoError(t, err)
	ctx := context.Background()

	ok, _, err := analyzer(1).CompletenessIterative(ctx, net, stg.Asynchronous)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, cex, err := analyzer(1).CompletenessIterative(ctx, net, stg.Synchronous)
	require.NoError(t, err)
	assert.False(t, ok)
	require.Len(t, cex, len(net))

	mints, err := trapspace.New(nil).Minimal(net)
	require.NoError(t, err)
	if !reachesNone(t, net, stg.Synchronous, cex, mints) {
		t.Errorf("Expected counterexample %s to reach no minimal trap space", cex)
	}
}

func TestCompletenessFiveVariables(t *testing.T) {
	net := primes.MustParse(fiveVariables)
	ctx := context.Background()

	ok, cex, err := analyzer(1).CompletenessIterative(ctx, net, stg.Asynchronous)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, cex, len(net))
	if v := cex["v4"]; v != 1 {
		t.Errorf("Expected global constant v4=1 in counterexample, got %d", v)
	}

	ok, _, err = analyzer(1).CompletenessIterative(ctx, net, stg.Synchronous)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCompletenessSecondRound(t *testing.T) {
	net := primes.MustParse(gatedSwap)
	mints, err := trapspace.New(nil).Minimal(net)
	require.NoError(t, err)
	ctx := context.Background()

	for seed := int64(1); seed <= 5; seed++ {
		ok, cex, err := analyzer(seed).CompletenessIterative(ctx, net, stg.Synchronous)
		require.NoError(t, err, "seed %d", seed)
		assert.False(t, ok)
		require.Len(t, cex, len(net))
		if cex["a"] != 1 {
			t.Errorf("Expected counterexample inside a=1, got %s", cex)
		}
		if !reachesNone(t, net, stg.Synchronous, cex, mints) {
			t.Errorf("Expected counterexample %s to reach no minimal trap space", cex)
		}
	}

	for _, u := range []stg.Update{stg.Asynchronous, stg.Mixed} {
		ok, _, err := analyzer(1).CompletenessIterative(ctx, net, u)
		require.NoError(t, err)
		assert.True(t, ok, u.String())
	}
}

func TestCompletenessNaiveFromSubspace(t *testing.T) {
	net := primes.MustParse(gatedSwap)
	names := net.Names()
	q := parseFamily(t, names, "100", "111")

	ok, cex, err := analyzer(1).completeFrom(context.Background(), net, stg.Synchronous, space.Subspace{"a": 1}, q)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, cex["a"])
	assert.NotEqual(t, cex["b"], cex["c"])
}

func TestCompletenessComplete(t *testing.T) {
	ctx := context.Background()
	three := primes.MustParse(threeVariables)
	for _, u := range []stg.Update{stg.Asynchronous, stg.Synchronous} {
		ok, cex, err := analyzer(1).CompletenessIterative(ctx, three, u)
		require.NoError(t, err)
		assert.True(t, ok, u.String())
		assert.Nil(t, cex)
	}

	cascade, err := primes.Repository("cascade")
	require.NoError(t, err)
	ok, _, err := analyzer(1).CompletenessIterative(ctx, cascade, stg.Synchronous)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCompletenessUniqueSteadyState(t *testing.T) {
	c := &refuting{}
	net := primes.MustParse("a, 1\nb, a\nc, !b")
	ok, cex, err := analyzer(1, WithChecker(c)).CompletenessIterative(context.Background(), net, stg.Mixed)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, cex)
	assert.Zero(t, c.calls)
}

func TestCompletenessNaiveAndIterativeAgree(t *testing.T) {
	nets := map[string]primes.Network{
		"five":  primes.MustParse(fiveVariables),
		"three": primes.MustParse(threeVariables),
		"xyz":   primes.MustParse("x, !x&y | z\ny, !x | !z\nz, x&!y"),
		"swap":  primes.MustParse(gatedSwap),
	}
	for _, name := range []string{"hierarchy", "raf"} {
		net, err := primes.Repository(name)
		require.NoError(t, err)
		nets[name] = net
	}
	ctx := context.Background()
	for name, net := range nets {
		mints, err := trapspace.New(nil).Minimal(net)
		require.NoError(t, err)
		for _, u := range stg.Updates {
			naive, _, err := analyzer(5).CompletenessNaive(ctx, net, u, mints)
			require.NoError(t, err)
			iterative, _, err := analyzer(5).CompletenessIterative(ctx, net, u)
			require.NoError(t, err)
			if naive != iterative {
				t.Errorf("Expected naive (%v) and iterative (%v) completeness to agree on %s under %s", naive, iterative, name, u)
			}
		}
	}
}

func TestCompletenessWithExplicitChecker(t *testing.T) {
	net, err := primes.Repository("hierarchy")
	require.NoError(t, err)
	a := analyzer(1, WithChecker(kripke.NewExplicit()))
	ok, _, err := a.CompletenessIterative(context.Background(), net, stg.Asynchronous)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIntersection(t *testing.T) {
	factors := [][]space.Subspace{
		{{"a": 0}, {"a": 1, "b": 1}},
		{{"b": 0, "c": 1}, {"c": 0}},
	}
	got := intersection(factors)
	want := []space.Subspace{
		{"a": 0, "b": 0, "c": 1},
		{"a": 0, "c": 0},
		{"a": 1, "b": 1, "c": 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("intersection mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, intersection(nil))
}
