package attractors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfielding/boolnet-ctl/kripke"
	"github.com/rfielding/boolnet-ctl/primes"
	"github.com/rfielding/boolnet-ctl/space"
	"github.com/rfielding/boolnet-ctl/stg"
	"github.com/rfielding/boolnet-ctl/trapspace"
)

func analyzer(seed int64, opts ...Option) *Analyzer {
	return New(append([]Option{WithSeed(seed)}, opts...)...)
}

// refuting never confirms a walk end as an attractor state.
type refuting struct{ calls int }

func (r *refuting) Check(primes.Network, stg.Update, kripke.Formula, kripke.Formula) (bool, error) {
	r.calls++
	return false, nil
}

func (r *refuting) CheckWithCounterexample(net primes.Network, u stg.Update, init, spec kripke.Formula) (bool, []space.State, error) {
	r.calls++
	return false, nil, nil
}

type failing struct{}

var errOracle = errors.New("solver crashed")

func (failing) Check(primes.Network, stg.Update, kripke.Formula, kripke.Formula) (bool, error) {
	return false, errOracle
}

func (failing) CheckWithCounterexample(primes.Network, stg.Update, kripke.Formula, kripke.Formula) (bool, []space.State, error) {
	return false, nil, errOracle
}

func TestNewDefaults(t *testing.T) {
	a := New()
	assert.IsType(t, &kripke.Symbolic{}, a.checker)
	assert.IsType(t, &trapspace.Solver{}, a.oracle)
	assert.NotNil(t, a.rng)
	assert.NotNil(t, a.logger)
	assert.Equal(t, 10, a.attempts)

	explicit := kripke.NewExplicit()
	a = New(WithChecker(explicit), WithAttempts(0))
	assert.Same(t, explicit, a.checker)
	if a.attempts != 1 {
		t.Errorf("Expected at least one attempt, got %d", a.attempts)
	}
}

func TestFindAttractorState(t *testing.T) {
	net := primes.MustParse("x, !x&y | z\ny, !x | !z\nz, x&!y")
	for _, u := range stg.Updates {
		x, err := analyzer(1).FindAttractorState(context.Background(), net, u, space.Subspace{})
		require.NoError(t, err)
		str, err := space.StateString(x, net.Names())
		require.NoError(t, err)
		if u == stg.Asynchronous {
			assert.Contains(t, []string{"101", "010", "110"}, str)
		}
	}

	x, err := analyzer(2).FindAttractorState(context.Background(), net, stg.Asynchronous, space.Subspace{"x": 1, "y": 0, "z": 1})
	require.NoError(t, err)
	assert.Equal(t, space.State{"x": 1, "y": 0, "z": 1}, x)
}

func TestFindAttractorStateEmptyNetwork(t *testing.T) {
	x, err := analyzer(1).FindAttractorState(context.Background(), primes.Network{}, stg.Synchronous, space.Subspace{})
	require.NoError(t, err)
	assert.Empty(t, x)
}

func TestFindAttractorStateExhaustsAttempts(t *testing.T) {
	c := &refuting{}
	a := analyzer(1, WithChecker(c), WithAttempts(3), WithWalkLength(5))
	_, err := a.FindAttractorState(context.Background(), primes.MustParse("v1, v1"), stg.Asynchronous, space.Subspace{})
	assert.ErrorIs(t, err, ErrNoAttractorStateFound)
	if c.calls != 3 {
		t.Errorf("Expected 3 model checker calls, got %d", c.calls)
	}
}

func TestOracleErrorsPropagate(t *testing.T) {
	a := analyzer(1, WithChecker(failing{}))
	net := primes.MustParse("v1, 0; v2, v2")
	_, _, err := a.Univocality(context.Background(), net, stg.Asynchronous, space.Subspace{"v1": 0})
	assert.ErrorIs(t, err, errOracle)
	_, _, err = a.CompletenessIterative(context.Background(), net, stg.Asynchronous)
	assert.ErrorIs(t, err, errOracle)
}

func TestInputsAreValidatedEagerly(t *testing.T) {
	c := &refuting{}
	a := analyzer(1, WithChecker(c))
	net := primes.MustParse("v1, 0; v2, v2")
	ctx := context.Background()

	_, err := a.FindAttractorState(ctx, net, stg.Update(7), space.Subspace{})
	assert.ErrorIs(t, err, stg.ErrUnknownUpdate)
	_, _, err = a.Univocality(ctx, net, stg.Asynchronous, space.Subspace{"v9": 1})
	assert.ErrorIs(t, err, space.ErrUnknownVariable)
	_, _, err = a.Faithfulness(ctx, net, stg.Asynchronous, space.Subspace{"v1": 2})
	assert.ErrorIs(t, err, space.ErrInvalidValue)
	_, _, err = a.CompletenessNaive(ctx, net, stg.Mixed, []space.Subspace{{"v3": 0}})
	assert.ErrorIs(t, err, space.ErrUnknownVariable)
	assert.Zero(t, c.calls)
}

func TestUnivocality(t *testing.T) {
	ctx := context.Background()
	net := primes.MustParse("v1, !v1&!v2 | v2&!v3\nv2, v1&v2\nv3, v2 | v3\nv4, 1")

	ok, _, err := analyzer(1).Univocality(ctx, net, stg.Asynchronous, space.Subspace{"v4": 1})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, pair, err := analyzer(2).Univocality(ctx, net, stg.Asynchronous, space.Subspace{})
	require.NoError(t, err)
	assert.False(t, ok)
	require.NotNil(t, pair)
	assert.Len(t, pair.First, 4)
	assert.Len(t, pair.Second, 4)
}

func TestUnivocalityCounterexamplePair(t *testing.T) {
	net := primes.MustParse("v1, 0; v2, v2")
	ok, pair, err := analyzer(3).Univocality(context.Background(), net, stg.Asynchronous, space.Subspace{"v1": 0})
	require.NoError(t, err)
	assert.False(t, ok)
	require.NotNil(t, pair)
	expected := []space.State{{"v1": 0, "v2": 0}, {"v1": 0, "v2": 1}}
	assert.ElementsMatch(t, expected, []space.State{pair.First, pair.Second})
}

func TestUnivocalUniqueSteadyState(t *testing.T) {
	net := primes.MustParse("v1, !v1&!v2 | !v3\nv2, v1&v2\nv3, v1&v3 | v2\nv4, 0")
	ok, pair, err := analyzer(1).Univocality(context.Background(), net, stg.Asynchronous, space.Subspace{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, pair)
}

func TestFullySpecifiedSubspaceIsTrivial(t *testing.T) {
	c := &refuting{}
	a := analyzer(1, WithChecker(c))
	net := primes.MustParse("x, !x&y | z\ny, !x | !z\nz, x&!y")
	full := space.Subspace{"x": 0, "y": 1, "z": 0}
	for _, u := range stg.Updates {
		ok, pair, err := a.Univocality(context.Background(), net, u, full)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Nil(t, pair)

		ok, x, err := a.Faithfulness(context.Background(), net, u, full)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Nil(t, x)
	}
	assert.Zero(t, c.calls)
}

func TestFaithfulness(t *testing.T) {
	ctx := context.Background()
	net := primes.MustParse("v1, !v1&!v2 | !v2&!v3\nv2, !v1&!v2&v3 | v1&!v3\nv3, !v1&v3 | !v2")

	ok, x, err := analyzer(1).Faithfulness(ctx, net, stg.Asynchronous, space.Subspace{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, x, 3)

	ok, _, err = analyzer(1).Faithfulness(ctx, net, stg.Asynchronous, space.Subspace{"v3": 1})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFaithfulnessPercolation(t *testing.T) {
	net := primes.MustParse("v1, 0\nv2, v1\nv3, v3")
	ok, x, err := analyzer(4).Faithfulness(context.Background(), net, stg.Asynchronous, space.Subspace{"v1": 0})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, []space.State{{"v1": 0, "v2": 0, "v3": 0}, {"v1": 0, "v2": 0, "v3": 1}}, x)
}
