package kripke

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfielding/boolnet-ctl/primes"
	"github.com/rfielding/boolnet-ctl/space"
	"github.com/rfielding/boolnet-ctl/stg"
)

type countingChecker struct {
	Checker
	calls int
}

func (c *countingChecker) Check(net primes.Network, u stg.Update, init, spec Formula) (bool, error) {
	c.calls++
	return c.Checker.Check(net, u, init, spec)
}

func (c *countingChecker) CheckWithCounterexample(net primes.Network, u stg.Update, init, spec Formula) (bool, []space.State, error) {
	c.calls++
	return c.Checker.CheckWithCounterexample(net, u, init, spec)
}

func TestCachedChecker(t *testing.T) {
	db, err := OpenStore(StoreConfig{InMemory: true})
	require.NoError(t, err)
	defer db.Close()

	inner := &countingChecker{Checker: NewSymbolic()}
	c := NewCached(inner, db, nil)
	net := primes.MustParse("v1, 0; v2, v2")
	spec := EF{F: Var{"v2"}}

	holds, err := c.Check(net, stg.Asynchronous, True{}, spec)
	require.NoError(t, err)
	assert.False(t, holds)
	holds, err = c.Check(net, stg.Asynchronous, True{}, spec)
	require.NoError(t, err)
	assert.False(t, holds)
	assert.Equal(t, 1, inner.calls)

	// a bare verdict has no path yet
	holds, path, err := c.CheckWithCounterexample(net, stg.Asynchronous, True{}, spec)
	require.NoError(t, err)
	assert.False(t, holds)
	require.Len(t, path, 1)
	assert.Equal(t, 2, inner.calls)

	_, again, err := c.CheckWithCounterexample(net, stg.Asynchronous, True{}, spec)
	require.NoError(t, err)
	assert.Equal(t, path, again)
	assert.Equal(t, 2, inner.calls)

	// a different mode is a different query
	_, err = c.Check(net, stg.Synchronous, True{}, spec)
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestOpenStoreRequiresPath(t *testing.T) {
	_, err := OpenStore(StoreConfig{})
	assert.Error(t, err)

	db, err := OpenStore(StoreConfig{Path: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, db.Close())
}
