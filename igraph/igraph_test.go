package igraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfielding/boolnet-ctl/digraph"
	"github.com/rfielding/boolnet-ctl/primes"
)

func TestHierarchyCondensation(t *testing.T) {
	net, err := primes.Repository("hierarchy")
	require.NoError(t, err)

	g := Of(net)
	assert.True(t, g.HasEdge("v1", "v2"))
	assert.True(t, g.HasEdge("v6", "v5"))
	assert.True(t, g.HasEdge("v0", "v0"))
	assert.False(t, g.HasEdge("v5", "v3"))

	c := digraph.Condensation(g)
	top := c.TopLayer(digraph.NewNodeSet())
	assert.Equal(t, [][]digraph.NodeID{{"v0"}, {"v1", "v2"}}, top)

	seen := digraph.NewNodeSet("v0", "v1", "v2")
	assert.Equal(t, [][]digraph.NodeID{{"v3"}, {"v4"}}, c.TopLayer(seen))

	assert.Equal(t, []string{"v0", "v1", "v2", "v3", "v4", "v5", "v6"}, Ancestors(g, []string{"v5"}))
	assert.Equal(t, []string{"v1", "v2", "v4"}, Ancestors(g, []string{"v4"}))
}

func TestConstantsAreIsolated(t *testing.T) {
	net := primes.MustParse("v1, 1; v2, v1")
	g := Of(net)
	assert.True(t, g.HasEdge("v1", "v2"))
	assert.Equal(t, 1, g.EdgeCount())
}
