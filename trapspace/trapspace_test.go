package trapspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfielding/boolnet-ctl/primes"
	"github.com/rfielding/boolnet-ctl/space"
)

func subspaceStrings(t *testing.T, subs []space.Subspace, names []string) []string {
	t.Helper()
	out := make([]string, len(subs))
	for i, s := range subs {
		str, err := space.SubspaceString(s, names)
		require.NoError(t, err)
		out[i] = str
	}
	return out
}

func repo(t *testing.T, name string) primes.Network {
	t.Helper()
	net, err := primes.Repository(name)
	require.NoError(t, err)
	return net
}

func TestMinimalRaf(t *testing.T) {
	net := repo(t, "raf")
	got, err := New(nil).Minimal(net)
	require.NoError(t, err)
	assert.Equal(t, []string{"001", "11-"}, subspaceStrings(t, got, net.Names()))
}

func TestMinimalXYZ(t *testing.T) {
	net := repo(t, "xyz")
	got, err := New(nil).Minimal(net)
	require.NoError(t, err)
	assert.Equal(t, []string{"-10", "101"}, subspaceStrings(t, got, net.Names()))
}

func TestMaximalRaf(t *testing.T) {
	net := repo(t, "raf")
	got, err := New(nil).Maximal(net)
	require.NoError(t, err)
	assert.Equal(t, []string{"00-", "11-"}, subspaceStrings(t, got, net.Names()))
}

func TestAllRaf(t *testing.T) {
	net := repo(t, "raf")
	got, err := New(nil).All(net)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"---", "00-", "001", "11-"}, subspaceStrings(t, got, net.Names()))
}

func TestSteadyStates(t *testing.T) {
	net := repo(t, "xyz")
	got, err := New(nil).SteadyStates(net)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, space.State{"x": 1, "y": 0, "z": 1}, got[0])
}

func TestUniqueSteadyState(t *testing.T) {
	net := primes.MustParse("a, 1\nb, a\nc, !b")
	got, err := New(nil).Minimal(net)
	require.NoError(t, err)
	assert.Equal(t, []string{"110"}, subspaceStrings(t, got, net.Names()))
}

func TestIdentityHasFullSpaceOnlyWhenFree(t *testing.T) {
	net := primes.MustParse("a, b\nb, a")
	mins, err := New(nil).Minimal(net)
	require.NoError(t, err)
	assert.Equal(t, []string{"00", "11"}, subspaceStrings(t, mins, net.Names()))

	osc := primes.MustParse("a, !b\nb, a")
	mins, err = New(nil).Minimal(osc)
	require.NoError(t, err)
	require.Len(t, mins, 1)
	assert.Empty(t, mins[0])
}

func TestEmptyNetwork(t *testing.T) {
	s := New(nil)
	mins, err := s.Minimal(primes.Network{})
	require.NoError(t, err)
	require.Len(t, mins, 1)
	assert.Empty(t, mins[0])

	maxs, err := s.Maximal(primes.Network{})
	require.NoError(t, err)
	assert.Empty(t, maxs)
}

func TestEnergy(t *testing.T) {
	net := repo(t, "raf")
	s := New(nil)
	for str, want := range map[string]int{"000": 1, "010": 3, "001": 0} {
		x, err := space.ParseState(str, net.Names())
		require.NoError(t, err)
		got, err := s.Energy(net, x)
		require.NoError(t, err)
		if got != want {
			t.Errorf("Expected energy %d for %s, got %d", want, str, got)
		}
	}
}

func TestContaining(t *testing.T) {
	net := repo(t, "raf")
	s := New(nil)
	x, err := space.ParseState("000", net.Names())
	require.NoError(t, err)

	min, err := s.Containing(net, x, Min)
	require.NoError(t, err)
	assert.Equal(t, space.Subspace{"Erk": 0, "Mek": 0}, min)

	max, err := s.Containing(net, x, Max)
	require.NoError(t, err)
	assert.Equal(t, space.Subspace{"Erk": 0, "Mek": 0}, max)

	_, err = s.Containing(net, x, All)
	assert.Error(t, err)

	_, err = s.Containing(net, space.State{"Erk": 0}, Min)
	assert.ErrorIs(t, err, space.ErrDimensionMismatch)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("max")
	require.NoError(t, err)
	assert.Equal(t, Max, k)
	_, err = ParseKind("smallest")
	assert.Error(t, err)
}
