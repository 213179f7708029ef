package primes

import (
	"fmt"
	"sort"
)

var repository = map[string]string{
	// Raf/Mek/Erk MAPK cascade with negative feedback.
	"raf": `targets, factors
Erk, Erk & Mek | Mek & Raf
Mek, Erk | Mek & Raf
Raf, !Erk | !Raf`,
	// One steady state and one cyclic attractor under asynchronous update.
	"xyz": `x, !x&y | z
y, !x | !z
z, x&!y`,
	// Layered network, complete under asynchronous but not synchronous update.
	"hierarchy": `v0, v0
v1, v2
v2, v1
v3, v1&v0
v4, v2
v5, v3&!v6
v6, v4&v5`,
	// Ten variables in three autonomous layers.
	"cascade": `v1, !v2
v2, v1
v3, v1
v4, v2
v5, v6
v6, v4&v5
v7, v2
v8, v5
v9, v6&v10
v10, v9&v7`,
}

// Repository returns a copy of a built-in network.
func Repository(name string) (Network, error) {
	text, ok := repository[name]
	if !ok {
		return nil, fmt.Errorf("no repository network %q (have %v)", name, RepositoryNames())
	}
	return ParseBnetString(text)
}

// RepositoryNames lists the built-in networks.
func RepositoryNames() []string {
	out := make([]string, 0, len(repository))
	for k := range repository {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
