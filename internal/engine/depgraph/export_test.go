package depgraph

import (
	"cmp"

	"go.trai.ch/ripple/internal/core/domain"
)

// CorruptProviders inserts node into the providers table for key without
// updating the node index.
func CorruptProviders[N cmp.Ordered](g *Graph[N], key domain.FactKey, node N) {
	set, ok := g.providers[key]
	if !ok {
		set = make(map[N]struct{})
		g.providers[key] = set
	}
	set[node] = struct{}{}
}

// CorruptDependents flips the cascade flag of node's dependency on key in the forward table only.
func CorruptDependents[N cmp.Ordered](g *Graph[N], key domain.FactKey, node N) {
	g.dependents[key][node] = !g.dependents[key][node]
}

// CorruptExternal drops path from the set of tracked external paths.
func CorruptExternal[N cmp.Ordered](g *Graph[N], path string) {
	delete(g.externalPaths, path)
}

// ForgetNode removes node from the known nodes while leaving its facts in place.
func ForgetNode[N cmp.Ordered](g *Graph[N], node N) {
	delete(g.nodes, node)
}
