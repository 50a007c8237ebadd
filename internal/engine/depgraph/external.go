package depgraph

import (
	"maps"
	"slices"
)

// ExternalDependencies returns every external path any record has named, in
// ascending order. Paths stay listed after the nodes naming them are reloaded
// without them.
func (g *Graph[N]) ExternalDependencies() []string {
	return slices.Sorted(maps.Keys(g.externalPaths))
}

// ExternalDependents returns the nodes whose current record depends on path.
func (g *Graph[N]) ExternalDependents(path string) []N {
	return slices.Sorted(maps.Keys(g.external[path]))
}

// UsedExternals returns the external paths the node currently depends on.
func (g *Graph[N]) UsedExternals(node N) []string {
	return slices.Clone(g.usedExternal[node])
}
