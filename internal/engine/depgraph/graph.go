// Package depgraph implements the incremental build dependency graph.
//
// Every node contributes a fact record: the names it provides and the names it
// depends on, split by category. A node is invalidated when a name it depends
// on is provided by an invalidated node. Marks are sticky: once a node is
// marked it stays marked for the lifetime of the graph and is never reported
// again.
//
// A Graph has a single writer. Callers that load records concurrently must
// serialize calls into the graph.
package depgraph

import (
	"cmp"
	"maps"
	"slices"

	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/core/ports"
)

// Graph is the bipartite provides/depends graph over node handles of type N.
type Graph[N cmp.Ordered] struct {
	parser       ports.RecordParser
	verifyOnLoad bool

	nodes map[N]struct{}

	// Forward tables, keyed by fact.
	providers  map[domain.FactKey]map[N]struct{}
	dependents map[domain.FactKey]map[N]bool
	external   map[string]map[N]struct{}

	// Reverse indexes, keyed by node, used to purge a node's previous record.
	provided     map[N][]domain.FactKey
	used         map[N][]domain.Dependency
	usedExternal map[N][]string

	// externalPaths holds every external path ever recorded.
	externalPaths map[string]struct{}

	marked map[N]struct{}

	fingerprints map[N]uint64
	changed      map[N]bool
	loadErrors   map[N]error

	dotSequence int
}

// Option configures a Graph.
type Option func(*options)

type options struct {
	verifyOnLoad bool
}

// WithVerifyOnLoad checks every invariant after each load.
// A violation panics with *InvariantError.
func WithVerifyOnLoad() Option {
	return func(o *options) {
		o.verifyOnLoad = true
	}
}

// New creates an empty graph that decodes records with parser.
func New[N cmp.Ordered](parser ports.RecordParser, opts ...Option) *Graph[N] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	return &Graph[N]{
		parser:        parser,
		verifyOnLoad:  o.verifyOnLoad,
		nodes:         make(map[N]struct{}),
		providers:     make(map[domain.FactKey]map[N]struct{}),
		dependents:    make(map[domain.FactKey]map[N]bool),
		external:      make(map[string]map[N]struct{}),
		provided:      make(map[N][]domain.FactKey),
		used:          make(map[N][]domain.Dependency),
		usedExternal:  make(map[N][]string),
		externalPaths: make(map[string]struct{}),
		marked:        make(map[N]struct{}),
		fingerprints:  make(map[N]uint64),
		changed:       make(map[N]bool),
		loadErrors:    make(map[N]error),
	}
}

// AddNode registers a node without facts. It is a no-op for known nodes.
func (g *Graph[N]) AddNode(node N) {
	g.nodes[node] = struct{}{}
}

// Nodes returns every known node in ascending order.
func (g *Graph[N]) Nodes() []N {
	return slices.Sorted(maps.Keys(g.nodes))
}

// Provides returns the keys the node currently provides, in key order.
func (g *Graph[N]) Provides(node N) []domain.FactKey {
	return slices.Clone(g.provided[node])
}

// Depends returns the node's current non-external dependencies, in key order.
func (g *Graph[N]) Depends(node N) []domain.Dependency {
	return slices.Clone(g.used[node])
}

// purge removes every contribution of node from the forward tables.
func (g *Graph[N]) purge(node N) {
	for _, key := range g.provided[node] {
		set := g.providers[key]
		delete(set, node)
		if len(set) == 0 {
			delete(g.providers, key)
		}
	}
	for _, dep := range g.used[node] {
		set := g.dependents[dep.Key]
		delete(set, node)
		if len(set) == 0 {
			delete(g.dependents, dep.Key)
		}
	}
	for _, path := range g.usedExternal[node] {
		set := g.external[path]
		delete(set, node)
		if len(set) == 0 {
			delete(g.external, path)
		}
	}
	delete(g.provided, node)
	delete(g.used, node)
	delete(g.usedExternal, node)
}

// insert records the facts of rec for node. The node must have been purged.
func (g *Graph[N]) insert(node N, rec *domain.Record) {
	provided := make(map[domain.FactKey]struct{}, len(rec.Provides))
	for _, key := range rec.Provides {
		if key.Kind == domain.KindExternal {
			continue
		}
		provided[key] = struct{}{}
	}

	used := make(map[domain.FactKey]bool, len(rec.Depends))
	externals := make(map[string]struct{})
	for _, dep := range rec.Depends {
		if dep.Key.Kind == domain.KindExternal {
			externals[dep.Key.Name.String()] = struct{}{}
			continue
		}
		// A name used both ways cascades.
		used[dep.Key] = used[dep.Key] || dep.Cascades
	}

	for key := range provided {
		set, ok := g.providers[key]
		if !ok {
			set = make(map[N]struct{})
			g.providers[key] = set
		}
		set[node] = struct{}{}
	}
	for key, cascades := range used {
		set, ok := g.dependents[key]
		if !ok {
			set = make(map[N]bool)
			g.dependents[key] = set
		}
		set[node] = cascades
	}
	for path := range externals {
		set, ok := g.external[path]
		if !ok {
			set = make(map[N]struct{})
			g.external[path] = set
		}
		set[node] = struct{}{}
		g.externalPaths[path] = struct{}{}
	}

	if len(provided) > 0 {
		g.provided[node] = slices.SortedFunc(maps.Keys(provided), domain.FactKey.Compare)
	}
	if len(used) > 0 {
		deps := make([]domain.Dependency, 0, len(used))
		for key, cascades := range used {
			deps = append(deps, domain.Dependency{Key: key, Cascades: cascades})
		}
		slices.SortFunc(deps, func(a, b domain.Dependency) int { return a.Key.Compare(b.Key) })
		g.used[node] = deps
	}
	if len(externals) > 0 {
		g.usedExternal[node] = slices.Sorted(maps.Keys(externals))
	}
}

// edge is one provider-to-dependent link, aggregated over every key the two share.
type edge[N cmp.Ordered] struct {
	to       N
	cascades bool
	via      []domain.FactKey
}

// dependentsOf returns the nodes that depend on a name node provides, in node order.
func (g *Graph[N]) dependentsOf(node N) []edge[N] {
	byNode := make(map[N]*edge[N])
	for _, key := range g.provided[node] {
		for dep, cascades := range g.dependents[key] {
			e, ok := byNode[dep]
			if !ok {
				e = &edge[N]{to: dep}
				byNode[dep] = e
			}
			e.cascades = e.cascades || cascades
			e.via = append(e.via, key)
		}
	}

	edges := make([]edge[N], 0, len(byNode))
	for _, dep := range slices.Sorted(maps.Keys(byNode)) {
		edges = append(edges, *byNode[dep])
	}
	return edges
}
