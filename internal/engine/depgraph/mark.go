package depgraph

import (
	"maps"
	"slices"
)

// MarkOption configures a marking call.
type MarkOption[N comparable] func(*markConfig[N])

type markConfig[N comparable] struct {
	tracer *MarkTracer[N]
}

// WithTracer records why each node was marked.
func WithTracer[N comparable](t *MarkTracer[N]) MarkOption[N] {
	return func(c *markConfig[N]) {
		c.tracer = t
	}
}

func newMarkConfig[N comparable](opts []MarkOption[N]) markConfig[N] {
	var c markConfig[N]
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// MarkTransitive marks node and everything reachable from it through cascading
// dependencies, and returns the nodes that became marked during this call.
//
// The start node is expanded even when it was already marked, so marking a
// reloaded node reports only its new dependents. The start node itself is never
// part of the result. A dependent reached through a non-cascading dependency is
// marked and reported but not expanded.
func (g *Graph[N]) MarkTransitive(node N, opts ...MarkOption[N]) []N {
	cfg := newMarkConfig(opts)
	var delta []N
	g.marked[node] = struct{}{}
	g.markFrom(node, cfg.tracer, &delta)
	return delta
}

// MarkDependents marks what MarkTransitive would mark from node but leaves node
// itself as it was. A node whose facts changed without it needing a rebuild
// invalidates its dependents this way and can still be marked later.
func (g *Graph[N]) MarkDependents(node N, opts ...MarkOption[N]) []N {
	cfg := newMarkConfig(opts)
	var delta []N
	g.markFrom(node, cfg.tracer, &delta)
	return delta
}

// MarkIntransitive marks node without visiting its dependents.
// It reports whether the node was newly marked.
func (g *Graph[N]) MarkIntransitive(node N) bool {
	g.nodes[node] = struct{}{}
	if _, ok := g.marked[node]; ok {
		return false
	}
	g.marked[node] = struct{}{}
	return true
}

// MarkExternal marks every unmarked node that depends on path together with
// everything reachable from it, and returns the nodes that became marked.
// Dependents that were already marked are skipped entirely.
func (g *Graph[N]) MarkExternal(path string, opts ...MarkOption[N]) []N {
	cfg := newMarkConfig(opts)
	var delta []N
	for _, node := range slices.Sorted(maps.Keys(g.external[path])) {
		if _, ok := g.marked[node]; ok {
			continue
		}
		g.marked[node] = struct{}{}
		delta = append(delta, node)
		cfg.tracer.recordExternal(node, path)
		g.markFrom(node, cfg.tracer, &delta)
	}
	return delta
}

// IsMarked reports whether node is marked.
func (g *Graph[N]) IsMarked(node N) bool {
	_, ok := g.marked[node]
	return ok
}

// Marked returns every marked node in ascending order.
func (g *Graph[N]) Marked() []N {
	return slices.Sorted(maps.Keys(g.marked))
}

func (g *Graph[N]) markFrom(start N, tracer *MarkTracer[N], delta *[]N) {
	g.nodes[start] = struct{}{}

	// fresh holds nodes marked by this call. They may still be expanded when a
	// cascading edge reaches them after a non-cascading one did.
	fresh := make(map[N]struct{})
	expanded := map[N]struct{}{start: {}}
	queue := []N{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, e := range g.dependentsOf(cur) {
			_, wasMarked := g.marked[e.to]
			_, isFresh := fresh[e.to]
			if wasMarked && !isFresh {
				continue
			}
			if !wasMarked {
				g.marked[e.to] = struct{}{}
				fresh[e.to] = struct{}{}
				*delta = append(*delta, e.to)
				tracer.record(e.to, cur, e.via[0])
			}
			if !e.cascades {
				continue
			}
			if _, done := expanded[e.to]; done {
				continue
			}
			expanded[e.to] = struct{}{}
			queue = append(queue, e.to)
		}
	}
}
