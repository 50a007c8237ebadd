package depgraph

import (
	"fmt"
	"slices"

	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/zerr"
)

// InvariantError is the panic value raised when a graph built with
// WithVerifyOnLoad finds its indexes inconsistent.
type InvariantError struct {
	Err error
}

// Error implements error.
func (e *InvariantError) Error() string {
	return "dependency graph invariant violated: " + e.Err.Error()
}

// Unwrap returns the verification error.
func (e *InvariantError) Unwrap() error {
	return e.Err
}

// RecoverInvariant converts an *InvariantError panic into *errp.
// Any other panic is re-raised. Use it as a deferred call.
func RecoverInvariant(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if ie, ok := r.(*InvariantError); ok {
		*errp = ie
		return
	}
	panic(r)
}

// Verify checks that the forward tables and the per-node indexes describe the
// same facts and that no table holds an empty entry.
func (g *Graph[N]) Verify() error {
	for key, set := range g.providers {
		if len(set) == 0 {
			return corrupt("empty provider set", "key", key.String())
		}
		for node := range set {
			if !slices.Contains(g.provided[node], key) {
				return corrupt("provider missing from node index", "key", key.String(), "node", fmt.Sprint(node))
			}
		}
	}
	for node, keys := range g.provided {
		if err := g.checkKnown(node); err != nil {
			return err
		}
		for _, key := range keys {
			if _, ok := g.providers[key][node]; !ok {
				return corrupt("node index lists unrecorded provider", "key", key.String(), "node", fmt.Sprint(node))
			}
		}
	}

	for key, set := range g.dependents {
		if len(set) == 0 {
			return corrupt("empty dependent set", "key", key.String())
		}
		for node, cascades := range set {
			want := domain.Dependency{Key: key, Cascades: cascades}
			if !slices.Contains(g.used[node], want) {
				return corrupt("dependent missing from node index", "key", key.String(), "node", fmt.Sprint(node))
			}
		}
	}
	for node, deps := range g.used {
		if err := g.checkKnown(node); err != nil {
			return err
		}
		for _, dep := range deps {
			cascades, ok := g.dependents[dep.Key][node]
			if !ok || cascades != dep.Cascades {
				return corrupt("node index lists unrecorded dependency", "key", dep.Key.String(), "node", fmt.Sprint(node))
			}
		}
	}

	for path, set := range g.external {
		if len(set) == 0 {
			return corrupt("empty external dependent set", "path", path)
		}
		if _, ok := g.externalPaths[path]; !ok {
			return corrupt("external path not tracked", "path", path)
		}
		for node := range set {
			if !slices.Contains(g.usedExternal[node], path) {
				return corrupt("external dependent missing from node index", "path", path, "node", fmt.Sprint(node))
			}
		}
	}
	for node, paths := range g.usedExternal {
		if err := g.checkKnown(node); err != nil {
			return err
		}
		for _, path := range paths {
			if _, ok := g.external[path][node]; !ok {
				return corrupt("node index lists unrecorded external", "path", path, "node", fmt.Sprint(node))
			}
		}
	}

	for node := range g.marked {
		if err := g.checkKnown(node); err != nil {
			return err
		}
	}

	return nil
}

func (g *Graph[N]) checkKnown(node N) error {
	if _, ok := g.nodes[node]; !ok {
		return corrupt("unknown node", "node", fmt.Sprint(node))
	}
	return nil
}

// corrupt builds an ErrGraphCorrupt error with a reason and key/value metadata.
func corrupt(reason string, kv ...string) error {
	err := zerr.With(domain.ErrGraphCorrupt, "reason", reason)
	for i := 0; i+1 < len(kv); i += 2 {
		err = zerr.With(err, kv[i], kv[i+1])
	}
	return err
}
