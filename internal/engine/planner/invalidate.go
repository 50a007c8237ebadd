package planner

import (
	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/engine/depgraph"
)

// Invalidate marks the named units as modified together with everything that
// depends on them, then marks the dependents of the named external paths.
// It returns the units that became marked in invalidation order. Marks are
// sticky, so units invalidated by an earlier call are not reported again.
func (s *Snapshot) Invalidate(units, externals []string) []domain.PlannedUnit {
	plan := &domain.Plan{}
	b := newBuilder(s.Graph, plan)

	for _, name := range units {
		if s.Graph.IsMarked(name) {
			continue
		}
		b.schedule(name, domain.ReasonModified)
	}
	for _, name := range units {
		b.addDependents(s.Graph.MarkTransitive(name, depgraph.WithTracer(b.tracer)))
	}
	for _, path := range externals {
		b.addDependents(s.Graph.MarkExternal(path, depgraph.WithTracer(b.tracer)))
	}
	return plan.Units
}
