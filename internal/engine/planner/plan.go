package planner

import (
	"context"
	"slices"
	"strings"

	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/core/ports"
	"go.trai.ch/ripple/internal/engine/depgraph"
	"go.trai.ch/zerr"
)

// Result is a computed plan together with the state Commit stores for it.
type Result struct {
	Plan     *domain.Plan
	Snapshot *Snapshot

	stateDir  string
	units     []domain.BuildInfo
	externals []domain.BuildInfo
}

// Plan computes which units of ws must be recompiled.
//
// Units without a record or without committed state are new. A unit whose
// record cannot be loaded or whose sources changed invalidates every unit that
// depends on it. A unit whose interface fingerprint differs from the committed
// one invalidates its dependents but is not rebuilt itself. An external path
// whose content changed invalidates its dependents.
//
// Units the previous commit scheduled were rebuilt since, so their records
// are expected to change. A rebuilt unit whose interface changed only
// invalidates dependents that were not rebuilt along with it.
func (p *Planner) Plan(ctx context.Context, ws *domain.Workspace) (*Result, error) {
	ctx, span := p.tracer.Start(ctx, "plan", ports.WithAttribute("units", ws.Len()))
	defer span.End()

	units := slices.Collect(ws.Units())
	reads, err := p.read(ctx, ws.Root(), units, true)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	snap, err := p.integrate(ctx, units, reads, false)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	res := &Result{
		Plan:     &domain.Plan{},
		Snapshot: snap,
		stateDir: ws.StateDir(),
	}
	b := newBuilder(snap.Graph, res.Plan)

	diff, err := p.compareUnits(ctx, ws.StateDir(), units, reads, res, b)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	_, markSpan := p.tracer.Start(ctx, "mark", ports.WithAttribute("roots", len(diff.roots)))
	for _, root := range diff.roots {
		b.addDependents(snap.Graph.MarkTransitive(root, depgraph.WithTracer(b.tracer)))
	}
	markSpan.End()

	if err := p.markExternals(ctx, ws, res, b); err != nil {
		span.RecordError(err)
		return nil, err
	}

	_, ifaceSpan := p.tracer.Start(ctx, "interfaces",
		ports.WithAttribute("changed", len(diff.interfaces)+len(diff.rebuiltInterfaces)))
	for _, name := range diff.interfaces {
		b.addInterfaceDependents(name)
	}
	// Rebuilt units are settled; only what was left out of their rebuild follows.
	for _, name := range diff.rebuilt {
		snap.Graph.MarkIntransitive(name)
	}
	for _, name := range diff.rebuiltInterfaces {
		b.addInterfaceDependents(name)
	}
	ifaceSpan.End()

	for i := range res.units {
		_, res.units[i].Rebuilt = b.planned[strings.TrimPrefix(res.units[i].Key, domain.UnitKeyPrefix)]
	}

	span.SetAttribute("planned", len(res.Plan.Units))
	return res, nil
}

// comparison sorts the units whose state differs from the committed one.
type comparison struct {
	// roots are scheduled and invalidate their dependents.
	roots []string
	// interfaces changed their interface without being scheduled.
	interfaces []string
	// rebuilt were scheduled by the committed plan.
	rebuilt []string
	// rebuiltInterfaces are rebuilt units whose interface changed.
	rebuiltInterfaces []string
}

// compareUnits schedules the units that are invalid on their own and sorts
// the rest by how their dependents must follow.
func (p *Planner) compareUnits(
	ctx context.Context,
	stateDir string,
	units []domain.Unit,
	reads []unitRead,
	res *Result,
	b *builder,
) (*comparison, error) {
	_, span := p.tracer.Start(ctx, "compare_units")
	defer span.End()

	now := p.now()
	diff := &comparison{}

	for i, u := range units {
		name := u.Name.String()
		r := reads[i]

		info := domain.BuildInfo{
			Key:         domain.UnitKey(name),
			ContentHash: r.sourcesHash,
			Timestamp:   now,
		}
		if fp, ok := res.Snapshot.Graph.Fingerprint(name); ok {
			info.InterfaceHash = formatFingerprint(fp)
		}
		res.units = append(res.units, info)

		stored, err := p.store.Get(stateDir, info.Key)
		if err != nil {
			err = zerr.With(zerr.Wrap(err, domain.ErrPlanFailed.Error()), "unit", name)
			span.RecordError(err)
			return nil, err
		}
		if stored != nil && stored.Rebuilt {
			diff.rebuilt = append(diff.rebuilt, name)
		}

		switch {
		case r.result == domain.LoadNeedsNonexistent:
			b.schedule(name, domain.ReasonNew)
		case r.result == domain.LoadHadError:
			if res.Plan.Failed == nil {
				res.Plan.Failed = make(map[string]string)
			}
			res.Plan.Failed[name] = r.err.Error()
			b.schedule(name, domain.ReasonCorruptRecord)
			diff.roots = append(diff.roots, name)
		case stored == nil:
			b.schedule(name, domain.ReasonNew)
		case stored.ContentHash != info.ContentHash:
			b.schedule(name, domain.ReasonModified)
			diff.roots = append(diff.roots, name)
		case stored.InterfaceHash == info.InterfaceHash:
		case stored.Rebuilt:
			diff.rebuiltInterfaces = append(diff.rebuiltInterfaces, name)
		default:
			diff.interfaces = append(diff.interfaces, name)
		}
	}
	return diff, nil
}

// markExternals marks the dependents of every external path whose content
// differs from the committed hash. Paths without committed state are recorded
// by the next commit but invalidate nothing.
func (p *Planner) markExternals(ctx context.Context, ws *domain.Workspace, res *Result, b *builder) error {
	g := res.Snapshot.Graph
	paths := g.ExternalDependencies()

	_, span := p.tracer.Start(ctx, "externals", ports.WithAttribute("paths", len(paths)))
	defer span.End()

	now := p.now()
	for _, path := range paths {
		hash, err := p.hasher.ComputeFileHash(resolvePath(ws.Root(), path))
		if err != nil {
			err = zerr.With(zerr.Wrap(err, domain.ErrPlanFailed.Error()), "external", path)
			span.RecordError(err)
			return err
		}

		info := domain.BuildInfo{Key: domain.ExternalKey(path), ContentHash: hash, Timestamp: now}
		res.externals = append(res.externals, info)

		stored, err := p.store.Get(ws.StateDir(), info.Key)
		if err != nil {
			err = zerr.With(zerr.Wrap(err, domain.ErrPlanFailed.Error()), "external", path)
			span.RecordError(err)
			return err
		}
		if stored == nil || stored.ContentHash == hash {
			continue
		}

		res.Plan.ChangedExternals = append(res.Plan.ChangedExternals, path)
		b.addDependents(g.MarkExternal(path, depgraph.WithTracer(b.tracer)))
	}
	return nil
}

// Commit stores the hashes computed by r and remembers which units r
// scheduled. Once those units are rebuilt, planning the unchanged workspace
// again yields an empty plan.
func (p *Planner) Commit(ctx context.Context, r *Result) error {
	infos := slices.Concat(r.units, r.externals)

	_, span := p.tracer.Start(ctx, "commit", ports.WithAttribute("entries", len(infos)))
	defer span.End()

	for _, info := range infos {
		if err := p.store.Put(r.stateDir, info); err != nil {
			err = zerr.With(zerr.Wrap(err, domain.ErrCommitFailed.Error()), "key", info.Key)
			span.RecordError(err)
			return err
		}
	}
	return nil
}

// builder appends marked units to a plan in the order they were invalidated.
type builder struct {
	graph   *depgraph.Graph[string]
	plan    *domain.Plan
	tracer  *depgraph.MarkTracer[string]
	planned map[string]struct{}
	// interfaces holds the units whose dependents follow an interface change.
	interfaces map[string]struct{}
}

func newBuilder(g *depgraph.Graph[string], plan *domain.Plan) *builder {
	return &builder{
		graph:      g,
		plan:       plan,
		tracer:     depgraph.NewMarkTracer[string](),
		planned:    make(map[string]struct{}),
		interfaces: make(map[string]struct{}),
	}
}

func (b *builder) schedule(name string, reason domain.Reason) {
	b.graph.MarkIntransitive(name)
	b.add(domain.PlannedUnit{Name: name, Reason: reason})
}

func (b *builder) addDependents(delta []string) {
	for _, name := range delta {
		steps := b.tracer.Explain(name)

		reason := domain.ReasonDependent
		switch {
		case len(steps) == 0:
		case len(steps) == 1 && steps[0].External != "":
			reason = domain.ReasonExternal
		case steps[0].External == "":
			if _, ok := b.interfaces[steps[0].From]; ok {
				reason = domain.ReasonInterfaceChanged
			}
		}

		trace := make([]string, len(steps))
		for i, step := range steps {
			trace[i] = step.String()
		}
		b.add(domain.PlannedUnit{Name: name, Reason: reason, Trace: trace})
	}
}

func (b *builder) addInterfaceDependents(name string) {
	b.interfaces[name] = struct{}{}
	b.addDependents(b.graph.MarkDependents(name, depgraph.WithTracer(b.tracer)))
}

func (b *builder) add(u domain.PlannedUnit) {
	if _, ok := b.planned[u.Name]; ok {
		return
	}
	b.planned[u.Name] = struct{}{}
	b.plan.Units = append(b.plan.Units, u)
}
