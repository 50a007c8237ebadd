// Package planner decides which units of a workspace must be recompiled.
//
// A plan loads the fact record of every unit into a fresh dependency graph,
// compares source and interface hashes against the state stored by the last
// commit and marks the invalidated units together with their dependents.
package planner

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"time"

	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/core/ports"
	"go.trai.ch/ripple/internal/engine/depgraph"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Planner computes and commits recompilation plans.
type Planner struct {
	parser ports.RecordParser
	hasher ports.Hasher
	store  ports.BuildInfoStore
	tracer ports.Tracer

	limit int
	now   func() time.Time

	// previous holds the last record of every unit that loaded successfully.
	// A unit whose record turns unreadable keeps these facts in later graphs.
	mu       sync.Mutex
	previous map[string]*domain.Record
}

// Option configures a Planner.
type Option func(*Planner)

// WithConcurrency limits how many records are read at once.
func WithConcurrency(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.limit = n
		}
	}
}

// WithClock replaces the clock used to timestamp committed state.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		p.now = now
	}
}

// New creates a Planner.
func New(
	parser ports.RecordParser,
	hasher ports.Hasher,
	store ports.BuildInfoStore,
	tracer ports.Tracer,
	opts ...Option,
) *Planner {
	p := &Planner{
		parser:   parser,
		hasher:   hasher,
		store:    store,
		tracer:   tracer,
		limit:    runtime.GOMAXPROCS(0),
		now:      time.Now,
		previous: make(map[string]*domain.Record),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Snapshot is the dependency graph of a workspace after loading every unit's record.
type Snapshot struct {
	Graph *depgraph.Graph[string]
	// Results holds the load outcome of every unit.
	Results map[string]domain.LoadResult
	// Failures holds the error of every unit whose record could not be loaded.
	Failures map[string]error
}

// LoadOption configures Load.
type LoadOption func(*loadConfig)

type loadConfig struct {
	verify bool
}

// WithVerifyOnLoad checks the graph invariants after every record is loaded.
// A violation is returned as an error wrapping domain.ErrGraphCorrupt.
func WithVerifyOnLoad() LoadOption {
	return func(c *loadConfig) {
		c.verify = true
	}
}

// Load reads the record of every unit and integrates them into a new graph.
// Nothing is marked.
func (p *Planner) Load(ctx context.Context, ws *domain.Workspace, opts ...LoadOption) (*Snapshot, error) {
	var cfg loadConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, span := p.tracer.Start(ctx, "load", ports.WithAttribute("units", ws.Len()))
	defer span.End()

	units := slices.Collect(ws.Units())
	reads, err := p.read(ctx, ws.Root(), units, false)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	snap, err := p.integrate(ctx, units, reads, cfg.verify)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return snap, nil
}

type unitRead struct {
	rec         *domain.Record
	result      domain.LoadResult
	err         error
	sourcesHash string
}

// read loads and parses the records of units concurrently, hashing their
// sources when hashSources is set.
func (p *Planner) read(ctx context.Context, root string, units []domain.Unit, hashSources bool) ([]unitRead, error) {
	ctx, span := p.tracer.Start(ctx, "read_records")
	defer span.End()

	reads := make([]unitRead, len(units))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)

	for i, u := range units {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			reads[i] = p.readUnit(ctx, root, u)
			if !hashSources {
				return nil
			}

			hash, err := p.hasher.ComputeSourcesHash(internedStrings(u.Sources), root)
			if err != nil {
				return zerr.With(zerr.Wrap(err, domain.ErrPlanFailed.Error()), "unit", u.Name.String())
			}
			reads[i].sourcesHash = hash
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return reads, nil
}

func (p *Planner) readUnit(ctx context.Context, root string, u domain.Unit) unitRead {
	_, span := p.tracer.Start(ctx, "read_record", ports.WithAttribute("unit", u.Name.String()))
	defer span.End()

	rec, result, err := depgraph.ReadRecord(p.parser, resolvePath(root, u.Record.String()))
	if err != nil {
		span.RecordError(err)
	}
	return unitRead{rec: rec, result: result, err: err}
}

// integrate installs the read records into a new graph through LoadRecord.
// The graph has a single writer, so this runs serially in unit order.
func (p *Planner) integrate(
	ctx context.Context,
	units []domain.Unit,
	reads []unitRead,
	verify bool,
) (snap *Snapshot, err error) {
	_, span := p.tracer.Start(ctx, "integrate")
	defer span.End()

	var opts []depgraph.Option
	if verify {
		opts = append(opts, depgraph.WithVerifyOnLoad())
	}
	g := depgraph.New[string](p.parser, opts...)

	p.mu.Lock()
	defer p.mu.Unlock()
	defer depgraph.RecoverInvariant(&err)

	snap = &Snapshot{
		Graph:    g,
		Results:  make(map[string]domain.LoadResult, len(units)),
		Failures: make(map[string]error),
	}

	for i, u := range units {
		name := u.Name.String()
		r := reads[i]
		snap.Results[name] = r.result

		switch r.result {
		case domain.LoadUpToDate:
			g.LoadRecord(name, r.rec)
			p.previous[name] = r.rec
		case domain.LoadHadError:
			if prev, ok := p.previous[name]; ok {
				g.LoadRecord(name, prev)
			} else {
				g.AddNode(name)
			}
			snap.Failures[name] = r.err
		default:
			g.AddNode(name)
			delete(p.previous, name)
		}
	}

	if verify {
		if err := g.Verify(); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

func resolvePath(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func internedStrings(in []domain.InternedString) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = s.String()
	}
	return out
}

func formatFingerprint(fp uint64) string {
	return fmt.Sprintf("%016x", fp)
}
