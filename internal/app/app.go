// Package app implements the application layer for ripple.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/ripple/internal/adapters/telemetry"
	"go.trai.ch/ripple/internal/adapters/watcher"
	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/core/ports"
	"go.trai.ch/ripple/internal/engine/planner"
	"go.trai.ch/ripple/internal/ui/report"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	planner      *planner.Planner
	logger       ports.Logger
	watcher      ports.Watcher

	stdout   io.Writer
	workDir  string
	debounce time.Duration
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	p *planner.Planner,
	log ports.Logger,
	w ports.Watcher,
) *App {
	return &App{
		configLoader: loader,
		planner:      p,
		logger:       log,
		watcher:      w,
		stdout:       os.Stdout,
		debounce:     watcher.DefaultDebounceWindow,
	}
}

// WithOutput sets the writer reports are rendered to.
func (a *App) WithOutput(w io.Writer) *App {
	a.stdout = w
	return a
}

// WithWorkDir sets the directory the manifest is searched from.
// By default it is the process working directory.
func (a *App) WithWorkDir(dir string) *App {
	a.workDir = dir
	return a
}

// WithDebounce sets how long Watch waits for file events to settle.
func (a *App) WithDebounce(d time.Duration) *App {
	a.debounce = d
	return a
}

type logConfigurer interface {
	SetVerbose(enable bool)
	SetJSON(enable bool)
}

type debugLogger interface {
	Debug(msg string, args ...any)
}

// ConfigureLogging switches the logger to verbose or JSON output when it supports it.
func (a *App) ConfigureLogging(verbose, json bool) {
	lc, ok := a.logger.(logConfigurer)
	if !ok {
		return
	}
	lc.SetVerbose(verbose)
	lc.SetJSON(json)
}

func (a *App) debug(msg string, args ...any) {
	if d, ok := a.logger.(debugLogger); ok {
		d.Debug(msg, args...)
	}
}

func (a *App) renderer() *report.Renderer {
	return report.NewRenderer(a.stdout)
}

func (a *App) loadWorkspace() (*domain.Workspace, error) {
	dir := a.workDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, zerr.Wrap(err, "failed to get working directory")
		}
		dir = wd
	}

	ws, err := a.configLoader.Load(dir)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	return ws, nil
}

// PlanOptions configuration for the Plan method.
type PlanOptions struct {
	Commit bool
	Why    bool
	JSON   bool
	Stats  bool
}

// Plan computes and renders the units that must be recompiled.
func (a *App) Plan(ctx context.Context, opts PlanOptions) error {
	ws, err := a.loadWorkspace()
	if err != nil {
		return err
	}

	var stats *telemetry.StatsProcessor
	if opts.Stats {
		stats = telemetry.NewStatsProcessor()
		tp := telemetry.Install(stats)
		defer func() {
			_ = tp.Shutdown(ctx)
		}()
	}

	if _, err := a.planOnce(ctx, ws, opts); err != nil {
		return err
	}

	if stats != nil {
		a.renderer().Stats(stats.Snapshot())
	}
	return nil
}

func (a *App) planOnce(ctx context.Context, ws *domain.Workspace, opts PlanOptions) (*planner.Result, error) {
	res, err := a.planner.Plan(ctx, ws)
	if err != nil {
		return nil, err
	}

	r := a.renderer()
	if opts.JSON {
		if err := r.JSON(res.Plan); err != nil {
			return nil, zerr.Wrap(err, "failed to encode plan")
		}
	} else {
		r.Plan(res.Plan, opts.Why)
	}

	if opts.Commit {
		if err := a.planner.Commit(ctx, res); err != nil {
			return nil, err
		}
		a.logger.Info("committed state to " + ws.StateDir())
	}
	return res, nil
}

// MarkOptions configuration for the Mark method.
type MarkOptions struct {
	Units     []string
	Externals []string
	Why       bool
	JSON      bool
}

// Mark invalidates the given units and external paths and renders every
// unit that became marked.
func (a *App) Mark(ctx context.Context, opts MarkOptions) error {
	if len(opts.Units) == 0 && len(opts.Externals) == 0 {
		return domain.ErrNoTargetsSpecified
	}

	ws, err := a.loadWorkspace()
	if err != nil {
		return err
	}
	for _, name := range opts.Units {
		if _, ok := ws.Unit(name); !ok {
			return zerr.With(domain.ErrUnitNotFound, "unit", name)
		}
	}

	snap, err := a.load(ctx, ws)
	if err != nil {
		return err
	}

	marked := snap.Invalidate(opts.Units, opts.Externals)
	if opts.JSON {
		return a.renderer().JSON(marked)
	}
	a.renderer().Marked(marked, opts.Why)
	return nil
}

// ExternalsOptions configuration for the Externals method.
type ExternalsOptions struct {
	JSON bool
}

// Externals renders every external path the workspace depends on.
func (a *App) Externals(ctx context.Context, opts ExternalsOptions) error {
	ws, err := a.loadWorkspace()
	if err != nil {
		return err
	}
	snap, err := a.load(ctx, ws)
	if err != nil {
		return err
	}

	paths := snap.Graph.ExternalDependencies()
	entries := make([]report.ExternalEntry, 0, len(paths))
	for _, path := range paths {
		entries = append(entries, report.ExternalEntry{
			Path:       path,
			Dependents: snap.Graph.ExternalDependents(path),
		})
	}

	if opts.JSON {
		return a.renderer().JSON(entries)
	}
	a.renderer().Externals(entries)
	return nil
}

// DotOptions configuration for the Dot method.
type DotOptions struct {
	// Output is the file to write. Empty means a new numbered file in the
	// state directory, "-" means the report output.
	Output string
	// Mark lists units to invalidate before rendering so they show as marked.
	Mark []string
}

// Dot writes the unit dependency graph in DOT format.
func (a *App) Dot(ctx context.Context, opts DotOptions) error {
	ws, err := a.loadWorkspace()
	if err != nil {
		return err
	}
	snap, err := a.load(ctx, ws)
	if err != nil {
		return err
	}
	if len(opts.Mark) > 0 {
		snap.Invalidate(opts.Mark, nil)
	}

	switch opts.Output {
	case "-":
		return snap.Graph.WriteDOT(a.stdout)
	case "":
		path, err := snap.Graph.EmitDOTFile(domain.DotPath(ws.StateDir()))
		if err != nil {
			return err
		}
		a.renderer().Wrote(path)
		return nil
	default:
		return a.writeDOTFile(snap, opts.Output)
	}
}

func (a *App) writeDOTFile(snap *planner.Snapshot, path string) error {
	f, err := os.Create(path) //nolint:gosec // Path is given on the command line
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create DOT file"), "path", path)
	}
	if err := snap.Graph.WriteDOT(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to close DOT file"), "path", path)
	}
	a.renderer().Wrote(path)
	return nil
}

// Verify loads every record with invariant checking enabled and reports the result.
func (a *App) Verify(ctx context.Context) error {
	ws, err := a.loadWorkspace()
	if err != nil {
		return err
	}

	snap, err := a.planner.Load(ctx, ws, planner.WithVerifyOnLoad())
	if err != nil {
		return err
	}
	a.warnFailures(snap)

	a.renderer().Verified(len(snap.Graph.Nodes()), len(snap.Graph.ExternalDependencies()))
	return nil
}

func (a *App) load(ctx context.Context, ws *domain.Workspace) (*planner.Snapshot, error) {
	snap, err := a.planner.Load(ctx, ws)
	if err != nil {
		return nil, err
	}
	a.warnFailures(snap)
	return snap, nil
}

func (a *App) warnFailures(snap *planner.Snapshot) {
	for _, name := range snap.Graph.Nodes() {
		if err, ok := snap.Failures[name]; ok {
			a.logger.Warn(fmt.Sprintf("record of %s could not be loaded: %v", name, err))
		}
	}
}

// Watch plans once and plans again whenever a source, record or external
// file changes, until ctx is done.
func (a *App) Watch(ctx context.Context, opts PlanOptions) error {
	ws, err := a.loadWorkspace()
	if err != nil {
		return err
	}

	res, err := a.planOnce(ctx, ws, opts)
	if err != nil {
		return err
	}

	paths := watchPaths(ws, res.Snapshot)
	if err := a.watcher.Start(ctx, paths); err != nil {
		return err
	}
	defer func() {
		_ = a.watcher.Stop()
	}()
	a.logger.Info(fmt.Sprintf("watching %d paths for changes", len(paths)))

	batches := make(chan []string, 1)
	debouncer := watcher.NewDebouncer(a.debounce, func(changed []string) {
		select {
		case batches <- changed:
		case <-ctx.Done():
		}
	})

	go func() {
		for event := range a.watcher.Events() {
			if isWithin(ws.StateDir(), event.Path) {
				continue
			}
			a.debug("file changed", "path", event.Path)
			debouncer.Add(event.Path)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case changed := <-batches:
			a.logger.Info(fmt.Sprintf("%d file(s) changed, planning again", len(changed)))

			current, err := a.loadWorkspace()
			if err != nil {
				a.logger.Error(err)
				continue
			}
			if _, err := a.planOnce(ctx, current, opts); err != nil {
				a.logger.Error(err)
			}
		}
	}
}

// watchPaths lists the files a plan of ws depends on.
func watchPaths(ws *domain.Workspace, snap *planner.Snapshot) []string {
	var paths []string
	for u := range ws.Units() {
		for _, pattern := range u.Sources {
			paths = append(paths, resolvePath(ws.Root(), pattern.String()))
		}
		paths = append(paths, resolvePath(ws.Root(), u.Record.String()))
	}
	for _, path := range snap.Graph.ExternalDependencies() {
		paths = append(paths, resolvePath(ws.Root(), path))
	}
	return paths
}

func resolvePath(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func isWithin(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// Clean removes the state directory of the workspace.
func (a *App) Clean(_ context.Context) error {
	ws, err := a.loadWorkspace()
	if err != nil {
		return err
	}

	path := ws.StateDir()
	a.logger.Info(fmt.Sprintf("removing %s...", path))
	if err := os.RemoveAll(path); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to remove state directory"), "path", path)
	}
	a.logger.Info(fmt.Sprintf("removed %s", path))
	return nil
}
