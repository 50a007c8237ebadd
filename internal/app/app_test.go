package app_test

import (
	"bytes"
	"context"
	"iter"
	"os"
	"path/filepath"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ripple/internal/adapters/cas"
	"go.trai.ch/ripple/internal/adapters/fs"
	"go.trai.ch/ripple/internal/adapters/record"
	"go.trai.ch/ripple/internal/adapters/telemetry"
	"go.trai.ch/ripple/internal/app"
	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/core/ports"
	"go.trai.ch/ripple/internal/core/ports/mocks"
	"go.trai.ch/ripple/internal/engine/planner"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type harness struct {
	root    string
	ws      *domain.Workspace
	out     *bytes.Buffer
	logger  *mocks.MockLogger
	watcher *mocks.MockWatcher
	app     *app.App
}

// newHarness builds a workspace where b uses a name a provides and depends on ext.txt.
func newHarness(t *testing.T, tracer ports.Tracer) *harness {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	h := &harness{root: t.TempDir(), out: &bytes.Buffer{}}
	h.ws = domain.NewWorkspace()
	h.ws.SetRoot(h.root)
	h.ws.SetStateDir(filepath.Join(h.root, domain.StateDirName))
	for _, name := range []string{"a", "b"} {
		require.NoError(t, h.ws.AddUnit(&domain.Unit{
			Name:    domain.NewInternedString(name),
			Sources: domain.NewInternedStrings([]string{name + ".swift"}),
			Record:  domain.NewInternedString(name + ".yaml"),
		}))
		h.write(t, name+".swift", "// "+name)
	}
	h.write(t, "a.yaml", "providesNominal: [A]\n")
	h.write(t, "b.yaml", "dependsNominal: [A]\ndependsExternal: [ext.txt]\n")
	h.write(t, "ext.txt", "v1")

	ctrl := gomock.NewController(t)
	loader := mocks.NewMockConfigLoader(ctrl)
	loader.EXPECT().Load(h.root).Return(h.ws, nil).AnyTimes()
	h.logger = mocks.NewMockLogger(ctrl)
	h.watcher = mocks.NewMockWatcher(ctrl)

	p := planner.New(
		record.NewParser(),
		fs.NewHasher(fs.NewResolver(fs.NewWalker())),
		cas.NewStore(),
		tracer,
	)
	h.app = app.New(loader, p, h.logger, h.watcher).
		WithOutput(h.out).
		WithWorkDir(h.root)
	return h
}

func (h *harness) write(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(h.root, name), []byte(content), domain.FilePerm))
}

func TestApp_Plan(t *testing.T) {
	h := newHarness(t, telemetry.NewNoOpTracer())
	h.logger.EXPECT().Info("committed state to " + h.ws.StateDir())

	require.NoError(t, h.app.Plan(t.Context(), app.PlanOptions{Commit: true}))
	assert.Equal(t, "≈ 2 units to recompile\n  ● a  new\n  ● b  new\n", h.out.String())

	h.out.Reset()
	require.NoError(t, h.app.Plan(t.Context(), app.PlanOptions{}))
	assert.Equal(t, "✓ up to date\n", h.out.String())
}

func TestApp_Plan_Why(t *testing.T) {
	h := newHarness(t, telemetry.NewNoOpTracer())
	h.logger.EXPECT().Info(gomock.Any())
	require.NoError(t, h.app.Plan(t.Context(), app.PlanOptions{Commit: true}))

	h.write(t, "a.swift", "// a, edited")
	h.out.Reset()
	require.NoError(t, h.app.Plan(t.Context(), app.PlanOptions{Why: true}))

	assert.Equal(t,
		"≈ 2 units to recompile\n"+
			"  ● a  modified\n"+
			"  ● b  dependent\n"+
			"      → b depends on nominal:A provided by a\n",
		h.out.String())
}

func TestApp_Plan_JSON(t *testing.T) {
	h := newHarness(t, telemetry.NewNoOpTracer())

	require.NoError(t, h.app.Plan(t.Context(), app.PlanOptions{JSON: true}))
	assert.Contains(t, h.out.String(), `"reason": "new"`)
	assert.Contains(t, h.out.String(), `"name": "b"`)
}

func TestApp_Plan_Stats(t *testing.T) {
	h := newHarness(t, telemetry.NewOTelTracer(telemetry.InstrumentationName))

	require.NoError(t, h.app.Plan(t.Context(), app.PlanOptions{Stats: true}))
	assert.Contains(t, h.out.String(), "read_record")
	assert.Contains(t, h.out.String(), "count")
}

func TestApp_Plan_ConfigError(t *testing.T) {
	ctrl := gomock.NewController(t)
	loader := mocks.NewMockConfigLoader(ctrl)
	loader.EXPECT().Load("/nowhere").Return(nil, domain.ErrConfigNotFound)

	a := app.New(loader, nil, mocks.NewMockLogger(ctrl), mocks.NewMockWatcher(ctrl)).WithWorkDir("/nowhere")

	err := a.Plan(t.Context(), app.PlanOptions{})
	require.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestApp_Mark(t *testing.T) {
	h := newHarness(t, telemetry.NewNoOpTracer())

	require.NoError(t, h.app.Mark(t.Context(), app.MarkOptions{Units: []string{"a"}, Why: true}))
	assert.Equal(t,
		"≈ 2 units marked\n"+
			"  ● a  modified\n"+
			"  ● b  dependent\n"+
			"      → b depends on nominal:A provided by a\n",
		h.out.String())
}

func TestApp_Mark_External(t *testing.T) {
	h := newHarness(t, telemetry.NewNoOpTracer())

	require.NoError(t, h.app.Mark(t.Context(), app.MarkOptions{Externals: []string{"ext.txt"}}))
	assert.Equal(t, "≈ 1 unit marked\n  ● b  external\n", h.out.String())
}

func TestApp_Mark_Errors(t *testing.T) {
	h := newHarness(t, telemetry.NewNoOpTracer())

	err := h.app.Mark(t.Context(), app.MarkOptions{})
	require.ErrorIs(t, err, domain.ErrNoTargetsSpecified)

	err = h.app.Mark(t.Context(), app.MarkOptions{Units: []string{"zzz"}})
	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, domain.ErrUnitNotFound.Error(), zErr.Message())
	assert.Equal(t, "zzz", zErr.Metadata()["unit"])
}

func TestApp_Externals(t *testing.T) {
	h := newHarness(t, telemetry.NewNoOpTracer())

	require.NoError(t, h.app.Externals(t.Context(), app.ExternalsOptions{}))
	assert.Equal(t, "→ ext.txt\n    b\n", h.out.String())

	h.out.Reset()
	require.NoError(t, h.app.Externals(t.Context(), app.ExternalsOptions{JSON: true}))
	assert.Contains(t, h.out.String(), `"path": "ext.txt"`)
}

func TestApp_Dot(t *testing.T) {
	h := newHarness(t, telemetry.NewNoOpTracer())

	require.NoError(t, h.app.Dot(t.Context(), app.DotOptions{Output: "-", Mark: []string{"a"}}))
	assert.Contains(t, h.out.String(), "strict digraph")
	assert.Contains(t, h.out.String(), `"node:a" -> "node:b"`)

	h.out.Reset()
	require.NoError(t, h.app.Dot(t.Context(), app.DotOptions{}))
	want := filepath.Join(domain.DotPath(h.ws.StateDir()), "depgraph-0001.dot")
	assert.FileExists(t, want)
	assert.Equal(t, "✓ wrote "+want+"\n", h.out.String())

	h.out.Reset()
	custom := filepath.Join(h.root, "graph.dot")
	require.NoError(t, h.app.Dot(t.Context(), app.DotOptions{Output: custom}))
	assert.FileExists(t, custom)
}

func TestApp_Verify(t *testing.T) {
	h := newHarness(t, telemetry.NewNoOpTracer())
	h.write(t, "a.yaml", "providesNominal: A\n")
	h.logger.EXPECT().Warn(gomock.Any())

	require.NoError(t, h.app.Verify(t.Context()))
	assert.Equal(t, "✓ graph is consistent (2 units, 1 external)\n", h.out.String())
}

func TestApp_Clean(t *testing.T) {
	h := newHarness(t, telemetry.NewNoOpTracer())
	h.logger.EXPECT().Info(gomock.Any()).Times(3)

	require.NoError(t, h.app.Plan(t.Context(), app.PlanOptions{Commit: true}))
	require.DirExists(t, h.ws.StateDir())

	require.NoError(t, h.app.Clean(t.Context()))
	assert.NoDirExists(t, h.ws.StateDir())
}

func TestApp_Watch(t *testing.T) {
	h := newHarness(t, telemetry.NewNoOpTracer())

	synctest.Test(t, func(t *testing.T) {
		events := make(chan ports.WatchEvent)

		h.watcher.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, paths []string) error {
				assert.Contains(t, paths, filepath.Join(h.root, "a.swift"))
				assert.Contains(t, paths, filepath.Join(h.root, "b.yaml"))
				assert.Contains(t, paths, filepath.Join(h.root, "ext.txt"))
				return nil
			})
		h.watcher.EXPECT().Events().Return(iter.Seq[ports.WatchEvent](func(yield func(ports.WatchEvent) bool) {
			for ev := range events {
				if !yield(ev) {
					return
				}
			}
		}))
		h.watcher.EXPECT().Stop().Return(nil)
		h.logger.EXPECT().Info(gomock.Any()).AnyTimes()

		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan error, 1)
		go func() {
			done <- h.app.Watch(ctx, app.PlanOptions{Commit: true})
		}()
		synctest.Wait()
		assert.Contains(t, h.out.String(), "≈ 2 units to recompile")

		h.out.Reset()
		h.write(t, "ext.txt", "v2")
		events <- ports.WatchEvent{Path: filepath.Join(h.ws.StateDir(), "store", "x"), Operation: ports.OpWrite}
		events <- ports.WatchEvent{Path: filepath.Join(h.root, "ext.txt"), Operation: ports.OpWrite}
		time.Sleep(time.Second)
		synctest.Wait()

		cancel()
		close(events)
		require.NoError(t, <-done)
		assert.Equal(t, "≈ 1 unit to recompile\n  ● b  external\n\nchanged externals:\n  → ext.txt\n", h.out.String())
	})
}
