package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ripple/internal/adapters/config"
	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

const workspaceRoot = "/work"

func newMapLoader(t *testing.T, files fstest.MapFS) (*config.Loader, *mocks.MockLogger) {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	return &config.Loader{Logger: log, FS: config.NewMapFSAdapter(workspaceRoot, files)}, log
}

func manifest(content string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(content)}
}

func TestLoader_Load(t *testing.T) {
	loader, _ := newMapLoader(t, fstest.MapFS{
		"ripple.yaml": manifest(`
version: "1"
units:
  - name: util
    sources: ["Sources/util/*.swift", Sources/util/a.swift, "Sources/util/*.swift"]
    record: .build/util.deps.yaml
  - name: main
    sources: [Sources/main.swift]
    record: ./.build/../.build/main.deps.yaml
`),
		"Sources/main/x.swift": manifest(""),
	})

	ws, err := loader.Load(filepath.Join(workspaceRoot, "Sources", "main"))
	require.NoError(t, err)

	assert.Equal(t, workspaceRoot, ws.Root())
	assert.Equal(t, filepath.Join(workspaceRoot, domain.StateDirName), ws.StateDir())
	assert.Equal(t, 2, ws.Len())

	var names []string
	for u := range ws.Units() {
		names = append(names, u.Name.String())
	}
	assert.Equal(t, []string{"main", "util"}, names)

	util, ok := ws.Unit("util")
	require.True(t, ok)
	assert.Equal(t,
		domain.NewInternedStrings([]string{"Sources/util/*.swift", "Sources/util/a.swift"}),
		util.Sources)
	assert.Equal(t, ".build/util.deps.yaml", util.Record.String())

	main, ok := ws.Unit("main")
	require.True(t, ok)
	assert.Equal(t, ".build/main.deps.yaml", main.Record.String())
}

func TestLoader_Load_RootAndState(t *testing.T) {
	loader, _ := newMapLoader(t, fstest.MapFS{
		"tools/ripple.yaml": manifest(`
root: ..
state: /var/cache/ripple
units:
  - name: a
    record: a.yaml
`),
	})

	ws, err := loader.Load(filepath.Join(workspaceRoot, "tools"))
	require.NoError(t, err)
	assert.Equal(t, workspaceRoot, ws.Root())
	assert.Equal(t, "/var/cache/ripple", ws.StateDir())
}

func TestLoader_Load_Warnings(t *testing.T) {
	loader, log := newMapLoader(t, fstest.MapFS{
		"ripple.yaml": manifest("version: \"2\"\n"),
	})
	log.EXPECT().Warn(gomock.Any()).Times(2)

	ws, err := loader.Load(workspaceRoot)
	require.NoError(t, err)
	assert.Equal(t, 0, ws.Len())
}

func TestLoader_Load_Errors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantErr  error
		wantMeta map[string]any
	}{
		{
			name:    "invalid yaml",
			content: "units: [",
			wantErr: domain.ErrConfigParseFailed,
		},
		{
			name:     "missing name",
			content:  "units:\n  - record: a.yaml\n",
			wantErr:  domain.ErrMissingUnitName,
			wantMeta: map[string]any{"index": 0},
		},
		{
			name:     "null unit",
			content:  "units:\n  - name: a\n    record: a.yaml\n  -\n",
			wantErr:  domain.ErrMissingUnitName,
			wantMeta: map[string]any{"index": 1},
		},
		{
			name:     "invalid name",
			content:  "units:\n  - name: a/b\n    record: a.yaml\n",
			wantErr:  domain.ErrInvalidUnitName,
			wantMeta: map[string]any{"unit": "a/b"},
		},
		{
			name:     "missing record",
			content:  "units:\n  - name: a\n",
			wantErr:  domain.ErrMissingRecordPath,
			wantMeta: map[string]any{"unit": "a"},
		},
		{
			name:     "duplicate unit",
			content:  "units:\n  - name: a\n    record: a.yaml\n  - name: a\n    record: b.yaml\n",
			wantErr:  domain.ErrUnitAlreadyExists,
			wantMeta: map[string]any{"unit": "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, _ := newMapLoader(t, fstest.MapFS{"ripple.yaml": manifest(tt.content)})

			_, err := loader.Load(workspaceRoot)
			require.Error(t, err)

			var zErr *zerr.Error
			require.ErrorAs(t, err, &zErr)
			assert.Equal(t, tt.wantErr.Error(), zErr.Message())
			for k, v := range tt.wantMeta {
				assert.Equal(t, v, zErr.Metadata()[k], "metadata %s", k)
			}
		})
	}
}

func TestLoader_Load_FromNestedDirectory(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, domain.DirPerm))
	content := "units:\n  - name: core\n    sources: [core.swift]\n    record: core.yaml\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, domain.ManifestFileName), []byte(content), domain.FilePerm))

	// A directory named like the manifest is not a manifest.
	require.NoError(t, os.Mkdir(filepath.Join(root, "a", domain.ManifestFileName), domain.DirPerm))

	ctrl := gomock.NewController(t)
	loader := config.NewLoader(mocks.NewMockLogger(ctrl))

	ws, err := loader.Load(nested)
	require.NoError(t, err)
	assert.Equal(t, root, ws.Root())
	assert.Equal(t, 1, ws.Len())
}

func TestLoader_NotFound(t *testing.T) {
	loader, _ := newMapLoader(t, fstest.MapFS{})

	_, err := loader.Load(filepath.Join(workspaceRoot, "deep"))
	require.Error(t, err)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, domain.ErrConfigNotFound.Error(), zErr.Message())
	assert.Equal(t, filepath.Join(workspaceRoot, "deep"), zErr.Metadata()["cwd"])
}
