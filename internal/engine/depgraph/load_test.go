package depgraph_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ripple/internal/adapters/record"
	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/engine/depgraph"
	"go.trai.ch/zerr"
)

func TestLoad_ReloadReplacesFacts(t *testing.T) {
	t.Parallel()

	g := newGraph()
	load(t, g, 0, "providesNominal", "a", "dependsTopLevel", "x", "dependsExternal", "/foo")
	load(t, g, 1, "dependsNominal", "a")
	load(t, g, 0, "providesNominal", "b")

	assert.Equal(t, []domain.FactKey{domain.Nominal("b")}, g.Provides(0))
	assert.Empty(t, g.Depends(0))
	assert.Empty(t, g.UsedExternals(0))
	assert.Empty(t, g.ExternalDependents("/foo"))

	// 1 no longer depends on anything 0 provides.
	assert.Empty(t, g.MarkTransitive(0))
	assert.False(t, g.IsMarked(1))
	require.NoError(t, g.Verify())
}

func TestLoad_ParseErrorKeepsPreviousFacts(t *testing.T) {
	t.Parallel()

	g := newGraph()
	load(t, g, 0, "providesNominal", "a")
	load(t, g, 1, "dependsNominal", "a")

	assert.Equal(t, domain.LoadHadError, g.Load(0, []byte("providesNominal: {a: b}\n")))

	var zErr *zerr.Error
	require.ErrorAs(t, g.LoadError(0), &zErr)
	assert.Equal(t, domain.ErrRecordValueNotSequence.Error(), zErr.Message())

	assert.Equal(t, []domain.FactKey{domain.Nominal("a")}, g.Provides(0))
	assert.Equal(t, []int{1}, g.MarkTransitive(0))

	load(t, g, 0, "providesNominal", "a")
	assert.NoError(t, g.LoadError(0))
}

func TestLoad_ParseErrorRegistersNode(t *testing.T) {
	t.Parallel()

	g := newGraph()
	assert.Equal(t, domain.LoadHadError, g.Load(3, []byte("bogus: [a]\n")))
	assert.Equal(t, []int{3}, g.Nodes())
	assert.Error(t, g.LoadError(3))
	require.NoError(t, g.Verify())
}

func TestLoadFromPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	t.Run("existing file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(dir, "ok.yaml")
		require.NoError(t, os.WriteFile(path, []byte("providesTopLevel: [a]\n"), 0o600))

		g := newGraph()
		assert.Equal(t, domain.LoadUpToDate, g.LoadFromPath(0, path))
		assert.Equal(t, []domain.FactKey{domain.TopLevel("a")}, g.Provides(0))
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		g := newGraph()
		assert.Equal(t, domain.LoadNeedsNonexistent, g.LoadFromPath(0, filepath.Join(dir, "missing.yaml")))
		assert.NoError(t, g.LoadError(0))
		assert.Equal(t, []int{0}, g.Nodes())
	})

	t.Run("unreadable path", func(t *testing.T) {
		t.Parallel()

		g := newGraph()
		assert.Equal(t, domain.LoadHadError, g.LoadFromPath(0, dir))

		var zErr *zerr.Error
		require.ErrorAs(t, g.LoadError(0), &zErr)
		assert.Equal(t, dir, zErr.Metadata()["path"])
	})
}

func TestReadRecord(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	parser := record.NewParser()

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("providesNominal: [A]\n"), 0o600))
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("providesNominal: A\n"), 0o600))

	rec, result, err := depgraph.ReadRecord(parser, good)
	require.NoError(t, err)
	assert.Equal(t, domain.LoadUpToDate, result)
	assert.Equal(t, []domain.FactKey{domain.Nominal("A")}, rec.Provides)

	rec, result, err = depgraph.ReadRecord(parser, filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, domain.LoadNeedsNonexistent, result)
	assert.Nil(t, rec)

	_, result, err = depgraph.ReadRecord(parser, bad)
	assert.Equal(t, domain.LoadHadError, result)
	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, domain.ErrRecordValueNotSequence.Error(), zErr.Message())
	assert.Equal(t, bad, zErr.Metadata()["path"])
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	t.Run("derived from provided keys", func(t *testing.T) {
		t.Parallel()

		g := newGraph()
		_, ok := g.Fingerprint(0)
		assert.False(t, ok)

		load(t, g, 0, "providesNominal", "a, b", "dependsNominal", "x")
		first, ok := g.Fingerprint(0)
		require.True(t, ok)
		assert.True(t, g.InterfaceChanged(0))

		// Order and dependencies do not affect the interface.
		load(t, g, 0, "providesNominal", "b, a", "dependsNominal", "y")
		second, _ := g.Fingerprint(0)
		assert.Equal(t, first, second)
		assert.False(t, g.InterfaceChanged(0))

		load(t, g, 0, "providesNominal", "a")
		third, _ := g.Fingerprint(0)
		assert.NotEqual(t, first, third)
		assert.True(t, g.InterfaceChanged(0))
	})

	t.Run("kind is part of the key", func(t *testing.T) {
		t.Parallel()

		g := newGraph()
		load(t, g, 0, "providesNominal", "a")
		load(t, g, 1, "providesTopLevel", "a")

		a, _ := g.Fingerprint(0)
		b, _ := g.Fingerprint(1)
		assert.NotEqual(t, a, b)
	})

	t.Run("interface hash overrides keys", func(t *testing.T) {
		t.Parallel()

		g := newGraph()
		require.Equal(t, domain.LoadUpToDate, g.Load(0, []byte("interfaceHash: abc\nprovidesNominal: [a]\n")))
		require.Equal(t, domain.LoadUpToDate, g.Load(0, []byte("interfaceHash: abc\nprovidesNominal: [b]\n")))
		assert.False(t, g.InterfaceChanged(0))

		require.Equal(t, domain.LoadUpToDate, g.Load(0, []byte("interface-hash: def\nprovidesNominal: [b]\n")))
		assert.True(t, g.InterfaceChanged(0))
	})
}
