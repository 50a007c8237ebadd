package depgraph_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/ripple/internal/adapters/record"
	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/engine/depgraph"
)

func newGraph() *depgraph.Graph[int] {
	return depgraph.New[int](record.NewParser(), depgraph.WithVerifyOnLoad())
}

// load builds a record from key/value pairs, each value being the inside of a YAML flow sequence.
func load(t *testing.T, g *depgraph.Graph[int], node int, kv ...string) {
	t.Helper()
	require.Equal(t, domain.LoadUpToDate, loadResult(g, node, kv...))
}

func loadResult(g *depgraph.Graph[int], node int, kv ...string) domain.LoadResult {
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		b.WriteString(kv[i] + ": [" + kv[i+1] + "]\n")
	}
	return g.Load(node, []byte(b.String()))
}
