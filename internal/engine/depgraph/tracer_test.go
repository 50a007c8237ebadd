package depgraph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/engine/depgraph"
)

func TestMarkTracer_Explain(t *testing.T) {
	t.Parallel()

	g := newGraph()
	load(t, g, 0, "providesNominal", "a")
	load(t, g, 1, "dependsNominal", "a", "providesTopLevel", "b")
	load(t, g, 2, "dependsTopLevel", "b")
	load(t, g, 3, "dependsExternal", "/foo", "providesMember", "[T, m]")
	load(t, g, 4, "dependsMember", "[T, m]")

	tracer := depgraph.NewMarkTracer[int]()
	require.Equal(t, []int{1, 2}, g.MarkTransitive(0, depgraph.WithTracer(tracer)))
	require.Equal(t, []int{3, 4}, g.MarkExternal("/foo", depgraph.WithTracer(tracer)))

	chain := tracer.Explain(2)
	require.Len(t, chain, 2)
	assert.Equal(t, depgraph.TraceStep[int]{Node: 1, From: 0, Via: domain.Nominal("a")}, chain[0])
	assert.Equal(t, depgraph.TraceStep[int]{Node: 2, From: 1, Via: domain.TopLevel("b")}, chain[1])
	assert.Equal(t, "1 depends on nominal:a provided by 0", chain[0].String())

	chain = tracer.Explain(4)
	require.Len(t, chain, 2)
	assert.Equal(t, "3 depends on external /foo", chain[0].String())
	assert.Equal(t, "4 depends on member:T.m provided by 3", chain[1].String())

	assert.Empty(t, tracer.Explain(0))
	assert.Empty(t, tracer.Explain(99))
}

func TestMarkTracer_FirstCauseWins(t *testing.T) {
	t.Parallel()

	g := newGraph()
	load(t, g, 0, "providesNominal", "a, b")
	load(t, g, 1, "dependsNominal", "b", "dependsTopLevel", "c")
	load(t, g, 2, "providesTopLevel", "c")

	tracer := depgraph.NewMarkTracer[int]()
	g.MarkTransitive(0, depgraph.WithTracer(tracer))
	g.MarkTransitive(2, depgraph.WithTracer(tracer))

	chain := tracer.Explain(1)
	require.Len(t, chain, 1)
	assert.Equal(t, 0, chain[0].From)
	assert.Equal(t, domain.Nominal("b"), chain[0].Via)
}

func TestMarkTracer_Nil(t *testing.T) {
	t.Parallel()

	var tracer *depgraph.MarkTracer[int]
	g := newGraph()
	load(t, g, 0, "providesNominal", "a")
	load(t, g, 1, "dependsNominal", "a")

	assert.Equal(t, []int{1}, g.MarkTransitive(0, depgraph.WithTracer(tracer)))
	assert.Nil(t, tracer.Explain(1))
}
