package telemetry_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/ripple/internal/adapters/telemetry"
	"go.trai.ch/ripple/internal/core/ports"
)

func TestOTelTracer_Span(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := telemetry.NewProvider(recorder)
	tracer := telemetry.NewOTelTracerWithProvider("test", tp)

	ctx, span := tracer.Start(t.Context(), "plan", ports.WithAttribute("units", 3))
	_, child := tracer.Start(ctx, "plan.integrate")
	child.SetAttribute("loaded", true)
	child.SetAttribute("names", []string{"a", "b"})
	child.SetAttribute("other", struct{ X int }{1})
	child.RecordError(errors.New("boom"))
	child.End()
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)

	integrate := ended[0]
	assert.Equal(t, "plan.integrate", integrate.Name())
	assert.Equal(t, ended[1].SpanContext().SpanID(), integrate.Parent().SpanID())
	assert.Equal(t, codes.Error, integrate.Status().Code)
	assert.Contains(t, integrate.Attributes(), attribute.Bool("loaded", true))
	assert.Contains(t, integrate.Attributes(), attribute.StringSlice("names", []string{"a", "b"}))
	assert.Contains(t, integrate.Attributes(), attribute.String("other", "{1}"))

	var names []string
	for _, e := range integrate.Events() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"exception"}, names)

	assert.Contains(t, ended[1].Attributes(), attribute.Int("units", 3))
}

func TestStatsProcessor(t *testing.T) {
	t.Parallel()

	stats := telemetry.NewStatsProcessor()
	tracer := telemetry.NewOTelTracerWithProvider("test", telemetry.NewProvider(stats))

	for range 3 {
		_, span := tracer.Start(t.Context(), "load")
		span.End()
	}
	_, span := tracer.Start(t.Context(), "hash")
	span.RecordError(errors.New("unreadable"))
	span.End()

	snapshot := stats.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "hash", snapshot[0].Name)
	assert.Equal(t, 1, snapshot[0].Count)
	assert.Equal(t, 1, snapshot[0].Errors)
	assert.Equal(t, "load", snapshot[1].Name)
	assert.Equal(t, 3, snapshot[1].Count)
	assert.GreaterOrEqual(t, int64(snapshot[1].Total), int64(0))

	var _ sdktrace.SpanProcessor = stats
}

func TestNoOpTracer(t *testing.T) {
	t.Parallel()

	tracer := telemetry.NewNoOpTracer()
	ctx, span := tracer.Start(t.Context(), "noop", ports.WithAttribute("k", "v"))
	assert.Equal(t, t.Context(), ctx)

	span.SetAttribute("k", 1)
	span.RecordError(errors.New("ignored"))
	span.End()
}
