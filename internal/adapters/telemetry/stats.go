package telemetry

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var _ sdktrace.SpanProcessor = (*StatsProcessor)(nil)

// SpanStat aggregates every ended span of one name.
type SpanStat struct {
	Name   string        `json:"name"`
	Count  int           `json:"count"`
	Errors int           `json:"errors,omitempty"`
	Total  time.Duration `json:"total_ns"`
}

// StatsProcessor is a span processor that counts spans and sums their
// durations per span name.
type StatsProcessor struct {
	mu    sync.Mutex
	stats map[string]*SpanStat
}

// NewStatsProcessor creates an empty StatsProcessor.
func NewStatsProcessor() *StatsProcessor {
	return &StatsProcessor{stats: make(map[string]*SpanStat)}
}

// OnStart does nothing.
func (p *StatsProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd adds the span to the statistics of its name.
func (p *StatsProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	p.mu.Lock()
	defer p.mu.Unlock()

	stat, ok := p.stats[s.Name()]
	if !ok {
		stat = &SpanStat{Name: s.Name()}
		p.stats[s.Name()] = stat
	}
	stat.Count++
	stat.Total += s.EndTime().Sub(s.StartTime())
	if s.Status().Code == codes.Error {
		stat.Errors++
	}
}

// Shutdown does nothing.
func (p *StatsProcessor) Shutdown(context.Context) error { return nil }

// ForceFlush does nothing.
func (p *StatsProcessor) ForceFlush(context.Context) error { return nil }

// Snapshot returns the statistics collected so far in name order.
func (p *StatsProcessor) Snapshot() []SpanStat {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]SpanStat, 0, len(p.stats))
	for _, name := range slices.Sorted(maps.Keys(p.stats)) {
		out = append(out, *p.stats[name])
	}
	return out
}
