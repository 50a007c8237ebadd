package depgraph

import (
	"fmt"
	"slices"

	"go.trai.ch/ripple/internal/core/domain"
)

// TraceStep is one hop of a marking explanation.
type TraceStep[N comparable] struct {
	// Node is the node that became marked.
	Node N
	// From is the marked provider that caused the mark. Unset for external causes.
	From N
	// Via is the provided key Node depends on.
	Via domain.FactKey
	// External is the external path that caused the mark, if any.
	External string
}

// String renders the step.
func (s TraceStep[N]) String() string {
	if s.External != "" {
		return fmt.Sprintf("%v depends on external %s", s.Node, s.External)
	}
	return fmt.Sprintf("%v depends on %s provided by %v", s.Node, s.Via, s.From)
}

// MarkTracer remembers why each node became marked. The zero value is not usable;
// a nil tracer records nothing.
type MarkTracer[N comparable] struct {
	steps map[N]TraceStep[N]
}

// NewMarkTracer creates an empty tracer.
func NewMarkTracer[N comparable]() *MarkTracer[N] {
	return &MarkTracer[N]{steps: make(map[N]TraceStep[N])}
}

func (t *MarkTracer[N]) record(node, from N, via domain.FactKey) {
	if t == nil {
		return
	}
	if _, ok := t.steps[node]; ok {
		return
	}
	t.steps[node] = TraceStep[N]{Node: node, From: from, Via: via}
}

func (t *MarkTracer[N]) recordExternal(node N, path string) {
	if t == nil {
		return
	}
	if _, ok := t.steps[node]; ok {
		return
	}
	t.steps[node] = TraceStep[N]{Node: node, External: path}
}

// Explain returns the chain of steps from the root cause to node.
// It is empty for nodes the tracer never saw marked, including start nodes.
func (t *MarkTracer[N]) Explain(node N) []TraceStep[N] {
	if t == nil {
		return nil
	}

	var chain []TraceStep[N]
	seen := make(map[N]struct{})
	for {
		step, ok := t.steps[node]
		if !ok {
			break
		}
		if _, loop := seen[node]; loop {
			break
		}
		seen[node] = struct{}{}
		chain = append(chain, step)
		if step.External != "" {
			break
		}
		node = step.From
	}

	slices.Reverse(chain)
	return chain
}
