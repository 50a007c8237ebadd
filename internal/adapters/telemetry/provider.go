package telemetry

import (
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// NewProvider creates a tracer provider that hands every span to processors.
func NewProvider(processors ...sdktrace.SpanProcessor) *sdktrace.TracerProvider {
	opts := make([]sdktrace.TracerProviderOption, 0, len(processors))
	for _, p := range processors {
		opts = append(opts, sdktrace.WithSpanProcessor(p))
	}
	return sdktrace.NewTracerProvider(opts...)
}

// Install creates a provider with processors and registers it globally.
func Install(processors ...sdktrace.SpanProcessor) *sdktrace.TracerProvider {
	tp := NewProvider(processors...)
	otel.SetTracerProvider(tp)
	return tp
}
