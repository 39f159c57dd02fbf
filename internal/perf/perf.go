// Package perf records OpenTelemetry spans in memory so a run can be
// inspected with --perf without shipping data anywhere.
package perf

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/dysgraphia-support/langsync/internal/constants"
)

var (
	providerMu sync.Mutex
	exporter   = newSpanExporter()
	provider   *sdktrace.TracerProvider
	tracer     trace.Tracer
)

func ensureTracer() trace.Tracer {
	providerMu.Lock()
	defer providerMu.Unlock()

	if tracer == nil {
		provider = sdktrace.NewTracerProvider(
			sdktrace.WithSyncer(exporter),
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
		)
		tracer = provider.Tracer(constants.AppName)
	}
	return tracer
}

// StartSpan opens a span named after the operation, e.g. "io.locale.read".
// The caller must End the returned span.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return ensureTracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan marks the span with the outcome of err and ends it.
func EndSpan(span trace.Span, err error) {
	span.SetAttributes(attribute.Bool("success", err == nil))
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}

// SnapshotSpans returns the ended spans recorded since the last Reset.
func SnapshotSpans() ([]sdktrace.ReadOnlySpan, error) {
	ensureTracer()
	return exporter.Snapshot(), nil
}

// Reset drops every recorded span. Tests call it to isolate assertions.
func Reset() {
	exporter.Reset()
}

func Shutdown(ctx context.Context) error {
	providerMu.Lock()
	defer providerMu.Unlock()

	if provider == nil {
		return nil
	}
	err := provider.Shutdown(ctx)
	provider = nil
	tracer = nil
	return err
}
