package observability

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// ContextFromEnv returns ctx carrying the parent span named by the
// TRACEPARENT and TRACESTATE environment variables, so a run started by a
// traced CI job joins that job's trace.
func ContextFromEnv(ctx context.Context) context.Context {
	if !Enabled() {
		return ctx
	}
	carrier := propagation.MapCarrier{}
	if v := os.Getenv("TRACEPARENT"); v != "" {
		carrier.Set("traceparent", v)
	}
	if v := os.Getenv("TRACESTATE"); v != "" {
		carrier.Set("tracestate", v)
	}
	if len(carrier) == 0 {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

// TraceID returns the hex trace ID of the span in ctx, or "" when ctx
// carries no span.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
