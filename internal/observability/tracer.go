package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attributes
var (
	AttrRunID      = attribute.Key("nimap.run_id")
	AttrRoot       = attribute.Key("nimap.root")
	AttrManifest   = attribute.Key("nimap.manifest")
	AttrFiles      = attribute.Key("nimap.files")
	AttrBytes      = attribute.Key("nimap.bytes")
	AttrIdentifier = attribute.Key("nimap.ni")
)

// StartSpan starts an internal span for a manifest operation.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartServerSpan starts a span for an incoming request.
func StartServerSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// SetSpanError records err on the span and marks it failed.
func SetSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanOK marks the span as successful
func SetSpanOK(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}
