package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Version is reported as the service version on exported spans. Release
// builds set it with -ldflags "-X".
var Version = "dev"

// Config holds tracing settings
type Config struct {
	Enabled     bool    `yaml:"enabled"`
	Exporter    string  `yaml:"exporter"`     // otlp-http or none
	Endpoint    string  `yaml:"endpoint"`     // host:port of the OTLP/HTTP collector
	ServiceName string  `yaml:"service_name"` // nimap
	SampleRate  float64 `yaml:"sample_rate"`  // 0.0 to 1.0
}

var (
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer = noop.NewTracerProvider().Tracer("")
)

// Init installs the global tracer. With tracing disabled every span is a
// no-op. The "none" exporter records spans without sending them anywhere.
func Init(ctx context.Context, cfg Config) error {
	if !cfg.Enabled {
		provider = nil
		tracer = noop.NewTracerProvider().Tracer("")
		return nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "nimap"
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(Version),
		),
		resource.WithHost(),
		resource.WithProcessPID(),
	)
	if err != nil {
		return fmt.Errorf("create resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRate)),
	}
	switch cfg.Exporter {
	case "otlp-http", "otlp", "":
		exp, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(cfg.Endpoint),
			otlptracehttp.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("create OTLP exporter: %w", err)
		}
		// A manifest run is short-lived; Shutdown flushes the batch.
		opts = append(opts, sdktrace.WithBatcher(exp))
	case "none":
	default:
		return fmt.Errorf("unknown trace exporter %q", cfg.Exporter)
	}

	provider = sdktrace.NewTracerProvider(opts...)
	tracer = provider.Tracer("github.com/oriys/nimap")

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return nil
}

// sampler follows the parent's decision when a run joins an existing trace
// and samples root spans at rate otherwise. A rate of 0 drops every root span.
func sampler(rate float64) sdktrace.Sampler {
	root := sdktrace.AlwaysSample()
	if rate >= 0 && rate < 1 {
		root = sdktrace.TraceIDRatioBased(rate)
	}
	return sdktrace.ParentBased(root)
}

// Shutdown flushes pending spans. It is safe to call when tracing was never
// enabled.
func Shutdown(ctx context.Context) error {
	if provider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return provider.Shutdown(ctx)
}

// Enabled returns whether tracing is enabled
func Enabled() bool {
	return provider != nil
}
