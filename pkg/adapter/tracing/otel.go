// Package tracing exports spans over OTLP with the OpenTelemetry SDK.
package tracing

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/damianoneill/user-service/pkg/domain/options"
	"github.com/damianoneill/user-service/pkg/domain/tracing"
)

// Provider owns an SDK tracer provider. A disabled Provider holds nothing
// and every method is a no-op.
type Provider struct {
	tp *sdktrace.TracerProvider
}

var _ tracing.Provider = (*Provider)(nil)

type Factory struct{}

var _ tracing.Factory = (*Factory)(nil)

func NewFactory() *Factory {
	return &Factory{}
}

// NewProvider builds an OTLP exporting provider and installs it, together
// with the configured propagators, as the process-wide default. The noop
// exporter returns a disabled provider and leaves the globals untouched.
func (f *Factory) NewProvider(opts ...tracing.Option) (tracing.Provider, error) {
	o, err := options.Build(tracing.DefaultOptions(), opts...)
	if err != nil {
		return nil, fmt.Errorf("applying option: %w", err)
	}
	if err := o.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tracing options: %w", err)
	}
	if o.ExporterType == tracing.NoopExporter {
		return &Provider{}, nil
	}

	exporter, err := newExporter(context.Background(), o)
	if err != nil {
		return nil, fmt.Errorf("creating %s exporter: %w", o.ExporterType, err)
	}
	return install(exporter, o)
}

// NewProviderWithExporter is NewProvider with a caller supplied exporter,
// e.g. tracetest.NewInMemoryExporter in tests.
func (f *Factory) NewProviderWithExporter(exporter sdktrace.SpanExporter, opts ...tracing.Option) (*Provider, error) {
	if exporter == nil {
		return nil, fmt.Errorf("nil span exporter")
	}
	o, err := options.Build(tracing.DefaultOptions(), opts...)
	if err != nil {
		return nil, fmt.Errorf("applying option: %w", err)
	}
	if o.ServiceName == "" {
		return nil, fmt.Errorf("service name is required")
	}
	return install(exporter, o)
}

// HTTPMiddleware wraps a handler in a server span named operation.
func (f *Factory) HTTPMiddleware(operation string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, operation)
	}
}

func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

// ForceFlush exports every ended span without stopping the provider.
func (p *Provider) ForceFlush(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	return p.tp.ForceFlush(ctx)
}

func (p *Provider) IsEnabled() bool {
	return p.tp != nil
}

func install(exporter sdktrace.SpanExporter, o tracing.Options) (*Provider, error) {
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(o.ServiceName),
		semconv.ServiceVersion(o.ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(o.SamplingRate)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagator(o.PropagatorTypes))

	return &Provider{tp: tp}, nil
}

func newExporter(ctx context.Context, o tracing.Options) (sdktrace.SpanExporter, error) {
	switch o.ExporterType {
	case tracing.HTTPExporter:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(o.CollectorEndpoint)}
		if o.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if len(o.Headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(o.Headers))
		}
		return otlptracehttp.New(ctx, opts...)
	case tracing.GRPCExporter:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(o.CollectorEndpoint)}
		if o.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		if len(o.Headers) > 0 {
			opts = append(opts, otlptracegrpc.WithHeaders(o.Headers))
		}
		return otlptracegrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", o.ExporterType)
	}
}

// sampler honours the parent's decision and samples new roots at rate.
func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

func propagator(types []string) propagation.TextMapPropagator {
	if len(types) == 0 {
		types = []string{tracing.PropagatorTraceContext, tracing.PropagatorBaggage}
	}
	var ps []propagation.TextMapPropagator
	for _, t := range types {
		switch t {
		case tracing.PropagatorTraceContext:
			ps = append(ps, propagation.TraceContext{})
		case tracing.PropagatorBaggage:
			ps = append(ps, propagation.Baggage{})
		}
	}
	return propagation.NewCompositeTextMapPropagator(ps...)
}
