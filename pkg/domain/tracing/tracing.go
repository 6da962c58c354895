// Package tracing defines the span export configuration of the service.
package tracing

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/damianoneill/user-service/pkg/domain/options"
)

//go:generate mockgen -destination=mocks/mock_tracing.go -package=mocks github.com/damianoneill/user-service/pkg/domain/tracing Provider,Factory

// Provider is an installed tracer provider.
type Provider interface {
	// Shutdown flushes pending spans and stops export. ctx bounds the flush.
	Shutdown(ctx context.Context) error

	// IsEnabled reports whether spans are exported at all.
	IsEnabled() bool
}

// Factory creates providers.
type Factory interface {
	NewProvider(opts ...Option) (Provider, error)

	// HTTPMiddleware wraps handlers in a server span named operation.
	HTTPMiddleware(operation string) func(http.Handler) http.Handler
}

// ExporterType selects the OTLP transport.
type ExporterType string

const (
	HTTPExporter ExporterType = "http"
	GRPCExporter ExporterType = "grpc"
	// NoopExporter disables tracing.
	NoopExporter ExporterType = "noop"
)

// W3C propagation formats.
const (
	PropagatorTraceContext = "tracecontext"
	PropagatorBaggage      = "baggage"
)

// Options configures a Provider.
type Options struct {
	ServiceName    string
	ServiceVersion string

	// CollectorEndpoint is host:port of the OTLP receiver, e.g. localhost:4317.
	// Required unless ExporterType is NoopExporter.
	CollectorEndpoint string
	ExporterType      ExporterType

	// Headers are sent with every export request, e.g. an API key.
	Headers  map[string]string
	Insecure bool

	PropagatorTypes []string

	// SamplingRate is the fraction of new root traces recorded, 0 to 1.
	// Child spans follow their parent's decision.
	SamplingRate float64
}

type Option = options.Option[Options]

// DefaultOptions returns OTLP/gRPC export of every span with W3C
// propagation.
func DefaultOptions() Options {
	return Options{
		ExporterType:    GRPCExporter,
		PropagatorTypes: []string{PropagatorTraceContext, PropagatorBaggage},
		SamplingRate:    1.0,
	}
}

// Validate checks that a provider can be built from o.
func (o Options) Validate() error {
	if o.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}
	if o.ExporterType != NoopExporter && o.CollectorEndpoint == "" {
		return fmt.Errorf("collector endpoint is required for %s exporter", o.ExporterType)
	}
	for _, p := range o.PropagatorTypes {
		if p != PropagatorTraceContext && p != PropagatorBaggage {
			return fmt.Errorf("unsupported propagator: %s", p)
		}
	}
	return nil
}

// ParseExporterType converts a configuration string to an ExporterType.
// The empty string selects gRPC.
func ParseExporterType(s string) (ExporterType, error) {
	switch t := ExporterType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return GRPCExporter, nil
	case HTTPExporter, GRPCExporter, NoopExporter:
		return t, nil
	default:
		return "", fmt.Errorf("unknown exporter type %q", s)
	}
}

func set(fn func(*Options)) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		fn(o)
		return nil
	})
}

func WithServiceName(name string) Option {
	return set(func(o *Options) { o.ServiceName = name })
}

func WithServiceVersion(version string) Option {
	return set(func(o *Options) { o.ServiceVersion = version })
}

func WithCollectorEndpoint(endpoint string) Option {
	return set(func(o *Options) { o.CollectorEndpoint = endpoint })
}

func WithExporterType(exporterType ExporterType) Option {
	return set(func(o *Options) { o.ExporterType = exporterType })
}

func WithHeaders(headers map[string]string) Option {
	return set(func(o *Options) { o.Headers = headers })
}

// WithInsecure disables TLS to the collector.
func WithInsecure(insecure bool) Option {
	return set(func(o *Options) { o.Insecure = insecure })
}

func WithPropagatorTypes(types []string) Option {
	return set(func(o *Options) { o.PropagatorTypes = types })
}

// WithDefaultPropagators selects W3C trace context and baggage.
func WithDefaultPropagators() Option {
	return WithPropagatorTypes([]string{PropagatorTraceContext, PropagatorBaggage})
}

// WithSamplingRate sets the root sampling probability. rate must be
// within [0, 1].
func WithSamplingRate(rate float64) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("sampling rate must be between 0.0 and 1.0")
		}
		o.SamplingRate = rate
		return nil
	})
}
