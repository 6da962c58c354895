// Package http defines the service router: application routes plus the
// probe, metrics and internal endpoints every instance serves.
package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/damianoneill/user-service/pkg/domain/logging"
	"github.com/damianoneill/user-service/pkg/domain/metrics"
	"github.com/damianoneill/user-service/pkg/domain/options"
	"github.com/damianoneill/user-service/pkg/domain/tracing"
)

// Router is a chi.Router that owns its observability middleware.
type Router interface {
	chi.Router

	// Close releases resources owned by the router, such as its metrics
	// collector.
	Close(ctx context.Context) error
}

// RateLimit bounds request throughput. A zero RequestsPerSecond disables it.
type RateLimit struct {
	RequestsPerSecond float64
	Burst             int
}

// RouterOptions configures a Router. Nil collaborators disable the
// middleware that needs them.
type RouterOptions struct {
	ServiceName    string
	ServiceVersion string

	Logger          logging.Logger
	TracingProvider tracing.Provider
	// MetricsFactory also enables GET /metrics.
	MetricsFactory metrics.Factory

	ProbeHandlers *ProbeHandlers

	// StateFunc reports the lifecycle state on "/".
	StateFunc func() string

	// InternalHandlers maps "/internal/..." paths to handlers.
	InternalHandlers map[string]http.Handler

	RequestTimeout time.Duration

	// RateLimit applies to application routes only.
	RateLimit RateLimit

	// A trailing "*" matches any remaining segments.
	ExcludeFromLogging []string
	ExcludeFromTracing []string
}

type Option = options.Option[RouterOptions]

// DefaultOptions returns router options with default probes.
func DefaultOptions() RouterOptions {
	return RouterOptions{
		ProbeHandlers:  DefaultProbeHandlers(),
		RequestTimeout: 30 * time.Second,
	}
}

// WithService names the service in logs, spans and the root endpoint.
func WithService(name, version string) Option {
	return options.OptionFunc[RouterOptions](func(o *RouterOptions) error {
		if name == "" {
			return fmt.Errorf("service name cannot be empty")
		}
		o.ServiceName = name
		o.ServiceVersion = version
		return nil
	})
}

func WithLogger(logger logging.Logger) Option {
	return options.OptionFunc[RouterOptions](func(o *RouterOptions) error {
		o.Logger = logger
		return nil
	})
}

func WithTracingProvider(provider tracing.Provider) Option {
	return options.OptionFunc[RouterOptions](func(o *RouterOptions) error {
		o.TracingProvider = provider
		return nil
	})
}

// WithMetricsFactory enables request metrics and the /metrics endpoint.
func WithMetricsFactory(factory metrics.Factory) Option {
	return options.OptionFunc[RouterOptions](func(o *RouterOptions) error {
		o.MetricsFactory = factory
		return nil
	})
}

// WithProbeHandlers replaces all three probes; none may be nil.
func WithProbeHandlers(handlers *ProbeHandlers) Option {
	return options.OptionFunc[RouterOptions](func(o *RouterOptions) error {
		if handlers == nil || handlers.LivenessCheck == nil ||
			handlers.ReadinessCheck == nil || handlers.StartupCheck == nil {
			return fmt.Errorf("probe handlers must define liveness, readiness and startup checks")
		}
		o.ProbeHandlers = handlers
		return nil
	})
}

// WithStateFunc sets the function reporting service state on "/".
func WithStateFunc(fn func() string) Option {
	return options.OptionFunc[RouterOptions](func(o *RouterOptions) error {
		o.StateFunc = fn
		return nil
	})
}

// WithInternalHandler mounts h at path, which must start with "/internal/".
func WithInternalHandler(path string, h http.Handler) Option {
	return options.OptionFunc[RouterOptions](func(o *RouterOptions) error {
		if !strings.HasPrefix(path, "/internal/") {
			return fmt.Errorf("internal handler path must start with /internal/: %q", path)
		}
		if h == nil {
			return fmt.Errorf("nil handler for %s", path)
		}
		if o.InternalHandlers == nil {
			o.InternalHandlers = make(map[string]http.Handler)
		}
		o.InternalHandlers[path] = h
		return nil
	})
}

// WithRequestTimeout bounds handler execution.
func WithRequestTimeout(d time.Duration) Option {
	return options.OptionFunc[RouterOptions](func(o *RouterOptions) error {
		if d <= 0 {
			return fmt.Errorf("request timeout must be positive")
		}
		o.RequestTimeout = d
		return nil
	})
}

// WithRateLimit throttles application routes to rps requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return options.OptionFunc[RouterOptions](func(o *RouterOptions) error {
		if rps < 0 || burst < 0 {
			return fmt.Errorf("rate limit must not be negative")
		}
		if rps > 0 && burst == 0 {
			burst = int(rps) + 1
		}
		o.RateLimit = RateLimit{RequestsPerSecond: rps, Burst: burst}
		return nil
	})
}

// WithObservabilityExclusions sets both exclusion lists at once.
func WithObservabilityExclusions(loggingPaths []string, tracingPaths []string) Option {
	return options.OptionFunc[RouterOptions](func(o *RouterOptions) error {
		if err := validatePaths("logging", loggingPaths); err != nil {
			return err
		}
		if err := validatePaths("tracing", tracingPaths); err != nil {
			return err
		}
		o.ExcludeFromLogging = loggingPaths
		o.ExcludeFromTracing = tracingPaths
		return nil
	})
}

func WithLoggingExclusions(paths []string) Option {
	return options.OptionFunc[RouterOptions](func(o *RouterOptions) error {
		if err := validatePaths("logging", paths); err != nil {
			return err
		}
		o.ExcludeFromLogging = paths
		return nil
	})
}

func WithTracingExclusions(paths []string) Option {
	return options.OptionFunc[RouterOptions](func(o *RouterOptions) error {
		if err := validatePaths("tracing", paths); err != nil {
			return err
		}
		o.ExcludeFromTracing = paths
		return nil
	})
}

func validatePaths(kind string, paths []string) error {
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("path must start with /: %s", p)
		}
		if _, ok := seen[p]; ok {
			return fmt.Errorf("duplicate %s path: %s", kind, p)
		}
		seen[p] = struct{}{}
	}
	return nil
}

type Factory interface {
	NewRouter(opts ...Option) (Router, error)
}
