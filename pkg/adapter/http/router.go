// Package http provides a Chi-based implementation of the HTTP routing domain interfaces.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	domainhttp "github.com/damianoneill/user-service/pkg/domain/http"
	"github.com/damianoneill/user-service/pkg/domain/logging"
	"github.com/damianoneill/user-service/pkg/domain/metrics"
	"github.com/damianoneill/user-service/pkg/domain/options"
)

// Fixed routes served by every router.
const (
	RootPath    = "/"
	StartupPath = "/startup"
	HealthPath  = "/health"
	ReadyPath   = "/ready"
	MetricsPath = "/metrics"
)

var probePaths = []string{StartupPath, HealthPath, ReadyPath}

// Router implements the domain Router interface using Chi
type Router struct {
	chi.Router
	opts      domainhttp.RouterOptions
	metrics   metrics.Collector
	logSkip   *matcher
	traceSkip *matcher
}

var _ domainhttp.Router = (*Router)(nil)

// Factory creates Chi-based router instances
type Factory struct{}

var _ domainhttp.Factory = (*Factory)(nil)

// NewFactory creates a new Chi router factory
func NewFactory() *Factory {
	return &Factory{}
}

// NewRouter implements the domain Factory interface
func (f *Factory) NewRouter(opts ...domainhttp.Option) (domainhttp.Router, error) {
	o, err := options.Build(domainhttp.DefaultOptions(), opts...)
	if err != nil {
		return nil, fmt.Errorf("applying router option: %w", err)
	}
	if o.ServiceName == "" {
		return nil, fmt.Errorf("service name is required")
	}

	var collector metrics.Collector
	if o.MetricsFactory != nil {
		collector, err = o.MetricsFactory.NewCollector(
			metrics.WithService(o.ServiceName, o.ServiceVersion),
		)
		if err != nil {
			return nil, fmt.Errorf("creating metrics collector: %w", err)
		}
	}

	return newRouter(o, collector), nil
}

func newRouter(opts domainhttp.RouterOptions, collector metrics.Collector) *Router {
	r := &Router{
		Router:    chi.NewRouter(),
		opts:      opts,
		metrics:   collector,
		logSkip:   newMatcher(opts.ExcludeFromLogging),
		traceSkip: newMatcher(opts.ExcludeFromTracing),
	}

	r.configureMiddleware()
	r.configureRoutes()

	return r
}

// configureMiddleware installs, outermost first: request id, real ip,
// metrics, access log, panic recovery, timeout, rate limit, tracing.
// Metrics and the access log sit outside recovery so a panic is seen as 500.
func (r *Router) configureMiddleware() {
	r.Use(middleware.RequestID, middleware.RealIP)

	if r.metrics != nil {
		r.Use(MetricsMiddleware(r.metrics, MetricsPath))
	}
	if r.opts.Logger != nil {
		r.Use(r.loggingMiddleware())
	}

	r.Use(middleware.Recoverer)

	timeout := r.opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	r.Use(middleware.Timeout(timeout))

	if r.opts.RateLimit.RequestsPerSecond > 0 {
		exempt := append([]string{MetricsPath}, probePaths...)
		r.Use(RateLimitMiddleware(r.opts.RateLimit, r.opts.Logger, exempt...))
	}

	if r.opts.TracingProvider != nil && r.opts.TracingProvider.IsEnabled() {
		r.Use(r.tracingMiddleware())
	}
}

func (r *Router) configureRoutes() {
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		_ = writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		_ = writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Get(RootPath, r.rootHandler)

	r.Get(StartupPath, r.probeHandler(r.opts.ProbeHandlers.StartupCheck))
	r.Get(HealthPath, r.probeHandler(r.opts.ProbeHandlers.LivenessCheck))
	r.Get(ReadyPath, r.probeHandler(r.opts.ProbeHandlers.ReadinessCheck))

	if r.metrics != nil {
		r.Method(http.MethodGet, MetricsPath, r.opts.MetricsFactory.Handler())
	}

	for path, h := range r.opts.InternalHandlers {
		r.Handle(path, h)
	}
}

type rootResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Status  string `json:"status"`
	State   string `json:"state,omitempty"`
}

func (r *Router) rootHandler(w http.ResponseWriter, _ *http.Request) {
	resp := rootResponse{
		Service: r.opts.ServiceName,
		Version: r.opts.ServiceVersion,
		Status:  "running",
	}
	if r.opts.StateFunc != nil {
		resp.State = r.opts.StateFunc()
	}
	r.write(w, http.StatusOK, resp)
}

func (r *Router) probeHandler(check domainhttp.ProbeCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		resp := check(req.Context())
		code := http.StatusOK
		if !resp.OK {
			code = http.StatusServiceUnavailable
		}
		r.write(w, code, resp)
	}
}

func (r *Router) write(w http.ResponseWriter, code int, v interface{}) {
	if err := writeJSON(w, code, v); err != nil && r.opts.Logger != nil {
		r.opts.Logger.ErrorWith("Failed to write response", logging.Fields{
			"error": err.Error(),
		})
	}
}

// loggingMiddleware writes one access record per request, at error level
// for 5xx responses.
func (r *Router) loggingMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if r.logSkip.Matches(req.URL.Path) {
				next.ServeHTTP(w, req)
				return
			}

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)

			defer func() {
				code := status(ww)
				fields := logging.Fields{
					"method":      req.Method,
					"path":        req.URL.Path,
					"route":       routeTemplate(req),
					"status_code": code,
					"duration_ms": float64(time.Since(start).Microseconds()) / 1000,
					"size":        ww.BytesWritten(),
					"request_id":  middleware.GetReqID(req.Context()),
				}
				if errors.Is(req.Context().Err(), context.Canceled) {
					fields["canceled"] = true
				}

				logger := r.opts.Logger.WithContext(req.Context())
				if code >= http.StatusInternalServerError {
					logger.ErrorWith("HTTP Request", fields)
					return
				}
				logger.InfoWith("HTTP Request", fields)
			}()

			next.ServeHTTP(ww, req)
		})
	}
}

// tracingMiddleware starts a server span per request. The span is renamed
// to the route template once routing has happened.
func (r *Router) tracingMiddleware() func(http.Handler) http.Handler {
	service := r.opts.ServiceName
	return func(next http.Handler) http.Handler {
		named := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req)
			trace.SpanFromContext(req.Context()).SetName(
				fmt.Sprintf("%s.http %s %s", service, req.Method, routeTemplate(req)))
		})
		return otelhttp.NewHandler(named, service,
			otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
				return fmt.Sprintf("%s.http %s %s", service, req.Method, req.URL.Path)
			}),
			otelhttp.WithFilter(func(req *http.Request) bool {
				return !r.traceSkip.Matches(req.URL.Path)
			}),
		)
	}
}

// Close unregisters the router's request series.
func (r *Router) Close(_ context.Context) error {
	if r.metrics == nil {
		return nil
	}
	if err := r.metrics.Close(); err != nil {
		return fmt.Errorf("closing metrics collector: %w", err)
	}
	return nil
}
