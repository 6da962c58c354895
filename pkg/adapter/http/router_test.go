package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"

	domainhttp "github.com/damianoneill/user-service/pkg/domain/http"
	"github.com/damianoneill/user-service/pkg/domain/logging"
	mocklog "github.com/damianoneill/user-service/pkg/domain/logging/mocks"
	mockmetrics "github.com/damianoneill/user-service/pkg/domain/metrics/mocks"
	mocktracing "github.com/damianoneill/user-service/pkg/domain/tracing/mocks"
)

func ok(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var got map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	return got
}

// withMetrics returns router options wiring a mock collector.
func withMetrics(ctrl *gomock.Controller) (*mockmetrics.MockCollector, domainhttp.Option) {
	collector := mockmetrics.NewMockCollector(ctrl)
	factory := mockmetrics.NewMockFactory(ctrl)
	factory.EXPECT().NewCollector(gomock.Any()).Return(collector, nil)
	factory.EXPECT().Handler().Return(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})).AnyTimes()
	return collector, domainhttp.WithMetricsFactory(factory)
}

func TestNewFactory(t *testing.T) {
	factory := NewFactory()
	assert.NotNil(t, factory)
}

func TestNewRouter(t *testing.T) {
	ctrl := gomock.NewController(t)

	tests := []struct {
		name    string
		options func() []domainhttp.Option
		wantErr bool
	}{
		{
			name: "success with minimal options",
			options: func() []domainhttp.Option {
				return []domainhttp.Option{domainhttp.WithService("test-service", "1.0")}
			},
		},
		{
			name:    "error without service name",
			options: func() []domainhttp.Option { return nil },
			wantErr: true,
		},
		{
			name: "error from option",
			options: func() []domainhttp.Option {
				return []domainhttp.Option{
					domainhttp.WithService("test-service", "1.0"),
					domainhttp.WithLoggingExclusions([]string{"no-slash"}),
				}
			},
			wantErr: true,
		},
		{
			name: "success with metrics",
			options: func() []domainhttp.Option {
				_, opt := withMetrics(ctrl)
				return []domainhttp.Option{domainhttp.WithService("test-service", "1.0"), opt}
			},
		},
		{
			name: "error creating collector",
			options: func() []domainhttp.Option {
				factory := mockmetrics.NewMockFactory(ctrl)
				factory.EXPECT().NewCollector(gomock.Any()).Return(nil, errors.New("duplicate registration"))
				return []domainhttp.Option{
					domainhttp.WithService("test-service", "1.0"),
					domainhttp.WithMetricsFactory(factory),
				}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, err := NewFactory().NewRouter(tt.options()...)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, router)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, router)
		})
	}
}

func TestRouterProbeEndpoints(t *testing.T) {
	router, err := NewFactory().NewRouter(
		domainhttp.WithService("test-service", "1.0"),
		domainhttp.WithProbeHandlers(&domainhttp.ProbeHandlers{
			LivenessCheck: func(context.Context) domainhttp.ProbeResponse {
				return domainhttp.Passing("healthy")
			},
			ReadinessCheck: func(context.Context) domainhttp.ProbeResponse {
				return domainhttp.Failing("Service not ready", "database_unreachable")
			},
			StartupCheck: func(context.Context) domainhttp.ProbeResponse {
				return domainhttp.Passing("ok")
			},
		}),
	)
	require.NoError(t, err)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   map[string]interface{}
	}{
		{
			name:       "liveness probe",
			path:       "/health",
			wantStatus: http.StatusOK,
			wantBody:   map[string]interface{}{"status": "healthy"},
		},
		{
			name:       "readiness probe failing",
			path:       "/ready",
			wantStatus: http.StatusServiceUnavailable,
			wantBody: map[string]interface{}{
				"detail": "Service not ready",
				"reason": "database_unreachable",
			},
		},
		{
			name:       "startup probe",
			path:       "/startup",
			wantStatus: http.StatusOK,
			wantBody:   map[string]interface{}{"status": "ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodGet, tt.path)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantBody, decode(t, rec))
		})
	}
}

func TestRouterRoot(t *testing.T) {
	router, err := NewFactory().NewRouter(
		domainhttp.WithService("user-service", "1.2.3"),
		domainhttp.WithStateFunc(func() string { return "READY" }),
	)
	require.NoError(t, err)

	rec := serve(router, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{
		"service": "user-service",
		"version": "1.2.3",
		"status":  "running",
		"state":   "READY",
	}, decode(t, rec))

	rec = serve(router, http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decode(t, rec)["detail"])
}

func TestRouterMetricsMiddleware(t *testing.T) {
	ctrl := gomock.NewController(t)
	collector, opt := withMetrics(ctrl)

	router, err := NewFactory().NewRouter(domainhttp.WithService("test-service", "1.0"), opt)
	require.NoError(t, err)
	router.Get("/items/{id}", ok)
	router.Get("/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })

	t.Run("route template label", func(t *testing.T) {
		collector.EXPECT().CollectRequestMetrics(http.MethodGet, "/items/{id}", http.StatusOK, gomock.Any()).Times(2)
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/items/1").Code)
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/items/2").Code)
	})

	t.Run("unmatched route", func(t *testing.T) {
		collector.EXPECT().CollectRequestMetrics(http.MethodGet, "unmatched", http.StatusNotFound, gomock.Any())
		assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/does/not/exist").Code)
	})

	t.Run("panic is recorded as 500", func(t *testing.T) {
		collector.EXPECT().CollectRequestMetrics(http.MethodGet, "/panic", http.StatusInternalServerError, gomock.Any())
		assert.Equal(t, http.StatusInternalServerError, serve(router, http.MethodGet, "/panic").Code)
	})

	t.Run("metrics endpoint is not measured", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/metrics")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "# metrics\n", rec.Body.String())
	})

	t.Run("canceled request is not measured", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		req := httptest.NewRequest(http.MethodGet, "/items/3", nil).WithContext(ctx)
		router.ServeHTTP(httptest.NewRecorder(), req)
	})
}

func TestRouterLoggingMiddleware(t *testing.T) {
	ctrl := gomock.NewController(t)

	logger := mocklog.NewMockLogger(ctrl)
	logger.EXPECT().WithContext(gomock.Any()).Return(logger).AnyTimes()

	router, err := NewFactory().NewRouter(
		domainhttp.WithService("test-service", "1.0"),
		domainhttp.WithLogger(logger),
		domainhttp.WithObservabilityExclusions([]string{"/excluded"}, []string{"/excluded"}),
	)
	require.NoError(t, err)
	router.Get("/test/{id}", ok)
	router.Get("/excluded", ok)
	router.Get("/fail", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	logger.EXPECT().InfoWith("HTTP Request", gomock.Any()).Do(func(_ string, f logging.Fields) {
		assert.Equal(t, http.MethodGet, f["method"])
		assert.Equal(t, "/test/7", f["path"])
		assert.Equal(t, "/test/{id}", f["route"])
		assert.Equal(t, http.StatusOK, f["status_code"])
		assert.NotEmpty(t, f["request_id"])
	})
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/test/7").Code)

	// excluded paths produce no record
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/excluded").Code)

	logger.EXPECT().ErrorWith("HTTP Request", gomock.Any())
	assert.Equal(t, http.StatusBadGateway, serve(router, http.MethodGet, "/fail").Code)
}

func TestRouterInternalHandlers(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = writeJSON(w, http.StatusOK, map[string]string{"method": r.Method})
	})

	router, err := NewFactory().NewRouter(
		domainhttp.WithService("test-service", "1.0"),
		domainhttp.WithInternalHandler("/internal/logging", handler),
	)
	require.NoError(t, err)

	rec := serve(router, http.MethodPut, "/internal/logging")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.MethodPut, decode(t, rec)["method"])
}

func TestRouterRateLimit(t *testing.T) {
	router, err := NewFactory().NewRouter(
		domainhttp.WithService("test-service", "1.0"),
		domainhttp.WithRateLimit(1, 2),
	)
	require.NoError(t, err)
	router.Get("/items", ok)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/items").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/items").Code)

	rec := serve(router, http.MethodGet, "/items")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, "Too many requests", decode(t, rec)["detail"])

	// probes are exempt
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health").Code)
	}

	// budgets are per client
	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	req.RemoteAddr = "10.0.0.9:5555"
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterRateLimitKeepsRouteLabel(t *testing.T) {
	ctrl := gomock.NewController(t)
	collector, opt := withMetrics(ctrl)

	router, err := NewFactory().NewRouter(
		domainhttp.WithService("test-service", "1.0"),
		domainhttp.WithRateLimit(1, 1),
		opt,
	)
	require.NoError(t, err)
	router.Get("/items/{id}", ok)

	gomock.InOrder(
		collector.EXPECT().CollectRequestMetrics(http.MethodGet, "/items/{id}", http.StatusOK, gomock.Any()),
		collector.EXPECT().CollectRequestMetrics(http.MethodGet, "/items/{id}", http.StatusTooManyRequests, gomock.Any()),
		collector.EXPECT().CollectRequestMetrics(http.MethodGet, "unmatched", http.StatusTooManyRequests, gomock.Any()),
	)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/items/1").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(router, http.MethodGet, "/items/2").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(router, http.MethodGet, "/nowhere").Code)
}

func TestRouterTracing(t *testing.T) {
	ctrl := gomock.NewController(t)

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	provider := mocktracing.NewMockProvider(ctrl)
	provider.EXPECT().IsEnabled().Return(true)

	router, err := NewFactory().NewRouter(
		domainhttp.WithService("test-service", "1.0"),
		domainhttp.WithTracingProvider(provider),
		domainhttp.WithTracingExclusions([]string{"/health"}),
	)
	require.NoError(t, err)
	router.Get("/items/{id}", ok)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/items/42").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health").Code)

	ended := spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "test-service.http GET /items/{id}", ended[0].Name())
}

func TestRouterClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	collector, opt := withMetrics(ctrl)
	collector.EXPECT().Close().Return(nil)

	router, err := NewFactory().NewRouter(domainhttp.WithService("test-service", "1.0"), opt)
	require.NoError(t, err)
	assert.NoError(t, router.Close(context.Background()))

	plain, err := NewFactory().NewRouter(domainhttp.WithService("test-service", "1.0"))
	require.NoError(t, err)
	assert.NoError(t, plain.Close(context.Background()))
}
