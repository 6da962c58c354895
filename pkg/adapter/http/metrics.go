package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/damianoneill/user-service/pkg/domain/metrics"
)

// unmatchedRoute labels requests that matched no route, keeping the
// endpoint label bounded.
const unmatchedRoute = "unmatched"

// MetricsMiddleware records one counter increment and one latency
// observation per request, labelled with the chi route template. Requests
// that routed to one of the skip templates are not measured; any other path,
// including near misses such as "/metrics/", is. Nothing is recorded when
// the client went away before the response was written.
func MetricsMiddleware(collector metrics.Collector, skip ...string) func(http.Handler) http.Handler {
	excluded := make(map[string]struct{}, len(skip))
	for _, s := range skip {
		excluded[s] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
			next.ServeHTTP(ww, req)

			route := routeTemplate(req)
			if _, ok := excluded[route]; ok {
				return
			}
			if errors.Is(req.Context().Err(), context.Canceled) {
				return
			}
			collector.CollectRequestMetrics(req.Method, route, status(ww), time.Since(start).Seconds())
		})
	}
}

// routeTemplate is evaluated after the handler chain has run. A request
// answered before routing, such as a 429 from the rate limiter, is looked up
// in the routing tree so it keeps its template.
func routeTemplate(req *http.Request) string {
	rctx := chi.RouteContext(req.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if p := rctx.RoutePattern(); p != "" {
		return p
	}
	if rctx.Routes != nil {
		path := req.URL.RawPath
		if path == "" {
			path = req.URL.Path
		}
		if p := rctx.Routes.Find(chi.NewRouteContext(), req.Method, path); p != "" {
			return p
		}
	}
	return unmatchedRoute
}

// status treats a handler that never wrote a header as 200, as net/http does.
func status(ww middleware.WrapResponseWriter) int {
	if s := ww.Status(); s != 0 {
		return s
	}
	return http.StatusOK
}
