// Package metrics defines the request and business metrics contracts of the
// user service.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/damianoneill/user-service/pkg/domain/database"
	"github.com/damianoneill/user-service/pkg/domain/options"
)

//go:generate mockgen -destination=mocks/mock_metrics.go -package=mocks github.com/damianoneill/user-service/pkg/domain/metrics Collector,Recorder,Factory

// Collector handles metrics recording for HTTP requests
type Collector interface {
	// CollectRequestMetrics records one completed request. path must be a
	// route template, never a raw URL path.
	CollectRequestMetrics(method, path string, status int, duration float64)

	// Close unregisters the collector's series
	Close() error
}

// Recorder records business and health series. Implementations must be safe
// for concurrent use.
type Recorder interface {
	UserCreated()
	UserRead()

	// SetActiveUsers records the size of the most recent listing.
	SetActiveUsers(n int)
	IncActiveUsers()

	// DBError counts a database failure by its error type.
	DBError(errorType string)

	// SetHealthy mirrors the service state, true only when ready.
	SetHealthy(healthy bool)
}

// NopRecorder discards everything. It is used when metrics are disabled.
type NopRecorder struct{}

func (NopRecorder) UserCreated() {}
func (NopRecorder) UserRead() {}
func (NopRecorder) SetActiveUsers(int) {}
func (NopRecorder) IncActiveUsers() {}
func (NopRecorder) DBError(string) {}
func (NopRecorder) SetHealthy(bool) {}

// PoolStatsFunc reports pool usage at scrape time.
type PoolStatsFunc func() database.Stats

// Options configures the behavior of a metrics collector
type Options struct {
	// ServiceName and ServiceVersion are attached to every transport series
	ServiceName    string
	ServiceVersion string

	// Buckets defines custom histogram buckets for latency metrics.
	// If empty, default buckets will be used
	Buckets []float64

	// Labels are additional fixed labels to add to all metrics
	Labels map[string]string

	// PoolStats, when set, exports the db_connections_* gauges.
	PoolStats PoolStatsFunc
}

// Option is a function that modifies Options
type Option = options.Option[Options]

// DefaultOptions returns the default metrics options
func DefaultOptions() Options {
	return Options{
		ServiceName:    "unknown",
		ServiceVersion: "unknown",
	}
}

// Validate checks that the service identity is set and buckets ascend.
func (o Options) Validate() error {
	if o.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}
	for i := 1; i < len(o.Buckets); i++ {
		if o.Buckets[i] <= o.Buckets[i-1] {
			return fmt.Errorf("buckets must be in increasing order: %v", o.Buckets)
		}
	}
	return nil
}

// WithService sets the service name and version labels.
func WithService(name, version string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.ServiceName = name
		o.ServiceVersion = version
		return nil
	})
}

// WithBuckets sets custom histogram buckets for latency metrics.
// The buckets should be in ascending order.
func WithBuckets(buckets []float64) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.Buckets = buckets
		return nil
	})
}

// WithLabels sets additional labels that will be included
// in all metrics from this collector.
func WithLabels(labels map[string]string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.Labels = labels
		return nil
	})
}

// WithPoolStats exports connection pool gauges read from fn at scrape time.
func WithPoolStats(fn PoolStatsFunc) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.PoolStats = fn
		return nil
	})
}

// Factory creates collectors and recorders that share one registry.
type Factory interface {
	// NewCollector creates a new HTTP metrics collector with the given options
	NewCollector(opts ...Option) (Collector, error)

	// NewRecorder creates the business metrics recorder
	NewRecorder(opts ...Option) (Recorder, error)

	// Handler serves the registry in the Prometheus exposition format
	Handler() http.Handler
}
