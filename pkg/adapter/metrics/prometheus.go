// Package metrics implements the metrics domain interfaces with the
// Prometheus client library.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/damianoneill/user-service/pkg/domain/metrics"
	"github.com/damianoneill/user-service/pkg/domain/options"
)

// PrometheusFactory creates collectors and recorders registered on one
// registry and serves that registry.
type PrometheusFactory struct {
	reg *prometheus.Registry
}

var _ metrics.Factory = (*PrometheusFactory)(nil)

// NewMetricsFactory creates a factory with a fresh registry that also
// exports Go runtime and process metrics.
func NewMetricsFactory() *PrometheusFactory {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewMetricsFactoryWithRegistry(reg)
}

// NewMetricsFactoryWithRegistry uses reg as is. Tests pass an empty registry.
func NewMetricsFactoryWithRegistry(reg *prometheus.Registry) *PrometheusFactory {
	return &PrometheusFactory{reg: reg}
}

// Registry returns the underlying registry.
func (f *PrometheusFactory) Registry() *prometheus.Registry {
	return f.reg
}

func (f *PrometheusFactory) Handler() http.Handler {
	return promhttp.HandlerFor(f.reg, promhttp.HandlerOpts{Registry: f.reg})
}

func (f *PrometheusFactory) NewCollector(opts ...metrics.Option) (metrics.Collector, error) {
	o, labels, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	buckets := o.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	c := &prometheusCollector{
		reg: f.reg,
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "http_request_duration_seconds",
				Help:        "HTTP request duration in seconds",
				Buckets:     buckets,
				ConstLabels: labels,
			},
			[]string{"method", "endpoint"},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "http_requests_total",
				Help:        "Total HTTP requests",
				ConstLabels: labels,
			},
			[]string{"method", "endpoint", "status_code"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "http_errors_total",
				Help:        "Total HTTP requests answered with a 4xx or 5xx status",
				ConstLabels: labels,
			},
			[]string{"method", "endpoint", "status_code"},
		),
	}

	if err := register(f.reg, c.collectors()...); err != nil {
		return nil, err
	}
	return c, nil
}

func (f *PrometheusFactory) NewRecorder(opts ...metrics.Option) (metrics.Recorder, error) {
	o, labels, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	r := &prometheusRecorder{
		userCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "user_created_total",
			Help:        "Total users created",
			ConstLabels: labels,
		}),
		userRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "user_read_total",
			Help:        "Total user read operations",
			ConstLabels: labels,
		}),
		activeUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "active_users_count",
			Help:        "Number of users as of the most recent listing",
			ConstLabels: labels,
		}),
		dbErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_errors_total",
			Help:        "Total database errors",
			ConstLabels: labels,
		}, []string{"error_type"}),
		health: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "app_health_status",
			Help:        "Application health status (1=healthy, 0=unhealthy)",
			ConstLabels: labels,
		}),
	}

	cs := []prometheus.Collector{r.userCreated, r.userRead, r.activeUsers, r.dbErrors, r.health}
	if o.PoolStats != nil {
		cs = append(cs, newPoolCollector(o.PoolStats, labels))
	}
	if err := register(f.reg, cs...); err != nil {
		return nil, err
	}
	return r, nil
}

func buildOptions(opts []metrics.Option) (metrics.Options, prometheus.Labels, error) {
	o, err := options.Build(metrics.DefaultOptions(), opts...)
	if err != nil {
		return o, nil, fmt.Errorf("applying option: %w", err)
	}
	if err := o.Validate(); err != nil {
		return o, nil, err
	}

	labels := prometheus.Labels{
		"service": o.ServiceName,
		"version": o.ServiceVersion,
	}
	for k, v := range o.Labels {
		labels[k] = v
	}
	return o, labels, nil
}

// register registers every collector or none.
func register(reg prometheus.Registerer, cs ...prometheus.Collector) error {
	for i, c := range cs {
		if err := reg.Register(c); err != nil {
			for _, done := range cs[:i] {
				reg.Unregister(done)
			}
			return fmt.Errorf("registering collector: %w", err)
		}
	}
	return nil
}

type prometheusCollector struct {
	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	reg             prometheus.Registerer
	closeOnce       sync.Once
}

func (c *prometheusCollector) collectors() []prometheus.Collector {
	return []prometheus.Collector{c.requestDuration, c.requestsTotal, c.errorsTotal}
}

func (c *prometheusCollector) CollectRequestMetrics(method, path string, status int, duration float64) {
	code := strconv.Itoa(status)

	c.requestDuration.WithLabelValues(method, path).Observe(duration)
	c.requestsTotal.WithLabelValues(method, path, code).Inc()

	if status >= http.StatusBadRequest {
		c.errorsTotal.WithLabelValues(method, path, code).Inc()
	}
}

func (c *prometheusCollector) Close() error {
	c.closeOnce.Do(func() {
		for _, col := range c.collectors() {
			c.reg.Unregister(col)
		}
	})
	return nil
}

type prometheusRecorder struct {
	userCreated prometheus.Counter
	userRead    prometheus.Counter
	activeUsers prometheus.Gauge
	dbErrors    *prometheus.CounterVec
	health      prometheus.Gauge
}

func (r *prometheusRecorder) UserCreated() { r.userCreated.Inc() }

func (r *prometheusRecorder) UserRead() { r.userRead.Inc() }

func (r *prometheusRecorder) SetActiveUsers(n int) { r.activeUsers.Set(float64(n)) }

func (r *prometheusRecorder) IncActiveUsers() { r.activeUsers.Inc() }

func (r *prometheusRecorder) DBError(errorType string) {
	if errorType == "" {
		errorType = "unknown"
	}
	r.dbErrors.WithLabelValues(errorType).Inc()
}

func (r *prometheusRecorder) SetHealthy(healthy bool) {
	if healthy {
		r.health.Set(1)
		return
	}
	r.health.Set(0)
}

// poolCollector reads pool usage at scrape time.
type poolCollector struct {
	stats  metrics.PoolStatsFunc
	active *prometheus.Desc
	idle   *prometheus.Desc
	total  *prometheus.Desc
	max    *prometheus.Desc
}

func newPoolCollector(stats metrics.PoolStatsFunc, labels prometheus.Labels) *poolCollector {
	return &poolCollector{
		stats:  stats,
		active: prometheus.NewDesc("db_connections_active", "Database connections currently held by requests", nil, labels),
		idle:   prometheus.NewDesc("db_connections_idle", "Open database connections not in use", nil, labels),
		total:  prometheus.NewDesc("db_connections_total", "Open database connections", nil, labels),
		max:    prometheus.NewDesc("db_connections_max", "Configured maximum database connections", nil, labels),
	}
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.active
	ch <- c.idle
	ch <- c.total
	ch <- c.max
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.stats()
	ch <- prometheus.MustNewConstMetric(c.active, prometheus.GaugeValue, float64(st.Outstanding))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(st.Idle))
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(st.Total))
	ch <- prometheus.MustNewConstMetric(c.max, prometheus.GaugeValue, float64(st.Max))
}
