package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	perrors "github.com/vango-go/pageload/internal/errors"
	"github.com/vango-go/pageload/pkg/load"
	"github.com/vango-go/pageload/pkg/routetree"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "pageload").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for loader duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "pageload",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors.
type Metrics struct {
	loadsTotal    *prometheus.CounterVec
	loadDuration  *prometheus.HistogramVec
	loadErrors    *prometheus.CounterVec
	payloadBytes  *prometheus.HistogramVec
	liveClients   prometheus.Gauge
	invalidations prometheus.Counter
}

// globalMetrics is created on the first call to Prometheus.
var (
	globalMetrics   *Metrics
	globalMetricsMu sync.Mutex
)

func initMetrics(config MetricsConfig) *Metrics {
	factory := promauto.With(config.Registry)

	return &Metrics{
		loadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "loads_total",
			Help:        "Total number of loader calls",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "outcome"}),

		loadDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "load_duration_seconds",
			Help:        "Loader duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route"}),

		loadErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "load_errors_total",
			Help:        "Total number of loader errors",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "error_type"}),

		payloadBytes: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "payload_bytes",
			Help:        "Size of encoded load payloads in bytes",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{256, 1024, 10240, 102400, 1048576}, // 256B to 1MB
		}, []string{"route"}),

		liveClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_clients",
			Help:        "Number of connected invalidation listeners",
			ConstLabels: config.ConstLabels,
		}),

		invalidations: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "invalidations_total",
			Help:        "Total number of invalidations broadcast",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Prometheus creates middleware that records loader metrics.
//
// The collectors are registered once per process; options passed after
// the first call are ignored.
func Prometheus(opts ...MetricsOption) Middleware {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMetricsMu.Lock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
	m := globalMetrics
	globalMetricsMu.Unlock()

	return func(route string, next load.Loader) load.Loader {
		return func(ctx context.Context, r *http.Request, params routetree.Params) (load.Result, error) {
			start := time.Now()
			res, err := next(ctx, r, params)
			m.loadDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())

			outcome := "error"
			if err != nil {
				m.loadErrors.WithLabelValues(route, categorizeError(err)).Inc()
			} else if res != nil {
				outcome = load.Kind(res)
			}
			m.loadsTotal.WithLabelValues(route, outcome).Inc()
			return res, err
		}
	}
}

// categorizeError returns a low-cardinality label for err.
func categorizeError(err error) string {
	if code := perrors.CodeOf(err); code != "" {
		return code
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return "timeout"
	case strings.Contains(msg, "not found"):
		return "not_found"
	case strings.Contains(msg, "unauthorized"):
		return "unauthorized"
	case strings.Contains(msg, "forbidden"):
		return "forbidden"
	default:
		return "internal"
	}
}

// GetMetrics returns the collectors, or nil before Prometheus was called.
func GetMetrics() *Metrics {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	return globalMetrics
}

// RecordPayload records the size of a payload served for route.
func RecordPayload(route string, size int) {
	if m := GetMetrics(); m != nil {
		m.payloadBytes.WithLabelValues(route).Observe(float64(size))
	}
}

// RecordLiveConnect records a listener connecting.
func RecordLiveConnect() {
	if m := GetMetrics(); m != nil {
		m.liveClients.Inc()
	}
}

// RecordLiveDisconnect records a listener going away.
func RecordLiveDisconnect() {
	if m := GetMetrics(); m != nil {
		m.liveClients.Dec()
	}
}

// RecordInvalidation records one broadcast invalidation.
func RecordInvalidation() {
	if m := GetMetrics(); m != nil {
		m.invalidations.Inc()
	}
}
