// Package prommetrics exports posthog SDK and bootstrap metrics to Prometheus.
package prommetrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	posthog "github.com/jdziat/posthog-go"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "posthog"

var _ posthog.Metrics = (*Collector)(nil)

// Collector implements posthog.Metrics on Prometheus vectors. SDK metric
// names such as "posthog.events.queued" become the value of the "metric"
// label, so new SDK metrics need no new registrations.
type Collector struct {
	Counters  *prometheus.CounterVec
	Durations *prometheus.HistogramVec
	Gauges    *prometheus.GaugeVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers it with registry.
// An empty namespace uses DefaultNamespace.
func NewCollector(registry prometheus.Registerer, namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	c := &Collector{
		Counters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sdk_counter_total",
				Help:      "Counters reported by the analytics SDK",
			},
			[]string{"metric"},
		),
		Durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sdk_duration_seconds",
				Help:      "Durations reported by the analytics SDK",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"metric"},
		),
		Gauges: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sdk_gauge",
				Help:      "Gauges reported by the analytics SDK",
			},
			[]string{"metric"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}

	registry.MustRegister(
		c.Counters,
		c.Durations,
		c.Gauges,
		c.HTTPRequestsTotal,
		c.HTTPRequestDuration,
	)

	return c
}

// IncrementCounter implements posthog.Metrics.
func (c *Collector) IncrementCounter(name string, value int64) {
	c.Counters.WithLabelValues(name).Add(float64(value))
}

// RecordDuration implements posthog.Metrics.
func (c *Collector) RecordDuration(name string, d time.Duration) {
	c.Durations.WithLabelValues(name).Observe(d.Seconds())
}

// SetGauge implements posthog.Metrics.
func (c *Collector) SetGauge(name string, value float64) {
	c.Gauges.WithLabelValues(name).Set(value)
}

// Middleware records request counts and latencies.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.HTTPRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
		c.HTTPRequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
