package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	gatherer prometheus.Gatherer

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// Business metrics
	autoFillRuns     prometheus.Counter
	autoFillDays     *prometheus.CounterVec
	autoFillDuration prometheus.Histogram
	imageJobsTotal   *prometheus.CounterVec
	imageJobDuration prometheus.Histogram
	imageQueueDepth  prometheus.Gauge
}

var _ outbound.AutoFillRecorder = (*MetricsCollector)(nil)

// NewMetricsCollector registers the service metrics and the Go runtime
// collectors on a fresh registry
func NewMetricsCollector() *MetricsCollector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &MetricsCollector{
		gatherer: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		httpResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "route"},
		),

		autoFillRuns: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "weekplan_autofill_runs_total",
				Help: "Total number of weekplan auto-fill runs",
			},
		),
		autoFillDays: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weekplan_autofill_days_total",
				Help: "Days considered by auto-fill, by outcome",
			},
			[]string{"outcome"},
		),
		autoFillDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "weekplan_autofill_duration_seconds",
				Help:    "Auto-fill run duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
		imageJobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "image_jobs_total",
				Help: "Image variant jobs, by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		imageJobDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "image_job_duration_seconds",
				Help:    "Image variant job duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		imageQueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "image_queue_depth",
				Help: "Image jobs waiting for a worker",
			},
		),
	}
}

// HTTPMiddleware records request counts, durations and response sizes by
// chi route pattern
func (m *MetricsCollector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		m.httpResponseSize.WithLabelValues(r.Method, route).Observe(float64(ww.BytesWritten()))
	})
}

// RecordAutoFill implements outbound.AutoFillRecorder
func (m *MetricsCollector) RecordAutoFill(filled, unfilled int, duration time.Duration) {
	m.autoFillRuns.Inc()
	m.autoFillDays.WithLabelValues("filled").Add(float64(filled))
	m.autoFillDays.WithLabelValues("unfilled").Add(float64(unfilled))
	m.autoFillDuration.Observe(duration.Seconds())
}

// RecordImageJob counts one finished image job. Outcome is "ok", "failed"
// or "dropped".
func (m *MetricsCollector) RecordImageJob(kind, outcome string, duration time.Duration) {
	m.imageJobsTotal.WithLabelValues(kind, outcome).Inc()
	if outcome != "dropped" {
		m.imageJobDuration.Observe(duration.Seconds())
	}
}

// SetImageQueueDepth reports the number of queued image jobs
func (m *MetricsCollector) SetImageQueueDepth(n int) {
	m.imageQueueDepth.Set(float64(n))
}

// Gatherer exposes the registry, mostly for tests
func (m *MetricsCollector) Gatherer() prometheus.Gatherer {
	return m.gatherer
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
