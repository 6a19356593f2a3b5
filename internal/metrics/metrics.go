package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	insightsTotal      *prometheus.CounterVec
	insightDuration    prometheus.Histogram
	upstreamFetches    *prometheus.CounterVec
	upstreamDuration   *prometheus.HistogramVec
	generationsTotal   *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	archiveWrites      *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.insightsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_requests_total",
			Help: "Total number of insight requests by outcome",
		},
		[]string{"outcome"},
	)
	r.insightDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "insight_request_duration_seconds",
			Help:    "End-to-end insight duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 45, 60},
		},
	)
	r.upstreamFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_upstream_fetches_total",
			Help: "Total number of market data fetches by source",
		},
		[]string{"source", "status"},
	)
	r.upstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "insight_upstream_fetch_duration_seconds",
			Help:    "Market data fetch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)
	r.generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_generations_total",
			Help: "Total number of narrative generations",
		},
		[]string{"provider", "status"},
	)
	r.generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "insight_generation_duration_seconds",
			Help:    "Narrative generation duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider"},
	)
	r.archiveWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_archive_writes_total",
			Help: "Total number of transcript archive writes",
		},
		[]string{"status"},
	)

	reg.MustRegister(r.insightsTotal)
	reg.MustRegister(r.insightDuration)
	reg.MustRegister(r.upstreamFetches)
	reg.MustRegister(r.upstreamDuration)
	reg.MustRegister(r.generationsTotal)
	reg.MustRegister(r.generationDuration)
	reg.MustRegister(r.archiveWrites)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordInsight records a finished insight request.
func (r *Registry) RecordInsight(outcome string, duration float64) {
	r.insightsTotal.WithLabelValues(outcome).Inc()
	r.insightDuration.Observe(duration)
}

// RecordFetch records one upstream market data call.
func (r *Registry) RecordFetch(source string, ok bool, duration float64) {
	r.upstreamFetches.WithLabelValues(source, okString(ok)).Inc()
	r.upstreamDuration.WithLabelValues(source).Observe(duration)
}

// RecordGeneration records one model call.
func (r *Registry) RecordGeneration(provider string, ok bool, duration float64) {
	r.generationsTotal.WithLabelValues(provider, okString(ok)).Inc()
	r.generationDuration.WithLabelValues(provider).Observe(duration)
}

// RecordArchive records a transcript archive write.
func (r *Registry) RecordArchive(ok bool) {
	r.archiveWrites.WithLabelValues(okString(ok)).Inc()
}

func okString(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
