package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OutcomeCompleted labels requests whose stream reached the terminator.
const OutcomeCompleted = "COMPLETED"

// OutcomeAborted labels requests that failed after headers were committed.
const OutcomeAborted = "ABORTED"

// Metrics holds the relay collectors on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	deltas          *prometheus.CounterVec
	malformed       *prometheus.CounterVec
}

// NewMetrics creates and registers the relay collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "affirmrelay_requests_total",
				Help: "Generation requests by provider and outcome code",
			},
			[]string{"provider", "outcome"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "affirmrelay_request_duration_seconds",
				Help:    "Time from request receipt to the end of the response",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "outcome"},
		),
		deltas: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "affirmrelay_stream_deltas_total",
				Help: "Text deltas forwarded to clients",
			},
			[]string{"provider"},
		),
		malformed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "affirmrelay_stream_malformed_lines_total",
				Help: "Upstream stream lines dropped because they never parsed",
			},
			[]string{"provider"},
		),
	}

	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.deltas,
		m.malformed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveRequest records the outcome of one generation request.
func (m *Metrics) ObserveRequest(provider, outcome string, d time.Duration) {
	m.requests.WithLabelValues(provider, outcome).Inc()
	m.requestDuration.WithLabelValues(provider, outcome).Observe(d.Seconds())
}

// AddDeltas counts forwarded deltas.
func (m *Metrics) AddDeltas(provider string, n int) {
	m.deltas.WithLabelValues(provider).Add(float64(n))
}

// IncMalformed counts a dropped upstream line.
func (m *Metrics) IncMalformed(provider string) {
	m.malformed.WithLabelValues(provider).Inc()
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
