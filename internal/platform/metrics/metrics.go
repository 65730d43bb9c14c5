package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the jukebox.
type Metrics struct {
	registry            *prometheus.Registry
	requestsTotal       prometheus.Counter
	errorsTotal         prometheus.Counter
	submissionsTotal    *prometheus.CounterVec
	curationsTotal      *prometheus.CounterVec
	titleFallbacksTotal prometheus.Counter
	searchesTotal       prometheus.Counter
	pendingEntries      prometheus.Gauge
	sseClientsConnected prometheus.Gauge
}

// New creates and registers Prometheus metrics for the jukebox.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jukebox_http_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jukebox_http_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	submissionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jukebox_submissions_total",
		Help: "Submissions by front end and outcome",
	}, []string{"source", "outcome"})
	curationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jukebox_curations_total",
		Help: "Curation decisions by action",
	}, []string{"action"})
	titleFallbacksTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jukebox_title_fallbacks_total",
		Help: "Submissions that fell back to the placeholder title",
	})
	searchesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jukebox_searches_total",
		Help: "Total number of video searches performed",
	})
	pendingEntries := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "jukebox_pending_entries",
		Help: "Number of entries waiting in the queue",
	})
	sseClientsConnected := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "jukebox_sse_clients",
		Help: "Number of connected now-playing stream clients",
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		submissionsTotal,
		curationsTotal,
		titleFallbacksTotal,
		searchesTotal,
		pendingEntries,
		sseClientsConnected,
	)

	return &Metrics{
		registry:            registry,
		requestsTotal:       requestsTotal,
		errorsTotal:         errorsTotal,
		submissionsTotal:    submissionsTotal,
		curationsTotal:      curationsTotal,
		titleFallbacksTotal: titleFallbacksTotal,
		searchesTotal:       searchesTotal,
		pendingEntries:      pendingEntries,
		sseClientsConnected: sseClientsConnected,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// IncSubmissions records a submission from source ("web", "tui") with outcome
// ("accepted", "invalid").
func (m *Metrics) IncSubmissions(source, outcome string) {
	m.submissionsTotal.WithLabelValues(source, outcome).Inc()
}

// IncCurations records a play or reject decision.
func (m *Metrics) IncCurations(action string) {
	m.curationsTotal.WithLabelValues(action).Inc()
}

// IncTitleFallbacks counts submissions queued under the placeholder title.
func (m *Metrics) IncTitleFallbacks() {
	m.titleFallbacksTotal.Inc()
}

// IncSearches increments the video search counter.
func (m *Metrics) IncSearches() {
	m.searchesTotal.Inc()
}

// SetPending sets the pending entries gauge.
func (m *Metrics) SetPending(n int) {
	m.pendingEntries.Set(float64(n))
}

// IncSSEClients records a now-playing stream subscriber connecting.
func (m *Metrics) IncSSEClients() {
	m.sseClientsConnected.Inc()
}

// DecSSEClients records a now-playing stream subscriber leaving.
func (m *Metrics) DecSSEClients() {
	m.sseClientsConnected.Dec()
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values (e.g. pending entries).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	if updateGauges == nil {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		updateGauges()
		h.ServeHTTP(w, r)
	})
}
