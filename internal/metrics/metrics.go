// Package metrics provides Prometheus metrics for SearchME.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "searchme"

// Metrics holds all Prometheus metrics for SearchME.
type Metrics struct {
	// Search metrics
	SearchRequestsTotal *prometheus.CounterVec
	SearchResults       prometheus.Histogram

	// Registry metrics
	RegistryRequestDuration *prometheus.HistogramVec

	// Dialog metrics
	DialogDispatchTotal *prometheus.CounterVec

	// Bot metrics
	InvokesTotal     *prometheus.CounterVec
	RateLimitedTotal prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates a Metrics instance registered with reg. A nil reg uses a fresh
// private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		SearchRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total number of messaging extension search queries by outcome.",
		}, []string{"outcome"}),
		SearchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of cards returned per search.",
			Buckets:   prometheus.LinearBuckets(0, 1, 10),
		}),
		RegistryRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "registry_request_duration_seconds",
			Help:      "Package registry search latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		DialogDispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialog_dispatch_total",
			Help:      "Total number of task module dispatches.",
		}, []string{"trigger", "phase", "kind"}),
		InvokesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invokes_total",
			Help:      "Total number of invoke activities by name and response status.",
		}, []string{"name", "status"}),
		RateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Invoke activities rejected by the per-user rate limiter.",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.SearchRequestsTotal,
		m.SearchResults,
		m.RegistryRequestDuration,
		m.DialogDispatchTotal,
		m.InvokesTotal,
		m.RateLimitedTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

// Handler returns the Prometheus HTTP handler for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordSearch records the outcome of one search and the number of cards.
func (m *Metrics) RecordSearch(outcome string, results int) {
	m.SearchRequestsTotal.WithLabelValues(outcome).Inc()
	if results >= 0 {
		m.SearchResults.Observe(float64(results))
	}
}

// RecordRegistryRequest records the latency of one upstream call. A status of
// 0 means the request never produced a response.
func (m *Metrics) RecordRegistryRequest(status int, seconds float64) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.RegistryRequestDuration.WithLabelValues(label).Observe(seconds)
}

// RecordDispatch records one dialog dispatch.
func (m *Metrics) RecordDispatch(trigger, phase, kind string) {
	m.DialogDispatchTotal.WithLabelValues(trigger, phase, kind).Inc()
}

// RecordInvoke records one invoke activity and the status returned for it.
func (m *Metrics) RecordInvoke(name string, status int) {
	m.InvokesTotal.WithLabelValues(name, strconv.Itoa(status)).Inc()
}

// RecordRateLimited records one rejected invoke.
func (m *Metrics) RecordRateLimited() {
	m.RateLimitedTotal.Inc()
}

// RecordHTTPRequest records an HTTP request metric.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}
