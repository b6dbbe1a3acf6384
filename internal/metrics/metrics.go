// Package metrics holds the Prometheus collectors for outbound fetches and
// source bucket probes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nextimage_env"

// Metrics owns a private registry so tests and multiple instances do not
// collide on the global one. A nil *Metrics discards observations.
type Metrics struct {
	registry      *prometheus.Registry
	fetchRequests *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	probes        *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Outbound fetches by method and outcome.",
		}, []string{"method", "outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Outbound fetch latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bucket_probes_total",
			Help:      "Source bucket probes by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.fetchRequests,
		m.fetchDuration,
		m.probes,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveFetch records one outbound fetch.
func (m *Metrics) ObserveFetch(method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.fetchRequests.WithLabelValues(method, outcome).Inc()
	m.fetchDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// CountFetch records a fetch that never reached the network, leaving the
// latency histogram untouched.
func (m *Metrics) CountFetch(method, outcome string) {
	if m == nil {
		return
	}
	m.fetchRequests.WithLabelValues(method, outcome).Inc()
}

// ObserveProbe records one bucket probe.
func (m *Metrics) ObserveProbe(outcome string) {
	if m == nil {
		return
	}
	m.probes.WithLabelValues(outcome).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// FetchCount returns the number of fetches recorded for method and outcome.
func (m *Metrics) FetchCount(method, outcome string) float64 {
	if m == nil {
		return 0
	}
	return counterValue(m.fetchRequests.WithLabelValues(method, outcome))
}

// ProbeCount returns the number of probes recorded for outcome.
func (m *Metrics) ProbeCount(outcome string) float64 {
	if m == nil {
		return 0
	}
	return counterValue(m.probes.WithLabelValues(outcome))
}

// FetchLatencySamples returns the number of latency samples for method.
func (m *Metrics) FetchLatencySamples(method string) uint64 {
	if m == nil {
		return 0
	}
	h, ok := m.fetchDuration.WithLabelValues(method).(prometheus.Histogram)
	if !ok {
		return 0
	}
	return histogramCount(h)
}
