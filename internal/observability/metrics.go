// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "aprscope"

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	registry *prometheus.Registry

	// Backend metrics
	BackendRequests *prometheus.CounterVec
	BackendLatency  *prometheus.HistogramVec

	// Health metrics
	BackendHealthy  prometheus.Gauge
	LastHealthCheck prometheus.Gauge

	// Archive metrics
	ArchivePointsStored *prometheus.CounterVec
	ArchiveRuns         *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance on its own registry, with Go and process collectors attached.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = defaultNamespace
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		BackendRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Total number of backend requests by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		BackendLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Backend request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),

		BackendHealthy: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "backend_healthy",
			Help:      "1 if the last backend health check passed, 0 otherwise",
		}),
		LastHealthCheck: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_check_timestamp_seconds",
			Help:      "Unix timestamp of the last completed health check",
		}),

		ArchivePointsStored: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "points_stored_total",
			Help:      "Total number of APR points written by sink",
		}, []string{"sink"}),
		ArchiveRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "runs_total",
			Help:      "Total number of archive runs by status",
		}, []string{"status"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every metric to path in the text exposition format, for one-shot commands
// whose metrics are collected by a node exporter textfile directory.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// ObserveRequest records one backend request.
func (m *Metrics) ObserveRequest(endpoint, outcome string, elapsed time.Duration) {
	m.BackendRequests.WithLabelValues(endpoint, outcome).Inc()
	m.BackendLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// SetBackendHealthy records a health check result.
func (m *Metrics) SetBackendHealthy(healthy bool) {
	if healthy {
		m.BackendHealthy.Set(1)
	} else {
		m.BackendHealthy.Set(0)
	}
	m.LastHealthCheck.SetToCurrentTime()
}

// RecordStored counts points written to a sink.
func (m *Metrics) RecordStored(sink string, n int) {
	m.ArchivePointsStored.WithLabelValues(sink).Add(float64(n))
}

// RecordRun counts a finished archive run.
func (m *Metrics) RecordRun(status string) {
	m.ArchiveRuns.WithLabelValues(status).Inc()
}
