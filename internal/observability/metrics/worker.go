package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry
	service  string

	relayedTotal  *prometheus.CounterVec
	relayDuration *prometheus.HistogramVec
	sweepTotal    *prometheus.CounterVec
	sweepDuration prometheus.Histogram
	sweepRemoved  prometheus.Counter
	retriesTotal  *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	relayedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "telemetry_relayed_total",
			Help:      "Total telemetry records written by kind and status.",
		},
		[]string{"service", "kind", "status"},
	)
	relayDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "telemetry_write_duration_seconds",
			Help:      "Telemetry write duration in seconds by kind.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "kind"},
	)
	sweepTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "cache_sweep_total",
			Help:      "Total cache expiry sweeps by status.",
		},
		[]string{"service", "status"},
	)
	sweepDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "cache_sweep_duration_seconds",
			Help:        "Cache expiry sweep duration in seconds.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	sweepRemoved := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "cache_entries_expired_total",
			Help:        "Total score cache entries removed by sweeps.",
			ConstLabels: prometheus.Labels{"service": service},
		},
	)
	retriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "retries_total",
			Help:      "Total retried calls to external dependencies.",
		},
		[]string{"service", "operation"},
	)

	registry.MustRegister(relayedTotal, relayDuration, sweepTotal, sweepDuration, sweepRemoved, retriesTotal)

	return &WorkerMetrics{
		registry:      registry,
		service:       service,
		relayedTotal:  relayedTotal,
		relayDuration: relayDuration,
		sweepTotal:    sweepTotal,
		sweepDuration: sweepDuration,
		sweepRemoved:  sweepRemoved,
		retriesTotal:  retriesTotal,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) RecordRelay(kind string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.relayedTotal.WithLabelValues(m.service, kind, status).Inc()
	m.relayDuration.WithLabelValues(m.service, kind).Observe(duration.Seconds())
}

func (m *WorkerMetrics) RecordSweep(removed int64, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.sweepTotal.WithLabelValues(m.service, status).Inc()
	m.sweepDuration.Observe(duration.Seconds())
	if removed > 0 {
		m.sweepRemoved.Add(float64(removed))
	}
}

func (m *WorkerMetrics) OnRetry(operation string, _ int, _ error) {
	m.retriesTotal.WithLabelValues(m.service, operation).Inc()
}

func (m *WorkerMetrics) OnBreakerStateChange(string, string, string) {}
