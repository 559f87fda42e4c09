package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
)

const namespace = "imagescout"

type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	scoreRequestsTotal   *prometheus.CounterVec
	scoreRequestDuration *prometheus.HistogramVec
	modelScoresTotal     *prometheus.CounterVec
	modelScoreDuration   *prometheus.HistogramVec
	cacheLookupsTotal    *prometheus.CounterVec
	retriesTotal         *prometheus.CounterVec
	breakerTransitions   *prometheus.CounterVec
	telemetryDropped     *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	scoreRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "requests_total",
			Help:      "Total score requests by mode and outcome.",
		},
		[]string{"service", "mode", "status"},
	)
	scoreRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "request_duration_seconds",
			Help:      "Score request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"service", "mode"},
	)
	modelScoresTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "model_scores_total",
			Help:      "Total per-model scores by source and outcome.",
		},
		[]string{"service", "model", "source", "status"},
	)
	modelScoreDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "model_score_duration_seconds",
			Help:      "Per-model scoring duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "source"},
	)
	cacheLookupsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "score_cache",
			Name:      "lookups_total",
			Help:      "Total score cache lookups by result.",
		},
		[]string{"service", "result"},
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
	breakerTransitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "breaker_transitions_total",
			Help:      "Circuit breaker state transitions.",
		},
		[]string{"service", "operation", "to"},
	)
	telemetryDropped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "telemetry",
			Name:      "dropped_total",
			Help:      "Telemetry records dropped because the buffer was full or closed.",
		},
		[]string{"service", "kind"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		scoreRequestsTotal,
		scoreRequestDuration,
		modelScoresTotal,
		modelScoreDuration,
		cacheLookupsTotal,
		retriesTotal,
		breakerTransitions,
		telemetryDropped,
	)

	return &HTTPServerMetrics{
		registry:             registry,
		service:              service,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		scoreRequestsTotal:   scoreRequestsTotal,
		scoreRequestDuration: scoreRequestDuration,
		modelScoresTotal:     modelScoresTotal,
		modelScoreDuration:   modelScoreDuration,
		cacheLookupsTotal:    cacheLookupsTotal,
		retriesTotal:         retriesTotal,
		breakerTransitions:   breakerTransitions,
		telemetryDropped:     telemetryDropped,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/cache/"):
		return "/v1/cache/{image_key}"
	case strings.HasPrefix(path, "/v1/configs/") && strings.HasSuffix(path, "/activate"):
		return "/v1/configs/{id}/activate"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordScoreRequest(mode, status string, duration time.Duration) {
	if mode == "" {
		mode = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	m.scoreRequestsTotal.WithLabelValues(m.service, mode, status).Inc()
	m.scoreRequestDuration.WithLabelValues(m.service, mode).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordModelScore(modelID string, cached bool, duration time.Duration, err error) {
	if modelID == "" {
		modelID = "unknown"
	}
	source := "vision"
	if cached {
		source = "cache"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.modelScoresTotal.WithLabelValues(m.service, modelID, source, status).Inc()
	m.modelScoreDuration.WithLabelValues(m.service, source).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordCacheLookup(status domain.CacheAccessStatus) {
	m.cacheLookupsTotal.WithLabelValues(m.service, string(status)).Inc()
}

func (m *HTTPServerMetrics) OnRetry(operation string, _ int, _ error) {
	m.retriesTotal.WithLabelValues(m.service, operation).Inc()
}

func (m *HTTPServerMetrics) OnBreakerStateChange(operation string, _ string, to string) {
	m.breakerTransitions.WithLabelValues(m.service, operation, to).Inc()
}

func (m *HTTPServerMetrics) RecordTelemetryDrop(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.telemetryDropped.WithLabelValues(m.service, kind).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
