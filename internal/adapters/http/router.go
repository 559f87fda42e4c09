package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/fintechsquad01/imagescout/internal/config"
	"github.com/fintechsquad01/imagescout/internal/core/ports"
	"github.com/fintechsquad01/imagescout/internal/observability/metrics"
)

// Dependencies are the inbound services the router exposes. Keyer, Stats and Metrics are optional.
type Dependencies struct {
	Scorer  ports.ImageScorer
	Cache   ports.ScoreCacheManager
	Configs ports.ScoringConfigService
	Images  ports.ImageStore
	Keyer   ports.ImageKeyer
	Stats   ports.TelemetryStatsReader
	Metrics *metrics.HTTPServerMetrics
}

type Router struct {
	scorer  ports.ImageScorer
	cache   ports.ScoreCacheManager
	configs ports.ScoringConfigService
	images  ports.ImageStore
	keyer   ports.ImageKeyer
	stats   ports.TelemetryStatsReader
	metrics *metrics.HTTPServerMetrics

	maxUploadBytes   int64
	rateLimitRPS     float64
	rateLimitBurst   int
	maxInFlight      int
	backpressureWait time.Duration
	validateRequests bool
}

func NewRouter(cfg config.Config, deps Dependencies) *Router {
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 20 << 20
	}
	return &Router{
		scorer:  deps.Scorer,
		cache:   deps.Cache,
		configs: deps.Configs,
		images:  deps.Images,
		keyer:   deps.Keyer,
		stats:   deps.Stats,
		metrics: deps.Metrics,

		maxUploadBytes:   maxUpload,
		rateLimitRPS:     cfg.APIRateLimitRPS,
		rateLimitBurst:   cfg.APIRateLimitBurst,
		maxInFlight:      cfg.APIMaxInFlight,
		backpressureWait: cfg.APIBackpressure,
		validateRequests: cfg.OpenAPIValidation,
	}
}

// Handler assembles the mux and middleware chain. It fails only if the embedded contract is broken.
func (rt *Router) Handler(ctx context.Context) (http.Handler, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	mux.HandleFunc("POST /v1/images", rt.uploadImage)
	mux.HandleFunc("POST /v1/score", rt.scoreImage)
	mux.HandleFunc("POST /v1/score/export", rt.exportScore)
	mux.HandleFunc("POST /v1/score/calculate", rt.calculateScore)
	mux.HandleFunc("DELETE /v1/cache", rt.clearCache)
	mux.HandleFunc("DELETE /v1/cache/{image_key}", rt.clearImageCache)
	mux.HandleFunc("GET /v1/configs", rt.listConfigs)
	mux.HandleFunc("POST /v1/configs", rt.createConfig)
	mux.HandleFunc("GET /v1/configs/active", rt.activeConfig)
	mux.HandleFunc("POST /v1/configs/{id}/activate", rt.activateConfig)
	mux.HandleFunc("GET /v1/telemetry/stats", rt.telemetryStats)

	var handler http.Handler = recoverMiddleware(mux)
	if rt.validateRequests {
		router, err := loadOpenAPI(ctx)
		if err != nil {
			return nil, err
		}
		handler = openAPIValidationMiddleware(router, handler)
	}
	handler = backpressureMiddleware(handler, rt.maxInFlight, rt.backpressureWait)
	handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler), nil
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error":      message,
		"request_id": requestIDFromContext(r.Context()),
	})
}

func writeDomainError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("http_handler_failed",
			"request_id", requestIDFromContext(r.Context()),
			"operation", op,
			"status", status,
			"error", err,
		)
	}
	writeError(w, r, status, err.Error())
}
