package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
)

func (rt *Router) clearCache(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": rt.cache.ClearAll(r.Context())})
}

func (rt *Router) clearImageCache(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("image_key")
	if key == "" {
		writeError(w, r, http.StatusBadRequest, "image key is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": rt.cache.ClearOne(r.Context(), key)})
}

func (rt *Router) listConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := rt.configs.List(r.Context())
	if err != nil {
		writeDomainError(w, r, "list configs", err)
		return
	}
	if configs == nil {
		configs = []domain.ScoringConfig{}
	}
	writeJSON(w, http.StatusOK, configs)
}

func (rt *Router) createConfig(w http.ResponseWriter, r *http.Request) {
	var cfg domain.ScoringConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	created, err := rt.configs.Create(r.Context(), cfg)
	if err != nil {
		writeDomainError(w, r, "create config", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (rt *Router) activeConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := rt.configs.Active(r.Context())
	if err != nil {
		writeDomainError(w, r, "active config", err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (rt *Router) activateConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := rt.configs.Activate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, "activate config", err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (rt *Router) telemetryStats(w http.ResponseWriter, r *http.Request) {
	if rt.stats == nil {
		writeError(w, r, http.StatusServiceUnavailable, "telemetry stats are not available")
		return
	}

	var (
		filter domain.StatsFilter
		since  string
	)
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "project_id", q, &filter.ProjectID); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "since", q, &since); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "include_test", q, &filter.IncludeTest); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if since != "" {
		parsed, err := time.Parse(time.RFC3339, since)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = parsed
	}

	stats, err := rt.stats.Stats(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, "telemetry stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
