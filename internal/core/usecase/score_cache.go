package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
	"github.com/fintechsquad01/imagescout/internal/core/ports"
)

// ScoreCacheUseCase wraps a cache backend so that no cache failure reaches the scoring path.
type ScoreCacheUseCase struct {
	store   ports.ScoreCacheStore
	logger  ports.ScoringLogger
	metrics ports.ScoringMetrics
	now     func() time.Time
}

func NewScoreCacheUseCase(store ports.ScoreCacheStore, logger ports.ScoringLogger, metrics ports.ScoringMetrics) *ScoreCacheUseCase {
	return &ScoreCacheUseCase{
		store:   store,
		logger:  logger,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the cached entry or nil. A backend error resolves to a miss and is
// additionally recorded as a scoring error attributed to the cache.
func (uc *ScoreCacheUseCase) Get(ctx context.Context, imageKey, modelID string) *domain.ScoreCacheEntry {
	entry, err := uc.store.Get(ctx, imageKey, modelID)
	if err != nil {
		slog.Warn("score_cache_backend_error",
			"operation", "get",
			"image_key", imageKey,
			"model_id", modelID,
			"error", err,
		)
		uc.observe(domain.CacheError)
		uc.logger.LogError(ctx, domain.ScoringErrorEntry{
			Error:   err.Error(),
			ImageID: imageKey,
			ModelID: modelID,
			Context: map[string]any{"source": "score_cache", "operation": "get"},
		})
		uc.logger.LogCacheAccess(ctx, imageKey, modelID, domain.CacheMiss, nil)
		return nil
	}

	if entry == nil {
		uc.observe(domain.CacheMiss)
		uc.logger.LogCacheAccess(ctx, imageKey, modelID, domain.CacheMiss, nil)
		return nil
	}

	score := entry.Score
	uc.observe(domain.CacheHit)
	uc.logger.LogCacheAccess(ctx, imageKey, modelID, domain.CacheHit, &score)
	return entry
}

// Put overwrites the entry for (imageKey, modelID). Failures are logged and reported as false.
func (uc *ScoreCacheUseCase) Put(ctx context.Context, imageKey, modelID string, score int, visionData domain.VisionData) bool {
	if strings.TrimSpace(imageKey) == "" || strings.TrimSpace(modelID) == "" {
		slog.Warn("score_cache_put_skipped", "reason", "empty key", "image_key", imageKey, "model_id", modelID)
		return false
	}

	err := uc.store.Upsert(ctx, domain.ScoreCacheEntry{
		ImageKey:   imageKey,
		ModelID:    modelID,
		Score:      score,
		VisionData: visionData,
		CreatedAt:  uc.now(),
	})
	if err != nil {
		slog.Warn("score_cache_backend_error",
			"operation", "put",
			"image_key", imageKey,
			"model_id", modelID,
			"error", err,
		)
		return false
	}
	return true
}

func (uc *ScoreCacheUseCase) ClearAll(ctx context.Context) bool {
	removed, err := uc.store.DeleteAll(ctx)
	if err != nil {
		slog.Error("score_cache_clear_failed", "scope", "all", "error", err)
		return false
	}
	slog.Info("score_cache_cleared", "scope", "all", "removed", removed)
	return true
}

func (uc *ScoreCacheUseCase) ClearOne(ctx context.Context, imageKey string) bool {
	if strings.TrimSpace(imageKey) == "" {
		return false
	}
	removed, err := uc.store.DeleteByImage(ctx, imageKey)
	if err != nil {
		slog.Error("score_cache_clear_failed", "scope", "image", "image_key", imageKey, "error", err)
		return false
	}
	slog.Info("score_cache_cleared", "scope", "image", "image_key", imageKey, "removed", removed)
	return true
}

func (uc *ScoreCacheUseCase) observe(status domain.CacheAccessStatus) {
	if uc.metrics != nil {
		uc.metrics.RecordCacheLookup(status)
	}
}
