package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fintechsquad01/imagescout/internal/core/ports"
)

// CacheSweepUseCase removes cache entries older than maxAge. It runs on its own schedule
// and is never invoked from cache reads or writes.
type CacheSweepUseCase struct {
	store  ports.ScoreCacheStore
	maxAge time.Duration
	now    func() time.Time
}

func NewCacheSweepUseCase(store ports.ScoreCacheStore, maxAge time.Duration) *CacheSweepUseCase {
	return &CacheSweepUseCase{
		store:  store,
		maxAge: maxAge,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (uc *CacheSweepUseCase) Sweep(ctx context.Context) (int64, error) {
	if uc.maxAge <= 0 {
		return 0, nil
	}
	cutoff := uc.now().Add(-uc.maxAge)
	removed, err := uc.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep score cache: %w", err)
	}
	slog.Info("score_cache_swept", "cutoff", cutoff, "removed", removed)
	return removed, nil
}
