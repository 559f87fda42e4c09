package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
)

type engineFixture struct {
	store    *cacheStoreFake
	logger   *loggerFake
	metrics  *metricsFake
	analyzer *analyzerFake
	engine   *CompareUseCase
}

func newEngineFixture(options CompareOptions) *engineFixture {
	f := &engineFixture{
		store:    newCacheStoreFake(),
		logger:   &loggerFake{},
		metrics:  newMetricsFake(),
		analyzer: newAnalyzerFake(),
	}
	cache := NewScoreCacheUseCase(f.store, f.logger, f.metrics)
	f.engine = NewCompareUseCase(cache, f.analyzer, keyerFake{}, f.logger, f.metrics, options)
	return f
}

func TestComparePreservesInputOrder(t *testing.T) {
	f := newEngineFixture(CompareOptions{Concurrency: 3})
	f.analyzer.delay["c1"] = 40 * time.Millisecond
	f.analyzer.delay["c2"] = 20 * time.Millisecond

	configs := []domain.ScoringConfig{testConfig("c1"), testConfig("c2"), testConfig("c3")}
	results := f.engine.Compare(context.Background(), testImage(), configs, domain.ScoreOptions{CompareModels: true})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, cfg := range configs {
		if results[i].ModelID != cfg.ID {
			t.Fatalf("results[%d].ModelID = %q, want %q", i, results[i].ModelID, cfg.ID)
		}
		if results[i].ModelName != cfg.Model {
			t.Fatalf("results[%d].ModelName = %q, want %q", i, results[i].ModelName, cfg.Model)
		}
	}
}

func TestCompareIsolatesFailingConfig(t *testing.T) {
	f := newEngineFixture(CompareOptions{Concurrency: 3})
	f.analyzer.fail["c2"] = errors.New("vision provider unavailable")

	configs := []domain.ScoringConfig{testConfig("c1"), testConfig("c2"), testConfig("c3")}
	results := f.engine.Compare(context.Background(), testImage(), configs, domain.ScoreOptions{CompareModels: true})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, idx := range []int{0, 2} {
		if results[idx].Score <= 0 {
			t.Fatalf("results[%d].Score = %d, want > 0", idx, results[idx].Score)
		}
		if results[idx].Cached {
			t.Fatalf("results[%d] should not be cached on first run", idx)
		}
		if results[idx].Failed() {
			t.Fatalf("results[%d] unexpectedly failed: %s", idx, results[idx].Error)
		}
	}

	failed := results[1]
	if failed.Score != 0 || failed.Cached {
		t.Fatalf("unexpected fallback result: %+v", failed)
	}
	if !strings.Contains(failed.VisionData.Error, "vision provider unavailable") {
		t.Fatalf("expected error embedded in vision data, got %q", failed.VisionData.Error)
	}
	if failed.VisionData.Labels == nil || failed.VisionData.SafeSearch.Adult != domain.LikelihoodUnknown {
		t.Fatalf("fallback vision data must be fully shaped: %+v", failed.VisionData)
	}

	if len(f.logger.errors) != 1 {
		t.Fatalf("expected one scoring error entry, got %d", len(f.logger.errors))
	}
	entry := f.logger.errors[0]
	if entry.ModelID != "c2" || entry.ImageID != "key:beach.jpg" {
		t.Fatalf("unexpected error entry: %+v", entry)
	}
	if entry.Context["fileName"] != "beach.jpg" || entry.Context["compareMode"] != true {
		t.Fatalf("unexpected error context: %+v", entry.Context)
	}
}

func TestCompareRecoversFromPanickingConfig(t *testing.T) {
	f := newEngineFixture(CompareOptions{})
	f.analyzer.panics["c1"] = true

	configs := []domain.ScoringConfig{testConfig("c1"), testConfig("c2")}
	results := f.engine.Compare(context.Background(), testImage(), configs, domain.ScoreOptions{CompareModels: true})

	if !results[0].Failed() || !strings.Contains(results[0].Error, "panic") {
		t.Fatalf("expected panic fallback, got %+v", results[0])
	}
	if results[1].Failed() || results[1].Score <= 0 {
		t.Fatalf("expected healthy second result, got %+v", results[1])
	}
}

func TestCompareInvalidConfigFailsOnlyThatConfig(t *testing.T) {
	f := newEngineFixture(CompareOptions{})
	bad := testConfig("bad")
	bad.Weights.MaxScore = 1

	results := f.engine.Compare(context.Background(), testImage(), []domain.ScoringConfig{bad, testConfig("ok")}, domain.ScoreOptions{})
	if !results[0].Failed() {
		t.Fatalf("expected invalid config to fail")
	}
	if results[1].Failed() {
		t.Fatalf("expected valid config to succeed: %s", results[1].Error)
	}
}

func TestCompareReusesCachedScore(t *testing.T) {
	f := newEngineFixture(CompareOptions{})
	cached := domain.VisionData{Labels: []string{"cached"}, Objects: []string{}, Landmarks: []string{}, Colors: []string{}}
	f.store.entries[cacheKey{"key:beach.jpg", "c1"}] = domain.ScoreCacheEntry{
		ImageKey:   "key:beach.jpg",
		ModelID:    "c1",
		Score:      77,
		VisionData: cached,
	}

	results := f.engine.Compare(context.Background(), testImage(), []domain.ScoringConfig{testConfig("c1"), testConfig("c2")}, domain.ScoreOptions{CompareModels: true})

	hit := results[0]
	if !hit.Cached || hit.Score != 77 || hit.VisionData.Labels[0] != "cached" {
		t.Fatalf("expected cache hit result, got %+v", hit)
	}
	if hit.CacheStatus == nil || !hit.CacheStatus.FromCache || hit.CacheStatus.CacheKey != "cache_c1" {
		t.Fatalf("unexpected cache status: %+v", hit.CacheStatus)
	}
	if got := hit.CacheStatus.ExpiresAt.Sub(hit.CacheStatus.CacheDate); got != 24*time.Hour {
		t.Fatalf("expiresAt offset = %v, want 24h", got)
	}

	miss := results[1]
	if miss.Cached || miss.CacheStatus != nil {
		t.Fatalf("fresh result must not carry cache status: %+v", miss)
	}
	if got := f.analyzer.callCount(); got != 1 {
		t.Fatalf("expected analyzer to run only for the miss, got %d calls", got)
	}
}

func TestCompareUsesCallerImageKey(t *testing.T) {
	f := newEngineFixture(CompareOptions{})
	f.store.entries[cacheKey{"stored-key", "c1"}] = domain.ScoreCacheEntry{ImageKey: "stored-key", ModelID: "c1", Score: 64}

	results := f.engine.Compare(context.Background(), testImage(), []domain.ScoringConfig{testConfig("c1")}, domain.ScoreOptions{ImageKey: " stored-key "})

	if len(results) != 1 || !results[0].Cached || results[0].Score != 64 {
		t.Fatalf("expected hit under caller key, got %+v", results)
	}
	if got := f.analyzer.callCount(); got != 0 {
		t.Fatalf("expected no analyzer calls, got %d", got)
	}
	if _, ok := f.store.entries[cacheKey{"key:beach.jpg", "c1"}]; ok {
		t.Fatalf("derived key must not be used when the caller supplies one")
	}
}

func TestCompareWritesFreshScoresBack(t *testing.T) {
	f := newEngineFixture(CompareOptions{})
	configs := []domain.ScoringConfig{testConfig("c1")}

	first := f.engine.Compare(context.Background(), testImage(), configs, domain.ScoreOptions{})
	if first[0].Cached {
		t.Fatalf("first run should be a miss")
	}
	if f.store.len() != 1 {
		t.Fatalf("expected fresh score to be cached, store has %d entries", f.store.len())
	}

	second := f.engine.Compare(context.Background(), testImage(), configs, domain.ScoreOptions{})
	if !second[0].Cached || second[0].Score != first[0].Score {
		t.Fatalf("expected cached replay of %d, got %+v", first[0].Score, second[0])
	}
	if got := f.analyzer.callCount(); got != 1 {
		t.Fatalf("expected one analysis, got %d", got)
	}
}

func TestCompareForceMockBypassesCache(t *testing.T) {
	f := newEngineFixture(CompareOptions{})
	f.store.entries[cacheKey{"key:beach.jpg", "c1"}] = domain.ScoreCacheEntry{ImageKey: "key:beach.jpg", ModelID: "c1", Score: 99}

	results := f.engine.Compare(context.Background(), testImage(), []domain.ScoringConfig{testConfig("c1")}, domain.ScoreOptions{ForceMock: true})

	if results[0].Cached || results[0].Score == 99 {
		t.Fatalf("force mock must not read the cache: %+v", results[0])
	}
	if f.store.gets != 0 || f.store.upserts != 0 {
		t.Fatalf("force mock touched the cache: gets=%d upserts=%d", f.store.gets, f.store.upserts)
	}
	if !f.analyzer.calls[0].opts.Mock {
		t.Fatalf("expected mock analysis")
	}
}

func TestCompareDevModeSkipsCacheWrites(t *testing.T) {
	f := newEngineFixture(CompareOptions{DevMode: true})

	results := f.engine.Compare(context.Background(), testImage(), []domain.ScoringConfig{testConfig("c1")}, domain.ScoreOptions{})
	if results[0].Failed() {
		t.Fatalf("unexpected failure: %s", results[0].Error)
	}
	if f.store.gets != 1 {
		t.Fatalf("expected cache lookup in dev mode, got %d", f.store.gets)
	}
	if f.store.upserts != 0 {
		t.Fatalf("dev mode must not write to the cache")
	}
	if !f.analyzer.calls[0].opts.Mock {
		t.Fatalf("dev mode must analyze with the mock provider")
	}
}

func TestCompareTreatsCacheBackendErrorAsMiss(t *testing.T) {
	f := newEngineFixture(CompareOptions{})
	f.store.getErr = errors.New("connection refused")

	results := f.engine.Compare(context.Background(), testImage(), []domain.ScoringConfig{testConfig("c1")}, domain.ScoreOptions{})

	if results[0].Failed() || results[0].Cached || results[0].Score <= 0 {
		t.Fatalf("expected fresh score after backend error, got %+v", results[0])
	}
	if len(f.logger.accesses) != 1 || f.logger.accesses[0].status != domain.CacheMiss {
		t.Fatalf("expected one miss access record, got %+v", f.logger.accesses)
	}
	if len(f.logger.errors) != 1 || f.logger.errors[0].Context["source"] != "score_cache" {
		t.Fatalf("expected distinct cache backend error entry, got %+v", f.logger.errors)
	}
	if f.metrics.lookups[domain.CacheError] != 1 {
		t.Fatalf("expected backend error lookup metric, got %+v", f.metrics.lookups)
	}
}

func TestCompareEmptyConfigList(t *testing.T) {
	f := newEngineFixture(CompareOptions{})
	results := f.engine.Compare(context.Background(), testImage(), nil, domain.ScoreOptions{})
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}
