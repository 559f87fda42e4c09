package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
	"github.com/fintechsquad01/imagescout/internal/core/ports"
	"github.com/fintechsquad01/imagescout/internal/core/scoring"
)

const defaultCompareConcurrency = 4

// CompareUseCase runs one image against several scoring configs. Each config is scored
// independently and a failure in one never affects the others.
type CompareUseCase struct {
	cache       *ScoreCacheUseCase
	analyzer    ports.VisionAnalyzer
	keyer       ports.ImageKeyer
	logger      ports.ScoringLogger
	metrics     ports.ScoringMetrics
	concurrency int
	devMode     bool
	now         func() time.Time
}

type CompareOptions struct {
	Concurrency int
	// DevMode forces mock analysis and disables cache writes.
	DevMode bool
}

func NewCompareUseCase(
	cache *ScoreCacheUseCase,
	analyzer ports.VisionAnalyzer,
	keyer ports.ImageKeyer,
	logger ports.ScoringLogger,
	metrics ports.ScoringMetrics,
	options CompareOptions,
) *CompareUseCase {
	concurrency := options.Concurrency
	if concurrency <= 0 {
		concurrency = defaultCompareConcurrency
	}
	return &CompareUseCase{
		cache:       cache,
		analyzer:    analyzer,
		keyer:       keyer,
		logger:      logger,
		metrics:     metrics,
		concurrency: concurrency,
		devMode:     options.DevMode,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Compare returns one result per config, in input order.
func (uc *CompareUseCase) Compare(
	ctx context.Context,
	image domain.Image,
	configs []domain.ScoringConfig,
	opts domain.ScoreOptions,
) []domain.ModelComparisonResult {
	results := make([]domain.ModelComparisonResult, len(configs))
	if len(configs) == 0 {
		return results
	}

	imageKey := strings.TrimSpace(opts.ImageKey)
	if imageKey == "" {
		imageKey = uc.keyer.Key(image)
	}

	var g errgroup.Group
	g.SetLimit(workerCount(uc.concurrency, len(configs)))
	for i := range configs {
		g.Go(func() error {
			results[i] = uc.scoreOne(ctx, image, imageKey, configs[i], opts)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (uc *CompareUseCase) scoreOne(
	ctx context.Context,
	image domain.Image,
	imageKey string,
	cfg domain.ScoringConfig,
	opts domain.ScoreOptions,
) (result domain.ModelComparisonResult) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			result = uc.failedResult(ctx, image, imageKey, cfg, opts, fmt.Errorf("panic: %v", rec), time.Since(start))
		}
	}()

	result, err := uc.evaluate(ctx, image, imageKey, cfg, opts)
	elapsed := time.Since(start)
	if err != nil {
		return uc.failedResult(ctx, image, imageKey, cfg, opts, err, elapsed)
	}

	result.ExecutionTimeMs = elapsed.Milliseconds()
	if uc.metrics != nil {
		uc.metrics.RecordModelScore(cfg.ID, result.Cached, elapsed, nil)
	}
	return result
}

func (uc *CompareUseCase) evaluate(
	ctx context.Context,
	image domain.Image,
	imageKey string,
	cfg domain.ScoringConfig,
	opts domain.ScoreOptions,
) (domain.ModelComparisonResult, error) {
	if err := cfg.Validate(); err != nil {
		return domain.ModelComparisonResult{}, err
	}

	if !opts.ForceMock && !opts.SkipCache {
		if entry := uc.cache.Get(ctx, imageKey, cfg.ID); entry != nil {
			result := newResult(cfg, entry.Score, entry.VisionData)
			result.Cached = true
			result.CacheStatus = domain.NewCacheProvenance(cfg.ID, uc.now())
			return result, nil
		}
	}

	mock := opts.ForceMock || uc.devMode
	visionData, err := uc.analyzer.Analyze(ctx, image, domain.AnalyzeOptions{
		Mock:           mock,
		PromptTemplate: cfg.PromptTemplate,
	})
	if err != nil {
		return domain.ModelComparisonResult{}, fmt.Errorf("analyze image: %w", err)
	}
	visionData = visionData.Normalize()

	score := scoring.Calculate(&visionData, cfg.Weights)
	if !mock {
		uc.cache.Put(ctx, imageKey, cfg.ID, score, visionData)
	}

	return newResult(cfg, score, visionData), nil
}

func (uc *CompareUseCase) failedResult(
	ctx context.Context,
	image domain.Image,
	imageKey string,
	cfg domain.ScoringConfig,
	opts domain.ScoreOptions,
	err error,
	elapsed time.Duration,
) domain.ModelComparisonResult {
	message := err.Error()
	slog.Error("model_score_failed",
		"model_id", cfg.ID,
		"image_key", imageKey,
		"file_name", image.Name,
		"error", err,
	)
	uc.logger.LogError(ctx, domain.ScoringErrorEntry{
		Error:   message,
		ImageID: imageKey,
		ModelID: cfg.ID,
		Context: map[string]any{
			"fileName":    image.Name,
			"fileSize":    image.Size,
			"compareMode": opts.CompareModels,
			"temporary":   domain.IsKind(err, domain.ErrTemporary) || errors.Is(err, context.DeadlineExceeded),
		},
	})
	if uc.metrics != nil {
		uc.metrics.RecordModelScore(cfg.ID, false, elapsed, err)
	}

	visionData := domain.UnknownVisionData()
	visionData.Error = message

	result := newResult(cfg, 0, visionData)
	result.ExecutionTimeMs = elapsed.Milliseconds()
	result.Error = message
	return result
}

func newResult(cfg domain.ScoringConfig, score int, visionData domain.VisionData) domain.ModelComparisonResult {
	return domain.ModelComparisonResult{
		ModelID:    cfg.ID,
		ModelName:  cfg.Model,
		Score:      score,
		VisionData: visionData,
		Weights:    cfg.Weights,
		Version:    cfg.DisplayVersion(),
	}
}

func workerCount(limit, tasks int) int {
	return max(min(limit, tasks), 1)
}
