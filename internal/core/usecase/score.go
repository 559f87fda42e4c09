package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
	"github.com/fintechsquad01/imagescout/internal/core/ports"
	"github.com/fintechsquad01/imagescout/internal/core/scoring"
)

const (
	DefaultScoreTimeout = 30 * time.Second

	modeSingle  = "single"
	modeCompare = "compare"
)

type ScoreImageUseCase struct {
	engine  *CompareUseCase
	configs ports.ScoringConfigService
	logger  ports.ScoringLogger
	metrics ports.ScoringMetrics
	timeout time.Duration
	devMode bool
}

func NewScoreImageUseCase(
	engine *CompareUseCase,
	configs ports.ScoringConfigService,
	logger ports.ScoringLogger,
	metrics ports.ScoringMetrics,
	timeout time.Duration,
) *ScoreImageUseCase {
	if timeout <= 0 {
		timeout = DefaultScoreTimeout
	}
	return &ScoreImageUseCase{
		engine:  engine,
		configs: configs,
		logger:  logger,
		metrics: metrics,
		timeout: timeout,
		devMode: engine.devMode,
	}
}

// ScoreImage scores image under the requested configs. Only invalid input and the
// global timeout are returned as errors; per-model failures are embedded in the results.
// On timeout a single zeroed result is returned together with ErrTimeout.
func (uc *ScoreImageUseCase) ScoreImage(
	ctx context.Context,
	image domain.Image,
	opts domain.ScoreOptions,
) ([]domain.ModelComparisonResult, error) {
	if len(image.Data) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "score image", errors.New("no file provided for scoring"))
	}
	if image.Size <= 0 {
		image.Size = int64(len(image.Data))
	}

	configs, err := uc.resolveConfigs(ctx, opts)
	if err != nil {
		return nil, err
	}

	mode := modeSingle
	if opts.CompareModels {
		mode = modeCompare
	}

	start := time.Now()
	done := make(chan []domain.ModelComparisonResult, 1)
	workCtx := context.WithoutCancel(ctx)
	go func() {
		done <- uc.engine.Compare(workCtx, image, configs, opts)
	}()

	timer := time.NewTimer(uc.timeout)
	defer timer.Stop()

	select {
	case results := <-done:
		elapsed := time.Since(start)
		uc.recordOutcome(ctx, image, opts, results, elapsed)
		uc.observe(mode, outcomeStatus(results), elapsed)
		return results, nil
	case <-timer.C:
		elapsed := time.Since(start)
		message := fmt.Sprintf("scoring timed out after %s", uc.timeout)
		slog.Error("score_image_timeout",
			"image", image.Name,
			"mode", mode,
			"models", modelLabel(configs),
			"timeout", uc.timeout.String(),
		)
		uc.logger.LogFailure(ctx, uc.event(image, opts, modelLabel(configs), elapsed, message))
		uc.observe(mode, "timeout", elapsed)
		return []domain.ModelComparisonResult{timeoutResult(message, elapsed)}, domain.WrapError(domain.ErrTimeout, "score image", errors.New(message))
	case <-ctx.Done():
		uc.observe(mode, "canceled", time.Since(start))
		return nil, ctx.Err()
	}
}

// CalculateScore scores existing vision data under cfg without analysis.
func (uc *ScoreImageUseCase) CalculateScore(visionData *domain.VisionData, cfg domain.ScoringConfig) (int, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	return scoring.Calculate(visionData, cfg.Weights), nil
}

func (uc *ScoreImageUseCase) resolveConfigs(ctx context.Context, opts domain.ScoreOptions) ([]domain.ScoringConfig, error) {
	var configs []domain.ScoringConfig
	switch {
	case opts.CompareModels:
		if len(opts.ModelsToCompare) == 0 {
			return nil, domain.WrapError(domain.ErrInvalidInput, "score image", errors.New("compare mode requires at least one model"))
		}
		configs = opts.ModelsToCompare
	case len(opts.ModelsToCompare) > 0:
		configs = opts.ModelsToCompare[:1]
	default:
		active, err := uc.configs.Active(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve active scoring config: %w", err)
		}
		configs = []domain.ScoringConfig{active}
	}

	for i := range configs {
		if err := configs[i].Validate(); err != nil {
			return nil, err
		}
	}
	return configs, nil
}

func (uc *ScoreImageUseCase) recordOutcome(
	ctx context.Context,
	image domain.Image,
	opts domain.ScoreOptions,
	results []domain.ModelComparisonResult,
	elapsed time.Duration,
) {
	for _, result := range results {
		event := uc.event(image, opts, result.ModelName, time.Duration(result.ExecutionTimeMs)*time.Millisecond, result.Error)
		if result.Failed() {
			uc.logger.LogFailure(ctx, event)
			continue
		}
		uc.logger.LogSuccess(ctx, event)
	}
	slog.Info("score_image_completed",
		"image", image.Name,
		"models", len(results),
		"status", outcomeStatus(results),
		"duration_ms", float64(elapsed.Microseconds())/1000.0,
	)
}

func (uc *ScoreImageUseCase) event(image domain.Image, opts domain.ScoreOptions, model string, elapsed time.Duration, errMessage string) domain.ScoreEvent {
	status := domain.ScoreEventSuccess
	if errMessage != "" {
		status = domain.ScoreEventFailure
	}
	return domain.ScoreEvent{
		ImageName:      image.Name,
		ImageSize:      image.Size,
		ProjectID:      opts.ProjectID,
		UserID:         opts.UserID,
		ModelName:      model,
		ResponseTimeMs: elapsed.Milliseconds(),
		IsMock:         opts.ForceMock || uc.devMode,
		IsTest:         opts.IsTest,
		Status:         status,
		ErrorMessage:   errMessage,
	}
}

func (uc *ScoreImageUseCase) observe(mode, status string, elapsed time.Duration) {
	if uc.metrics != nil {
		uc.metrics.RecordScoreRequest(mode, status, elapsed)
	}
}

func outcomeStatus(results []domain.ModelComparisonResult) string {
	failed := 0
	for _, result := range results {
		if result.Failed() {
			failed++
		}
	}
	switch {
	case failed == 0:
		return "ok"
	case failed == len(results):
		return "failed"
	default:
		return "partial"
	}
}

func timeoutResult(message string, elapsed time.Duration) domain.ModelComparisonResult {
	visionData := domain.UnknownVisionData()
	visionData.Error = message
	return domain.ModelComparisonResult{
		ModelID:         "timeout",
		ModelName:       "timeout",
		Score:           0,
		VisionData:      visionData,
		Weights:         domain.Weights{},
		Version:         domain.DefaultConfigVersion,
		ExecutionTimeMs: elapsed.Milliseconds(),
		Error:           message,
	}
}

// modelLabel names a run in logs and telemetry.
func modelLabel(configs []domain.ScoringConfig) string {
	if len(configs) == 1 {
		return configs[0].ID
	}
	return "compare:" + strconv.Itoa(len(configs))
}
