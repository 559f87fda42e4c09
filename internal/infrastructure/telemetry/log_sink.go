package telemetry

import (
	"context"
	"log/slog"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
)

// LogSink writes telemetry records as structured log lines only.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) RecordScoreEvent(ctx context.Context, e domain.ScoreEvent) error {
	level := slog.LevelInfo
	if e.Status == domain.ScoreEventFailure {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "scoring_log",
		"id", e.ID,
		"image_name", e.ImageName,
		"image_size", e.ImageSize,
		"project_id", e.ProjectID,
		"model_name", e.ModelName,
		"response_time_ms", e.ResponseTimeMs,
		"is_mock", e.IsMock,
		"is_test", e.IsTest,
		"status", string(e.Status),
		"error", e.ErrorMessage,
	)
	return nil
}

func (s *LogSink) RecordCacheAccess(ctx context.Context, e domain.CacheAccessLog) error {
	attrs := []any{"image_key", e.ImageKey, "model_id", e.ModelID, "status", string(e.Status)}
	if e.Score != nil {
		attrs = append(attrs, "score", *e.Score)
	}
	s.logger.DebugContext(ctx, "score_cache_access", attrs...)
	return nil
}

func (s *LogSink) RecordScoringError(ctx context.Context, e domain.ScoringErrorEntry) error {
	s.logger.ErrorContext(ctx, "scoring_error",
		"id", e.ID,
		"image_id", e.ImageID,
		"model_id", e.ModelID,
		"error", e.Error,
		"context", e.Context,
	)
	return nil
}
