package ports

import (
	"context"
	"io"
	"time"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
)

// VisionAnalyzer turns an image into vision data. Returned data is always fully shaped, even with an error.
type VisionAnalyzer interface {
	Analyze(ctx context.Context, image domain.Image, opts domain.AnalyzeOptions) (domain.VisionData, error)
}

// ImageKeyer derives the stable cache key of an image.
type ImageKeyer interface {
	Key(image domain.Image) string
}

// ScoreCacheStore is the backing store for cached scores. Get returns nil, nil when absent.
type ScoreCacheStore interface {
	Get(ctx context.Context, imageKey, modelID string) (*domain.ScoreCacheEntry, error)
	Upsert(ctx context.Context, entry domain.ScoreCacheEntry) error
	DeleteAll(ctx context.Context) (int64, error)
	DeleteByImage(ctx context.Context, imageKey string) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// TelemetrySink persists telemetry rows.
type TelemetrySink interface {
	RecordScoreEvent(ctx context.Context, event domain.ScoreEvent) error
	RecordCacheAccess(ctx context.Context, entry domain.CacheAccessLog) error
	RecordScoringError(ctx context.Context, entry domain.ScoringErrorEntry) error
}

// TelemetryStatsReader aggregates persisted telemetry.
type TelemetryStatsReader interface {
	Stats(ctx context.Context, filter domain.StatsFilter) (domain.ScoringStats, error)
}

// TelemetryRelay forwards queued telemetry into a sink until ctx is done.
type TelemetryRelay interface {
	Relay(ctx context.Context, sink TelemetrySink) error
}

// ScoringLogger is the fire-and-forget telemetry capability of the scoring path.
type ScoringLogger interface {
	LogSuccess(ctx context.Context, event domain.ScoreEvent)
	LogFailure(ctx context.Context, event domain.ScoreEvent)
	LogCacheAccess(ctx context.Context, imageKey, modelID string, status domain.CacheAccessStatus, score *int)
	LogError(ctx context.Context, entry domain.ScoringErrorEntry)
}

// ScoringConfigRepository persists scoring configs.
type ScoringConfigRepository interface {
	Create(ctx context.Context, cfg *domain.ScoringConfig) error
	Save(ctx context.Context, cfg *domain.ScoringConfig) error
	GetByID(ctx context.Context, id string) (*domain.ScoringConfig, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.ScoringConfig, error)
	List(ctx context.Context) ([]domain.ScoringConfig, error)
	GetActive(ctx context.Context) (*domain.ScoringConfig, error)
	Activate(ctx context.Context, id string) (*domain.ScoringConfig, error)
	CountActive(ctx context.Context) (int, error)
}

// ObjectStorage stores uploaded image bytes.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ScoringMetrics observes the scoring path.
type ScoringMetrics interface {
	RecordCacheLookup(status domain.CacheAccessStatus)
	RecordModelScore(modelID string, cached bool, duration time.Duration, err error)
	RecordScoreRequest(mode, status string, duration time.Duration)
}
