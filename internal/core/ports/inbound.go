package ports

import (
	"context"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
)

// ImageScorer is the inbound contract for single and multi-model scoring.
type ImageScorer interface {
	ScoreImage(ctx context.Context, image domain.Image, opts domain.ScoreOptions) ([]domain.ModelComparisonResult, error)
	CalculateScore(visionData *domain.VisionData, cfg domain.ScoringConfig) (int, error)
}

// ScoreCacheManager clears cached scores.
type ScoreCacheManager interface {
	ClearAll(ctx context.Context) bool
	ClearOne(ctx context.Context, imageKey string) bool
}

// ScoringConfigService manages scoring configs and the single active one.
type ScoringConfigService interface {
	Active(ctx context.Context) (domain.ScoringConfig, error)
	List(ctx context.Context) ([]domain.ScoringConfig, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.ScoringConfig, error)
	Create(ctx context.Context, cfg domain.ScoringConfig) (*domain.ScoringConfig, error)
	Activate(ctx context.Context, id string) (*domain.ScoringConfig, error)
}

// ImageStore keeps uploaded images addressable by their cache key.
type ImageStore interface {
	Upload(ctx context.Context, image domain.Image) (string, error)
	Load(ctx context.Context, imageKey string) (domain.Image, error)
}
