package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
)

// TelemetryRepository writes scoring_logs, score_cache_logs and scoring_errors.
type TelemetryRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewTelemetryRepository(db *sql.DB) *TelemetryRepository {
	return &TelemetryRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *TelemetryRepository) RecordScoreEvent(ctx context.Context, event domain.ScoreEvent) error {
	id, createdAt := r.identity(event.ID, event.CreatedAt)
	_, err := r.db.ExecContext(ctx, `
INSERT INTO scoring_logs (
	id, image_name, image_size, project_id, user_id, model_name, response_time_ms,
	is_mock, is_test, retry_count, status, error_message, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO NOTHING
`,
		id, event.ImageName, event.ImageSize, event.ProjectID, event.UserID, event.ModelName, event.ResponseTimeMs,
		event.IsMock, event.IsTest, event.RetryCount, string(event.Status), event.ErrorMessage, createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert scoring log: %w", err)
	}
	return nil
}

func (r *TelemetryRepository) RecordCacheAccess(ctx context.Context, entry domain.CacheAccessLog) error {
	id, createdAt := r.identity(entry.ID, entry.CreatedAt)
	var score sql.NullInt64
	if entry.Score != nil {
		score = sql.NullInt64{Int64: int64(*entry.Score), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO score_cache_logs (id, image_hash, model_id, status, score, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO NOTHING
`, id, entry.ImageKey, entry.ModelID, string(entry.Status), score, createdAt)
	if err != nil {
		return fmt.Errorf("insert score cache log: %w", err)
	}
	return nil
}

func (r *TelemetryRepository) RecordScoringError(ctx context.Context, entry domain.ScoringErrorEntry) error {
	id, createdAt := r.identity(entry.ID, entry.CreatedAt)
	contextJSON := []byte("{}")
	if len(entry.Context) > 0 {
		raw, err := json.Marshal(entry.Context)
		if err != nil {
			return fmt.Errorf("marshal error context: %w", err)
		}
		contextJSON = raw
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO scoring_errors (id, error_message, image_id, model_id, context, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO NOTHING
`, id, entry.Error, entry.ImageID, entry.ModelID, contextJSON, createdAt)
	if err != nil {
		return fmt.Errorf("insert scoring error: %w", err)
	}
	return nil
}

// Stats aggregates scoring_logs and score_cache_logs since filter.Since.
// Rates are fractions in [0, 1]; MockPercentage is in [0, 100].
func (r *TelemetryRepository) Stats(ctx context.Context, filter domain.StatsFilter) (domain.ScoringStats, error) {
	var stats domain.ScoringStats

	err := r.db.QueryRowContext(ctx, `
SELECT
	COUNT(*),
	COALESCE(AVG(CASE WHEN status = 'success' THEN 1.0 ELSE 0.0 END), 0),
	COALESCE(AVG(response_time_ms), 0),
	COALESCE(AVG(CASE WHEN is_mock THEN 100.0 ELSE 0.0 END), 0)
FROM scoring_logs
WHERE created_at >= $1
	AND ($2 = '' OR project_id = $2)
	AND ($3 OR NOT is_test)
`, filter.Since, filter.ProjectID, filter.IncludeTest).Scan(
		&stats.TotalScores, &stats.SuccessRate, &stats.AvgResponseTimeMs, &stats.MockPercentage,
	)
	if err != nil {
		return domain.ScoringStats{}, fmt.Errorf("aggregate scoring logs: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
SELECT
	COUNT(*),
	COALESCE(AVG(CASE WHEN status = 'hit' THEN 1.0 ELSE 0.0 END), 0),
	(SELECT COUNT(*) FROM scoring_errors WHERE created_at >= $1 AND context->>'source' = 'score_cache')
FROM score_cache_logs
WHERE created_at >= $1
`, filter.Since).Scan(&stats.CacheLookups, &stats.CacheHitRatio, &stats.CacheBackendError)
	if err != nil {
		return domain.ScoringStats{}, fmt.Errorf("aggregate score cache logs: %w", err)
	}

	return stats, nil
}

func (r *TelemetryRepository) identity(id string, createdAt time.Time) (string, time.Time) {
	if id == "" {
		id = uuid.NewString()
	}
	if createdAt.IsZero() {
		createdAt = r.now()
	}
	return id, createdAt
}
