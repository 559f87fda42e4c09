package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
)

type ScoreCacheRepository struct {
	db *sql.DB
}

func NewScoreCacheRepository(db *sql.DB) *ScoreCacheRepository {
	return &ScoreCacheRepository{db: db}
}

func (r *ScoreCacheRepository) Get(ctx context.Context, imageKey, modelID string) (*domain.ScoreCacheEntry, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT image_hash, model_id, score, vision_data, created_at
FROM score_cache
WHERE image_hash = $1 AND model_id = $2
`, imageKey, modelID)

	var entry domain.ScoreCacheEntry
	var visionRaw []byte
	if err := row.Scan(&entry.ImageKey, &entry.ModelID, &entry.Score, &visionRaw, &entry.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan score cache entry: %w", err)
	}
	if err := json.Unmarshal(visionRaw, &entry.VisionData); err != nil {
		return nil, fmt.Errorf("unmarshal vision data: %w", err)
	}
	return &entry, nil
}

func (r *ScoreCacheRepository) Upsert(ctx context.Context, entry domain.ScoreCacheEntry) error {
	visionJSON, err := json.Marshal(entry.VisionData)
	if err != nil {
		return fmt.Errorf("marshal vision data: %w", err)
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO score_cache (image_hash, model_id, score, vision_data, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (image_hash, model_id) DO UPDATE
SET score = EXCLUDED.score, vision_data = EXCLUDED.vision_data, created_at = EXCLUDED.created_at
`, entry.ImageKey, entry.ModelID, entry.Score, visionJSON, createdAt)
	if err != nil {
		return fmt.Errorf("upsert score cache entry: %w", err)
	}
	return nil
}

func (r *ScoreCacheRepository) DeleteAll(ctx context.Context) (int64, error) {
	return r.exec(ctx, "clear score cache", `DELETE FROM score_cache`)
}

func (r *ScoreCacheRepository) DeleteByImage(ctx context.Context, imageKey string) (int64, error) {
	return r.exec(ctx, "clear score cache image", `DELETE FROM score_cache WHERE image_hash = $1`, imageKey)
}

func (r *ScoreCacheRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.exec(ctx, "sweep score cache", `DELETE FROM score_cache WHERE created_at < $1`, cutoff)
}

func (r *ScoreCacheRepository) exec(ctx context.Context, op, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s rows affected: %w", op, err)
	}
	return affected, nil
}
