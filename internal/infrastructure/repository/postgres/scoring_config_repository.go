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

const scoringConfigColumns = `id, model, version, weights, prompt_template, is_active, created_at, updated_at`

type ScoringConfigRepository struct {
	db *sql.DB
}

func NewScoringConfigRepository(db *sql.DB) *ScoringConfigRepository {
	return &ScoringConfigRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScoringConfig(row rowScanner) (domain.ScoringConfig, error) {
	var cfg domain.ScoringConfig
	var weightsRaw []byte
	if err := row.Scan(&cfg.ID, &cfg.Model, &cfg.Version, &weightsRaw, &cfg.PromptTemplate, &cfg.IsActive, &cfg.CreatedAt, &cfg.UpdatedAt); err != nil {
		return domain.ScoringConfig{}, err
	}
	if err := json.Unmarshal(weightsRaw, &cfg.Weights); err != nil {
		return domain.ScoringConfig{}, fmt.Errorf("unmarshal weights: %w", err)
	}
	return cfg, nil
}

func (r *ScoringConfigRepository) Create(ctx context.Context, cfg *domain.ScoringConfig) error {
	weightsJSON, err := json.Marshal(cfg.Weights)
	if err != nil {
		return fmt.Errorf("marshal weights: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO scoring_configs (`+scoringConfigColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, cfg.ID, cfg.Model, cfg.Version, weightsJSON, cfg.PromptTemplate, cfg.IsActive, cfg.CreatedAt, cfg.UpdatedAt)
	if err != nil {
		if errors.Is(MapError(err, nil, domain.ErrDuplicate), domain.ErrDuplicate) {
			return domain.WrapError(domain.ErrDuplicate, "create scoring config "+cfg.ID, err)
		}
		return fmt.Errorf("insert scoring config: %w", err)
	}
	return nil
}

// Save upserts cfg without touching the stored activation flag, which it copies back into cfg.
func (r *ScoringConfigRepository) Save(ctx context.Context, cfg *domain.ScoringConfig) error {
	weightsJSON, err := json.Marshal(cfg.Weights)
	if err != nil {
		return fmt.Errorf("marshal weights: %w", err)
	}
	now := time.Now().UTC()

	row := r.db.QueryRowContext(ctx, `
INSERT INTO scoring_configs (`+scoringConfigColumns+`)
VALUES ($1, $2, $3, $4, $5, FALSE, $6, $6)
ON CONFLICT (id) DO UPDATE
SET model = EXCLUDED.model, version = EXCLUDED.version, weights = EXCLUDED.weights,
	prompt_template = EXCLUDED.prompt_template, updated_at = EXCLUDED.updated_at
RETURNING is_active, created_at, updated_at
`, cfg.ID, cfg.Model, cfg.Version, weightsJSON, cfg.PromptTemplate, now)
	if err := row.Scan(&cfg.IsActive, &cfg.CreatedAt, &cfg.UpdatedAt); err != nil {
		return fmt.Errorf("save scoring config %s: %w", cfg.ID, err)
	}
	return nil
}

func (r *ScoringConfigRepository) GetByID(ctx context.Context, id string) (*domain.ScoringConfig, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+scoringConfigColumns+` FROM scoring_configs WHERE id = $1`, id)
	cfg, err := scanScoringConfig(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrConfigNotFound, "get scoring config", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan scoring config: %w", err)
	}
	return &cfg, nil
}

// GetByIDs returns the configs that exist, in no particular order.
func (r *ScoringConfigRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.ScoringConfig, error) {
	if len(ids) == 0 {
		return []domain.ScoringConfig{}, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return r.query(ctx, `SELECT `+scoringConfigColumns+` FROM scoring_configs WHERE id IN (`+placeholders(1, len(ids))+`)`, args...)
}

func (r *ScoringConfigRepository) List(ctx context.Context) ([]domain.ScoringConfig, error) {
	return r.query(ctx, `SELECT `+scoringConfigColumns+` FROM scoring_configs ORDER BY created_at DESC, id`)
}

func (r *ScoringConfigRepository) GetActive(ctx context.Context) (*domain.ScoringConfig, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+scoringConfigColumns+` FROM scoring_configs WHERE is_active LIMIT 1`)
	cfg, err := scanScoringConfig(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrConfigNotFound, "get active scoring config", errors.New("no active config"))
		}
		return nil, fmt.Errorf("scan active scoring config: %w", err)
	}
	return &cfg, nil
}

// Activate makes id the only active config inside one transaction.
func (r *ScoringConfigRepository) Activate(ctx context.Context, id string) (*domain.ScoringConfig, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin activate tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
UPDATE scoring_configs SET is_active = FALSE, updated_at = $1
WHERE is_active AND id <> $2
`, now, id); err != nil {
		return nil, fmt.Errorf("deactivate scoring configs: %w", err)
	}

	row := tx.QueryRowContext(ctx, `
UPDATE scoring_configs SET is_active = TRUE, updated_at = $1
WHERE id = $2
RETURNING `+scoringConfigColumns, now, id)
	cfg, err := scanScoringConfig(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrConfigNotFound, "activate scoring config", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("activate scoring config: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit activate tx: %w", err)
	}
	return &cfg, nil
}

func (r *ScoringConfigRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scoring_configs WHERE is_active`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active scoring configs: %w", err)
	}
	return n, nil
}

func (r *ScoringConfigRepository) query(ctx context.Context, query string, args ...any) ([]domain.ScoringConfig, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scoring configs: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ScoringConfig, 0)
	for rows.Next() {
		cfg, err := scanScoringConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scoring config: %w", err)
		}
		out = append(out, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scoring configs: %w", err)
	}
	return out, nil
}
