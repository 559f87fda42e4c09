package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
	"github.com/fintechsquad01/imagescout/internal/core/ports"
)

type ScoringConfigUseCase struct {
	repo ports.ScoringConfigRepository
	now  func() time.Time
}

func NewScoringConfigUseCase(repo ports.ScoringConfigRepository) *ScoringConfigUseCase {
	return &ScoringConfigUseCase{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Active returns the active config, or the built-in default when none is active or the
// store cannot be read.
func (uc *ScoringConfigUseCase) Active(ctx context.Context) (domain.ScoringConfig, error) {
	cfg, err := uc.repo.GetActive(ctx)
	if err != nil {
		if !domain.IsKind(err, domain.ErrConfigNotFound) {
			slog.Warn("active_scoring_config_unavailable", "error", err)
		}
		return domain.DefaultScoringConfig(), nil
	}
	return *cfg, nil
}

func (uc *ScoringConfigUseCase) List(ctx context.Context) ([]domain.ScoringConfig, error) {
	configs, err := uc.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list scoring configs: %w", err)
	}
	return configs, nil
}

// GetByIDs returns the requested configs in request order. Unknown ids yield ErrConfigNotFound.
func (uc *ScoringConfigUseCase) GetByIDs(ctx context.Context, ids []string) ([]domain.ScoringConfig, error) {
	wanted := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		wanted = append(wanted, id)
	}
	if len(wanted) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get scoring configs", errors.New("at least one id is required"))
	}

	found, err := uc.repo.GetByIDs(ctx, wanted)
	if err != nil {
		return nil, fmt.Errorf("get scoring configs: %w", err)
	}
	byID := make(map[string]domain.ScoringConfig, len(found))
	for _, cfg := range found {
		byID[cfg.ID] = cfg
	}

	out := make([]domain.ScoringConfig, 0, len(wanted))
	for _, id := range wanted {
		cfg, ok := byID[id]
		if !ok {
			return nil, domain.WrapError(domain.ErrConfigNotFound, "get scoring configs", fmt.Errorf("id %q", id))
		}
		out = append(out, cfg)
	}
	return out, nil
}

// Create stores a new inactive config. Activation goes through Activate only.
func (uc *ScoringConfigUseCase) Create(ctx context.Context, cfg domain.ScoringConfig) (*domain.ScoringConfig, error) {
	if strings.TrimSpace(cfg.ID) == "" {
		cfg.ID = uuid.NewString()
	}
	if strings.TrimSpace(cfg.Version) == "" {
		cfg.Version = domain.DefaultConfigVersion
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := uc.now()
	cfg.IsActive = false
	cfg.CreatedAt = now
	cfg.UpdatedAt = now
	if err := uc.repo.Create(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("create scoring config: %w", err)
	}
	return &cfg, nil
}

// Activate makes id the only active config and verifies that afterwards.
func (uc *ScoringConfigUseCase) Activate(ctx context.Context, id string) (*domain.ScoringConfig, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "activate scoring config", errors.New("id is required"))
	}

	cfg, err := uc.repo.Activate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("activate scoring config: %w", err)
	}

	active, err := uc.repo.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("verify active scoring config: %w", err)
	}
	if active != 1 {
		return nil, fmt.Errorf("verify active scoring config: expected exactly one active config, found %d", active)
	}

	slog.Info("scoring_config_activated", "id", cfg.ID, "model", cfg.Model, "version", cfg.Version)
	return cfg, nil
}

// Seed upserts configs loaded at startup. The first seed marked active is activated
// only when no config is active yet.
func (uc *ScoringConfigUseCase) Seed(ctx context.Context, seeds []domain.ScoringConfig) error {
	var activate string
	now := uc.now()
	for i := range seeds {
		seed := seeds[i]
		if err := seed.Validate(); err != nil {
			return err
		}
		if seed.IsActive && activate == "" {
			activate = seed.ID
		}
		seed.IsActive = false
		seed.CreatedAt = now
		seed.UpdatedAt = now
		if err := uc.repo.Save(ctx, &seed); err != nil {
			return fmt.Errorf("seed scoring config %s: %w", seed.ID, err)
		}
	}

	if activate == "" {
		return nil
	}
	count, err := uc.repo.CountActive(ctx)
	if err != nil {
		return fmt.Errorf("seed scoring configs: %w", err)
	}
	if count > 0 {
		return nil
	}
	_, err = uc.Activate(ctx, activate)
	return err
}
