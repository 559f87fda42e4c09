package httpadapter

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/fintechsquad01/imagescout/internal/config"
	"github.com/fintechsquad01/imagescout/internal/core/domain"
)

type scorerFake struct {
	gotImage domain.Image
	gotOpts  domain.ScoreOptions
	results  []domain.ModelComparisonResult
	err      error
	calcCfg  domain.ScoringConfig
}

func (f *scorerFake) ScoreImage(_ context.Context, image domain.Image, opts domain.ScoreOptions) ([]domain.ModelComparisonResult, error) {
	f.gotImage = image
	f.gotOpts = opts
	return f.results, f.err
}

func (f *scorerFake) CalculateScore(_ *domain.VisionData, cfg domain.ScoringConfig) (int, error) {
	f.calcCfg = cfg
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	return 42, nil
}

type cacheManagerFake struct {
	clearedAll bool
	clearedKey string
}

func (f *cacheManagerFake) ClearAll(context.Context) bool {
	f.clearedAll = true
	return true
}

func (f *cacheManagerFake) ClearOne(_ context.Context, key string) bool {
	f.clearedKey = key
	return true
}

type configServiceFake struct {
	configs map[string]domain.ScoringConfig
	order   []string
	active  string
}

func newConfigServiceFake(configs ...domain.ScoringConfig) *configServiceFake {
	f := &configServiceFake{configs: map[string]domain.ScoringConfig{}}
	for _, c := range configs {
		f.configs[c.ID] = c
		f.order = append(f.order, c.ID)
	}
	return f
}

func (f *configServiceFake) Active(context.Context) (domain.ScoringConfig, error) {
	if c, ok := f.configs[f.active]; ok {
		return c, nil
	}
	return domain.DefaultScoringConfig(), nil
}

func (f *configServiceFake) List(context.Context) ([]domain.ScoringConfig, error) {
	out := make([]domain.ScoringConfig, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.configs[id])
	}
	return out, nil
}

func (f *configServiceFake) GetByIDs(_ context.Context, ids []string) ([]domain.ScoringConfig, error) {
	out := make([]domain.ScoringConfig, 0, len(ids))
	for _, id := range ids {
		c, ok := f.configs[id]
		if !ok {
			return nil, domain.WrapError(domain.ErrConfigNotFound, "get configs", errors.New(id))
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *configServiceFake) Create(_ context.Context, cfg domain.ScoringConfig) (*domain.ScoringConfig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, ok := f.configs[cfg.ID]; ok {
		return nil, domain.WrapError(domain.ErrDuplicate, "create config", errors.New(cfg.ID))
	}
	f.configs[cfg.ID] = cfg
	f.order = append(f.order, cfg.ID)
	return &cfg, nil
}

func (f *configServiceFake) Activate(_ context.Context, id string) (*domain.ScoringConfig, error) {
	c, ok := f.configs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrConfigNotFound, "activate config", errors.New(id))
	}
	f.active = id
	c.IsActive = true
	return &c, nil
}

type imageStoreFake struct {
	images map[string]domain.Image
}

func (f *imageStoreFake) Upload(_ context.Context, image domain.Image) (string, error) {
	if len(image.Data) == 0 {
		return "", domain.WrapError(domain.ErrInvalidInput, "upload", errors.New("empty"))
	}
	key := "key-" + image.Name
	f.images[key] = image
	return key, nil
}

func (f *imageStoreFake) Load(_ context.Context, key string) (domain.Image, error) {
	image, ok := f.images[key]
	if !ok {
		return domain.Image{}, domain.WrapError(domain.ErrImageNotFound, "load", errors.New(key))
	}
	return image, nil
}

type keyerFake struct{}

func (keyerFake) Key(image domain.Image) string { return "hash-" + image.Name }

type statsFake struct {
	got domain.StatsFilter
}

func (f *statsFake) Stats(_ context.Context, filter domain.StatsFilter) (domain.ScoringStats, error) {
	f.got = filter
	return domain.ScoringStats{TotalScores: 3, SuccessRate: 1}, nil
}

type testDeps struct {
	scorer  *scorerFake
	cache   *cacheManagerFake
	configs *configServiceFake
	images  *imageStoreFake
	stats   *statsFake
}

func newTestDeps() testDeps {
	return testDeps{
		scorer: &scorerFake{results: []domain.ModelComparisonResult{{ModelID: "default", Score: 22}}},
		cache:  &cacheManagerFake{},
		configs: newConfigServiceFake(
			domain.ScoringConfig{ID: "cfg-a", Model: "google", Weights: domain.DefaultWeights()},
			domain.ScoringConfig{ID: "cfg-b", Model: "ollama", Weights: domain.DefaultWeights()},
		),
		images: &imageStoreFake{images: map[string]domain.Image{}},
		stats:  &statsFake{},
	}
}

func newTestHandler(t *testing.T, cfg config.Config, d testDeps) http.Handler {
	t.Helper()
	cfg.OpenAPIValidation = true
	handler, err := NewRouter(cfg, Dependencies{
		Scorer:  d.scorer,
		Cache:   d.cache,
		Configs: d.configs,
		Images:  d.images,
		Keyer:   keyerFake{},
		Stats:   d.stats,
	}).Handler(context.Background())
	if err != nil {
		t.Fatalf("Handler() error = %v", err)
	}
	return handler
}
