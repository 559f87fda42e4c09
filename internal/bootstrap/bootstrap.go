package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fintechsquad01/imagescout/internal/config"
	"github.com/fintechsquad01/imagescout/internal/core/ports"
	"github.com/fintechsquad01/imagescout/internal/core/usecase"
	"github.com/fintechsquad01/imagescout/internal/infrastructure/cache/memory"
	"github.com/fintechsquad01/imagescout/internal/infrastructure/imagekey"
	"github.com/fintechsquad01/imagescout/internal/infrastructure/queue/nats"
	"github.com/fintechsquad01/imagescout/internal/infrastructure/repository/postgres"
	"github.com/fintechsquad01/imagescout/internal/infrastructure/resilience"
	"github.com/fintechsquad01/imagescout/internal/infrastructure/schedule"
	"github.com/fintechsquad01/imagescout/internal/infrastructure/storage/localfs"
	"github.com/fintechsquad01/imagescout/internal/infrastructure/telemetry"
	"github.com/fintechsquad01/imagescout/internal/infrastructure/vision"
	"github.com/fintechsquad01/imagescout/internal/infrastructure/vision/google"
	"github.com/fintechsquad01/imagescout/internal/infrastructure/vision/mock"
	"github.com/fintechsquad01/imagescout/internal/infrastructure/vision/ollama"
	"github.com/fintechsquad01/imagescout/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Metrics *metrics.HTTPServerMetrics

	ScoreUC  *usecase.ScoreImageUseCase
	CacheUC  *usecase.ScoreCacheUseCase
	ConfigUC *usecase.ScoringConfigUseCase
	ImagesUC *usecase.ImageStoreUseCase
	Keyer    ports.ImageKeyer
	Stats    ports.TelemetryStatsReader

	closers []func()
}

// New wires the scoring service. service names the process in logs and metrics.
func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	app := &App{Config: cfg, Metrics: metrics.NewHTTPServerMetrics(service)}
	ready := false
	defer func() {
		if !ready {
			app.Close()
		}
	}()

	if cfg.AutoMigrate {
		if err := postgres.MigrateUp(cfg.PostgresDSN); err != nil {
			return nil, fmt.Errorf("migrate schema: %w", err)
		}
	}
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	app.onClose(func() { _ = db.Close() })

	executor := resilience.NewExecutor(resilience.DefaultConfig()).WithObserver(app.Metrics)
	warnRetryBudget(cfg, resilience.DefaultConfig())

	keyer, err := imagekey.New(cfg.ImageKeyStrategy)
	if err != nil {
		return nil, err
	}
	app.Keyer = keyer

	sink, err := app.telemetrySink(cfg, db)
	if err != nil {
		return nil, err
	}
	dispatcher := telemetry.NewDispatcher(sink, telemetry.Options{
		BufferSize: cfg.TelemetryBufferSize,
		Workers:    cfg.TelemetryWorkers,
		OnDrop:     app.Metrics.RecordTelemetryDrop,
	})
	app.onClose(func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := dispatcher.Close(closeCtx); err != nil {
			slog.Warn("telemetry_flush_incomplete", "error", err, "dropped", dispatcher.Dropped())
		}
	})

	store, err := app.cacheStore(ctx, cfg, db)
	if err != nil {
		return nil, err
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init image storage: %w", err)
	}

	configRepo := postgres.NewScoringConfigRepository(db)
	app.ConfigUC = usecase.NewScoringConfigUseCase(configRepo)
	if err := seedConfigs(ctx, cfg, app.ConfigUC); err != nil {
		return nil, err
	}

	analyzer := vision.New(cfg.VisionProvider, visionProvider(cfg, executor), mock.New())
	app.CacheUC = usecase.NewScoreCacheUseCase(store, dispatcher, app.Metrics)
	engine := usecase.NewCompareUseCase(app.CacheUC, analyzer, keyer, dispatcher, app.Metrics, usecase.CompareOptions{
		Concurrency: cfg.CompareConcurrency,
		DevMode:     cfg.DevMode,
	})
	app.ScoreUC = usecase.NewScoreImageUseCase(engine, app.ConfigUC, dispatcher, app.Metrics, cfg.ScoreTimeout)
	app.ImagesUC = usecase.NewImageStoreUseCase(storage, keyer)
	app.Stats = postgres.NewTelemetryRepository(db)

	slog.Info("bootstrap_ready",
		"vision_provider", cfg.VisionProvider,
		"cache_backend", cfg.CacheBackend,
		"telemetry_sink", cfg.TelemetrySink,
		"image_key_strategy", cfg.ImageKeyStrategy,
		"dev_mode", cfg.DevMode,
	)
	ready = true
	return app, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

func (a *App) telemetrySink(cfg config.Config, db *sql.DB) (ports.TelemetrySink, error) {
	switch strings.ToLower(cfg.TelemetrySink) {
	case "nats":
		executor := resilience.NewExecutor(resilience.QueueConfig()).WithObserver(a.Metrics)
		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{ResilienceExecutor: executor})
		if err != nil {
			return nil, fmt.Errorf("init telemetry queue: %w", err)
		}
		a.onClose(queue.Close)
		return queue, nil
	case "postgres":
		return postgres.NewTelemetryRepository(db), nil
	case "log":
		return telemetry.NewLogSink(slog.Default()), nil
	default:
		return nil, fmt.Errorf("unknown telemetry sink %q", cfg.TelemetrySink)
	}
}

// cacheStore picks the score cache backend. When expiry is enabled the memory backend is swept
// in-process because the worker cannot reach it.
func (a *App) cacheStore(ctx context.Context, cfg config.Config, db *sql.DB) (ports.ScoreCacheStore, error) {
	switch strings.ToLower(cfg.CacheBackend) {
	case "postgres":
		return postgres.NewScoreCacheRepository(db), nil
	case "memory":
		store := memory.New()
		if cfg.CacheMaxAge <= 0 {
			return store, nil
		}
		sweep := usecase.NewCacheSweepUseCase(store, cfg.CacheMaxAge)
		scheduler, err := schedule.StartSweep(ctx, cfg.SweepSchedule, time.Minute, sweep, nil)
		if err != nil {
			return nil, err
		}
		a.onClose(scheduler.Stop)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}

func visionProvider(cfg config.Config, executor *resilience.Executor) ports.VisionAnalyzer {
	switch strings.ToLower(cfg.VisionProvider) {
	case "google":
		if cfg.GoogleVisionAPIKey == "" {
			slog.Warn("vision_provider_unconfigured", "provider", "google", "fallback", "mock")
			return nil
		}
		return google.New(google.Options{
			Endpoint:          cfg.GoogleVisionURL,
			APIKey:            cfg.GoogleVisionAPIKey,
			Timeout:           cfg.VisionTimeout,
			RequestsPerSecond: cfg.VisionRPS,
			Burst:             cfg.VisionBurst,
			Executor:          executor,
		})
	case "ollama":
		return ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaVisionModel, ollama.Options{
			Timeout:  cfg.OllamaVisionTimeout,
			Executor: executor,
		})
	default:
		return nil
	}
}

func seedConfigs(ctx context.Context, cfg config.Config, uc *usecase.ScoringConfigUseCase) error {
	seeds, err := config.LoadSeeds(cfg.ConfigSeedsPath)
	if err != nil {
		return err
	}
	if len(seeds) == 0 {
		return nil
	}
	if err := uc.Seed(ctx, seeds); err != nil {
		return fmt.Errorf("seed scoring configs: %w", err)
	}
	slog.Info("scoring_configs_seeded", "count", len(seeds), "path", cfg.ConfigSeedsPath)
	return nil
}

func warnRetryBudget(cfg config.Config, policy resilience.Config) {
	worst := cfg.VisionTimeout*time.Duration(max(policy.RetryMaxAttempts, 1)) + policy.MaxRetryWait()
	if cfg.ScoreTimeout > 0 && worst > cfg.ScoreTimeout {
		slog.Warn("vision_retry_budget_exceeds_score_timeout",
			"worst_case", worst.String(),
			"score_timeout", cfg.ScoreTimeout.String(),
		)
	}
}
