package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/fintechsquad01/imagescout/internal/config"
	"github.com/fintechsquad01/imagescout/internal/core/ports"
	"github.com/fintechsquad01/imagescout/internal/core/usecase"
	"github.com/fintechsquad01/imagescout/internal/infrastructure/queue/nats"
	"github.com/fintechsquad01/imagescout/internal/infrastructure/repository/postgres"
	"github.com/fintechsquad01/imagescout/internal/infrastructure/resilience"
	"github.com/fintechsquad01/imagescout/internal/infrastructure/telemetry"
	"github.com/fintechsquad01/imagescout/internal/observability/metrics"
)

// Worker holds the background side of the service: the telemetry relay and the cache sweep.
// Relay is nil unless telemetry travels over NATS. Sweep is nil unless the cache lives in PostgreSQL
// and CACHE_MAX_AGE enables expiry.
type Worker struct {
	Config  config.Config
	Metrics *metrics.WorkerMetrics

	Relay ports.TelemetryRelay
	Sink  ports.TelemetrySink
	Sweep *usecase.CacheSweepUseCase

	closers []func()
}

func NewWorker(_ context.Context, cfg config.Config, service string) (*Worker, error) {
	w := &Worker{Config: cfg, Metrics: metrics.NewWorkerMetrics(service)}
	ready := false
	defer func() {
		if !ready {
			w.Close()
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
	w.closers = append(w.closers, func() { _ = db.Close() })

	w.Sink = telemetry.NewInstrumentedSink(postgres.NewTelemetryRepository(db), w.Metrics.RecordRelay)

	if strings.EqualFold(cfg.TelemetrySink, "nats") {
		executor := resilience.NewExecutor(resilience.QueueConfig()).WithObserver(w.Metrics)
		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{ResilienceExecutor: executor})
		if err != nil {
			return nil, fmt.Errorf("init telemetry queue: %w", err)
		}
		w.closers = append(w.closers, queue.Close)
		w.Relay = queue
	}

	if strings.EqualFold(cfg.CacheBackend, "postgres") && cfg.CacheMaxAge > 0 {
		w.Sweep = usecase.NewCacheSweepUseCase(postgres.NewScoreCacheRepository(db), cfg.CacheMaxAge)
	}

	ready = true
	return w, nil
}

func (w *Worker) Close() {
	for i := len(w.closers) - 1; i >= 0; i-- {
		w.closers[i]()
	}
	w.closers = nil
}
