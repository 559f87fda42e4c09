package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fintechsquad01/imagescout/internal/bootstrap"
	"github.com/fintechsquad01/imagescout/internal/config"
	"github.com/fintechsquad01/imagescout/internal/infrastructure/schedule"
	"github.com/fintechsquad01/imagescout/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := bootstrap.NewWorker(ctx, cfg, "worker")
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer w.Close()

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", w.Metrics.Handler())
	mux.HandleFunc("GET /healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
	})
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()

	if w.Sweep != nil {
		sched, err := schedule.StartSweep(ctx, cfg.SweepSchedule, time.Minute, w.Sweep, w.Metrics.RecordSweep)
		if err != nil {
			logger.Error("sweep_schedule_failed", "error", err)
			os.Exit(1)
		}
		defer sched.Stop()
	}

	if w.Relay != nil {
		logger.Info("telemetry_relay_started", "subject", cfg.NATSSubject)
		if err := w.Relay.Relay(ctx, w.Sink); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("telemetry_relay_failed", "error", err)
		}
	} else {
		logger.Info("telemetry_relay_disabled", "telemetry_sink", cfg.TelemetrySink)
		<-ctx.Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
