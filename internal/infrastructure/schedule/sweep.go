// Package schedule runs the periodic score cache expiry sweep.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// SweepObserver receives the outcome of each sweep run.
type SweepObserver func(removed int64, duration time.Duration, err error)

type Scheduler struct {
	cron *cron.Cron
}

// StartSweep runs sweeper on spec (standard 5-field cron or @every/@hourly descriptors).
// Overlapping runs are skipped. Each run is bounded by timeout.
func StartSweep(ctx context.Context, spec string, timeout time.Duration, sweeper Sweeper, observe SweepObserver) (*Scheduler, error) {
	logger := slogLogger{}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	if _, err := c.AddFunc(spec, SweepJob(ctx, timeout, sweeper, observe)); err != nil {
		return nil, fmt.Errorf("schedule cache sweep %q: %w", spec, err)
	}
	c.Start()
	slog.Info("cache_sweep_scheduled", "schedule", spec)
	return &Scheduler{cron: c}, nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// SweepJob returns the body of one scheduled run.
func SweepJob(ctx context.Context, timeout time.Duration, sweeper Sweeper, observe SweepObserver) func() {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return func() {
		if ctx.Err() != nil {
			return
		}
		runCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		start := time.Now()
		removed, err := sweeper.Sweep(runCtx)
		if err != nil {
			slog.Error("cache_sweep_failed", "error", err)
		}
		if observe != nil {
			observe(removed, time.Since(start), err)
		}
	}
}

type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron_"+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron_"+msg, append(keysAndValues, "error", err)...)
}
