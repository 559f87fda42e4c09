// Package telemetry delivers scoring telemetry to a sink without blocking the scoring path.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
	"github.com/fintechsquad01/imagescout/internal/core/ports"
)

const (
	defaultBufferSize   = 1024
	defaultWorkers      = 2
	defaultWriteTimeout = 5 * time.Second
)

type Options struct {
	BufferSize   int
	Workers      int
	WriteTimeout time.Duration
	// OnDrop is called with the record kind whenever the buffer is full or closed.
	OnDrop func(kind string)
}

type job struct {
	kind  string
	write func(ctx context.Context) error
}

// Dispatcher implements ports.ScoringLogger over a TelemetrySink. Records are queued in a
// bounded buffer and written by background workers; a full buffer drops the record.
type Dispatcher struct {
	sink         ports.TelemetrySink
	jobs         chan job
	writeTimeout time.Duration
	onDrop       func(kind string)
	now          func() time.Time

	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	dropped atomic.Int64
}

func NewDispatcher(sink ports.TelemetrySink, options Options) *Dispatcher {
	bufferSize := options.BufferSize
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	workers := options.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	writeTimeout := options.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}

	d := &Dispatcher{
		sink:         sink,
		jobs:         make(chan job, bufferSize),
		writeTimeout: writeTimeout,
		onDrop:       options.OnDrop,
		now:          func() time.Time { return time.Now().UTC() },
	}
	d.wg.Add(workers)
	for range workers {
		go d.run()
	}
	return d
}

func (d *Dispatcher) LogSuccess(_ context.Context, event domain.ScoreEvent) {
	event.Status = domain.ScoreEventSuccess
	d.logScoreEvent(event)
}

func (d *Dispatcher) LogFailure(_ context.Context, event domain.ScoreEvent) {
	event.Status = domain.ScoreEventFailure
	d.logScoreEvent(event)
}

func (d *Dispatcher) logScoreEvent(event domain.ScoreEvent) {
	event.ID, event.CreatedAt = d.identity(event.ID, event.CreatedAt)
	d.enqueue(job{kind: KindScore, write: func(ctx context.Context) error {
		return d.sink.RecordScoreEvent(ctx, event)
	}})
}

func (d *Dispatcher) LogCacheAccess(_ context.Context, imageKey, modelID string, status domain.CacheAccessStatus, score *int) {
	entry := domain.CacheAccessLog{ImageKey: imageKey, ModelID: modelID, Status: status}
	if score != nil {
		s := *score
		entry.Score = &s
	}
	entry.ID, entry.CreatedAt = d.identity("", time.Time{})
	d.enqueue(job{kind: KindCacheAccess, write: func(ctx context.Context) error {
		return d.sink.RecordCacheAccess(ctx, entry)
	}})
}

func (d *Dispatcher) LogError(_ context.Context, entry domain.ScoringErrorEntry) {
	entry.ID, entry.CreatedAt = d.identity(entry.ID, entry.CreatedAt)
	d.enqueue(job{kind: KindScoringError, write: func(ctx context.Context) error {
		return d.sink.RecordScoringError(ctx, entry)
	}})
}

// Dropped returns the number of records discarded so far.
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

// Close stops accepting records and waits for queued ones to be written, or for ctx.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) enqueue(j job) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(j.kind, "closed")
		return
	}
	select {
	case d.jobs <- j:
	default:
		d.drop(j.kind, "buffer_full")
	}
}

func (d *Dispatcher) drop(kind, reason string) {
	total := d.dropped.Add(1)
	slog.Warn("telemetry_dropped", "kind", kind, "reason", reason, "dropped_total", total)
	if d.onDrop != nil {
		d.onDrop(kind)
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for j := range d.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), d.writeTimeout)
		if err := j.write(ctx); err != nil {
			slog.Warn("telemetry_sink_failed", "kind", j.kind, "error", err)
		}
		cancel()
	}
}

func (d *Dispatcher) identity(id string, createdAt time.Time) (string, time.Time) {
	if id == "" {
		id = uuid.NewString()
	}
	if createdAt.IsZero() {
		createdAt = d.now()
	}
	return id, createdAt
}
