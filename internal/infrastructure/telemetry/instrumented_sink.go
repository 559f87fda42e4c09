package telemetry

import (
	"context"
	"time"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
	"github.com/fintechsquad01/imagescout/internal/core/ports"
)

const (
	KindScore        = "score"
	KindCacheAccess  = "cache_access"
	KindScoringError = "scoring_error"
)

// WriteObserver receives the outcome of every sink write.
type WriteObserver func(kind string, duration time.Duration, err error)

// InstrumentedSink reports each write to an observer and passes it through unchanged.
type InstrumentedSink struct {
	next    ports.TelemetrySink
	observe WriteObserver
}

func NewInstrumentedSink(next ports.TelemetrySink, observe WriteObserver) *InstrumentedSink {
	if observe == nil {
		observe = func(string, time.Duration, error) {}
	}
	return &InstrumentedSink{next: next, observe: observe}
}

func (s *InstrumentedSink) RecordScoreEvent(ctx context.Context, event domain.ScoreEvent) error {
	start := time.Now()
	err := s.next.RecordScoreEvent(ctx, event)
	s.observe(KindScore, time.Since(start), err)
	return err
}

func (s *InstrumentedSink) RecordCacheAccess(ctx context.Context, entry domain.CacheAccessLog) error {
	start := time.Now()
	err := s.next.RecordCacheAccess(ctx, entry)
	s.observe(KindCacheAccess, time.Since(start), err)
	return err
}

func (s *InstrumentedSink) RecordScoringError(ctx context.Context, entry domain.ScoringErrorEntry) error {
	start := time.Now()
	err := s.next.RecordScoringError(ctx, entry)
	s.observe(KindScoringError, time.Since(start), err)
	return err
}
