package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
	"github.com/fintechsquad01/imagescout/internal/core/ports"
)

const (
	KindScore        = "score"
	KindCacheAccess  = "cache_access"
	KindScoringError = "scoring_error"
)

// Envelope carries exactly one telemetry record, selected by Kind.
type Envelope struct {
	Kind         string                    `json:"kind"`
	Score        *domain.ScoreEvent        `json:"score,omitempty"`
	CacheAccess  *domain.CacheAccessLog    `json:"cacheAccess,omitempty"`
	ScoringError *domain.ScoringErrorEntry `json:"scoringError,omitempty"`
}

func encodeEnvelope(e Envelope) ([]byte, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal telemetry envelope: %w", err)
	}
	return payload, nil
}

func dispatch(ctx context.Context, sink ports.TelemetrySink, data []byte) error {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return fmt.Errorf("decode telemetry envelope: %w", err)
	}
	if err := e.validate(); err != nil {
		return err
	}
	switch e.Kind {
	case KindScore:
		return sink.RecordScoreEvent(ctx, *e.Score)
	case KindCacheAccess:
		return sink.RecordCacheAccess(ctx, *e.CacheAccess)
	default:
		return sink.RecordScoringError(ctx, *e.ScoringError)
	}
}

func (e Envelope) validate() error {
	var ok bool
	switch e.Kind {
	case KindScore:
		ok = e.Score != nil
	case KindCacheAccess:
		ok = e.CacheAccess != nil
	case KindScoringError:
		ok = e.ScoringError != nil
	default:
		return fmt.Errorf("unknown telemetry kind %q", e.Kind)
	}
	if !ok {
		return fmt.Errorf("telemetry envelope %q has no payload", e.Kind)
	}
	return nil
}
