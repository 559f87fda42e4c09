package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
)

type sinkFake struct {
	scores   []domain.ScoreEvent
	accesses []domain.CacheAccessLog
	errs     []domain.ScoringErrorEntry
}

func (s *sinkFake) RecordScoreEvent(_ context.Context, e domain.ScoreEvent) error {
	s.scores = append(s.scores, e)
	return nil
}

func (s *sinkFake) RecordCacheAccess(_ context.Context, e domain.CacheAccessLog) error {
	s.accesses = append(s.accesses, e)
	return nil
}

func (s *sinkFake) RecordScoringError(_ context.Context, e domain.ScoringErrorEntry) error {
	s.errs = append(s.errs, e)
	return nil
}

func TestEnvelopeRoundTripDispatchesByKind(t *testing.T) {
	sink := &sinkFake{}
	score := 42

	envelopes := []Envelope{
		{Kind: KindScore, Score: &domain.ScoreEvent{ImageName: "a.jpg", Status: domain.ScoreEventSuccess}},
		{Kind: KindCacheAccess, CacheAccess: &domain.CacheAccessLog{ImageKey: "abc", Status: domain.CacheHit, Score: &score}},
		{Kind: KindScoringError, ScoringError: &domain.ScoringErrorEntry{Error: "boom", Context: map[string]any{"fileName": "a.jpg"}}},
	}
	for _, e := range envelopes {
		payload, err := encodeEnvelope(e)
		if err != nil {
			t.Fatalf("encodeEnvelope(%s) error = %v", e.Kind, err)
		}
		if err := dispatch(context.Background(), sink, payload); err != nil {
			t.Fatalf("dispatch(%s) error = %v", e.Kind, err)
		}
	}

	if len(sink.scores) != 1 || sink.scores[0].ImageName != "a.jpg" {
		t.Fatalf("unexpected score events: %+v", sink.scores)
	}
	if len(sink.accesses) != 1 || sink.accesses[0].Score == nil || *sink.accesses[0].Score != 42 {
		t.Fatalf("unexpected cache accesses: %+v", sink.accesses)
	}
	if len(sink.errs) != 1 || sink.errs[0].Context["fileName"] != "a.jpg" {
		t.Fatalf("unexpected scoring errors: %+v", sink.errs)
	}
}

func TestEnvelopeRejectsMalformedPayloads(t *testing.T) {
	if _, err := encodeEnvelope(Envelope{Kind: KindScore}); err == nil {
		t.Fatalf("expected error for missing payload")
	}
	if _, err := encodeEnvelope(Envelope{Kind: "bogus"}); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if err := dispatch(context.Background(), &sinkFake{}, []byte("not json")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestClassifyNATSError(t *testing.T) {
	if c := classifyNATSError(nats.ErrNoServers); !c.Retryable || !c.RecordFailure {
		t.Fatalf("ErrNoServers should be retryable: %+v", c)
	}
	if c := classifyNATSError(nats.ErrMaxPayload); c.Retryable || c.RecordFailure {
		t.Fatalf("ErrMaxPayload should be permanent: %+v", c)
	}
	if c := classifyNATSError(context.Canceled); c.Retryable {
		t.Fatalf("cancellation must not retry: %+v", c)
	}
	if err := wrapTemporaryIfNeeded(nats.ErrTimeout); !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary wrap, got %v", err)
	}
	plain := errors.New("other")
	if err := wrapTemporaryIfNeeded(plain); err != plain {
		t.Fatalf("expected passthrough, got %v", err)
	}
}
