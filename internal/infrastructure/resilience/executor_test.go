package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
)

func fastConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}
}

type observerFake struct {
	mu          sync.Mutex
	retries     []int
	transitions []string
}

func (o *observerFake) OnRetry(_ string, attempt int, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.retries = append(o.retries, attempt)
}

func (o *observerFake) OnBreakerStateChange(_ string, from, to string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, from+"->"+to)
}

func TestExecuteRetriesTemporaryFailure(t *testing.T) {
	observer := &observerFake{}
	exec := NewExecutor(fastConfig()).WithObserver(observer)

	attempts := 0
	errTemp := domain.WrapError(domain.ErrTemporary, "vision", errors.New("503"))
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTemp
		}
		return nil
	}, ClassifyDomain)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if len(observer.retries) != 2 || observer.retries[0] != 1 || observer.retries[1] != 2 {
		t.Fatalf("unexpected retry observations: %v", observer.retries)
	}
}

func TestExecuteDoesNotRetryPermanentFailure(t *testing.T) {
	exec := NewExecutor(fastConfig())

	attempts := 0
	errPermanent := domain.WrapError(domain.ErrInvalidInput, "vision", errors.New("bad image"))
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errPermanent
	}, ClassifyDomain)
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestDoReturnsValue(t *testing.T) {
	exec := NewExecutor(fastConfig())

	calls := 0
	got, err := Do(context.Background(), exec, "op", func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", domain.ErrTemporary
		}
		return "labels", nil
	}, ClassifyDomain)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got != "labels" || calls != 2 {
		t.Fatalf("Do() = %q after %d calls", got, calls)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	observer := &observerFake{}
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		RetryInitialBackoff:     1 * time.Millisecond,
		RetryMaxBackoff:         1 * time.Millisecond,
		RetryMultiplier:         2,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
	}).WithObserver(observer)

	errTemp := errors.New("temporary")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{
			Retryable:     false,
			RecordFailure: true,
		}
	}

	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return errTemp
		}, classifier)
		if !errors.Is(err, errTemp) {
			t.Fatalf("expected temporary error on iteration %d, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, classifier)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open state error, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("open circuit must surface as temporary, got %v", err)
	}
	if exec.State("op") != gobreaker.StateOpen.String() {
		t.Fatalf("State() = %s, want open", exec.State("op"))
	}
	if len(observer.transitions) != 1 || observer.transitions[0] != "closed->open" {
		t.Fatalf("unexpected transitions: %v", observer.transitions)
	}
}

func TestClassifyDomain(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorClassification
	}{
		{"temporary", domain.WrapError(domain.ErrTemporary, "op", errors.New("x")), ErrorClassification{Retryable: true, RecordFailure: true}},
		{"deadline", context.DeadlineExceeded, ErrorClassification{Retryable: true, RecordFailure: true}},
		{"canceled", context.Canceled, ErrorClassification{}},
		{"invalid", domain.WrapError(domain.ErrInvalidInput, "op", errors.New("x")), ErrorClassification{}},
		{"other", errors.New("boom"), ErrorClassification{RecordFailure: true}},
	}
	for _, tc := range cases {
		if got := ClassifyDomain(tc.err); got != tc.want {
			t.Fatalf("%s: ClassifyDomain() = %+v, want %+v", tc.name, got, tc.want)
		}
	}
}

func TestMaxRetryWait(t *testing.T) {
	cfg := Config{RetryMaxAttempts: 4, RetryInitialBackoff: 100 * time.Millisecond, RetryMaxBackoff: 250 * time.Millisecond, RetryMultiplier: 2}
	if got := cfg.MaxRetryWait(); got != 550*time.Millisecond {
		t.Fatalf("MaxRetryWait() = %v, want 550ms", got)
	}
}

func TestPresetsSurviveNormalize(t *testing.T) {
	for name, cfg := range map[string]Config{"vision": DefaultConfig(), "queue": QueueConfig()} {
		if got := cfg.normalize(); got != cfg {
			t.Fatalf("%s preset changed by normalize: %+v -> %+v", name, cfg, got)
		}
	}
	if QueueConfig().MaxRetryWait() >= DefaultConfig().MaxRetryWait()*2 {
		t.Fatalf("queue retries should stay short: %v", QueueConfig().MaxRetryWait())
	}
}
