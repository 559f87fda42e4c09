package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type cacheKey struct {
	image string
	model string
}

type cacheStoreFake struct {
	mu        sync.Mutex
	entries   map[cacheKey]domain.ScoreCacheEntry
	getErr    error
	upsertErr error
	deleteErr error
	gets      int
	upserts   int
	cutoff    time.Time
}

func newCacheStoreFake() *cacheStoreFake {
	return &cacheStoreFake{entries: make(map[cacheKey]domain.ScoreCacheEntry)}
}

func (f *cacheStoreFake) Get(_ context.Context, imageKey, modelID string) (*domain.ScoreCacheEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	entry, ok := f.entries[cacheKey{imageKey, modelID}]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (f *cacheStoreFake) Upsert(_ context.Context, entry domain.ScoreCacheEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.entries[cacheKey{entry.ImageKey, entry.ModelID}] = entry
	return nil
}

func (f *cacheStoreFake) DeleteAll(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	n := int64(len(f.entries))
	f.entries = make(map[cacheKey]domain.ScoreCacheEntry)
	return n, nil
}

func (f *cacheStoreFake) DeleteByImage(_ context.Context, imageKey string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	var n int64
	for key := range f.entries {
		if key.image == imageKey {
			delete(f.entries, key)
			n++
		}
	}
	return n, nil
}

func (f *cacheStoreFake) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoff = cutoff
	var n int64
	for key, entry := range f.entries {
		if entry.CreatedAt.Before(cutoff) {
			delete(f.entries, key)
			n++
		}
	}
	return n, nil
}

func (f *cacheStoreFake) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

type accessRecord struct {
	imageKey string
	modelID  string
	status   domain.CacheAccessStatus
	score    *int
}

type loggerFake struct {
	mu        sync.Mutex
	successes []domain.ScoreEvent
	failures  []domain.ScoreEvent
	accesses  []accessRecord
	errors    []domain.ScoringErrorEntry
}

func (f *loggerFake) LogSuccess(_ context.Context, event domain.ScoreEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.successes = append(f.successes, event)
}

func (f *loggerFake) LogFailure(_ context.Context, event domain.ScoreEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, event)
}

func (f *loggerFake) LogCacheAccess(_ context.Context, imageKey, modelID string, status domain.CacheAccessStatus, score *int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accesses = append(f.accesses, accessRecord{imageKey: imageKey, modelID: modelID, status: status, score: score})
}

func (f *loggerFake) LogError(_ context.Context, entry domain.ScoringErrorEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, entry)
}

type analyzeCall struct {
	image domain.Image
	opts  domain.AnalyzeOptions
}

// analyzerFake keys its behavior by the prompt template, which tests set to the config id.
type analyzerFake struct {
	mu     sync.Mutex
	data   domain.VisionData
	fail   map[string]error
	panics map[string]bool
	delay  map[string]time.Duration
	block  chan struct{}
	calls  []analyzeCall
}

func newAnalyzerFake() *analyzerFake {
	return &analyzerFake{
		data: domain.VisionData{
			Labels:  []string{"beach", "ocean", "water"},
			Objects: []string{"person"},
			Colors:  []string{"rgb(1, 2, 3)"},
			SafeSearch: domain.SafeSearch{
				Adult:    domain.LikelihoodVeryUnlikely,
				Violence: domain.LikelihoodUnlikely,
				Racy:     domain.LikelihoodUnlikely,
			},
		},
		fail:   map[string]error{},
		panics: map[string]bool{},
		delay:  map[string]time.Duration{},
	}
}

func (f *analyzerFake) Analyze(_ context.Context, image domain.Image, opts domain.AnalyzeOptions) (domain.VisionData, error) {
	f.mu.Lock()
	f.calls = append(f.calls, analyzeCall{image: image, opts: opts})
	err := f.fail[opts.PromptTemplate]
	shouldPanic := f.panics[opts.PromptTemplate]
	delay := f.delay[opts.PromptTemplate]
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	if shouldPanic {
		panic("analyzer exploded")
	}
	if err != nil {
		return domain.UnknownVisionData(), err
	}
	return f.data, nil
}

func (f *analyzerFake) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type keyerFake struct{}

func (keyerFake) Key(image domain.Image) string { return "key:" + image.Name }

type metricsFake struct {
	mu       sync.Mutex
	lookups  map[domain.CacheAccessStatus]int
	requests []string
}

func newMetricsFake() *metricsFake {
	return &metricsFake{lookups: map[domain.CacheAccessStatus]int{}}
}

func (f *metricsFake) RecordCacheLookup(status domain.CacheAccessStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups[status]++
}

func (f *metricsFake) RecordModelScore(string, bool, time.Duration, error) {}

func (f *metricsFake) RecordScoreRequest(mode, status string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, mode+":"+status)
}

func testConfig(id string) domain.ScoringConfig {
	cfg := domain.DefaultScoringConfig()
	cfg.ID = id
	cfg.Model = "model-" + id
	cfg.PromptTemplate = id
	return cfg
}

func testImage() domain.Image {
	return domain.Image{Name: "beach.jpg", ContentType: "image/jpeg", Data: []byte("jpeg-bytes"), Size: 10}
}
