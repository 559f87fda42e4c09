package domain

import (
	"time"
)

// CacheProvenanceTTL is the display-only lifetime stamped on cached results.
const CacheProvenanceTTL = 24 * time.Hour

type CacheProvenance struct {
	FromCache bool      `json:"fromCache"`
	CacheDate time.Time `json:"cacheDate"`
	CacheKey  string    `json:"cacheKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func NewCacheProvenance(modelID string, now time.Time) *CacheProvenance {
	return &CacheProvenance{
		FromCache: true,
		CacheDate: now,
		CacheKey:  "cache_" + modelID,
		ExpiresAt: now.Add(CacheProvenanceTTL),
	}
}

type ModelComparisonResult struct {
	ModelID         string           `json:"modelId"`
	ModelName       string           `json:"modelName"`
	Score           int              `json:"score"`
	VisionData      VisionData       `json:"visionData"`
	Weights         Weights          `json:"weights"`
	Version         string           `json:"version"`
	ExecutionTimeMs int64            `json:"executionTimeMs"`
	Cached          bool             `json:"cached"`
	CacheStatus     *CacheProvenance `json:"cacheStatus,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// Failed reports whether the result is a degraded fallback.
func (r ModelComparisonResult) Failed() bool {
	return r.Error != ""
}

// ScoreOptions controls one scoring call.
type ScoreOptions struct {
	ProjectID       string          `json:"projectId,omitempty"`
	UserID          string          `json:"userId,omitempty"`
	ForceMock       bool            `json:"forceMock"`
	CompareModels   bool            `json:"compareModels"`
	ModelsToCompare []ScoringConfig `json:"modelsToCompare,omitempty"`
	SkipCache       bool            `json:"skipCache"`
	IsTest          bool            `json:"isTest"`
	// ImageKey is the cache key already derived by the caller. Empty means the engine derives it.
	ImageKey        string          `json:"imageKey,omitempty"`
}

type AnalyzeOptions struct {
	Mock           bool
	PromptTemplate string
}
