package domain

import "time"

type ScoreEventStatus string

const (
	ScoreEventSuccess ScoreEventStatus = "success"
	ScoreEventFailure ScoreEventStatus = "failure"
)

// ScoreEvent is one scoring call outcome as seen by the caller.
type ScoreEvent struct {
	ID             string           `json:"id"`
	ImageName      string           `json:"imageName"`
	ImageSize      int64            `json:"imageSize"`
	ProjectID      string           `json:"projectId,omitempty"`
	UserID         string           `json:"userId,omitempty"`
	ModelName      string           `json:"modelName"`
	ResponseTimeMs int64            `json:"responseTimeMs"`
	IsMock         bool             `json:"isMock"`
	IsTest         bool             `json:"isTest"`
	RetryCount     int              `json:"retryCount"`
	Status         ScoreEventStatus `json:"status"`
	ErrorMessage   string           `json:"errorMessage,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
}

type ScoringErrorEntry struct {
	ID        string         `json:"id"`
	Error     string         `json:"error"`
	ImageID   string         `json:"imageId"`
	ModelID   string         `json:"modelId"`
	Context   map[string]any `json:"context,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

type StatsFilter struct {
	ProjectID   string
	Since       time.Time
	IncludeTest bool
}

type ScoringStats struct {
	TotalScores       int     `json:"totalScores"`
	SuccessRate       float64 `json:"successRate"`
	AvgResponseTimeMs float64 `json:"avgResponseTimeMs"`
	MockPercentage    float64 `json:"mockPercentage"`
	CacheLookups      int     `json:"cacheLookups"`
	CacheHitRatio     float64 `json:"cacheHitRatio"`
	CacheBackendError int     `json:"cacheBackendErrors"`
}
