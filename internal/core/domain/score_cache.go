package domain

import "time"

type ScoreCacheEntry struct {
	ImageKey   string     `json:"imageKey"`
	ModelID    string     `json:"modelId"`
	Score      int        `json:"score"`
	VisionData VisionData `json:"visionData"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type CacheAccessStatus string

const (
	CacheHit  CacheAccessStatus = "hit"
	CacheMiss CacheAccessStatus = "miss"
	// CacheError is a lookup that failed in the backend and was treated as a miss.
	CacheError CacheAccessStatus = "error"
)

type CacheAccessLog struct {
	ID        string            `json:"id"`
	ImageKey  string            `json:"imageKey"`
	ModelID   string            `json:"modelId"`
	Status    CacheAccessStatus `json:"status"`
	Score     *int              `json:"score,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}
