// Package memory keeps score cache entries in process, for dev mode and tests.
package memory

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
)

const keySeparator = "\x00"

// Store never expires entries on its own; removal happens through the Delete methods.
type Store struct {
	cache *cache.Cache
}

func New() *Store {
	return &Store{cache: cache.New(cache.NoExpiration, 0)}
}

func (s *Store) Get(_ context.Context, imageKey, modelID string) (*domain.ScoreCacheEntry, error) {
	raw, found := s.cache.Get(entryKey(imageKey, modelID))
	if !found {
		return nil, nil
	}
	entry := raw.(domain.ScoreCacheEntry)
	entry.VisionData = cloneVisionData(entry.VisionData)
	return &entry, nil
}

func (s *Store) Upsert(_ context.Context, entry domain.ScoreCacheEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.VisionData = cloneVisionData(entry.VisionData)
	s.cache.Set(entryKey(entry.ImageKey, entry.ModelID), entry, cache.NoExpiration)
	return nil
}

func (s *Store) DeleteAll(context.Context) (int64, error) {
	n := int64(s.cache.ItemCount())
	s.cache.Flush()
	return n, nil
}

func (s *Store) DeleteByImage(_ context.Context, imageKey string) (int64, error) {
	prefix := imageKey + keySeparator
	var n int64
	for key := range s.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Delete(key)
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for key, item := range s.cache.Items() {
		entry, ok := item.Object.(domain.ScoreCacheEntry)
		if ok && entry.CreatedAt.Before(cutoff) {
			s.cache.Delete(key)
			n++
		}
	}
	return n, nil
}

func (s *Store) Len() int {
	return s.cache.ItemCount()
}

func entryKey(imageKey, modelID string) string {
	return imageKey + keySeparator + modelID
}

func cloneVisionData(v domain.VisionData) domain.VisionData {
	out := v
	out.Labels = cloneStrings(v.Labels)
	out.Objects = cloneStrings(v.Objects)
	out.Landmarks = cloneStrings(v.Landmarks)
	out.Colors = cloneStrings(v.Colors)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append(make([]string, 0, len(in)), in...)
}
