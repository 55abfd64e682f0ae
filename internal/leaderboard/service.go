package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/keshavmalik0756/EduPulse-sub000/internal/cache"
)

// MetricsSource reads the raw course metrics a ranking pass scores. Read-only
// collaborator.
type MetricsSource interface {
	AllCourseMetrics(ctx context.Context) ([]CourseMetrics, error)
}

// EntryStore persists ranking passes. ReplaceAll must be all-or-nothing: a
// failed pass leaves the previous leaderboard intact.
type EntryStore interface {
	ReplaceAll(ctx context.Context, entries []*Entry) error
	List(ctx context.Context, limit int) ([]*Entry, error)
}

// Response is the payload of a leaderboard query.
type Response struct {
	Entries []*Entry `json:"entries"`
	Total   int      `json:"total"`
}

const (
	defaultLimit = 50
	maxLimit     = 100
)

// Service runs ranking passes and serves cached leaderboard reads.
type Service struct {
	metrics MetricsSource
	store   EntryStore
	cache   *cache.Cache
}

// NewService creates a leaderboard service with a 15 minute read cache.
func NewService(metrics MetricsSource, store EntryStore) *Service {
	return NewServiceWithCache(metrics, store, cache.NewCache(15*time.Minute))
}

// NewServiceWithCache creates a leaderboard service with a custom cache.
func NewServiceWithCache(metrics MetricsSource, store EntryStore, c *cache.Cache) *Service {
	return &Service{metrics: metrics, store: store, cache: c}
}

// Recompute runs one full ranking pass over the current course metrics and
// replaces the stored leaderboard. An empty cohort clears it.
func (s *Service) Recompute(ctx context.Context) ([]*Entry, error) {
	metrics, err := s.metrics.AllCourseMetrics(ctx)
	if err != nil {
		return nil, err
	}

	entries := Rank(metrics)
	if err := s.store.ReplaceAll(ctx, entries); err != nil {
		return nil, err
	}

	s.cache.Clear()
	slog.Info("leaderboard recomputed", "courses", len(entries))

	return entries, nil
}

// Leaderboard returns the stored entries in rank order, serving repeat reads
// from the cache until the next recompute.
func (s *Service) Leaderboard(ctx context.Context, limit int) (*Response, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	cacheKey := fmt.Sprintf("leaderboard:%d", limit)
	if data, found := s.cache.Get(cacheKey); found {
		var resp Response
		if err := json.Unmarshal(data, &resp); err == nil {
			return &resp, nil
		}
		slog.Error("failed to unmarshal cached leaderboard", "key", cacheKey)
	}

	entries, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, err
	}

	resp := &Response{Entries: entries, Total: len(entries)}
	if data, err := json.Marshal(resp); err == nil {
		s.cache.Set(cacheKey, data)
	}

	return resp, nil
}

// CacheStats exposes the read cache statistics for the health endpoint.
func (s *Service) CacheStats() map[string]interface{} {
	return s.cache.Stats()
}
