package telemetry

import (
	"context"
	"sort"
	"sync"
)

// MemBucketStore is a mutex-guarded in-memory BucketStore. It backs the unit
// tests and lets the server run without a database.
type MemBucketStore struct {
	mu      sync.Mutex
	buckets map[string][]*ConfusionBucket // by lecture id, window order not guaranteed
}

// NewMemBucketStore creates an empty in-memory bucket store.
func NewMemBucketStore() *MemBucketStore {
	return &MemBucketStore{buckets: make(map[string][]*ConfusionBucket)}
}

// MergeEvent implements the atomic find-or-create-and-merge contract under a
// single lock, so concurrent writers to the same window serialize and no
// increment is lost.
func (s *MemBucketStore) MergeEvent(_ context.Context, lectureID, courseID string, ts int64, kind InteractionKind, studentID string) (*ConfusionBucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var bucket *ConfusionBucket
	for _, b := range s.buckets[lectureID] {
		if b.Overlaps(ts) {
			bucket = b
			break
		}
	}
	if bucket == nil {
		bucket = NewConfusionBucket(lectureID, courseID, ts)
		s.buckets[lectureID] = append(s.buckets[lectureID], bucket)
	}

	bucket.Apply(ts, kind, studentID)

	cp := cloneBucket(bucket)
	return cp, nil
}

// UpdateDerived writes back the derived fields of a merged bucket.
func (s *MemBucketStore) UpdateDerived(_ context.Context, b *ConfusionBucket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stored := range s.buckets[b.LectureID] {
		if stored.ID == b.ID {
			stored.AverageWatchTime = b.AverageWatchTime
			stored.ConfusionScore = b.ConfusionScore
			stored.UpdatedAt = b.UpdatedAt
			return nil
		}
	}
	return nil
}

// ListByLecture returns a lecture's buckets ordered by window start.
func (s *MemBucketStore) ListByLecture(_ context.Context, lectureID string) ([]*ConfusionBucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*ConfusionBucket, 0, len(s.buckets[lectureID]))
	for _, b := range s.buckets[lectureID] {
		out = append(out, cloneBucket(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WindowStart < out[j].WindowStart })
	return out, nil
}

func cloneBucket(b *ConfusionBucket) *ConfusionBucket {
	cp := *b
	cp.Interactions = append([]Interaction(nil), b.Interactions...)
	return &cp
}
