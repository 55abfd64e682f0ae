package telemetry

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/keshavmalik0756/EduPulse-sub000/internal/errors"
	"github.com/keshavmalik0756/EduPulse-sub000/internal/scoring"
)

// WindowTolerance is the half-width in seconds of a confusion bucket's time
// window. An event at timestamp t matches any bucket whose stored window
// overlaps [t-WindowTolerance, t+WindowTolerance]; otherwise a new bucket is
// anchored at t. This is a tolerant window match, not a fixed-grid bucket.
const WindowTolerance = 10

// InteractionKind is the kind of a player interaction event.
type InteractionKind string

const (
	KindReplay InteractionKind = "replay"
	KindSkip   InteractionKind = "skip"
	KindPause  InteractionKind = "pause"
	KindRewind InteractionKind = "rewind"
)

// ParseInteractionKind validates a raw kind string.
func ParseInteractionKind(s string) (InteractionKind, error) {
	switch InteractionKind(s) {
	case KindReplay, KindSkip, KindPause, KindRewind:
		return InteractionKind(s), nil
	}
	return "", apperrors.NewInvalidInput("unknown interaction kind: " + s)
}

// Interaction is one student event inside a bucket. The interaction list is
// append-only telemetry.
type Interaction struct {
	StudentID  string          `json:"student_id"`
	Kind       InteractionKind `json:"kind"`
	OccurredAt int64           `json:"occurred_at"`
}

// ConfusionBucket aggregates the interaction events of one lecture within one
// time window. The confusion score is always a pure function of the raw
// counters at the moment it was last computed; it is never hand-edited.
// Buckets are created on first event and never deleted.
type ConfusionBucket struct {
	ID               string        `json:"id"`
	LectureID        string        `json:"lecture_id"`
	CourseID         string        `json:"course_id"`
	Timestamp        int64         `json:"timestamp"` // anchor, seconds into the lecture
	WindowStart      int64         `json:"window_start"`
	WindowEnd        int64         `json:"window_end"`
	ReplayCount      int           `json:"replay_count"`
	SkipCount        int           `json:"skip_count"`
	PauseCount       int           `json:"pause_count"`
	WatchTimeSum     int64         `json:"watch_time_sum"`
	WatchTimeCount   int           `json:"watch_time_count"`
	AverageWatchTime int           `json:"average_watch_time"`
	ConfusionScore   int           `json:"confusion_score"`
	Interactions     []Interaction `json:"interactions"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// NewConfusionBucket anchors an empty bucket at a timestamp.
func NewConfusionBucket(lectureID, courseID string, timestamp int64) *ConfusionBucket {
	now := time.Now()
	start := timestamp - WindowTolerance
	if start < 0 {
		start = 0
	}
	return &ConfusionBucket{
		ID:          uuid.New().String(),
		LectureID:   lectureID,
		CourseID:    courseID,
		Timestamp:   timestamp,
		WindowStart: start,
		WindowEnd:   timestamp + WindowTolerance,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Overlaps reports whether the bucket's window intersects the tolerance
// range around ts.
func (b *ConfusionBucket) Overlaps(ts int64) bool {
	return ts-WindowTolerance <= b.WindowEnd && ts+WindowTolerance >= b.WindowStart
}

// BucketStore is the keyed-record store for confusion buckets.
//
// MergeEvent must be a single atomic operation: find the bucket for the
// lecture whose window overlaps the tolerance range around ts (or create one
// anchored at ts), increment the counter for kind, add ts to the watch-time
// accumulators and append the interaction — concurrent calls for the same
// window must never lose an increment. UpdateDerived is a plain write of the
// derived fields and needs no such guarantee.
type BucketStore interface {
	MergeEvent(ctx context.Context, lectureID, courseID string, ts int64, kind InteractionKind, studentID string) (*ConfusionBucket, error)
	UpdateDerived(ctx context.Context, b *ConfusionBucket) error
	ListByLecture(ctx context.Context, lectureID string) ([]*ConfusionBucket, error)
}

// Aggregator ingests player interaction events and maintains per-window
// confusion aggregates. This is the one place in the engine where true
// multi-writer concurrency is expected: many students scrubbing the same
// lecture at once.
type Aggregator struct {
	store BucketStore
}

// NewAggregator creates an event aggregator over a bucket store.
func NewAggregator(store BucketStore) *Aggregator {
	return &Aggregator{store: store}
}

// RecordInteraction merges one behavioral event into its time bucket and
// returns the bucket with derived fields recomputed. Invalid kinds and
// negative timestamps are rejected before any mutation.
func (a *Aggregator) RecordInteraction(ctx context.Context, lectureID, courseID string, timestamp int64, kind, studentID string) (*ConfusionBucket, error) {
	if lectureID == "" {
		return nil, apperrors.NewInvalidInput("lecture id is required")
	}
	if timestamp < 0 {
		return nil, apperrors.NewInvalidInput("timestamp must be non-negative")
	}
	parsed, err := ParseInteractionKind(kind)
	if err != nil {
		return nil, err
	}

	bucket, err := a.store.MergeEvent(ctx, lectureID, courseID, timestamp, parsed, studentID)
	if err != nil {
		return nil, err
	}

	// The raw accumulators merged atomically above; the bucket returned is a
	// private copy, so the derived recompute is an ordinary read-modify-write.
	// It must land before the bucket is considered query-ready.
	if bucket.WatchTimeCount > 0 {
		bucket.AverageWatchTime = int(math.Round(float64(bucket.WatchTimeSum) / float64(bucket.WatchTimeCount)))
	}
	bucket.ConfusionScore = scoring.ConfusionScore(
		bucket.ReplayCount, bucket.SkipCount, bucket.PauseCount, float64(bucket.AverageWatchTime))
	bucket.UpdatedAt = time.Now()

	if err := a.store.UpdateDerived(ctx, bucket); err != nil {
		return nil, err
	}

	if bucket.ConfusionScore >= scoring.HighConfusionThreshold {
		slog.Info("high confusion window",
			"lecture_id", lectureID,
			"window_start", bucket.WindowStart,
			"window_end", bucket.WindowEnd,
			"confusion_score", bucket.ConfusionScore,
		)
	}

	return bucket, nil
}

// LectureBuckets returns a lecture's buckets in window order. With
// highConfusionOnly set, only windows at or above the consumer threshold of
// 70 are returned.
func (a *Aggregator) LectureBuckets(ctx context.Context, lectureID string, highConfusionOnly bool) ([]*ConfusionBucket, error) {
	if lectureID == "" {
		return nil, apperrors.NewInvalidInput("lecture id is required")
	}

	buckets, err := a.store.ListByLecture(ctx, lectureID)
	if err != nil {
		return nil, err
	}
	if !highConfusionOnly {
		return buckets, nil
	}

	filtered := buckets[:0:0]
	for _, b := range buckets {
		if b.ConfusionScore >= scoring.HighConfusionThreshold {
			filtered = append(filtered, b)
		}
	}
	return filtered, nil
}

// Apply merges one event into the bucket's raw accumulators. Rewind events
// count toward replays. Store implementations share this so the merge
// semantics stay identical across backends.
func (b *ConfusionBucket) Apply(ts int64, kind InteractionKind, studentID string) {
	switch kind {
	case KindReplay, KindRewind:
		b.ReplayCount++
	case KindSkip:
		b.SkipCount++
	case KindPause:
		b.PauseCount++
	}
	b.WatchTimeSum += ts
	b.WatchTimeCount++
	b.Interactions = append(b.Interactions, Interaction{
		StudentID:  studentID,
		Kind:       kind,
		OccurredAt: ts,
	})
	b.UpdatedAt = time.Now()
}
