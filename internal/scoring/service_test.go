package scoring

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/keshavmalik0756/EduPulse-sub000/internal/errors"
)

type fakeEngagementStore struct {
	mu   sync.Mutex
	recs map[string]*EngagementRecord
}

func newFakeEngagementStore() *fakeEngagementStore {
	return &fakeEngagementStore{recs: make(map[string]*EngagementRecord)}
}

func (f *fakeEngagementStore) key(studentID, courseID string) string {
	return studentID + "/" + courseID
}

func (f *fakeEngagementStore) Get(_ context.Context, studentID, courseID string) (*EngagementRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[f.key(studentID, courseID)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeEngagementStore) Save(_ context.Context, rec *EngagementRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *rec
	f.recs[f.key(rec.StudentID, rec.CourseID)] = &cp
	return nil
}

func (f *fakeEngagementStore) ListByCourse(_ context.Context, courseID, category string) ([]*EngagementRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*EngagementRecord
	for _, rec := range f.recs {
		if rec.CourseID != courseID {
			continue
		}
		if category != "" && string(rec.Category) != category {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

type fakeMomentumStore struct {
	mu   sync.Mutex
	recs map[string]*MomentumRecord
}

func newFakeMomentumStore() *fakeMomentumStore {
	return &fakeMomentumStore{recs: make(map[string]*MomentumRecord)}
}

func momentumKey(courseID string, day time.Time) string {
	return courseID + "/" + day.UTC().Format("2006-01-02")
}

func (f *fakeMomentumStore) ApplyDelta(_ context.Context, courseID string, day time.Time, d MomentumDelta) (*MomentumRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := momentumKey(courseID, day)
	rec, ok := f.recs[key]
	if !ok {
		rec = NewMomentumRecord(courseID, day)
		f.recs[key] = rec
	}
	rec.Metrics.Enrollments += d.Enrollments
	rec.Metrics.Completions += d.Completions
	rec.Metrics.Reviews += d.Reviews
	rec.Metrics.Questions += d.Questions
	cp := *rec
	return &cp, nil
}

func (f *fakeMomentumStore) SaveDerived(_ context.Context, rec *MomentumRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *rec
	f.recs[momentumKey(rec.CourseID, rec.Day)] = &cp
	return nil
}

func (f *fakeMomentumStore) Get(_ context.Context, courseID string, day time.Time) (*MomentumRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[momentumKey(courseID, day)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeMomentumStore) ListByCourse(_ context.Context, courseID string, from, to time.Time) ([]*MomentumRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*MomentumRecord
	for _, rec := range f.recs {
		if rec.CourseID != courseID {
			continue
		}
		if !from.IsZero() && rec.Day.Before(from) {
			continue
		}
		if !to.IsZero() && rec.Day.After(to) {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

func TestEngagementServiceIngest(t *testing.T) {
	svc := NewEngagementService(newFakeEngagementStore())
	ctx := context.Background()

	completion := 50.0
	lectures := 10
	rec, err := svc.Ingest(ctx, "student-1", "course-1", EngagementDelta{
		CompletionPercentage: &completion,
		LecturesWatched:      &lectures,
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, rec.Metrics.CompletionPercentage)
	assert.Equal(t, 10, rec.Metrics.LecturesWatched)
	assert.Greater(t, rec.Score, 0)

	// A second partial update leaves untouched fields in place and
	// recomputes the derived score.
	questions := 5
	rec2, err := svc.Ingest(ctx, "student-1", "course-1", EngagementDelta{QuestionsAsked: &questions})
	require.NoError(t, err)
	assert.Equal(t, 50.0, rec2.Metrics.CompletionPercentage)
	assert.Equal(t, 5, rec2.Metrics.QuestionsAsked)
	assert.Greater(t, rec2.Score, rec.Score)
}

func TestEngagementServiceIngestValidation(t *testing.T) {
	svc := NewEngagementService(newFakeEngagementStore())
	ctx := context.Background()

	bad := -5.0
	_, err := svc.Ingest(ctx, "s", "c", EngagementDelta{CompletionPercentage: &bad})
	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryInvalidInput, apperrors.ToAppError(err).Category)

	_, err = svc.Ingest(ctx, "", "c", EngagementDelta{})
	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryInvalidInput, apperrors.ToAppError(err).Category)

	// Validation failures must not create any record.
	_, err = svc.Get(ctx, "s", "c")
	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryNotFound, apperrors.ToAppError(err).Category)
}

func TestEngagementServiceListByCourse(t *testing.T) {
	svc := NewEngagementService(newFakeEngagementStore())
	ctx := context.Background()

	high := 100.0
	low := 20.0
	maxed := 50
	some := 5
	_, err := svc.Ingest(ctx, "top", "course-1", EngagementDelta{CompletionPercentage: &high, LecturesWatched: &maxed})
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, "bottom", "course-1", EngagementDelta{CompletionPercentage: &low, LecturesWatched: &some})
	require.NoError(t, err)

	recs, err := svc.ListByCourse(ctx, "course-1", "")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "top", recs[0].StudentID)
	assert.GreaterOrEqual(t, recs[0].Score, recs[1].Score)

	_, err = svc.ListByCourse(ctx, "course-1", "bogus")
	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryInvalidInput, apperrors.ToAppError(err).Category)
}

func TestMomentumServiceIngestAccumulates(t *testing.T) {
	svc := NewMomentumService(newFakeMomentumStore())
	ctx := context.Background()
	day := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	_, err := svc.Ingest(ctx, "course-1", day, MomentumDelta{Enrollments: 10})
	require.NoError(t, err)

	rec, err := svc.Ingest(ctx, "course-1", day, MomentumDelta{Enrollments: 5, Completions: 6})
	require.NoError(t, err)

	assert.Equal(t, 15, rec.Metrics.Enrollments)
	assert.Equal(t, 6, rec.Metrics.Completions)
	assert.Equal(t, 40, rec.EngagementRate) // 6/15
	assert.Greater(t, rec.Score, 0)

	// Timestamps on the same calendar day hit the same record.
	later := day.Add(8 * time.Hour)
	rec2, err := svc.Ingest(ctx, "course-1", later, MomentumDelta{Reviews: 1})
	require.NoError(t, err)
	assert.Equal(t, 15, rec2.Metrics.Enrollments)
}

func TestMomentumServiceValidation(t *testing.T) {
	svc := NewMomentumService(newFakeMomentumStore())
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "course-1", time.Now(), MomentumDelta{Enrollments: -1})
	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryInvalidInput, apperrors.ToAppError(err).Category)

	_, err = svc.Ingest(ctx, "course-1", time.Now(), MomentumDelta{})
	require.Error(t, err)

	_, err = svc.ListByCourse(ctx, "course-1",
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
}

func TestWeekStartOf(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected time.Time
	}{
		{
			name:     "wednesday anchors to monday",
			input:    time.Date(2026, 3, 18, 15, 4, 5, 0, time.UTC),
			expected: time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "monday is its own anchor",
			input:    time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
			expected: time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "sunday belongs to the preceding monday",
			input:    time.Date(2026, 3, 22, 23, 59, 0, 0, time.UTC),
			expected: time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, WeekStartOf(tt.input))
		})
	}
}
