package scoring

import (
	"time"

	"github.com/google/uuid"

	"github.com/keshavmalik0756/EduPulse-sub000/internal/numeric"
)

// Daily caps: the assumed reasonable maximum per metric for a single course
// in a single calendar day.
const (
	momentumEnrollCap     = 50
	momentumCompletionCap = 30
	momentumReviewCap     = 20
	momentumQuestionCap   = 25
)

// MomentumMetrics are the raw daily counters for one (course, day) record.
type MomentumMetrics struct {
	Enrollments int `json:"enrollments"`
	Completions int `json:"completions"`
	Reviews     int `json:"reviews"`
	Questions   int `json:"questions"`
}

// MomentumRecord is the one live record per (course, calendar day).
type MomentumRecord struct {
	ID             string          `json:"id"`
	CourseID       string          `json:"course_id"`
	Day            time.Time       `json:"day"` // midnight UTC
	Metrics        MomentumMetrics `json:"metrics"`
	Score          int             `json:"momentum_score"`
	EngagementRate int             `json:"engagement_rate"` // completions/enrollments, 0-100
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewMomentumRecord creates an empty momentum record for a course day.
// The day is truncated to midnight UTC so records aggregate per calendar day.
func NewMomentumRecord(courseID string, day time.Time) *MomentumRecord {
	now := time.Now()
	rec := &MomentumRecord{
		ID:        uuid.New().String(),
		CourseID:  courseID,
		Day:       day.UTC().Truncate(24 * time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}
	rec.Recompute()
	return rec
}

// Recompute re-derives score and engagement rate from the daily counters.
func (r *MomentumRecord) Recompute() {
	r.Score, r.EngagementRate = ScoreMomentum(r.Metrics)
}

// ScoreMomentum computes the weighted momentum score and the engagement rate
// (completions per enrollment, 0 when nothing was enrolled that day).
func ScoreMomentum(m MomentumMetrics) (score, engagementRate int) {
	score = numeric.WeightedScore([]numeric.WeightedPart{
		{Value: numeric.Normalize(float64(m.Enrollments), momentumEnrollCap), Weight: 0.30},
		{Value: numeric.Normalize(float64(m.Completions), momentumCompletionCap), Weight: 0.30},
		{Value: numeric.Normalize(float64(m.Reviews), momentumReviewCap), Weight: 0.20},
		{Value: numeric.Normalize(float64(m.Questions), momentumQuestionCap), Weight: 0.20},
	})

	if m.Enrollments > 0 {
		engagementRate = numeric.RoundPct(float64(m.Completions) / float64(m.Enrollments))
	}
	return score, engagementRate
}
