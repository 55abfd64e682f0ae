package scoring

import (
	"time"

	"github.com/google/uuid"

	"github.com/keshavmalik0756/EduPulse-sub000/internal/numeric"
)

// EngagementCategory classifies a student's engagement within a course.
type EngagementCategory string

const (
	HighlyEngaged     EngagementCategory = "highly_engaged"
	ModeratelyEngaged EngagementCategory = "moderately_engaged"
	LowEngaged        EngagementCategory = "low_engaged"
	AtRisk            EngagementCategory = "at_risk"
)

var engagementBands = []band{
	{min: 85, label: string(HighlyEngaged)},
	{min: 60, label: string(ModeratelyEngaged)},
	{min: 30, label: string(LowEngaged)},
}

const (
	engagementTimeSpentCap     = 600 // minutes
	engagementActivityCap      = 50  // lectures + quizzes + assignments
	engagementParticipationCap = 20  // questions + discussions

	// Below this completion percentage the student is at risk regardless of
	// how the weighted score comes out.
	atRiskCompletionFloor = 10
)

// EngagementMetrics are the externally settable raw counters of an
// engagement record. Derived score and category are engine-owned.
type EngagementMetrics struct {
	CompletionPercentage float64 `json:"completion_percentage"`
	TimeSpentMinutes     float64 `json:"time_spent_minutes"`
	LecturesWatched      int     `json:"lectures_watched"`
	QuizzesAttempted     int     `json:"quizzes_attempted"`
	AverageQuizScore     float64 `json:"average_quiz_score"`
	AssignmentsSubmitted int     `json:"assignments_submitted"`
	QuestionsAsked       int     `json:"questions_asked"`
	DiscussionsJoined    int     `json:"discussions_joined"`
}

// EngagementRecord is the one live record per (student, course) pair.
type EngagementRecord struct {
	ID        string             `json:"id"`
	StudentID string             `json:"student_id"`
	CourseID  string             `json:"course_id"`
	Metrics   EngagementMetrics  `json:"metrics"`
	Score     int                `json:"engagement_score"`
	Category  EngagementCategory `json:"engagement_category"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewEngagementRecord creates an empty engagement record for a key.
func NewEngagementRecord(studentID, courseID string) *EngagementRecord {
	now := time.Now()
	rec := &EngagementRecord{
		ID:        uuid.New().String(),
		StudentID: studentID,
		CourseID:  courseID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	rec.Recompute()
	return rec
}

// Recompute re-derives score and category from the raw metrics. Called by
// every mutating operation before the record is persisted; derived fields are
// never independently writable.
func (r *EngagementRecord) Recompute() {
	r.Score, r.Category = ScoreEngagement(r.Metrics)
}

// ScoreEngagement computes the weighted engagement score and its category.
// The category comes from threshold bands evaluated highest first, then the
// override rules apply: completion below 10% or zero activity forces at_risk
// regardless of the score.
func ScoreEngagement(m EngagementMetrics) (int, EngagementCategory) {
	activity := m.LecturesWatched + m.QuizzesAttempted + m.AssignmentsSubmitted
	participation := m.QuestionsAsked + m.DiscussionsJoined

	score := numeric.WeightedScore([]numeric.WeightedPart{
		{Value: numeric.Normalize(m.CompletionPercentage, 100), Weight: 0.30},
		{Value: numeric.Normalize(m.TimeSpentMinutes, engagementTimeSpentCap), Weight: 0.20},
		{Value: numeric.Normalize(float64(activity), engagementActivityCap), Weight: 0.30},
		{Value: numeric.Normalize(float64(participation), engagementParticipationCap), Weight: 0.20},
	})

	category := EngagementCategory(categorize(score, engagementBands, string(AtRisk)))

	if m.CompletionPercentage < atRiskCompletionFloor || activity == 0 {
		category = AtRisk
	}

	return score, category
}

// ValidEngagementCategory reports whether s names a known category. Used to
// validate getMany filters before they reach the store.
func ValidEngagementCategory(s string) bool {
	switch EngagementCategory(s) {
	case HighlyEngaged, ModeratelyEngaged, LowEngaged, AtRisk:
		return true
	}
	return false
}
