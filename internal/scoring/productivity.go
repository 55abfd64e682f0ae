package scoring

import (
	"time"

	"github.com/google/uuid"

	"github.com/keshavmalik0756/EduPulse-sub000/internal/numeric"
)

// ProductivityCategory classifies an educator's weekly output.
type ProductivityCategory string

const (
	ProductivityExceptional      ProductivityCategory = "exceptional"
	ProductivityHigh             ProductivityCategory = "high"
	ProductivityModerate         ProductivityCategory = "moderate"
	ProductivityLow              ProductivityCategory = "low"
	ProductivityNeedsImprovement ProductivityCategory = "needs_improvement"
)

var productivityBands = []band{
	{min: 90, label: string(ProductivityExceptional)},
	{min: 75, label: string(ProductivityHigh)},
	{min: 60, label: string(ProductivityModerate)},
	{min: 40, label: string(ProductivityLow)},
}

// Weekly caps per metric.
const (
	productivityCourseCap  = 2
	productivityLectureCap = 10
	productivityNoteCap    = 15
)

// ProductivityMetrics are the raw weekly counters for one (educator, week).
// Assignments and quizzes are tracked for dashboards but do not enter the
// weighted score.
type ProductivityMetrics struct {
	CoursesCreated   int `json:"courses_created"`
	LecturesUploaded int `json:"lectures_uploaded"`
	NotesUploaded    int `json:"notes_uploaded"`
	Assignments      int `json:"assignments"`
	Quizzes          int `json:"quizzes"`
}

// ProductivityRecord is the one live record per (educator, week-start date).
type ProductivityRecord struct {
	ID         string               `json:"id"`
	EducatorID string               `json:"educator_id"`
	WeekStart  time.Time            `json:"week_start"` // Monday, midnight UTC
	Metrics    ProductivityMetrics  `json:"metrics"`
	Score      int                  `json:"productivity_score"`
	Category   ProductivityCategory `json:"productivity_category"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// WeekStartOf returns the Monday midnight UTC that anchors the week
// containing t.
func WeekStartOf(t time.Time) time.Time {
	t = t.UTC()
	days := (int(t.Weekday()) + 6) % 7 // Monday = 0
	start := t.AddDate(0, 0, -days)
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
}

// NewProductivityRecord creates an empty productivity record for a week.
func NewProductivityRecord(educatorID string, weekStart time.Time) *ProductivityRecord {
	now := time.Now()
	rec := &ProductivityRecord{
		ID:         uuid.New().String(),
		EducatorID: educatorID,
		WeekStart:  WeekStartOf(weekStart),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	rec.Recompute()
	return rec
}

// Recompute re-derives score and category from the weekly counters.
func (r *ProductivityRecord) Recompute() {
	r.Score, r.Category = ScoreProductivity(r.Metrics)
}

// ScoreProductivity computes the weighted productivity score and category.
func ScoreProductivity(m ProductivityMetrics) (int, ProductivityCategory) {
	score := numeric.WeightedScore([]numeric.WeightedPart{
		{Value: numeric.Normalize(float64(m.CoursesCreated), productivityCourseCap), Weight: 0.30},
		{Value: numeric.Normalize(float64(m.LecturesUploaded), productivityLectureCap), Weight: 0.40},
		{Value: numeric.Normalize(float64(m.NotesUploaded), productivityNoteCap), Weight: 0.30},
	})

	return score, ProductivityCategory(categorize(score, productivityBands, string(ProductivityNeedsImprovement)))
}
