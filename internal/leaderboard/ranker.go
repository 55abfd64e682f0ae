package leaderboard

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/keshavmalik0756/EduPulse-sub000/internal/numeric"
)

// Category weights of the composite course score.
const (
	revenueWeight    = 0.30
	ratingWeight     = 0.20
	viewsWeight      = 0.20
	enrollmentWeight = 0.30
)

// CourseMetrics is the raw per-course input to one ranking pass.
type CourseMetrics struct {
	CourseID    string  `json:"course_id"`
	Revenue     float64 `json:"revenue"`
	Rating      float64 `json:"rating"`
	Views       int     `json:"views"`
	Enrollments int     `json:"enrollments"`
}

// Entry is one ranked leaderboard row. Scores and rank are always produced
// together by a full ranking pass; entries are never edited individually.
type Entry struct {
	ID              string    `json:"id"`
	CourseID        string    `json:"course_id"`
	Rank            int       `json:"rank"`
	CompositeScore  int       `json:"composite_score"`
	RevenueScore    int       `json:"revenue_score"`
	RatingScore     int       `json:"rating_score"`
	ViewsScore      int       `json:"views_score"`
	EnrollmentScore int       `json:"enrollment_score"`
	ComputedAt      time.Time `json:"computed_at"`
}

// categoryScore normalizes a value against the best observed value in its
// category and applies the category weight. A category nobody scores in
// contributes nothing to anyone.
func categoryScore(value, max, weight float64) int {
	if max <= 0 {
		return 0
	}
	normalized := math.Min(value/max, 1)
	return int(math.Round(100 * normalized * weight))
}

// Rank scores every course against the cohort and assigns ranks 1..n in
// sorted order. All composite scores are computed against the observed maxima
// before any rank is assigned, so entry order never depends on input order.
// Ties break by course id ascending; every entry gets a distinct rank.
func Rank(metrics []CourseMetrics) []*Entry {
	if len(metrics) == 0 {
		return nil
	}

	var maxRevenue, maxRating, maxViews, maxEnrollments float64
	for _, m := range metrics {
		maxRevenue = math.Max(maxRevenue, m.Revenue)
		maxRating = math.Max(maxRating, m.Rating)
		maxViews = math.Max(maxViews, float64(m.Views))
		maxEnrollments = math.Max(maxEnrollments, float64(m.Enrollments))
	}

	now := time.Now()
	entries := make([]*Entry, 0, len(metrics))
	for _, m := range metrics {
		e := &Entry{
			ID:              uuid.New().String(),
			CourseID:        m.CourseID,
			RevenueScore:    categoryScore(m.Revenue, maxRevenue, revenueWeight),
			RatingScore:     categoryScore(m.Rating, maxRating, ratingWeight),
			ViewsScore:      categoryScore(float64(m.Views), maxViews, viewsWeight),
			EnrollmentScore: categoryScore(float64(m.Enrollments), maxEnrollments, enrollmentWeight),
			ComputedAt:      now,
		}
		e.CompositeScore = numeric.ClampScore(
			e.RevenueScore + e.RatingScore + e.ViewsScore + e.EnrollmentScore)
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CompositeScore != entries[j].CompositeScore {
			return entries[i].CompositeScore > entries[j].CompositeScore
		}
		return entries[i].CourseID < entries[j].CourseID
	})

	// Ranks are a permutation of 1..n: tied scores still take consecutive
	// ranks in tie-break order.
	for i, e := range entries {
		e.Rank = i + 1
	}

	return entries
}
