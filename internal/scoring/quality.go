package scoring

import (
	"math"

	"github.com/keshavmalik0756/EduPulse-sub000/internal/numeric"
)

// QualityCategory classifies a lecture by its composite quality score.
type QualityCategory string

const (
	QualityExcellent QualityCategory = "excellent"
	QualityGood      QualityCategory = "good"
	QualityFair      QualityCategory = "fair"
	QualityPoor      QualityCategory = "poor"
)

var qualityBands = []band{
	{min: 85, label: string(QualityExcellent)},
	{min: 70, label: string(QualityGood)},
	{min: 50, label: string(QualityFair)},
}

// heatColors mirror the quality thresholds for dashboard visualization.
var heatColors = []band{
	{min: 85, label: "green"},
	{min: 70, label: "yellow"},
	{min: 50, label: "orange"},
}

// QualityMetrics are the raw inputs to a lecture quality score.
type QualityMetrics struct {
	WatchedCount    int     `json:"watched_count"`
	TotalStudents   int     `json:"total_students"`
	Likes           int     `json:"likes"`
	Dislikes        int     `json:"dislikes"`
	EngagementScore float64 `json:"engagement_score"` // already 0-100
}

// QualityResult carries the composite score, its sub-scores, the category
// and the heat color used by the lecture heatmap.
type QualityResult struct {
	WatchScore      int             `json:"watch_score"`
	LikeScore       int             `json:"like_score"`
	EngagementScore int             `json:"engagement_score"`
	QualityScore    int             `json:"quality_score"`
	Category        QualityCategory `json:"category"`
	HeatColor       string          `json:"heat_color"`
}

// ScoreLectureQuality combines the watch-ratio, like-ratio and engagement
// sub-scores 40/30/30 into a composite quality score. With no like or
// dislike interactions the like ratio defaults to a neutral 50.
func ScoreLectureQuality(m QualityMetrics) QualityResult {
	watchScore := 0
	if m.TotalStudents > 0 {
		watchScore = numeric.RoundPct(float64(m.WatchedCount) / float64(m.TotalStudents))
	}

	likeScore := 50
	if m.Likes+m.Dislikes > 0 {
		likeScore = numeric.RoundPct(float64(m.Likes) / float64(m.Likes+m.Dislikes))
	}

	engagementScore := numeric.ClampScore(int(math.Round(m.EngagementScore)))

	quality := numeric.ClampScore(int(math.Round(
		0.40*float64(watchScore) + 0.30*float64(likeScore) + 0.30*float64(engagementScore))))

	return QualityResult{
		WatchScore:      watchScore,
		LikeScore:       likeScore,
		EngagementScore: engagementScore,
		QualityScore:    quality,
		Category:        QualityCategory(categorize(quality, qualityBands, string(QualityPoor))),
		HeatColor:       categorize(quality, heatColors, "red"),
	}
}
