package types

import "github.com/keshavmalik0756/EduPulse-sub000/internal/scoring"

// InteractionRequest is one player telemetry event posted by the ingest
// endpoint. Timestamp is seconds into the lecture, not wall-clock time.
type InteractionRequest struct {
	LectureID string `json:"lecture_id" binding:"required"`
	CourseID  string `json:"course_id" binding:"required"`
	StudentID string `json:"student_id"`
	Timestamp int64  `json:"timestamp"`
	Kind      string `json:"kind" binding:"required"`
}

// EngagementIngestRequest carries a partial update of one student's raw
// engagement counters for a course.
type EngagementIngestRequest struct {
	StudentID string                  `json:"student_id" binding:"required"`
	CourseID  string                  `json:"course_id" binding:"required"`
	Delta     scoring.EngagementDelta `json:"delta"`
}

// MomentumIngestRequest carries additive daily activity counters for a course.
// Day is "2006-01-02"; empty means today.
type MomentumIngestRequest struct {
	CourseID string                `json:"course_id" binding:"required"`
	Day      string                `json:"day"`
	Delta    scoring.MomentumDelta `json:"delta"`
}

// ProductivityIngestRequest carries additive weekly output counters for an
// educator. At is "2006-01-02"; empty means now. The engine snaps it to the
// Monday of its week.
type ProductivityIngestRequest struct {
	EducatorID string                    `json:"educator_id" binding:"required"`
	At         string                    `json:"at"`
	Delta      scoring.ProductivityDelta `json:"delta"`
}

// LectureUpsertRequest registers or updates raw lecture metadata.
type LectureUpsertRequest struct {
	ID              string `json:"id"`
	CourseID        string `json:"course_id" binding:"required"`
	Title           string `json:"title"`
	Position        int    `json:"position" binding:"required"`
	DurationSeconds int    `json:"duration_seconds"`
	Likes           int    `json:"likes"`
	Dislikes        int    `json:"dislikes"`
}

// ProgressRequest records one student's watch progress on a lecture.
type ProgressRequest struct {
	StudentID    string `json:"student_id" binding:"required"`
	Completed    bool   `json:"completed"`
	WatchSeconds int    `json:"watch_seconds"`
}

// CourseMetricsRequest sets the business metrics the leaderboard ranks on.
type CourseMetricsRequest struct {
	Revenue     float64 `json:"revenue"`
	Rating      float64 `json:"rating"`
	Views       int     `json:"views"`
	Enrollments int     `json:"enrollments"`
}
