package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/keshavmalik0756/EduPulse-sub000/internal/dropout"
	apperrors "github.com/keshavmalik0756/EduPulse-sub000/internal/errors"
	"github.com/keshavmalik0756/EduPulse-sub000/internal/leaderboard"
	"github.com/keshavmalik0756/EduPulse-sub000/internal/scoring"
)

// SourceRepo reads and maintains the raw course data the batch recomputations
// pull on demand: lecture metadata, per-student lecture progress and
// per-course business metrics. It backs dropout.LectureSource,
// scoring.LectureStatsSource and leaderboard.MetricsSource.
type SourceRepo struct {
	db *DB
}

// NewSourceRepo creates a raw-source repository.
func NewSourceRepo(db *DB) *SourceRepo {
	return &SourceRepo{db: db}
}

// Lecture is raw lecture metadata registered by the course platform.
type Lecture struct {
	ID              string `json:"id"`
	CourseID        string `json:"course_id"`
	Title           string `json:"title"`
	Position        int    `json:"position"`
	DurationSeconds int    `json:"duration_seconds"`
	Likes           int    `json:"likes"`
	Dislikes        int    `json:"dislikes"`
}

// UpsertLecture registers or updates a lecture's metadata.
func (r *SourceRepo) UpsertLecture(ctx context.Context, lec Lecture) error {
	if lec.ID == "" {
		lec.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO lectures (id, course_id, title, position, duration_seconds, likes, dislikes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			position = excluded.position,
			duration_seconds = excluded.duration_seconds,
			likes = excluded.likes,
			dislikes = excluded.dislikes`,
		lec.ID, lec.CourseID, lec.Title, lec.Position, lec.DurationSeconds,
		lec.Likes, lec.Dislikes, time.Now(),
	)
	if err != nil {
		return wrapErr("upsert lecture", err)
	}
	return nil
}

// RecordLectureProgress upserts one student's progress on a lecture.
func (r *SourceRepo) RecordLectureProgress(ctx context.Context, lectureID, studentID string, completed bool, watchSeconds int) error {
	var exists int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM lectures WHERE id = ?`, lectureID).Scan(&exists); err != nil {
		return wrapErr("check lecture", err)
	}
	if exists == 0 {
		return apperrors.NewNotFound("lecture", lectureID)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO lecture_progress (id, lecture_id, student_id, completed, watch_seconds, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(lecture_id, student_id) DO UPDATE SET
			completed = excluded.completed,
			watch_seconds = MAX(watch_seconds, excluded.watch_seconds),
			updated_at = excluded.updated_at`,
		uuid.New().String(), lectureID, studentID, completed, watchSeconds, time.Now(),
	)
	if err != nil {
		return wrapErr("record lecture progress", err)
	}
	return nil
}

// UpsertCourseMetrics replaces a course's business counters.
func (r *SourceRepo) UpsertCourseMetrics(ctx context.Context, m leaderboard.CourseMetrics) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO course_metrics (course_id, revenue, rating, views, enrollments, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(course_id) DO UPDATE SET
			revenue = excluded.revenue,
			rating = excluded.rating,
			views = excluded.views,
			enrollments = excluded.enrollments,
			updated_at = excluded.updated_at`,
		m.CourseID, m.Revenue, m.Rating, m.Views, m.Enrollments, time.Now(),
	)
	if err != nil {
		return wrapErr("upsert course metrics", err)
	}
	return nil
}

// CourseLectures returns a course's lectures in course order with their
// completion rollups. A course with no registered lectures is not found.
func (r *SourceRepo) CourseLectures(ctx context.Context, courseID string) ([]dropout.LectureInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT l.id, l.position, l.duration_seconds,
			COALESCE(SUM(CASE WHEN p.completed THEN 1 ELSE 0 END), 0),
			COUNT(p.id)
		FROM lectures l
		LEFT JOIN lecture_progress p ON p.lecture_id = l.id
		WHERE l.course_id = ?
		GROUP BY l.id
		ORDER BY l.position ASC`, courseID)
	if err != nil {
		return nil, wrapErr("list course lectures", err)
	}
	defer rows.Close()

	var out []dropout.LectureInfo
	for rows.Next() {
		var info dropout.LectureInfo
		if err := rows.Scan(&info.LectureID, &info.Position, &info.DurationSeconds,
			&info.CompletedCount, &info.TotalProgress); err != nil {
			return nil, wrapErr("scan course lecture", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate course lectures", err)
	}
	if len(out) == 0 {
		return nil, apperrors.NewNotFound("course", courseID)
	}
	return out, nil
}

// LectureStats returns the raw quality inputs for every lecture in a course.
// Total students comes from the course's enrollment counter; the engagement
// input is the course's mean engagement score.
func (r *SourceRepo) LectureStats(ctx context.Context, courseID string) ([]scoring.LectureStats, error) {
	var enrollments int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE((SELECT enrollments FROM course_metrics WHERE course_id = ?), 0)`,
		courseID).Scan(&enrollments); err != nil {
		return nil, wrapErr("read course enrollments", err)
	}

	var avgEngagement float64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(engagement_score), 0) FROM engagement_records WHERE course_id = ?`,
		courseID).Scan(&avgEngagement); err != nil {
		return nil, wrapErr("read course engagement average", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT l.id, l.title, l.likes, l.dislikes,
			COALESCE(SUM(CASE WHEN p.watch_seconds > 0 OR p.completed THEN 1 ELSE 0 END), 0)
		FROM lectures l
		LEFT JOIN lecture_progress p ON p.lecture_id = l.id
		WHERE l.course_id = ?
		GROUP BY l.id
		ORDER BY l.position ASC`, courseID)
	if err != nil {
		return nil, wrapErr("list lecture stats", err)
	}
	defer rows.Close()

	var out []scoring.LectureStats
	for rows.Next() {
		var st scoring.LectureStats
		if err := rows.Scan(&st.LectureID, &st.Title, &st.Likes, &st.Dislikes, &st.WatchedCount); err != nil {
			return nil, wrapErr("scan lecture stats", err)
		}
		st.TotalStudents = enrollments
		st.EngagementScore = avgEngagement
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate lecture stats", err)
	}
	if len(out) == 0 {
		return nil, apperrors.NewNotFound("course", courseID)
	}
	return out, nil
}

// AllCourseMetrics returns every course's raw business counters for a
// leaderboard ranking pass.
func (r *SourceRepo) AllCourseMetrics(ctx context.Context) ([]leaderboard.CourseMetrics, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT course_id, revenue, rating, views, enrollments
		FROM course_metrics ORDER BY course_id ASC`)
	if err != nil {
		return nil, wrapErr("list course metrics", err)
	}
	defer rows.Close()

	var out []leaderboard.CourseMetrics
	for rows.Next() {
		var m leaderboard.CourseMetrics
		if err := rows.Scan(&m.CourseID, &m.Revenue, &m.Rating, &m.Views, &m.Enrollments); err != nil {
			return nil, wrapErr("scan course metrics", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate course metrics", err)
	}
	return out, nil
}
