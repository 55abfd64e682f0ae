package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/keshavmalik0756/EduPulse-sub000/internal/scoring"
)

// EngagementRepo is the SQLite-backed scoring.EngagementStore.
type EngagementRepo struct {
	db *DB
}

// NewEngagementRepo creates an engagement record repository.
func NewEngagementRepo(db *DB) *EngagementRepo {
	return &EngagementRepo{db: db}
}

const engagementColumns = `
	id, student_id, course_id, completion_percentage, time_spent_minutes,
	lectures_watched, quizzes_attempted, average_quiz_score, assignments_submitted,
	questions_asked, discussions_joined, engagement_score, engagement_category,
	created_at, updated_at`

func scanEngagement(row interface{ Scan(...any) error }) (*scoring.EngagementRecord, error) {
	var rec scoring.EngagementRecord
	var category string
	err := row.Scan(
		&rec.ID, &rec.StudentID, &rec.CourseID,
		&rec.Metrics.CompletionPercentage, &rec.Metrics.TimeSpentMinutes,
		&rec.Metrics.LecturesWatched, &rec.Metrics.QuizzesAttempted,
		&rec.Metrics.AverageQuizScore, &rec.Metrics.AssignmentsSubmitted,
		&rec.Metrics.QuestionsAsked, &rec.Metrics.DiscussionsJoined,
		&rec.Score, &category, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Category = scoring.EngagementCategory(category)
	return &rec, nil
}

// Get returns the record for a (student, course) key, or (nil, nil) when none
// exists.
func (r *EngagementRepo) Get(ctx context.Context, studentID, courseID string) (*scoring.EngagementRecord, error) {
	rec, err := scanEngagement(r.db.QueryRowContext(ctx, `
		SELECT`+engagementColumns+`
		FROM engagement_records WHERE student_id = ? AND course_id = ?`,
		studentID, courseID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("get engagement record", err)
	}
	return rec, nil
}

// Save upserts the record on its (student, course) key.
func (r *EngagementRepo) Save(ctx context.Context, rec *scoring.EngagementRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO engagement_records (`+engagementColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(student_id, course_id) DO UPDATE SET
			completion_percentage = excluded.completion_percentage,
			time_spent_minutes = excluded.time_spent_minutes,
			lectures_watched = excluded.lectures_watched,
			quizzes_attempted = excluded.quizzes_attempted,
			average_quiz_score = excluded.average_quiz_score,
			assignments_submitted = excluded.assignments_submitted,
			questions_asked = excluded.questions_asked,
			discussions_joined = excluded.discussions_joined,
			engagement_score = excluded.engagement_score,
			engagement_category = excluded.engagement_category,
			updated_at = excluded.updated_at`,
		rec.ID, rec.StudentID, rec.CourseID,
		rec.Metrics.CompletionPercentage, rec.Metrics.TimeSpentMinutes,
		rec.Metrics.LecturesWatched, rec.Metrics.QuizzesAttempted,
		rec.Metrics.AverageQuizScore, rec.Metrics.AssignmentsSubmitted,
		rec.Metrics.QuestionsAsked, rec.Metrics.DiscussionsJoined,
		rec.Score, string(rec.Category), rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return wrapErr("save engagement record", err)
	}
	return nil
}

// ListByCourse returns a course's records sorted by score descending,
// optionally filtered by category.
func (r *EngagementRepo) ListByCourse(ctx context.Context, courseID, category string) ([]*scoring.EngagementRecord, error) {
	query := `
		SELECT` + engagementColumns + `
		FROM engagement_records WHERE course_id = ?`
	args := []any{courseID}
	if category != "" {
		query += ` AND engagement_category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY engagement_score DESC, student_id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list engagement records", err)
	}
	defer rows.Close()

	var out []*scoring.EngagementRecord
	for rows.Next() {
		rec, err := scanEngagement(rows)
		if err != nil {
			return nil, wrapErr("scan engagement record", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate engagement records", err)
	}
	return out, nil
}
