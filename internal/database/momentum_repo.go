package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/keshavmalik0756/EduPulse-sub000/internal/scoring"
)

// MomentumRepo is the SQLite-backed scoring.MomentumStore.
type MomentumRepo struct {
	db *DB
}

// NewMomentumRepo creates a momentum record repository.
func NewMomentumRepo(db *DB) *MomentumRepo {
	return &MomentumRepo{db: db}
}

const dayFormat = "2006-01-02"

func momentumDay(day time.Time) string {
	return day.UTC().Truncate(24 * time.Hour).Format(dayFormat)
}

// ApplyDelta merges the daily counter increments into the (course, day)
// record in one upsert, so concurrent ingest for the same day accumulates in
// the store instead of racing.
func (r *MomentumRepo) ApplyDelta(ctx context.Context, courseID string, day time.Time, d scoring.MomentumDelta) (*scoring.MomentumRecord, error) {
	fresh := scoring.NewMomentumRecord(courseID, day)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO momentum_records (
			id, course_id, day, enrollments, completions, reviews, questions,
			momentum_score, engagement_rate, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?)
		ON CONFLICT(course_id, day) DO UPDATE SET
			enrollments = enrollments + excluded.enrollments,
			completions = completions + excluded.completions,
			reviews = reviews + excluded.reviews,
			questions = questions + excluded.questions,
			updated_at = excluded.updated_at`,
		fresh.ID, courseID, momentumDay(day),
		d.Enrollments, d.Completions, d.Reviews, d.Questions,
		fresh.CreatedAt, fresh.UpdatedAt,
	)
	if err != nil {
		return nil, wrapErr("apply momentum delta", err)
	}

	rec, err := r.Get(ctx, courseID, day)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, wrapErr("read merged momentum record", sql.ErrNoRows)
	}
	return rec, nil
}

// SaveDerived writes back the derived score and engagement rate.
func (r *MomentumRepo) SaveDerived(ctx context.Context, rec *scoring.MomentumRecord) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE momentum_records SET momentum_score = ?, engagement_rate = ?, updated_at = ?
		WHERE course_id = ? AND day = ?`,
		rec.Score, rec.EngagementRate, rec.UpdatedAt, rec.CourseID, momentumDay(rec.Day),
	)
	if err != nil {
		return wrapErr("save momentum derived fields", err)
	}
	return nil
}

func scanMomentum(row interface{ Scan(...any) error }) (*scoring.MomentumRecord, error) {
	var rec scoring.MomentumRecord
	var day string
	err := row.Scan(
		&rec.ID, &rec.CourseID, &day,
		&rec.Metrics.Enrollments, &rec.Metrics.Completions,
		&rec.Metrics.Reviews, &rec.Metrics.Questions,
		&rec.Score, &rec.EngagementRate, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	parsed, err := time.ParseInLocation(dayFormat, day, time.UTC)
	if err != nil {
		return nil, err
	}
	rec.Day = parsed
	return &rec, nil
}

// Get returns the (course, day) record, or (nil, nil) when none exists.
func (r *MomentumRepo) Get(ctx context.Context, courseID string, day time.Time) (*scoring.MomentumRecord, error) {
	rec, err := scanMomentum(r.db.QueryRowContext(ctx, `
		SELECT id, course_id, day, enrollments, completions, reviews, questions,
			momentum_score, engagement_rate, created_at, updated_at
		FROM momentum_records WHERE course_id = ? AND day = ?`,
		courseID, momentumDay(day)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("get momentum record", err)
	}
	return rec, nil
}

// ListByCourse returns a course's daily series time ascending, bounded by the
// optional [from, to] range.
func (r *MomentumRepo) ListByCourse(ctx context.Context, courseID string, from, to time.Time) ([]*scoring.MomentumRecord, error) {
	query := `
		SELECT id, course_id, day, enrollments, completions, reviews, questions,
			momentum_score, engagement_rate, created_at, updated_at
		FROM momentum_records WHERE course_id = ?`
	args := []any{courseID}
	if !from.IsZero() {
		query += ` AND day >= ?`
		args = append(args, momentumDay(from))
	}
	if !to.IsZero() {
		query += ` AND day <= ?`
		args = append(args, momentumDay(to))
	}
	query += ` ORDER BY day ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list momentum records", err)
	}
	defer rows.Close()

	var out []*scoring.MomentumRecord
	for rows.Next() {
		rec, err := scanMomentum(rows)
		if err != nil {
			return nil, wrapErr("scan momentum record", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate momentum records", err)
	}
	return out, nil
}
