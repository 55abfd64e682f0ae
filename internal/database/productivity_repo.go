package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/keshavmalik0756/EduPulse-sub000/internal/scoring"
)

// ProductivityRepo is the SQLite-backed scoring.ProductivityStore.
type ProductivityRepo struct {
	db *DB
}

// NewProductivityRepo creates a productivity record repository.
func NewProductivityRepo(db *DB) *ProductivityRepo {
	return &ProductivityRepo{db: db}
}

func weekKey(weekStart time.Time) string {
	return scoring.WeekStartOf(weekStart).Format(dayFormat)
}

// ApplyDelta merges the weekly counter increments into the (educator, week)
// record in one upsert.
func (r *ProductivityRepo) ApplyDelta(ctx context.Context, educatorID string, weekStart time.Time, d scoring.ProductivityDelta) (*scoring.ProductivityRecord, error) {
	fresh := scoring.NewProductivityRecord(educatorID, weekStart)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO productivity_records (
			id, educator_id, week_start, courses_created, lectures_uploaded,
			notes_uploaded, assignments, quizzes, productivity_score,
			productivity_category, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)
		ON CONFLICT(educator_id, week_start) DO UPDATE SET
			courses_created = courses_created + excluded.courses_created,
			lectures_uploaded = lectures_uploaded + excluded.lectures_uploaded,
			notes_uploaded = notes_uploaded + excluded.notes_uploaded,
			assignments = assignments + excluded.assignments,
			quizzes = quizzes + excluded.quizzes,
			updated_at = excluded.updated_at`,
		fresh.ID, educatorID, weekKey(weekStart),
		d.CoursesCreated, d.LecturesUploaded, d.NotesUploaded, d.Assignments, d.Quizzes,
		string(fresh.Category), fresh.CreatedAt, fresh.UpdatedAt,
	)
	if err != nil {
		return nil, wrapErr("apply productivity delta", err)
	}

	rec, err := r.Get(ctx, educatorID, weekStart)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, wrapErr("read merged productivity record", sql.ErrNoRows)
	}
	return rec, nil
}

// SaveDerived writes back the derived score and category.
func (r *ProductivityRepo) SaveDerived(ctx context.Context, rec *scoring.ProductivityRecord) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE productivity_records SET productivity_score = ?, productivity_category = ?, updated_at = ?
		WHERE educator_id = ? AND week_start = ?`,
		rec.Score, string(rec.Category), rec.UpdatedAt, rec.EducatorID, weekKey(rec.WeekStart),
	)
	if err != nil {
		return wrapErr("save productivity derived fields", err)
	}
	return nil
}

func scanProductivity(row interface{ Scan(...any) error }) (*scoring.ProductivityRecord, error) {
	var rec scoring.ProductivityRecord
	var week, category string
	err := row.Scan(
		&rec.ID, &rec.EducatorID, &week,
		&rec.Metrics.CoursesCreated, &rec.Metrics.LecturesUploaded,
		&rec.Metrics.NotesUploaded, &rec.Metrics.Assignments, &rec.Metrics.Quizzes,
		&rec.Score, &category, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	parsed, err := time.ParseInLocation(dayFormat, week, time.UTC)
	if err != nil {
		return nil, err
	}
	rec.WeekStart = parsed
	rec.Category = scoring.ProductivityCategory(category)
	return &rec, nil
}

// Get returns the (educator, week) record, or (nil, nil) when none exists.
func (r *ProductivityRepo) Get(ctx context.Context, educatorID string, weekStart time.Time) (*scoring.ProductivityRecord, error) {
	rec, err := scanProductivity(r.db.QueryRowContext(ctx, `
		SELECT id, educator_id, week_start, courses_created, lectures_uploaded,
			notes_uploaded, assignments, quizzes, productivity_score,
			productivity_category, created_at, updated_at
		FROM productivity_records WHERE educator_id = ? AND week_start = ?`,
		educatorID, weekKey(weekStart)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("get productivity record", err)
	}
	return rec, nil
}

// ListByEducator returns an educator's weekly records, week ascending.
func (r *ProductivityRepo) ListByEducator(ctx context.Context, educatorID string) ([]*scoring.ProductivityRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, educator_id, week_start, courses_created, lectures_uploaded,
			notes_uploaded, assignments, quizzes, productivity_score,
			productivity_category, created_at, updated_at
		FROM productivity_records WHERE educator_id = ?
		ORDER BY week_start ASC`, educatorID)
	if err != nil {
		return nil, wrapErr("list productivity records", err)
	}
	defer rows.Close()

	var out []*scoring.ProductivityRecord
	for rows.Next() {
		rec, err := scanProductivity(rows)
		if err != nil {
			return nil, wrapErr("scan productivity record", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate productivity records", err)
	}
	return out, nil
}
