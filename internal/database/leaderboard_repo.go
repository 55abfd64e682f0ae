package database

import (
	"context"

	"github.com/keshavmalik0756/EduPulse-sub000/internal/leaderboard"
)

// LeaderboardRepo is the SQLite-backed leaderboard.EntryStore.
type LeaderboardRepo struct {
	db *DB
}

// NewLeaderboardRepo creates a leaderboard entry repository.
func NewLeaderboardRepo(db *DB) *LeaderboardRepo {
	return &LeaderboardRepo{db: db}
}

// ReplaceAll swaps the stored leaderboard for a new ranking pass inside one
// transaction, so readers never observe a half-written pass and a failed
// pass leaves the previous leaderboard intact.
func (r *LeaderboardRepo) ReplaceAll(ctx context.Context, entries []*leaderboard.Entry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("begin leaderboard replace", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM leaderboard_entries`); err != nil {
		return wrapErr("clear leaderboard", err)
	}

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO leaderboard_entries (
				id, course_id, rank, composite_score, revenue_score,
				rating_score, views_score, enrollment_score, computed_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.CourseID, e.Rank, e.CompositeScore, e.RevenueScore,
			e.RatingScore, e.ViewsScore, e.EnrollmentScore, e.ComputedAt,
		); err != nil {
			return wrapErr("insert leaderboard entry", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("commit leaderboard replace", err)
	}
	return nil
}

// List returns the leaderboard in rank order.
func (r *LeaderboardRepo) List(ctx context.Context, limit int) ([]*leaderboard.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, course_id, rank, composite_score, revenue_score,
			rating_score, views_score, enrollment_score, computed_at
		FROM leaderboard_entries
		ORDER BY rank ASC, course_id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, wrapErr("list leaderboard entries", err)
	}
	defer rows.Close()

	var out []*leaderboard.Entry
	for rows.Next() {
		var e leaderboard.Entry
		if err := rows.Scan(
			&e.ID, &e.CourseID, &e.Rank, &e.CompositeScore, &e.RevenueScore,
			&e.RatingScore, &e.ViewsScore, &e.EnrollmentScore, &e.ComputedAt,
		); err != nil {
			return nil, wrapErr("scan leaderboard entry", err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate leaderboard entries", err)
	}
	return out, nil
}
