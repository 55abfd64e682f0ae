package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/keshavmalik0756/EduPulse-sub000/internal/telemetry"
)

// BucketRepo is the SQLite-backed telemetry.BucketStore.
type BucketRepo struct {
	db *DB
}

// NewBucketRepo creates a confusion bucket repository.
func NewBucketRepo(db *DB) *BucketRepo {
	return &BucketRepo{db: db}
}

func interactionColumn(kind telemetry.InteractionKind) string {
	switch kind {
	case telemetry.KindReplay, telemetry.KindRewind:
		return "replay_count"
	case telemetry.KindSkip:
		return "skip_count"
	default:
		return "pause_count"
	}
}

// MergeEvent finds or creates the bucket overlapping ts and merges the event
// into it inside one immediate transaction. The `count = count + 1` SQL form
// makes concurrent merges into the same window serialize in the store rather
// than racing in application memory.
func (r *BucketRepo) MergeEvent(ctx context.Context, lectureID, courseID string, ts int64, kind telemetry.InteractionKind, studentID string) (*telemetry.ConfusionBucket, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapErr("begin bucket merge", err)
	}
	defer tx.Rollback()

	var bucketID string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM confusion_buckets
		WHERE lecture_id = ? AND window_end >= ? AND window_start <= ?
		ORDER BY window_start LIMIT 1`,
		lectureID, ts-telemetry.WindowTolerance, ts+telemetry.WindowTolerance,
	).Scan(&bucketID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		fresh := telemetry.NewConfusionBucket(lectureID, courseID, ts)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO confusion_buckets (
				id, lecture_id, course_id, anchor, window_start, window_end,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			fresh.ID, fresh.LectureID, fresh.CourseID, fresh.Timestamp,
			fresh.WindowStart, fresh.WindowEnd, fresh.CreatedAt, fresh.UpdatedAt,
		); err != nil {
			return nil, wrapErr("create confusion bucket", err)
		}
		bucketID = fresh.ID
	case err != nil:
		return nil, wrapErr("find confusion bucket", err)
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx, `
		UPDATE confusion_buckets SET
			`+interactionColumn(kind)+` = `+interactionColumn(kind)+` + 1,
			watch_time_sum = watch_time_sum + ?,
			watch_time_count = watch_time_count + 1,
			updated_at = ?
		WHERE id = ?`,
		ts, now, bucketID,
	); err != nil {
		return nil, wrapErr("merge interaction counters", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO bucket_interactions (id, bucket_id, student_id, kind, occurred_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), bucketID, studentID, string(kind), ts, now,
	); err != nil {
		return nil, wrapErr("record interaction", err)
	}

	bucket, err := scanBucketTx(ctx, tx, bucketID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapErr("commit bucket merge", err)
	}
	return bucket, nil
}

func scanBucketTx(ctx context.Context, tx *sql.Tx, bucketID string) (*telemetry.ConfusionBucket, error) {
	var b telemetry.ConfusionBucket
	err := tx.QueryRowContext(ctx, `
		SELECT id, lecture_id, course_id, anchor, window_start, window_end,
			replay_count, skip_count, pause_count, watch_time_sum, watch_time_count,
			average_watch_time, confusion_score, created_at, updated_at
		FROM confusion_buckets WHERE id = ?`, bucketID,
	).Scan(
		&b.ID, &b.LectureID, &b.CourseID, &b.Timestamp, &b.WindowStart, &b.WindowEnd,
		&b.ReplayCount, &b.SkipCount, &b.PauseCount, &b.WatchTimeSum, &b.WatchTimeCount,
		&b.AverageWatchTime, &b.ConfusionScore, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, wrapErr("read confusion bucket", err)
	}
	return &b, nil
}

// UpdateDerived writes back the derived fields of a merged bucket.
func (r *BucketRepo) UpdateDerived(ctx context.Context, b *telemetry.ConfusionBucket) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE confusion_buckets SET average_watch_time = ?, confusion_score = ?, updated_at = ?
		WHERE id = ?`,
		b.AverageWatchTime, b.ConfusionScore, b.UpdatedAt, b.ID,
	)
	if err != nil {
		return wrapErr("update bucket derived fields", err)
	}
	return nil
}

// ListByLecture returns a lecture's buckets with their interactions, ordered
// by window start.
func (r *BucketRepo) ListByLecture(ctx context.Context, lectureID string) ([]*telemetry.ConfusionBucket, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, lecture_id, course_id, anchor, window_start, window_end,
			replay_count, skip_count, pause_count, watch_time_sum, watch_time_count,
			average_watch_time, confusion_score, created_at, updated_at
		FROM confusion_buckets WHERE lecture_id = ?
		ORDER BY window_start ASC`, lectureID)
	if err != nil {
		return nil, wrapErr("list confusion buckets", err)
	}
	defer rows.Close()

	var buckets []*telemetry.ConfusionBucket
	byID := make(map[string]*telemetry.ConfusionBucket)
	for rows.Next() {
		var b telemetry.ConfusionBucket
		if err := rows.Scan(
			&b.ID, &b.LectureID, &b.CourseID, &b.Timestamp, &b.WindowStart, &b.WindowEnd,
			&b.ReplayCount, &b.SkipCount, &b.PauseCount, &b.WatchTimeSum, &b.WatchTimeCount,
			&b.AverageWatchTime, &b.ConfusionScore, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, wrapErr("scan confusion bucket", err)
		}
		buckets = append(buckets, &b)
		byID[b.ID] = &b
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate confusion buckets", err)
	}

	irows, err := r.db.QueryContext(ctx, `
		SELECT i.bucket_id, i.student_id, i.kind, i.occurred_at
		FROM bucket_interactions i
		JOIN confusion_buckets b ON b.id = i.bucket_id
		WHERE b.lecture_id = ?
		ORDER BY i.created_at ASC`, lectureID)
	if err != nil {
		return nil, wrapErr("list bucket interactions", err)
	}
	defer irows.Close()

	for irows.Next() {
		var bucketID, kind string
		var studentID sql.NullString
		var occurredAt int64
		if err := irows.Scan(&bucketID, &studentID, &kind, &occurredAt); err != nil {
			return nil, wrapErr("scan bucket interaction", err)
		}
		if b, ok := byID[bucketID]; ok {
			b.Interactions = append(b.Interactions, telemetry.Interaction{
				StudentID:  studentID.String,
				Kind:       telemetry.InteractionKind(kind),
				OccurredAt: occurredAt,
			})
		}
	}
	if err := irows.Err(); err != nil {
		return nil, wrapErr("iterate bucket interactions", err)
	}

	return buckets, nil
}
