package database

import (
	"context"
	"encoding/json"

	"github.com/keshavmalik0756/EduPulse-sub000/internal/dropout"
)

// DropoutRepo is the SQLite-backed dropout.PredictionStore.
type DropoutRepo struct {
	db *DB
}

// NewDropoutRepo creates a dropout prediction repository.
func NewDropoutRepo(db *DB) *DropoutRepo {
	return &DropoutRepo{db: db}
}

// Upsert keeps one live prediction per (course, lecture), replacing the
// previous batch's record.
func (r *DropoutRepo) Upsert(ctx context.Context, p *dropout.Prediction) error {
	factors, err := json.Marshal(p.RiskFactors)
	if err != nil {
		return wrapErr("marshal risk factors", err)
	}
	interventions, err := json.Marshal(p.Interventions)
	if err != nil {
		return wrapErr("marshal interventions", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO dropout_predictions (
			id, course_id, lecture_id, position, historical_completion_rate,
			dropoff_probability, confidence, risk_factors, interventions,
			prediction_method, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(course_id, lecture_id) DO UPDATE SET
			position = excluded.position,
			historical_completion_rate = excluded.historical_completion_rate,
			dropoff_probability = excluded.dropoff_probability,
			confidence = excluded.confidence,
			risk_factors = excluded.risk_factors,
			interventions = excluded.interventions,
			prediction_method = excluded.prediction_method,
			updated_at = excluded.updated_at`,
		p.ID, p.CourseID, p.LectureID, p.Position, p.HistoricalCompletionRate,
		p.DropoffProbability, p.Confidence, string(factors), string(interventions),
		string(p.Method), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return wrapErr("upsert dropout prediction", err)
	}
	return nil
}

// ListByCourse returns a course's stored predictions in lecture order.
func (r *DropoutRepo) ListByCourse(ctx context.Context, courseID string) ([]*dropout.Prediction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, course_id, lecture_id, position, historical_completion_rate,
			dropoff_probability, confidence, risk_factors, interventions,
			prediction_method, created_at, updated_at
		FROM dropout_predictions WHERE course_id = ?
		ORDER BY position ASC`, courseID)
	if err != nil {
		return nil, wrapErr("list dropout predictions", err)
	}
	defer rows.Close()

	var out []*dropout.Prediction
	for rows.Next() {
		var p dropout.Prediction
		var factors, interventions, method string
		if err := rows.Scan(
			&p.ID, &p.CourseID, &p.LectureID, &p.Position, &p.HistoricalCompletionRate,
			&p.DropoffProbability, &p.Confidence, &factors, &interventions,
			&method, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, wrapErr("scan dropout prediction", err)
		}
		if err := json.Unmarshal([]byte(factors), &p.RiskFactors); err != nil {
			return nil, wrapErr("unmarshal risk factors", err)
		}
		if err := json.Unmarshal([]byte(interventions), &p.Interventions); err != nil {
			return nil, wrapErr("unmarshal interventions", err)
		}
		p.Method = dropout.PredictionMethod(method)
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate dropout predictions", err)
	}
	return out, nil
}
