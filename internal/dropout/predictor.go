package dropout

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/keshavmalik0756/EduPulse-sub000/internal/errors"
	"github.com/keshavmalik0756/EduPulse-sub000/internal/numeric"
)

// PredictionMethod names the model that produced a prediction.
type PredictionMethod string

const (
	MethodPolynomial    PredictionMethod = "polynomial_regression"
	MethodMovingAverage PredictionMethod = "moving_average"
	MethodHybrid        PredictionMethod = "hybrid"
)

// RiskFactorKind enumerates the reasons a lecture is considered risky.
type RiskFactorKind string

const (
	RiskLength     RiskFactorKind = "length"
	RiskEngagement RiskFactorKind = "engagement"
	RiskComplexity RiskFactorKind = "complexity"
)

// Intervention is a recommended action derived from a risk factor.
type Intervention string

const (
	InterventionBreakDown   Intervention = "break_down_content"
	InterventionInteractive Intervention = "include_interactive_elements"
	InterventionAddExamples Intervention = "add_examples"
)

// interventionFor is the deterministic risk-factor to intervention lookup.
var interventionFor = map[RiskFactorKind]Intervention{
	RiskLength:     InterventionBreakDown,
	RiskEngagement: InterventionInteractive,
	RiskComplexity: InterventionAddExamples,
}

const (
	// Lectures longer than this many seconds carry a length risk factor.
	longLectureSeconds = 1800

	// Lectures with a dropoff probability above this carry an engagement
	// risk factor.
	engagementRiskThreshold = 70

	// Lectures completing below this rate carry a complexity risk factor.
	complexityRateThreshold = 50

	riskWeightCap = 80

	smoothingWindow = 3
	minValidRates   = 3

	// The moving-average model penalizes a lecture proportionally to how
	// far it falls below its local trend.
	deviationPenaltyFactor = 5
)

// RiskFactor pairs a risk kind with its 0-100 weight.
type RiskFactor struct {
	Factor RiskFactorKind `json:"factor"`
	Weight int            `json:"weight"`
}

// Prediction is the one live dropout record per (course, lecture). Dropoff
// probability and confidence are always recomputed together.
type Prediction struct {
	ID                       string           `json:"id"`
	CourseID                 string           `json:"course_id"`
	LectureID                string           `json:"lecture_id"`
	Position                 int              `json:"position"`
	HistoricalCompletionRate int              `json:"historical_completion_rate"`
	DropoffProbability       int              `json:"dropoff_probability"`
	Confidence               int              `json:"confidence"`
	RiskFactors              []RiskFactor     `json:"risk_factors"`
	Interventions            []Intervention   `json:"interventions"`
	Method                   PredictionMethod `json:"prediction_method"`
	CreatedAt                time.Time        `json:"created_at"`
	UpdatedAt                time.Time        `json:"updated_at"`
}

// LectureInfo is the raw per-lecture input pulled from the progress source.
type LectureInfo struct {
	LectureID       string
	Position        int // 1-based course order
	DurationSeconds int
	CompletedCount  int
	TotalProgress   int
}

// LectureSource reads a course's lectures in course order along with their
// completion counters. Read-only collaborator. Returns a NotFound error when
// the course does not exist.
type LectureSource interface {
	CourseLectures(ctx context.Context, courseID string) ([]LectureInfo, error)
}

// PredictionStore persists predictions, one live record per (course,
// lecture) via upsert.
type PredictionStore interface {
	Upsert(ctx context.Context, p *Prediction) error
	ListByCourse(ctx context.Context, courseID string) ([]*Prediction, error)
}

// CourseSummary aggregates a prediction batch for dashboards. Derived, not
// persisted.
type CourseSummary struct {
	AverageDropoff     int    `json:"average_dropoff"`
	HighestRiskLecture string `json:"highest_risk_lecture"`
	HighestRiskDropoff int    `json:"highest_risk_dropoff"`
}

// CourseResult is the outcome of one prediction batch. InsufficientData is a
// normal, expected outcome, not an error: fewer than three lectures with
// progress records means no model runs and no prediction is fabricated.
type CourseResult struct {
	CourseID         string           `json:"course_id"`
	Method           PredictionMethod `json:"method"`
	InsufficientData bool             `json:"insufficient_data"`
	Reason           string           `json:"reason,omitempty"`
	Predictions      []*Prediction    `json:"predictions"`
	Summary          *CourseSummary   `json:"summary,omitempty"`
}

// Predictor orchestrates smoothing and regression over a course's ordered
// lecture completion rates. Triggered on demand, not continuously.
type Predictor struct {
	lectures LectureSource
	store    PredictionStore
}

// NewPredictor creates a dropout predictor.
func NewPredictor(lectures LectureSource, store PredictionStore) *Predictor {
	return &Predictor{lectures: lectures, store: store}
}

// RecomputeCourse runs one prediction batch for a course using the chosen
// method and upserts one record per predictable lecture. The batch is
// all-or-nothing: predictions are computed for every lecture before any
// record is written.
func (p *Predictor) RecomputeCourse(ctx context.Context, courseID string, method PredictionMethod) (*CourseResult, error) {
	switch method {
	case MethodPolynomial, MethodMovingAverage, MethodHybrid:
	case "":
		method = MethodPolynomial
	default:
		return nil, apperrors.NewInvalidInput("unknown prediction method: " + string(method))
	}

	lectures, err := p.lectures.CourseLectures(ctx, courseID)
	if err != nil {
		return nil, err
	}

	// Completion rate per lecture; lectures without progress records have no
	// rate and are skipped by the models.
	type rated struct {
		info LectureInfo
		rate int
	}
	var valid []rated
	for _, lec := range lectures {
		if lec.TotalProgress <= 0 {
			continue
		}
		rate := numeric.RoundPct(float64(lec.CompletedCount) / float64(lec.TotalProgress))
		valid = append(valid, rated{info: lec, rate: rate})
	}

	if len(valid) < minValidRates {
		slog.Info("dropout prediction skipped, insufficient data",
			"course_id", courseID,
			"valid_lectures", len(valid),
		)
		return &CourseResult{
			CourseID:         courseID,
			Method:           method,
			InsufficientData: true,
			Reason:           "fewer than 3 lectures with progress records",
		}, nil
	}

	rates := make([]float64, len(valid))
	positions := make([]float64, len(valid))
	for i, v := range valid {
		rates[i] = float64(v.rate)
		positions[i] = float64(v.info.Position)
	}
	smoothed := numeric.MovingAverage(rates, smoothingWindow)

	var coeffs []float64
	if method == MethodPolynomial || method == MethodHybrid {
		coeffs = numeric.PolyFit(positions, smoothed, 2)
		if coeffs == nil {
			// Degenerate fit (collinear positions): surfaced as a normal
			// no-prediction outcome rather than NaN probabilities.
			return &CourseResult{
				CourseID:         courseID,
				Method:           method,
				InsufficientData: true,
				Reason:           "regression fit failed",
			}, nil
		}
	}

	predictions := make([]*Prediction, 0, len(valid))
	for i, v := range valid {
		var dropoff int
		switch method {
		case MethodPolynomial:
			dropoff = polyDropoff(coeffs, v.info.Position)
		case MethodMovingAverage:
			dropoff = trendDropoff(smoothed[i], rates[i])
		case MethodHybrid:
			// Both models vote; the hybrid probability is their mean.
			poly := polyDropoff(coeffs, v.info.Position)
			trend := trendDropoff(smoothed[i], rates[i])
			dropoff = int(math.Round(float64(poly+trend) / 2))
		}

		factors := riskFactors(v.info, v.rate, dropoff)
		pred := &Prediction{
			ID:                       uuid.New().String(),
			CourseID:                 courseID,
			LectureID:                v.info.LectureID,
			Position:                 v.info.Position,
			HistoricalCompletionRate: v.rate,
			DropoffProbability:       dropoff,
			Confidence:               confidence(v.rate, method),
			RiskFactors:              factors,
			Interventions:            interventions(factors),
			Method:                   method,
			CreatedAt:                time.Now(),
			UpdatedAt:                time.Now(),
		}
		predictions = append(predictions, pred)
	}

	for _, pred := range predictions {
		if err := p.store.Upsert(ctx, pred); err != nil {
			return nil, err
		}
	}

	slog.Info("dropout predictions recomputed",
		"course_id", courseID,
		"method", method,
		"lectures", len(predictions),
	)

	return &CourseResult{
		CourseID:    courseID,
		Method:      method,
		Predictions: predictions,
		Summary:     summarize(predictions),
	}, nil
}

// CoursePredictions returns the stored predictions for a course in lecture
// order.
func (p *Predictor) CoursePredictions(ctx context.Context, courseID string) ([]*Prediction, error) {
	if courseID == "" {
		return nil, apperrors.NewInvalidInput("course id is required")
	}
	return p.store.ListByCourse(ctx, courseID)
}

// polyDropoff is the regression model: the fitted curve predicts the
// completion rate at a position and the dropoff is its complement.
func polyDropoff(coeffs []float64, position int) int {
	predicted := numeric.PolyPredict(coeffs, float64(position))
	return int(numeric.Clamp(math.Round(100-predicted), 0, 100))
}

// trendDropoff is the moving-average model: a lecture is penalized
// proportionally to how far it falls below its local trend.
func trendDropoff(smoothed, actual float64) int {
	gap := (smoothed - actual) * deviationPenaltyFactor
	return int(numeric.Clamp(math.Round(gap), 0, 100))
}

// riskFactors derives a lecture's risk factors independently of the
// probability model.
func riskFactors(info LectureInfo, rate, dropoff int) []RiskFactor {
	var factors []RiskFactor

	if info.DurationSeconds > longLectureSeconds {
		weight := info.DurationSeconds / 60 // scales with duration in minutes
		if weight > riskWeightCap {
			weight = riskWeightCap
		}
		factors = append(factors, RiskFactor{Factor: RiskLength, Weight: weight})
	}
	if dropoff > engagementRiskThreshold {
		factors = append(factors, RiskFactor{Factor: RiskEngagement, Weight: 70})
	}
	if rate < complexityRateThreshold {
		weight := 100 - rate
		if weight > riskWeightCap {
			weight = riskWeightCap
		}
		factors = append(factors, RiskFactor{Factor: RiskComplexity, Weight: weight})
	}

	return factors
}

// interventions maps the present risk-factor kinds to their recommended
// actions.
func interventions(factors []RiskFactor) []Intervention {
	out := make([]Intervention, 0, len(factors))
	for _, f := range factors {
		if iv, ok := interventionFor[f.Factor]; ok {
			out = append(out, iv)
		}
	}
	return out
}

// confidence expresses trust in a prediction: 60% from how much historical
// completion data backs the lecture, 40% from the method's base factor.
func confidence(rate int, method PredictionMethod) int {
	methodFactor := 0.75 // hybrid: between its two constituents
	switch method {
	case MethodPolynomial:
		methodFactor = 0.85
	case MethodMovingAverage:
		methodFactor = 0.65
	}

	dataFactor := math.Min(float64(rate)/100, 1)
	return int(math.Round(100 * (0.6*dataFactor + 0.4*methodFactor)))
}

func summarize(predictions []*Prediction) *CourseSummary {
	if len(predictions) == 0 {
		return nil
	}

	sum := 0
	worst := predictions[0]
	for _, p := range predictions {
		sum += p.DropoffProbability
		if p.DropoffProbability > worst.DropoffProbability {
			worst = p
		}
	}

	return &CourseSummary{
		AverageDropoff:     int(math.Round(float64(sum) / float64(len(predictions)))),
		HighestRiskLecture: worst.LectureID,
		HighestRiskDropoff: worst.DropoffProbability,
	}
}
