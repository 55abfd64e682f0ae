package scoring

import (
	"context"
	"log/slog"
	"time"

	apperrors "github.com/keshavmalik0756/EduPulse-sub000/internal/errors"
)

// EngagementStore is the keyed-record store for engagement records. Get
// returns (nil, nil) when no record exists for the key. Engagement records
// have one logical writer per (student, course) key, so Save is a plain
// upsert.
type EngagementStore interface {
	Get(ctx context.Context, studentID, courseID string) (*EngagementRecord, error)
	Save(ctx context.Context, rec *EngagementRecord) error
	ListByCourse(ctx context.Context, courseID, category string) ([]*EngagementRecord, error)
}

// MomentumStore is the keyed-record store for per-day course momentum.
// ApplyDelta must merge the counter increments atomically (find-or-create
// plus increment in one store operation) so concurrent ingest for the same
// day cannot lose updates, and returns the merged record.
type MomentumStore interface {
	ApplyDelta(ctx context.Context, courseID string, day time.Time, d MomentumDelta) (*MomentumRecord, error)
	SaveDerived(ctx context.Context, rec *MomentumRecord) error
	Get(ctx context.Context, courseID string, day time.Time) (*MomentumRecord, error)
	ListByCourse(ctx context.Context, courseID string, from, to time.Time) ([]*MomentumRecord, error)
}

// ProductivityStore is the keyed-record store for per-week educator
// productivity. Same atomic-merge discipline as MomentumStore.
type ProductivityStore interface {
	ApplyDelta(ctx context.Context, educatorID string, weekStart time.Time, d ProductivityDelta) (*ProductivityRecord, error)
	SaveDerived(ctx context.Context, rec *ProductivityRecord) error
	Get(ctx context.Context, educatorID string, weekStart time.Time) (*ProductivityRecord, error)
	ListByEducator(ctx context.Context, educatorID string) ([]*ProductivityRecord, error)
}

// LectureStatsSource reads raw per-lecture quality inputs for a course.
// Read-only collaborator, pulled on demand.
type LectureStatsSource interface {
	LectureStats(ctx context.Context, courseID string) ([]LectureStats, error)
}

// LectureStats are the raw quality inputs for one lecture.
type LectureStats struct {
	LectureID       string  `json:"lecture_id"`
	Title           string  `json:"title"`
	WatchedCount    int     `json:"watched_count"`
	TotalStudents   int     `json:"total_students"`
	Likes           int     `json:"likes"`
	Dislikes        int     `json:"dislikes"`
	EngagementScore float64 `json:"engagement_score"`
}

// LectureQualityView pairs a lecture with its computed quality result.
type LectureQualityView struct {
	LectureID string        `json:"lecture_id"`
	Title     string        `json:"title"`
	Quality   QualityResult `json:"quality"`
}

// EngagementDelta enumerates the externally settable raw counters of an
// engagement record. Nil fields are left untouched; set fields replace the
// stored value. Score and category are engine-owned and recomputed on every
// mutation.
type EngagementDelta struct {
	CompletionPercentage *float64 `json:"completion_percentage,omitempty"`
	TimeSpentMinutes     *float64 `json:"time_spent_minutes,omitempty"`
	LecturesWatched      *int     `json:"lectures_watched,omitempty"`
	QuizzesAttempted     *int     `json:"quizzes_attempted,omitempty"`
	AverageQuizScore     *float64 `json:"average_quiz_score,omitempty"`
	AssignmentsSubmitted *int     `json:"assignments_submitted,omitempty"`
	QuestionsAsked       *int     `json:"questions_asked,omitempty"`
	DiscussionsJoined    *int     `json:"discussions_joined,omitempty"`
}

func (d EngagementDelta) validate() error {
	if d.CompletionPercentage != nil && (*d.CompletionPercentage < 0 || *d.CompletionPercentage > 100) {
		return apperrors.NewInvalidInput("completion_percentage must be within [0,100]")
	}
	if d.AverageQuizScore != nil && (*d.AverageQuizScore < 0 || *d.AverageQuizScore > 100) {
		return apperrors.NewInvalidInput("average_quiz_score must be within [0,100]")
	}
	if d.TimeSpentMinutes != nil && *d.TimeSpentMinutes < 0 {
		return apperrors.NewInvalidInput("time_spent_minutes must be non-negative")
	}
	for name, v := range map[string]*int{
		"lectures_watched":      d.LecturesWatched,
		"quizzes_attempted":     d.QuizzesAttempted,
		"assignments_submitted": d.AssignmentsSubmitted,
		"questions_asked":       d.QuestionsAsked,
		"discussions_joined":    d.DiscussionsJoined,
	} {
		if v != nil && *v < 0 {
			return apperrors.NewInvalidInput(name + " must be non-negative")
		}
	}
	return nil
}

func (d EngagementDelta) applyTo(m *EngagementMetrics) {
	if d.CompletionPercentage != nil {
		m.CompletionPercentage = *d.CompletionPercentage
	}
	if d.TimeSpentMinutes != nil {
		m.TimeSpentMinutes = *d.TimeSpentMinutes
	}
	if d.LecturesWatched != nil {
		m.LecturesWatched = *d.LecturesWatched
	}
	if d.QuizzesAttempted != nil {
		m.QuizzesAttempted = *d.QuizzesAttempted
	}
	if d.AverageQuizScore != nil {
		m.AverageQuizScore = *d.AverageQuizScore
	}
	if d.AssignmentsSubmitted != nil {
		m.AssignmentsSubmitted = *d.AssignmentsSubmitted
	}
	if d.QuestionsAsked != nil {
		m.QuestionsAsked = *d.QuestionsAsked
	}
	if d.DiscussionsJoined != nil {
		m.DiscussionsJoined = *d.DiscussionsJoined
	}
}

// MomentumDelta carries additive daily counter increments.
type MomentumDelta struct {
	Enrollments int `json:"enrollments"`
	Completions int `json:"completions"`
	Reviews     int `json:"reviews"`
	Questions   int `json:"questions"`
}

func (d MomentumDelta) validate() error {
	if d.Enrollments < 0 || d.Completions < 0 || d.Reviews < 0 || d.Questions < 0 {
		return apperrors.NewInvalidInput("momentum deltas must be non-negative")
	}
	if d == (MomentumDelta{}) {
		return apperrors.NewInvalidInput("momentum delta is empty")
	}
	return nil
}

// ProductivityDelta carries additive weekly counter increments.
type ProductivityDelta struct {
	CoursesCreated   int `json:"courses_created"`
	LecturesUploaded int `json:"lectures_uploaded"`
	NotesUploaded    int `json:"notes_uploaded"`
	Assignments      int `json:"assignments"`
	Quizzes          int `json:"quizzes"`
}

func (d ProductivityDelta) validate() error {
	if d.CoursesCreated < 0 || d.LecturesUploaded < 0 || d.NotesUploaded < 0 ||
		d.Assignments < 0 || d.Quizzes < 0 {
		return apperrors.NewInvalidInput("productivity deltas must be non-negative")
	}
	if d == (ProductivityDelta{}) {
		return apperrors.NewInvalidInput("productivity delta is empty")
	}
	return nil
}

// EngagementService owns the (student, course) engagement records.
type EngagementService struct {
	store EngagementStore
}

// NewEngagementService creates a new engagement service.
func NewEngagementService(store EngagementStore) *EngagementService {
	return &EngagementService{store: store}
}

// Ingest applies a partial raw-counter update, recomputes the derived score
// and category and persists the record. The recomputed record is returned;
// there is no hidden re-derivation hook on save.
func (s *EngagementService) Ingest(ctx context.Context, studentID, courseID string, delta EngagementDelta) (*EngagementRecord, error) {
	if studentID == "" || courseID == "" {
		return nil, apperrors.NewInvalidInput("student and course ids are required")
	}
	if err := delta.validate(); err != nil {
		return nil, err
	}

	rec, err := s.store.Get(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = NewEngagementRecord(studentID, courseID)
	}

	delta.applyTo(&rec.Metrics)
	rec.Recompute()
	rec.UpdatedAt = time.Now()

	if err := s.store.Save(ctx, rec); err != nil {
		return nil, err
	}

	slog.Debug("engagement record updated",
		"student_id", studentID,
		"course_id", courseID,
		"score", rec.Score,
		"category", rec.Category,
	)

	return rec, nil
}

// Get returns the engagement record for a key.
func (s *EngagementService) Get(ctx context.Context, studentID, courseID string) (*EngagementRecord, error) {
	rec, err := s.store.Get(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperrors.NewNotFound("engagement record", studentID+"/"+courseID)
	}
	return rec, nil
}

// ListByCourse returns a course's engagement records sorted by score
// descending, optionally filtered by category.
func (s *EngagementService) ListByCourse(ctx context.Context, courseID, category string) ([]*EngagementRecord, error) {
	if category != "" && !ValidEngagementCategory(category) {
		return nil, apperrors.NewInvalidInput("unknown engagement category: " + category)
	}
	return s.store.ListByCourse(ctx, courseID, category)
}

// MomentumService owns the (course, day) momentum records.
type MomentumService struct {
	store MomentumStore
}

// NewMomentumService creates a new momentum service.
func NewMomentumService(store MomentumStore) *MomentumService {
	return &MomentumService{store: store}
}

// Ingest atomically merges daily counter increments into the course-day
// record, then recomputes and persists the derived score and engagement
// rate. The post-recompute record is returned.
func (s *MomentumService) Ingest(ctx context.Context, courseID string, day time.Time, delta MomentumDelta) (*MomentumRecord, error) {
	if courseID == "" {
		return nil, apperrors.NewInvalidInput("course id is required")
	}
	if err := delta.validate(); err != nil {
		return nil, err
	}

	rec, err := s.store.ApplyDelta(ctx, courseID, day, delta)
	if err != nil {
		return nil, err
	}

	rec.Recompute()
	rec.UpdatedAt = time.Now()
	if err := s.store.SaveDerived(ctx, rec); err != nil {
		return nil, err
	}

	return rec, nil
}

// Get returns the momentum record for a course day.
func (s *MomentumService) Get(ctx context.Context, courseID string, day time.Time) (*MomentumRecord, error) {
	rec, err := s.store.Get(ctx, courseID, day)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperrors.NewNotFound("momentum record", courseID+"/"+day.UTC().Format("2006-01-02"))
	}
	return rec, nil
}

// ListByCourse returns a course's daily momentum series, time ascending.
func (s *MomentumService) ListByCourse(ctx context.Context, courseID string, from, to time.Time) ([]*MomentumRecord, error) {
	if !to.IsZero() && !from.IsZero() && to.Before(from) {
		return nil, apperrors.NewInvalidInput("momentum range end precedes start")
	}
	return s.store.ListByCourse(ctx, courseID, from, to)
}

// ProductivityService owns the (educator, week) productivity records.
type ProductivityService struct {
	store ProductivityStore
}

// NewProductivityService creates a new productivity service.
func NewProductivityService(store ProductivityStore) *ProductivityService {
	return &ProductivityService{store: store}
}

// Ingest atomically merges weekly counter increments into the educator-week
// record, then recomputes and persists the derived score and category.
func (s *ProductivityService) Ingest(ctx context.Context, educatorID string, at time.Time, delta ProductivityDelta) (*ProductivityRecord, error) {
	if educatorID == "" {
		return nil, apperrors.NewInvalidInput("educator id is required")
	}
	if err := delta.validate(); err != nil {
		return nil, err
	}

	rec, err := s.store.ApplyDelta(ctx, educatorID, WeekStartOf(at), delta)
	if err != nil {
		return nil, err
	}

	rec.Recompute()
	rec.UpdatedAt = time.Now()
	if err := s.store.SaveDerived(ctx, rec); err != nil {
		return nil, err
	}

	return rec, nil
}

// Get returns the productivity record for an educator week.
func (s *ProductivityService) Get(ctx context.Context, educatorID string, at time.Time) (*ProductivityRecord, error) {
	rec, err := s.store.Get(ctx, educatorID, WeekStartOf(at))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperrors.NewNotFound("productivity record", educatorID+"/"+WeekStartOf(at).Format("2006-01-02"))
	}
	return rec, nil
}

// ListByEducator returns an educator's weekly records, week ascending.
func (s *ProductivityService) ListByEducator(ctx context.Context, educatorID string) ([]*ProductivityRecord, error) {
	return s.store.ListByEducator(ctx, educatorID)
}

// QualityService computes lecture quality on demand from raw lecture stats.
// Quality is derived, not persisted; each read reflects the current counters.
type QualityService struct {
	source LectureStatsSource
}

// NewQualityService creates a new lecture quality service.
func NewQualityService(source LectureStatsSource) *QualityService {
	return &QualityService{source: source}
}

// CourseLectureQuality scores every lecture in a course.
func (s *QualityService) CourseLectureQuality(ctx context.Context, courseID string) ([]LectureQualityView, error) {
	if courseID == "" {
		return nil, apperrors.NewInvalidInput("course id is required")
	}

	stats, err := s.source.LectureStats(ctx, courseID)
	if err != nil {
		return nil, err
	}

	views := make([]LectureQualityView, 0, len(stats))
	for _, st := range stats {
		views = append(views, LectureQualityView{
			LectureID: st.LectureID,
			Title:     st.Title,
			Quality: ScoreLectureQuality(QualityMetrics{
				WatchedCount:    st.WatchedCount,
				TotalStudents:   st.TotalStudents,
				Likes:           st.Likes,
				Dislikes:        st.Dislikes,
				EngagementScore: st.EngagementScore,
			}),
		})
	}
	return views, nil
}
