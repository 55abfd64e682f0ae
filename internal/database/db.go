package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	apperrors "github.com/keshavmalik0756/EduPulse-sub000/internal/errors"
)

// DB represents the database connection with pooling
type DB struct {
	*sql.DB
	pool *ConnectionPool
}

// ConnectionPool manages database connection pooling
type ConnectionPool struct {
	db           *sql.DB
	maxOpenConns int
	maxIdleConns int
	maxLifetime  time.Duration
}

// NewConnectionPool creates a new database connection pool
func NewConnectionPool(db *sql.DB, maxOpen, maxIdle int, maxLifetime time.Duration) *ConnectionPool {
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	return &ConnectionPool{
		db:           db,
		maxOpenConns: maxOpen,
		maxIdleConns: maxIdle,
		maxLifetime:  maxLifetime,
	}
}

// GetStats returns connection pool statistics
func (cp *ConnectionPool) GetStats() map[string]interface{} {
	stats := cp.db.Stats()

	return map[string]interface{}{
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"max_open_connections": cp.maxOpenConns,
		"max_idle_connections": cp.maxIdleConns,
		"max_lifetime_seconds": cp.maxLifetime.Seconds(),
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
}

// NewDB creates a new database connection with optimized pooling
func NewDB(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "edupulse.db")

	// _txlock=immediate makes write transactions take the write lock up
	// front, so concurrent counter merges serialize instead of failing at
	// commit time.
	connStr := fmt.Sprintf("%s?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pool := NewConnectionPool(db, 25, 5, 5*time.Minute)

	database := &DB{
		DB:   db,
		pool: pool,
	}

	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("Database initialized with connection pooling",
		"path", dbPath,
		"max_open_conns", pool.maxOpenConns,
		"max_idle_conns", pool.maxIdleConns,
		"max_lifetime", pool.maxLifetime)

	return database, nil
}

// migrate creates the necessary tables
func (db *DB) migrate() error {
	queries := []string{
		// Confusion telemetry
		`CREATE TABLE IF NOT EXISTS confusion_buckets (
			id TEXT PRIMARY KEY,
			lecture_id TEXT NOT NULL,
			course_id TEXT NOT NULL,
			anchor INTEGER NOT NULL,
			window_start INTEGER NOT NULL,
			window_end INTEGER NOT NULL,
			replay_count INTEGER NOT NULL DEFAULT 0,
			skip_count INTEGER NOT NULL DEFAULT 0,
			pause_count INTEGER NOT NULL DEFAULT 0,
			watch_time_sum INTEGER NOT NULL DEFAULT 0,
			watch_time_count INTEGER NOT NULL DEFAULT 0,
			average_watch_time INTEGER NOT NULL DEFAULT 0,
			confusion_score INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS bucket_interactions (
			id TEXT PRIMARY KEY,
			bucket_id TEXT NOT NULL,
			student_id TEXT,
			kind TEXT NOT NULL,
			occurred_at INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (bucket_id) REFERENCES confusion_buckets(id)
		)`,

		// Engagement records, one per (student, course)
		`CREATE TABLE IF NOT EXISTS engagement_records (
			id TEXT PRIMARY KEY,
			student_id TEXT NOT NULL,
			course_id TEXT NOT NULL,
			completion_percentage REAL NOT NULL DEFAULT 0,
			time_spent_minutes REAL NOT NULL DEFAULT 0,
			lectures_watched INTEGER NOT NULL DEFAULT 0,
			quizzes_attempted INTEGER NOT NULL DEFAULT 0,
			average_quiz_score REAL NOT NULL DEFAULT 0,
			assignments_submitted INTEGER NOT NULL DEFAULT 0,
			questions_asked INTEGER NOT NULL DEFAULT 0,
			discussions_joined INTEGER NOT NULL DEFAULT 0,
			engagement_score INTEGER NOT NULL DEFAULT 0,
			engagement_category TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE(student_id, course_id)
		)`,

		// Momentum records, one per (course, calendar day). The day and the
		// productivity week_start are TEXT "2006-01-02" keys: a DATE decltype
		// would make the driver hand reads back as time.Time and break the
		// string key comparisons.
		`CREATE TABLE IF NOT EXISTS momentum_records (
			id TEXT PRIMARY KEY,
			course_id TEXT NOT NULL,
			day TEXT NOT NULL,
			enrollments INTEGER NOT NULL DEFAULT 0,
			completions INTEGER NOT NULL DEFAULT 0,
			reviews INTEGER NOT NULL DEFAULT 0,
			questions INTEGER NOT NULL DEFAULT 0,
			momentum_score INTEGER NOT NULL DEFAULT 0,
			engagement_rate INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE(course_id, day)
		)`,

		// Productivity records, one per (educator, week start)
		`CREATE TABLE IF NOT EXISTS productivity_records (
			id TEXT PRIMARY KEY,
			educator_id TEXT NOT NULL,
			week_start TEXT NOT NULL,
			courses_created INTEGER NOT NULL DEFAULT 0,
			lectures_uploaded INTEGER NOT NULL DEFAULT 0,
			notes_uploaded INTEGER NOT NULL DEFAULT 0,
			assignments INTEGER NOT NULL DEFAULT 0,
			quizzes INTEGER NOT NULL DEFAULT 0,
			productivity_score INTEGER NOT NULL DEFAULT 0,
			productivity_category TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE(educator_id, week_start)
		)`,

		// Dropout predictions, one live record per (course, lecture)
		`CREATE TABLE IF NOT EXISTS dropout_predictions (
			id TEXT PRIMARY KEY,
			course_id TEXT NOT NULL,
			lecture_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			historical_completion_rate INTEGER NOT NULL,
			dropoff_probability INTEGER NOT NULL,
			confidence INTEGER NOT NULL,
			risk_factors TEXT NOT NULL, -- JSON array
			interventions TEXT NOT NULL, -- JSON array
			prediction_method TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE(course_id, lecture_id)
		)`,

		// Leaderboard, replaced wholesale by each ranking pass
		`CREATE TABLE IF NOT EXISTS leaderboard_entries (
			id TEXT PRIMARY KEY,
			course_id TEXT NOT NULL UNIQUE,
			rank INTEGER NOT NULL,
			composite_score INTEGER NOT NULL,
			revenue_score INTEGER NOT NULL,
			rating_score INTEGER NOT NULL,
			views_score INTEGER NOT NULL,
			enrollment_score INTEGER NOT NULL,
			computed_at DATETIME NOT NULL
		)`,

		// Raw sources read by the batch recomputations
		`CREATE TABLE IF NOT EXISTS lectures (
			id TEXT PRIMARY KEY,
			course_id TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL,
			duration_seconds INTEGER NOT NULL DEFAULT 0,
			likes INTEGER NOT NULL DEFAULT 0,
			dislikes INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS lecture_progress (
			id TEXT PRIMARY KEY,
			lecture_id TEXT NOT NULL,
			student_id TEXT NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			watch_seconds INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL,
			UNIQUE(lecture_id, student_id),
			FOREIGN KEY (lecture_id) REFERENCES lectures(id)
		)`,

		`CREATE TABLE IF NOT EXISTS course_metrics (
			course_id TEXT PRIMARY KEY,
			revenue REAL NOT NULL DEFAULT 0,
			rating REAL NOT NULL DEFAULT 0,
			views INTEGER NOT NULL DEFAULT 0,
			enrollments INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL
		)`,

		// Indexes for performance
		`CREATE INDEX IF NOT EXISTS idx_confusion_buckets_lecture ON confusion_buckets(lecture_id, window_start)`,
		`CREATE INDEX IF NOT EXISTS idx_bucket_interactions_bucket ON bucket_interactions(bucket_id)`,
		`CREATE INDEX IF NOT EXISTS idx_engagement_course_score ON engagement_records(course_id, engagement_score DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_momentum_course_day ON momentum_records(course_id, day)`,
		`CREATE INDEX IF NOT EXISTS idx_productivity_educator ON productivity_records(educator_id, week_start)`,
		`CREATE INDEX IF NOT EXISTS idx_dropout_course ON dropout_predictions(course_id, position)`,
		`CREATE INDEX IF NOT EXISTS idx_leaderboard_rank ON leaderboard_entries(rank)`,
		`CREATE INDEX IF NOT EXISTS idx_lectures_course ON lectures(course_id, position)`,
		`CREATE INDEX IF NOT EXISTS idx_lecture_progress_lecture ON lecture_progress(lecture_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

// GetPoolStats returns database connection pool statistics
func (db *DB) GetPoolStats() map[string]interface{} {
	return db.pool.GetStats()
}

// wrapErr maps driver errors onto the app error taxonomy. Lock contention
// surfaces as a retryable store conflict.
func wrapErr(op string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked {
			return apperrors.NewStoreConflict(op+": database is busy", err)
		}
	}
	return apperrors.NewInternal(op, err)
}
