package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/keshavmalik0756/EduPulse-sub000/internal/database"
	"github.com/keshavmalik0756/EduPulse-sub000/internal/dropout"
	"github.com/keshavmalik0756/EduPulse-sub000/internal/errors"
	"github.com/keshavmalik0756/EduPulse-sub000/internal/leaderboard"
	"github.com/keshavmalik0756/EduPulse-sub000/internal/monitoring"
	"github.com/keshavmalik0756/EduPulse-sub000/internal/ratelimit"
	"github.com/keshavmalik0756/EduPulse-sub000/internal/resilience"
	"github.com/keshavmalik0756/EduPulse-sub000/internal/scoring"
	"github.com/keshavmalik0756/EduPulse-sub000/internal/security"
	"github.com/keshavmalik0756/EduPulse-sub000/internal/telemetry"
	"github.com/keshavmalik0756/EduPulse-sub000/internal/types"
)

const dayLayout = "2006-01-02"

func main() {
	// Structured logging setup
	logLevel := parseLogLevel(getEnvOrDefault("LOG_LEVEL", "info"))
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Configuration from environment with defaults
	dataDir := getEnvOrDefault("DATA_DIR", "./data")
	port := getEnvOrDefault("PORT", "8080")
	redisAddr := os.Getenv("REDIS_ADDR")
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB, _ := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	allowedOrigins := strings.Split(getEnvOrDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"), ",")

	// Initialize database and repositories
	db, err := database.NewDB(dataDir)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	bucketRepo := database.NewBucketRepo(db)
	engagementRepo := database.NewEngagementRepo(db)
	momentumRepo := database.NewMomentumRepo(db)
	productivityRepo := database.NewProductivityRepo(db)
	dropoutRepo := database.NewDropoutRepo(db)
	leaderboardRepo := database.NewLeaderboardRepo(db)
	sourceRepo := database.NewSourceRepo(db)

	// Domain services
	aggregator := telemetry.NewAggregator(bucketRepo)
	engagementService := scoring.NewEngagementService(engagementRepo)
	momentumService := scoring.NewMomentumService(momentumRepo)
	productivityService := scoring.NewProductivityService(productivityRepo)
	qualityService := scoring.NewQualityService(sourceRepo)
	predictor := dropout.NewPredictor(sourceRepo, dropoutRepo)
	leaderboardService := leaderboard.NewService(sourceRepo, leaderboardRepo)

	// Monitoring
	appMetrics := monitoring.NewMetrics()
	appLogger := monitoring.NewLogger(logLevel)

	// Rate limiting with Redis and in-memory fallback. A missing Redis only
	// degrades the limiter, it never stops the server.
	redisClient := ratelimit.NewRedisClient(redisAddr, redisPassword, redisDB)
	defer redisClient.Close()
	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.DefaultConfig(), appMetrics)

	r := gin.New()

	// Add monitoring middleware first (to capture all requests)
	r.Use(monitoring.MonitoringMiddleware(appMetrics, appLogger))

	// Add error handling middleware
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())

	// Security middleware setup
	securityConfig := security.DefaultSecurityConfig()
	securityConfig.AllowedOrigins = allowedOrigins
	securityMiddleware := security.NewSecurityMiddleware(securityConfig)

	r.Use(securityMiddleware.SecurityHeaders)
	r.Use(securityMiddleware.RequestTimeout)
	r.Use(securityMiddleware.ValidateContentType)

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"timestamp":   time.Now().Format(time.RFC3339),
			"version":     "1.0.0",
			"database":    db.GetPoolStats(),
			"rate_limits": limiter.GetStats(),
			"cache":       leaderboardService.CacheStats(),
			"redis":       redisClient.IsEnabled() && redisClient.HealthCheck(c.Request.Context()) == nil,
		})
	})

	// Metrics endpoint
	r.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, appMetrics.GetStats())
	})

	// Swagger documentation routes
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")

	// Player telemetry ingest. Per-IP limit on the endpoint, per-student limit
	// inside the handler, and a bounded retry around bucket merge contention.
	api.POST("/interactions", limiter.IngestRateLimitMiddleware(), func(c *gin.Context) {
		var req types.InteractionRequest
		if err := c.BindJSON(&req); err != nil {
			respondError(c, errors.NewInvalidInput("invalid JSON body", err.Error()))
			return
		}

		if req.StudentID != "" {
			result, err := limiter.AllowStudent(c.Request.Context(), req.StudentID)
			if err == nil && !result.Allowed {
				appMetrics.IncrementRateLimitBlock()
				c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
				c.JSON(http.StatusTooManyRequests, gin.H{
					"error":       "rate limit exceeded for student",
					"retry_after": int(result.RetryAfter.Seconds()),
				})
				return
			}
		}

		var bucket *telemetry.ConfusionBucket
		err := resilience.Retry(c.Request.Context(), func() error {
			var err error
			bucket, err = aggregator.RecordInteraction(c.Request.Context(),
				req.LectureID, req.CourseID, req.Timestamp, req.Kind, req.StudentID)
			return err
		})
		if err != nil {
			respondError(c, err)
			return
		}

		appMetrics.IncrementInteractionIngest()
		c.JSON(http.StatusOK, bucket)
	})

	api.GET("/lectures/:id/confusion", func(c *gin.Context) {
		lectureID := c.Param("id")
		if !securityMiddleware.ValidateIdentifier(lectureID) {
			respondError(c, errors.NewInvalidInput("invalid lecture id"))
			return
		}

		highOnly := c.Query("high_confusion") == "true"
		buckets, err := aggregator.LectureBuckets(c.Request.Context(), lectureID, highOnly)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"lecture_id": lectureID,
			"buckets":    buckets,
			"total":      len(buckets),
		})
	})

	api.POST("/engagement", limiter.IngestRateLimitMiddleware(), func(c *gin.Context) {
		var req types.EngagementIngestRequest
		if err := c.BindJSON(&req); err != nil {
			respondError(c, errors.NewInvalidInput("invalid JSON body", err.Error()))
			return
		}

		start := time.Now()
		record, err := engagementService.Ingest(c.Request.Context(), req.StudentID, req.CourseID, req.Delta)
		if err != nil {
			respondError(c, err)
			return
		}

		appMetrics.IncrementScoreRecompute()
		appLogger.ScoreLogger("engagement", req.StudentID+"/"+req.CourseID, record.Score, time.Since(start))
		c.JSON(http.StatusOK, record)
	})

	api.GET("/courses/:id/engagement", func(c *gin.Context) {
		courseID := c.Param("id")
		if !securityMiddleware.ValidateIdentifier(courseID) {
			respondError(c, errors.NewInvalidInput("invalid course id"))
			return
		}

		if studentID := c.Query("student_id"); studentID != "" {
			record, err := engagementService.Get(c.Request.Context(), studentID, courseID)
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, record)
			return
		}

		category := c.Query("category")
		records, err := engagementService.ListByCourse(c.Request.Context(), courseID, category)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"course_id": courseID,
			"records":   records,
			"total":     len(records),
		})
	})

	api.POST("/momentum", limiter.IngestRateLimitMiddleware(), func(c *gin.Context) {
		var req types.MomentumIngestRequest
		if err := c.BindJSON(&req); err != nil {
			respondError(c, errors.NewInvalidInput("invalid JSON body", err.Error()))
			return
		}

		day, err := parseDay(req.Day, time.Now())
		if err != nil {
			respondError(c, err)
			return
		}

		start := time.Now()
		record, err := momentumService.Ingest(c.Request.Context(), req.CourseID, day, req.Delta)
		if err != nil {
			respondError(c, err)
			return
		}

		appMetrics.IncrementScoreRecompute()
		appLogger.ScoreLogger("momentum", req.CourseID, record.Score, time.Since(start))
		c.JSON(http.StatusOK, record)
	})

	api.GET("/courses/:id/momentum", func(c *gin.Context) {
		courseID := c.Param("id")
		if !securityMiddleware.ValidateIdentifier(courseID) {
			respondError(c, errors.NewInvalidInput("invalid course id"))
			return
		}

		from, err := parseDay(c.Query("from"), time.Time{})
		if err != nil {
			respondError(c, err)
			return
		}
		to, err := parseDay(c.Query("to"), time.Time{})
		if err != nil {
			respondError(c, err)
			return
		}

		records, err := momentumService.ListByCourse(c.Request.Context(), courseID, from, to)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"course_id": courseID,
			"records":   records,
			"total":     len(records),
		})
	})

	api.POST("/productivity", limiter.IngestRateLimitMiddleware(), func(c *gin.Context) {
		var req types.ProductivityIngestRequest
		if err := c.BindJSON(&req); err != nil {
			respondError(c, errors.NewInvalidInput("invalid JSON body", err.Error()))
			return
		}

		at, err := parseDay(req.At, time.Now())
		if err != nil {
			respondError(c, err)
			return
		}

		start := time.Now()
		record, err := productivityService.Ingest(c.Request.Context(), req.EducatorID, at, req.Delta)
		if err != nil {
			respondError(c, err)
			return
		}

		appMetrics.IncrementScoreRecompute()
		appLogger.ScoreLogger("productivity", req.EducatorID, record.Score, time.Since(start))
		c.JSON(http.StatusOK, record)
	})

	api.GET("/educators/:id/productivity", func(c *gin.Context) {
		educatorID := c.Param("id")
		if !securityMiddleware.ValidateIdentifier(educatorID) {
			respondError(c, errors.NewInvalidInput("invalid educator id"))
			return
		}

		records, err := productivityService.ListByEducator(c.Request.Context(), educatorID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"educator_id": educatorID,
			"records":     records,
			"total":       len(records),
		})
	})

	api.GET("/courses/:id/quality", func(c *gin.Context) {
		courseID := c.Param("id")
		if !securityMiddleware.ValidateIdentifier(courseID) {
			respondError(c, errors.NewInvalidInput("invalid course id"))
			return
		}

		views, err := qualityService.CourseLectureQuality(c.Request.Context(), courseID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"course_id": courseID,
			"lectures":  views,
			"total":     len(views),
		})
	})

	api.POST("/courses/:id/dropout/recompute", func(c *gin.Context) {
		courseID := c.Param("id")
		if !securityMiddleware.ValidateIdentifier(courseID) {
			respondError(c, errors.NewInvalidInput("invalid course id"))
			return
		}

		method := dropout.PredictionMethod(c.Query("method"))
		result, err := predictor.RecomputeCourse(c.Request.Context(), courseID, method)
		if err != nil {
			respondError(c, err)
			return
		}

		appMetrics.IncrementPredictionBatch()
		c.JSON(http.StatusOK, result)
	})

	api.GET("/courses/:id/dropout", func(c *gin.Context) {
		courseID := c.Param("id")
		if !securityMiddleware.ValidateIdentifier(courseID) {
			respondError(c, errors.NewInvalidInput("invalid course id"))
			return
		}

		predictions, err := predictor.CoursePredictions(c.Request.Context(), courseID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"course_id":   courseID,
			"predictions": predictions,
			"total":       len(predictions),
		})
	})

	api.POST("/leaderboard/recompute", func(c *gin.Context) {
		entries, err := leaderboardService.Recompute(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}

		appMetrics.IncrementRankingPass()
		c.JSON(http.StatusOK, gin.H{
			"message": "leaderboard recomputed",
			"total":   len(entries),
		})
	})

	api.GET("/leaderboard", func(c *gin.Context) {
		limit := 0
		if limitStr := c.Query("limit"); limitStr != "" {
			if l, err := strconv.Atoi(limitStr); err == nil {
				limit = l
			}
		}

		response, err := leaderboardService.Leaderboard(c.Request.Context(), limit)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, response)
	})

	// Raw-source maintenance routes. The batch recomputations read from these.
	api.POST("/lectures", func(c *gin.Context) {
		var req types.LectureUpsertRequest
		if err := c.BindJSON(&req); err != nil {
			respondError(c, errors.NewInvalidInput("invalid JSON body", err.Error()))
			return
		}

		lec := database.Lecture{
			ID:              req.ID,
			CourseID:        req.CourseID,
			Title:           req.Title,
			Position:        req.Position,
			DurationSeconds: req.DurationSeconds,
			Likes:           req.Likes,
			Dislikes:        req.Dislikes,
		}
		if err := sourceRepo.UpsertLecture(c.Request.Context(), lec); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "lecture saved"})
	})

	api.POST("/lectures/:id/progress", func(c *gin.Context) {
		lectureID := c.Param("id")
		if !securityMiddleware.ValidateIdentifier(lectureID) {
			respondError(c, errors.NewInvalidInput("invalid lecture id"))
			return
		}

		var req types.ProgressRequest
		if err := c.BindJSON(&req); err != nil {
			respondError(c, errors.NewInvalidInput("invalid JSON body", err.Error()))
			return
		}

		err := sourceRepo.RecordLectureProgress(c.Request.Context(),
			lectureID, req.StudentID, req.Completed, req.WatchSeconds)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "progress recorded"})
	})

	api.PUT("/courses/:id/metrics", func(c *gin.Context) {
		courseID := c.Param("id")
		if !securityMiddleware.ValidateIdentifier(courseID) {
			respondError(c, errors.NewInvalidInput("invalid course id"))
			return
		}

		var req types.CourseMetricsRequest
		if err := c.BindJSON(&req); err != nil {
			respondError(c, errors.NewInvalidInput("invalid JSON body", err.Error()))
			return
		}

		metrics := leaderboard.CourseMetrics{
			CourseID:    courseID,
			Revenue:     req.Revenue,
			Rating:      req.Rating,
			Views:       req.Views,
			Enrollments: req.Enrollments,
		}
		if err := sourceRepo.UpsertCourseMetrics(c.Request.Context(), metrics); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "course metrics saved"})
	})

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

// respondError maps a domain error onto its HTTP representation.
func respondError(c *gin.Context, err error) {
	appErr := errors.ToAppError(err)
	errors.LogError(c, appErr)
	c.JSON(appErr.HTTPStatus, appErr)
}

// parseDay parses a "2006-01-02" day string, returning fallback when empty.
func parseDay(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}
	day, err := time.Parse(dayLayout, s)
	if err != nil {
		return time.Time{}, errors.NewInvalidInput("day must use YYYY-MM-DD format", s)
	}
	return day, nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
