package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	errbuilder "github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
)

// ErrorCategory defines the type of error for proper handling.
type ErrorCategory string

const (
	CategoryInvalidInput  ErrorCategory = "invalid_input"
	CategoryNotFound      ErrorCategory = "not_found"
	CategoryStoreConflict ErrorCategory = "store_conflict"
	CategoryNumeric       ErrorCategory = "numeric_degeneracy"
	CategoryInternal      ErrorCategory = "internal"
)

// AppError wraps an errbuilder error with the category and HTTP status used
// by the API layer. Validation errors are raised before any store mutation;
// store conflicts propagate unmodified so the caller can decide on retry.
type AppError struct {
	*errbuilder.ErrBuilder
	Category   ErrorCategory `json:"category"`
	HTTPStatus int           `json:"http_status"`
	Timestamp  time.Time     `json:"timestamp"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Category, e.ErrBuilder.Msg)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

func newAppError(builder *errbuilder.ErrBuilder, category ErrorCategory, httpStatus int) *AppError {
	return &AppError{
		ErrBuilder: builder,
		Category:   category,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
	}
}

// NewInvalidInput creates a validation error. These are rejected
// synchronously before touching the store; no partial state change occurs.
func NewInvalidInput(message string, details ...any) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message)

	if len(details) > 0 {
		errorMap := errbuilder.ErrorMap{}
		errorMap.Set("validation_details", fmt.Errorf("%v", details[0]))
		builder = builder.WithDetails(errbuilder.NewErrDetails(errorMap))
	}

	return newAppError(builder, CategoryInvalidInput, http.StatusBadRequest)
}

// NewNotFound signals that a referenced course, lecture, educator or record
// does not exist in the raw-data source. Surfaced to the caller, no retry.
func NewNotFound(kind, key string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("%s not found: %s", kind, key))

	return newAppError(builder, CategoryNotFound, http.StatusNotFound)
}

// NewStoreConflict signals that the record store could not complete an atomic
// merge or upsert. Recoverable by retry at the caller's discretion; the
// engine itself performs no automatic retry.
func NewStoreConflict(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeAborted).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return newAppError(builder, CategoryStoreConflict, http.StatusConflict)
}

// NewNumericDegeneracy signals a singular or near-singular system during a
// fit that a caller asked to surface rather than fall back from.
func NewNumericDegeneracy(message string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(message)

	return newAppError(builder, CategoryNumeric, http.StatusUnprocessableEntity)
}

// NewInternal creates an internal error.
func NewInternal(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return newAppError(builder, CategoryInternal, http.StatusInternalServerError)
}

// ToAppError converts any error to an AppError.
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	if ebErr, ok := err.(*errbuilder.ErrBuilder); ok {
		return newAppError(ebErr, CategoryInternal, http.StatusInternalServerError)
	}

	return NewInternal("an unexpected error occurred", err)
}

// IsRetryable reports whether the caller may reasonably retry the operation.
// Only store conflicts qualify; validation and not-found errors never do.
func IsRetryable(err error) bool {
	return ToAppError(err).Category == CategoryStoreConflict
}

// ErrorHandler is a Gin middleware providing centralized error responses.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			appErr := ToAppError(c.Errors.Last().Err)
			LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
		}
	}
}

// RecoveryHandler provides panic recovery with structured error responses.
func RecoveryHandler() gin.HandlerFunc {
	return gin.RecoveryWithWriter(nil, func(c *gin.Context, err any) {
		appErr := NewInternal(fmt.Sprintf("panic recovered: %v", err), fmt.Errorf("%v", err))
		LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
	})
}

// LogError logs an error with request context at a level matching its
// category.
func LogError(c *gin.Context, err *AppError) {
	entry := slog.With(
		"error_category", err.Category,
		"http_status", err.HTTPStatus,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"ip", c.ClientIP(),
	)

	switch err.Category {
	case CategoryInvalidInput, CategoryNotFound:
		entry.Warn(err.ErrBuilder.Msg)
	case CategoryStoreConflict, CategoryNumeric:
		entry.Info(err.ErrBuilder.Msg)
	default:
		if cause := err.ErrBuilder.Unwrap(); cause != nil {
			entry.Error(err.ErrBuilder.Msg, "cause", cause)
		} else {
			entry.Error(err.ErrBuilder.Msg)
		}
	}
}
