package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/keshavmalik0756/EduPulse-sub000/internal/errors"
)

func fastConfig() RetryConfig {
	config := DefaultRetryConfig()
	config.InitialDelay = time.Millisecond
	config.MaxDelay = 5 * time.Millisecond
	config.JitterEnabled = false
	return config
}

func TestRetrySucceedsAfterConflicts(t *testing.T) {
	attempts := 0
	err := RetryWithConfig(context.Background(), fastConfig(), func() error {
		attempts++
		if attempts < 3 {
			return apperrors.NewStoreConflict("bucket merge contended", nil)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryDoesNotRetryValidationErrors(t *testing.T) {
	attempts := 0
	err := RetryWithConfig(context.Background(), fastConfig(), func() error {
		attempts++
		return apperrors.NewInvalidInput("bad input")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	err := RetryWithConfig(context.Background(), fastConfig(), func() error {
		attempts++
		return apperrors.NewStoreConflict("still contended", nil)
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, apperrors.CategoryStoreConflict, apperrors.ToAppError(err).Category)
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, func() error {
		return apperrors.NewStoreConflict("contended", nil)
	})
	assert.ErrorIs(t, err, context.Canceled)
}
