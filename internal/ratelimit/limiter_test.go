package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshavmalik0756/EduPulse-sub000/internal/monitoring"
)

func newFallbackLimiter(config Config) *RateLimiter {
	return NewRateLimiter(&RedisClient{}, config, monitoring.NewMetrics())
}

func TestRateLimiterFallbackMode(t *testing.T) {
	config := Config{
		IngestLimitPerMin:   5,
		StudentLimitPerHour: 5,
		BurstMultiplier:     1,
	}
	limiter := newFallbackLimiter(config)
	ctx := context.Background()

	// The token bucket starts with one burst worth of capacity.
	allowed := 0
	for i := 0; i < 20; i++ {
		result, err := limiter.AllowIP(ctx, "10.0.0.1")
		require.NoError(t, err)
		if result.Allowed {
			allowed++
		} else {
			assert.Greater(t, result.RetryAfter, time.Duration(0))
		}
		assert.Equal(t, 5, result.Limit)
	}
	assert.GreaterOrEqual(t, allowed, 5)
	assert.Less(t, allowed, 20)
}

func TestRateLimiterIndependentKeys(t *testing.T) {
	config := Config{
		IngestLimitPerMin:   3,
		StudentLimitPerHour: 3,
		BurstMultiplier:     1,
	}
	limiter := newFallbackLimiter(config)
	ctx := context.Background()

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		result, err := limiter.AllowIP(ctx, ip)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "first request for %s should be allowed", ip)
	}
}

func TestRateLimiterStudentBudgetSeparateFromIP(t *testing.T) {
	config := Config{
		IngestLimitPerMin:   1,
		StudentLimitPerHour: 1000,
		BurstMultiplier:     1,
	}
	limiter := newFallbackLimiter(config)
	ctx := context.Background()

	// Exhausting the IP budget leaves the student budget untouched.
	for i := 0; i < 10; i++ {
		_, err := limiter.AllowIP(ctx, "10.0.0.9")
		require.NoError(t, err)
	}
	result, err := limiter.AllowStudent(ctx, "student-1")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestRateLimiterConcurrency(t *testing.T) {
	limiter := newFallbackLimiter(DefaultConfig())
	ctx := context.Background()

	done := make(chan bool, 50)
	for i := 0; i < 50; i++ {
		go func(n int) {
			for j := 0; j < 10; j++ {
				_, err := limiter.AllowIP(ctx, fmt.Sprintf("10.1.%d.%d", n, j))
				assert.NoError(t, err)
			}
			done <- true
		}(i)
	}
	for i := 0; i < 50; i++ {
		<-done
	}
}

func TestRateLimiterStats(t *testing.T) {
	limiter := newFallbackLimiter(DefaultConfig())
	ctx := context.Background()

	_, err := limiter.AllowIP(ctx, "10.0.0.1")
	require.NoError(t, err)

	stats := limiter.GetStats()
	assert.False(t, stats["redis_enabled"].(bool))
	assert.GreaterOrEqual(t, stats["fallback_limiters"].(int), 1)
}
