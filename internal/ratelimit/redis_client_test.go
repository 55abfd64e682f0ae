package ratelimit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedisClientDegradesWithoutAddress(t *testing.T) {
	client := NewRedisClient("", "", 0)

	assert.False(t, client.IsEnabled())
	assert.Nil(t, client.GetClient())
	assert.Error(t, client.HealthCheck(context.Background()))
	assert.NoError(t, client.Close())

	stats := client.GetPoolStats()
	assert.Equal(t, "memory-fallback", stats["mode"])
}

func TestRedisClientDegradesOnUnreachableServer(t *testing.T) {
	// Nothing listens on this port; construction must still succeed.
	client := NewRedisClient("127.0.0.1:1", "", 0)

	assert.False(t, client.IsEnabled())
	assert.Error(t, client.HealthCheck(context.Background()))
}
