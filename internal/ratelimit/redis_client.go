package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the optional distributed backend for the rate limiter. It is
// never a hard dependency: construction always succeeds, and a missing or
// unreachable Redis leaves the limiter on its in-memory fallback. A nil inner
// client is the degraded state.
type RedisClient struct {
	client      *redis.Client
	addr        string
	connectedAt time.Time
}

const redisDialTimeout = 5 * time.Second

// NewRedisClient connects to Redis at addr, or returns a degraded client when
// addr is empty or the server does not answer a ping. Ingest traffic must not
// depend on Redis availability, so connection failures are logged, not
// propagated.
func NewRedisClient(addr, password string, db int) *RedisClient {
	if addr == "" {
		slog.Warn("Redis address not configured, rate limiting will use in-memory fallback")
		return &RedisClient{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  redisDialTimeout,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  4 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("Redis unreachable, rate limiting will use in-memory fallback",
			"addr", addr, "error", err)
		_ = client.Close()
		return &RedisClient{addr: addr}
	}

	slog.Info("Redis rate-limit backend connected", "addr", addr, "db", db)
	return &RedisClient{
		client:      client,
		addr:        addr,
		connectedAt: time.Now(),
	}
}

// GetClient returns the underlying Redis client, nil when degraded.
func (r *RedisClient) GetClient() *redis.Client {
	return r.client
}

// IsEnabled reports whether the distributed backend is in use.
func (r *RedisClient) IsEnabled() bool {
	return r.client != nil
}

// HealthCheck pings Redis; a degraded client reports unhealthy without
// touching the network.
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("redis backend degraded to in-memory fallback")
	}
	return r.client.Ping(ctx).Err()
}

// Close releases the connection pool. Safe on a degraded client.
func (r *RedisClient) Close() error {
	if r.client == nil {
		return nil
	}
	slog.Info("Closing Redis rate-limit backend", "addr", r.addr)
	return r.client.Close()
}

// GetPoolStats returns connection pool statistics for the health endpoint.
func (r *RedisClient) GetPoolStats() map[string]interface{} {
	if r.client == nil {
		return map[string]interface{}{
			"mode": "memory-fallback",
		}
	}

	stats := r.client.PoolStats()
	return map[string]interface{}{
		"mode":         "redis",
		"addr":         r.addr,
		"connected_at": r.connectedAt.Format(time.RFC3339),
		"hits":         stats.Hits,
		"misses":       stats.Misses,
		"timeouts":     stats.Timeouts,
		"total_conns":  stats.TotalConns,
		"idle_conns":   stats.IdleConns,
		"stale_conns":  stats.StaleConns,
	}
}
