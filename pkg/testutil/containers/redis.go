//go:build integration

package containers

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"grantapp/internal/platform/config"
	platformredis "grantapp/internal/platform/redis"
)

// RedisContainer is a Redis instance reached through the same client
// construction the server uses for REDIS_URL.
type RedisContainer struct {
	Container testcontainers.Container
	URL       string
	Client    *redis.Client
}

// NewRedisContainer starts Redis and connects with platform redis.New.
func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "start redis container")

	url, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		require.NoError(t, err, "redis connection string")
	}

	client, err := platformredis.New(ctx, config.RedisConfig{
		URL:         url,
		PoolSize:    4,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		_ = container.Terminate(ctx)
		require.NoError(t, err, "connect to redis")
	}

	return &RedisContainer{Container: container, URL: url, Client: client.Client}
}

// Reset drops every rate limit window so each test starts with empty counters.
func (r *RedisContainer) Reset(t *testing.T) {
	t.Helper()
	require.NoError(t, r.Client.FlushDB(context.Background()).Err(), "flush redis")
}

// WindowKeys lists the stored windows of one limiter key.
func (r *RedisContainer) WindowKeys(t *testing.T, key string) []string {
	t.Helper()
	keys, err := r.Client.Keys(context.Background(), key+":*").Result()
	require.NoError(t, err, "list window keys")
	return keys
}
