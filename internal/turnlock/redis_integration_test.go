//go:build integration

package turnlock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/lewisedginton/lead_capture_chatbot/internal/config"
)

func TestRedisLocker(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	redisC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisC.Terminate(ctx) })

	url, err := redisC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := config.RedisConfig{
		URL:        url,
		Timeout:    5 * time.Second,
		LockTTL:    5 * time.Second,
		LockRetry:  5 * time.Millisecond,
		LockPrefix: "test:turn:",
	}
	client, err := Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLocker(client, cfg, newTestLogger())
	exerciseLocker(t, l)

	release, err := l.Acquire(ctx, "vis-2")
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(waitCtx, "vis-2")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	exists, err := client.Exists(ctx, "test:turn:vis-2").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), exists)
}
