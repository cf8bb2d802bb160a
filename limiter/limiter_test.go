package limiter

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/linecover/config"
)

func TestLocalLimiter_PerKeyBuckets(t *testing.T) {
	l := NewLocalLimiter(0, 2)
	ctx := context.Background()

	for range 2 {
		ok, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "10.0.0.1")
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "10.0.0.2")
	assert.True(t, ok, "other clients keep their own bucket")
}

func TestNew_LocalWithoutRedis(t *testing.T) {
	l, closeFn, err := New(config.RateLimitConfig{Enabled: true, Rate: 10, Burst: 1})
	require.NoError(t, err)
	require.NoError(t, closeFn())
	assert.IsType(t, &LocalLimiter{}, l)
}

// TestRedisLimiter 需要真实的 Redis，通过 LINECOVER_TEST_REDIS 指定地址。
func TestRedisLimiter(t *testing.T) {
	addr := os.Getenv("LINECOVER_TEST_REDIS")
	if addr == "" {
		t.Skip("LINECOVER_TEST_REDIS not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	key := "test-" + time.Now().Format("150405.000000000")
	l := NewRedisLimiter(client, 2, time.Minute)

	for range 2 {
		ok, err := l.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, client.Del(ctx, keyPrefix+key).Err())
}
