// Package limiter 为 HTTP 接口提供按客户端限流的实现：本地令牌桶或 Redis 滑动窗口。
package limiter

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wyfcoding/linecover/config"
	"github.com/wyfcoding/linecover/retry"
	"golang.org/x/time/rate"
)

const keyPrefix = "linecover:ratelimit:"

// Limiter 判断 key 对应的调用方是否还有配额。
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// LocalLimiter 为每个 key 维护一个独立的令牌桶。
type LocalLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	r       rate.Limit
	burst   int
}

// NewLocalLimiter 创建本地限流器。r 为每秒令牌数，b 为桶容量。
func NewLocalLimiter(r rate.Limit, b int) *LocalLimiter {
	return &LocalLimiter{
		buckets: make(map[string]*rate.Limiter),
		r:       r,
		burst:   b,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.r, l.burst)
		l.buckets[key] = b
	}
	l.mu.Unlock()
	return b.Allow(), nil
}

// RedisLimiter 基于 ZSet 实现滑动窗口，多个服务实例共享同一份计数。
type RedisLimiter struct {
	client redis.UniversalClient
	limit  int
	window time.Duration
}

func NewRedisLimiter(client redis.UniversalClient, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window}
}

// Allow 清理窗口外的记录、统计窗口内请求数并记录本次请求。计数包含本次之前的请求。
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now().UnixNano()
	windowStart := now - l.window.Nanoseconds()
	rkey := keyPrefix + key

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, rkey, "0", strconv.FormatInt(windowStart, 10))
	card := pipe.ZCard(ctx, rkey)
	pipe.ZAdd(ctx, rkey, redis.Z{Score: float64(now), Member: now})
	pipe.Expire(ctx, rkey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return card.Val() < int64(l.limit), nil
}

// Client 返回底层 Redis 客户端，用于就绪检查。
func (l *RedisLimiter) Client() redis.UniversalClient {
	return l.client
}

// New 按配置构建限流器：配置了 RedisAddr 时使用 Redis，否则使用本地令牌桶。
// 返回的 close 函数负责释放 Redis 连接。
func New(cfg config.RateLimitConfig) (Limiter, func() error, error) {
	if cfg.RedisAddr == "" {
		return NewLocalLimiter(rate.Limit(cfg.Rate), cfg.Burst), func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := retry.Do(ctx, retry.DefaultConfig(), func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	window := cfg.Window
	if window <= 0 {
		window = time.Second
	}
	return NewRedisLimiter(client, cfg.Burst, window), client.Close, nil
}
