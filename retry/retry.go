// Package retry 提供带抖动的指数退避重试，用于连接外部依赖。
package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// Config 控制重试次数与退避曲线。MaxRetries 为 0 时只执行一次。
type Config struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	Jitter         float64 // 相对抖动比例，0.1 表示 ±10%
	MaxRetries     int
}

// DefaultConfig 返回连接类操作常用的重试配置。
func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		Multiplier:     2.0,
		Jitter:         0.1,
	}
}

// Do 执行 fn，失败时按退避策略重试，ctx 取消时立即返回。
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	var lastErr error
	backoff := cfg.InitialBackoff

	for attempt := 0; attempt <= max(cfg.MaxRetries, 0); attempt++ {
		if lastErr = fn(ctx); lastErr == nil {
			return nil
		}
		if attempt == cfg.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(backoff):
		}

		next := float64(backoff) * cfg.Multiplier
		if cfg.Jitter > 0 {
			next += (rand.Float64()*2 - 1) * cfg.Jitter * next
		}
		backoff = min(time.Duration(next), cfg.MaxBackoff)
	}

	return fmt.Errorf("retry failed after %d attempts: %w", max(cfg.MaxRetries, 0)+1, lastErr)
}
