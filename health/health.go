// Package health 汇总外部依赖的就绪检查结果，供 /readyz 使用。
package health

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTimeout = 2 * time.Second

// Checker 检查单个依赖，返回 nil 表示就绪。
type Checker func(ctx context.Context) error

// Report 是一次就绪检查的结果。
type Report struct {
	Status string            `json:"status"` // ok 或 degraded
	Checks map[string]string `json:"checks"`
}

// Healthy 报告所有检查是否都通过。
func (r Report) Healthy() bool {
	return r.Status == "ok"
}

// Run 并发执行全部检查，每项检查受 timeout 限制（<=0 时使用 2s）。
func Run(ctx context.Context, checkers map[string]Checker, timeout time.Duration) Report {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		report = Report{Status: "ok", Checks: make(map[string]string, len(checkers))}
	)
	for name, check := range checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			result := "ok"
			if err := check(cctx); err != nil {
				result = err.Error()
			}
			mu.Lock()
			report.Checks[name] = result
			if result != "ok" {
				report.Status = "degraded"
			}
			mu.Unlock()
		}()
	}
	wg.Wait()
	return report
}

// RedisChecker 通过 PING 检查 Redis 连接。
func RedisChecker(client redis.UniversalClient) Checker {
	return func(ctx context.Context) error {
		if client == nil {
			return errors.New("redis client is nil")
		}
		return client.Ping(ctx).Err()
	}
}
