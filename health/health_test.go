package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRun(t *testing.T) {
	report := Run(context.Background(), map[string]Checker{
		"fast": func(context.Context) error { return nil },
		"down": func(context.Context) error { return errors.New("connection refused") },
		"slow": func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}, 20*time.Millisecond)

	assert.False(t, report.Healthy())
	assert.Equal(t, "degraded", report.Status)
	assert.Equal(t, "ok", report.Checks["fast"])
	assert.Equal(t, "connection refused", report.Checks["down"])
	assert.Equal(t, context.DeadlineExceeded.Error(), report.Checks["slow"])
}

func TestRun_NoCheckers(t *testing.T) {
	report := Run(context.Background(), nil, 0)
	assert.True(t, report.Healthy())
	assert.Empty(t, report.Checks)
}

func TestRedisChecker_NilClient(t *testing.T) {
	assert.Error(t, RedisChecker(nil)(context.Background()))
}
