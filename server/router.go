package server

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/linecover/config"
	"github.com/wyfcoding/linecover/coverage"
	"github.com/wyfcoding/linecover/health"
	"github.com/wyfcoding/linecover/limiter"
	"github.com/wyfcoding/linecover/metrics"
	"github.com/wyfcoding/linecover/middleware"
)

const maxBodyBytes = 1 << 20

// RouterOptions 收集构建路由所需的依赖，Metrics 与 Limiter 可以为 nil。
type RouterOptions struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Limiter limiter.Limiter
	// Checkers 在 /readyz 中执行的依赖检查。
	Checkers map[string]health.Checker
}

// NewRouter 按固定顺序装配中间件并注册接口。
func NewRouter(nw *coverage.Network, opts RouterOptions) *gin.Engine {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mws := []gin.HandlerFunc{
		middleware.Recovery(logger),
		middleware.RequestID(),
	}
	if cfg.Tracing.Enabled {
		mws = append(mws, middleware.Tracing(cfg.Tracing.ServiceName))
	}
	mws = append(mws,
		middleware.Logger(logger),
		middleware.HTTPMetrics(opts.Metrics, middleware.MetricsOptions{
			SlowThreshold: cfg.Server.Timeout / 2,
			SkipPaths:     []string{"/healthz", "/readyz", cfg.Metrics.Path},
		}),
	)
	if opts.Limiter != nil && cfg.RateLimit.Enabled {
		mws = append(mws, middleware.RateLimit(opts.Limiter, logger))
	}
	mws = append(mws,
		middleware.Timeout(cfg.Server.Timeout),
		middleware.MaxBodyBytes(maxBodyBytes),
	)

	engine := NewEngine(mws...)
	h := NewHandler(nw, logger)
	h.checkers = opts.Checkers
	h.Register(engine)
	if opts.Metrics != nil && cfg.Metrics.Path != "" {
		engine.GET(cfg.Metrics.Path, gin.WrapH(opts.Metrics.Handler()))
	}
	return engine
}
