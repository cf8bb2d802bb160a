// Package bootstrap 按固定顺序初始化公共基础设施：配置、日志、ID 生成器、追踪与指标。
package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wyfcoding/linecover/config"
	"github.com/wyfcoding/linecover/idgen"
	"github.com/wyfcoding/linecover/logging"
	"github.com/wyfcoding/linecover/metrics"
	"github.com/wyfcoding/linecover/tracing"
)

// Runtime 是初始化完成后的基础设施集合。
type Runtime struct {
	Config  *config.Config
	Logger  *logging.Logger
	Metrics *metrics.Metrics

	shutdownTracer func(context.Context) error
}

// Setup 加载配置（configPath 可为空）、初始化全局 Logger 与 ID 生成器，并按配置启用追踪。
func Setup(ctx context.Context, configPath, module string) (*Runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := logging.InitLogger(logging.Config{
		Service:    cfg.Server.Name,
		Module:     module,
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	config.PrintWithMask(cfg)
	if configPath != "" {
		config.RegisterReloadHook(func(c *config.Config) {
			logger.Info("config reloaded", "log_level", c.Log.Level)
		})
		config.Watch(cfg)
	}

	if err := idgen.Init(cfg.IDGen); err != nil {
		return nil, err
	}

	shutdown, err := tracing.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		return nil, err
	}

	m := metrics.NewMetrics(cfg.Server.Name)
	m.RegisterBuildInfo(cfg.Server.Name, cfg.Version)

	logger.Debug("bootstrap finished", "env", cfg.Server.Environment, "tracing", cfg.Tracing.Enabled)
	return &Runtime{Config: cfg, Logger: logger, Metrics: m, shutdownTracer: shutdown}, nil
}

// Slog 返回底层的 *slog.Logger。
func (r *Runtime) Slog() *slog.Logger {
	return r.Logger.Logger
}

// Close 刷新并关闭追踪导出器。
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	if r.shutdownTracer != nil {
		errs = append(errs, r.shutdownTracer(ctx))
	}
	return errors.Join(errs...)
}
