// Package app 管理 serve 模式下各服务器的生命周期：统一启动、信号处理与优雅关闭。
package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

const stopTimeout = 10 * time.Second

// App 持有所有服务器与后台任务。任一组件失败都会取消其余组件。
type App struct {
	name   string
	logger *slog.Logger
	opts   options
}

func New(name string, logger *slog.Logger, opts ...Option) *App {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return &App{name: name, logger: logger, opts: o}
}

// Run 阻塞直到收到 SIGINT/SIGTERM、ctx 被取消或某个组件出错，然后停止所有服务器并执行清理。
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("application starting", "name", a.name, "pid", os.Getpid())

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range a.opts.servers {
		g.Go(func() error { return srv.Start(gctx) })
	}
	for _, r := range a.opts.runners {
		g.Go(func() error {
			if err := r.run(gctx); err != nil {
				a.logger.Error("runner failed", "runner", r.name, "error", err)
				return err
			}
			return nil
		})
	}

	err := g.Wait()
	a.logger.Info("shutting down application", "name", a.name)

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	for _, srv := range a.opts.servers {
		if stopErr := srv.Stop(stopCtx); stopErr != nil {
			a.logger.Error("server failed to stop", "error", stopErr)
		}
	}
	for i := len(a.opts.cleanups) - 1; i >= 0; i-- {
		a.opts.cleanups[i]()
	}

	if err != nil {
		return err
	}
	a.logger.Info("application shut down gracefully")
	return nil
}
