package main

import (
	"context"
	"errors"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/wyfcoding/linecover/app"
	"github.com/wyfcoding/linecover/bootstrap"
	"github.com/wyfcoding/linecover/coverage"
	"github.com/wyfcoding/linecover/health"
	"github.com/wyfcoding/linecover/limiter"
	"github.com/wyfcoding/linecover/query"
	"github.com/wyfcoding/linecover/server"
)

var serveInput string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load a tree and serve the HTTP API",
		Long: `Loads "n q", the tree edges and any queries in the input file, then serves
line updates and path checks over HTTP until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&serveInput, "input", "i", "", "tree file in the text protocol (required)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := bootstrap.Setup(ctx, configPath, "serve")
	if err != nil {
		return err
	}
	cfg := rt.Config
	logger := rt.Slog()

	if cfg.Server.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	f, err := os.Open(serveInput)
	if err != nil {
		return err
	}
	p := query.NewProcessor(
		query.WithLogger(logger),
		query.WithRecorder(rt.Metrics),
		query.WithNetworkOptions(coverage.WithMaxPairs(cfg.Server.MaxPairs)),
	)
	nw, sum, err := p.LoadNetwork(ctx, f)
	_ = f.Close()
	if err != nil {
		return err
	}
	logger.Info("network loaded", "file", serveInput, "nodes", sum.Nodes, "replayed", sum.Queries)

	opts := server.RouterOptions{Config: cfg, Logger: logger, Metrics: rt.Metrics}
	closeLimiter := func() error { return nil }
	if cfg.RateLimit.Enabled {
		l, closeFn, lerr := limiter.New(cfg.RateLimit)
		if lerr != nil {
			return lerr
		}
		opts.Limiter, closeLimiter = l, closeFn
		if rl, ok := l.(*limiter.RedisLimiter); ok {
			opts.Checkers = map[string]health.Checker{"redis": health.RedisChecker(rl.Client())}
		}
	}

	engine := server.NewRouter(nw, opts)
	appOpts := []app.Option{
		app.WithServer(server.NewGinServer(engine, cfg.Server, logger)),
		app.WithCleanup(func() {
			if err := errors.Join(closeLimiter(), rt.Close(context.Background())); err != nil {
				logger.Error("cleanup failed", "error", err)
			}
		}),
	}
	if cfg.Metrics.Enabled {
		appOpts = append(appOpts, app.WithRunner("metrics", func(ctx context.Context) error {
			return rt.Metrics.Serve(ctx, cfg.Metrics.Addr, cfg.Metrics.Path)
		}))
	}

	return app.New(cfg.Server.Name, logger, appOpts...).Run(ctx)
}
