package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/linecover/config"
)

const shutdownTimeout = 5 * time.Second

// GinServer 用 http.Server 承载 Gin 引擎。
type GinServer struct {
	server *http.Server
	logger *slog.Logger
}

var _ Server = (*GinServer)(nil)

// NewEngine 创建不带默认中间件的 Gin 引擎，中间件顺序由调用方决定。
func NewEngine(middlewares ...gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	engine.Use(middlewares...)
	return engine
}

// NewGinServer 创建 Gin 服务器，读写超时取自配置。
func NewGinServer(engine *gin.Engine, cfg config.ServerConfig, logger *slog.Logger) *GinServer {
	return &GinServer{
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           engine,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
		logger: logger,
	}
}

// Start 阻塞运行服务器，ctx 取消时执行优雅关闭。
func (s *GinServer) Start(ctx context.Context) error {
	s.logger.Info("starting http server", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("http server stopping due to context cancellation")
		return s.Stop(context.Background())
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return err
	}
}

// Stop 在 shutdownTimeout 内等待请求结束。
func (s *GinServer) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}
