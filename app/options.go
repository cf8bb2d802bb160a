package app

import (
	"context"

	"github.com/wyfcoding/linecover/server"
)

// Option 配置 App。
type Option func(*options)

type options struct {
	servers  []server.Server
	runners  []namedRunner
	cleanups []func()
}

type namedRunner struct {
	name string
	run  func(ctx context.Context) error
}

// WithServer 注册随 App 启停的服务器。
func WithServer(servers ...server.Server) Option {
	return func(o *options) {
		o.servers = append(o.servers, servers...)
	}
}

// WithRunner 注册一个阻塞到 ctx 取消为止的后台任务，例如独立的指标服务器。
func WithRunner(name string, run func(ctx context.Context) error) Option {
	return func(o *options) {
		o.runners = append(o.runners, namedRunner{name: name, run: run})
	}
}

// WithCleanup 注册退出时执行的清理函数，按注册的逆序执行。
func WithCleanup(cleanup func()) Option {
	return func(o *options) {
		o.cleanups = append(o.cleanups, cleanup)
	}
}
