// Package server 暴露 linecover 的 HTTP 接口，并负责服务器的启动与优雅关闭。
package server

import "context"

// Server 描述可被统一管理生命周期的服务器。
type Server interface {
	// Start 阻塞运行，直到 ctx 被取消或服务器出错。
	Start(ctx context.Context) error
	// Stop 等待进行中的请求完成后关闭。
	Stop(ctx context.Context) error
}
