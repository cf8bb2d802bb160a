// Package contextx 提供了在 context.Context 中安全注入与提取请求级信息的工具函数。
// 使用私有类型作为 Key，防止跨包的 Key 冲突。
package contextx

import (
	"context"
)

type contextKey int

const (
	RequestIDKey contextKey = iota // 请求唯一标识 Key。
	RunIDKey                       // 批处理运行 ID Key。
)

// WithRequestID 将请求 ID 注入到 Context 中。
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID 从 Context 中提取请求 ID。
func GetRequestID(ctx context.Context) string {
	if val, ok := ctx.Value(RequestIDKey).(string); ok {
		return val
	}
	return ""
}

// WithRunID 将批处理运行 ID 注入到 Context 中。
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID 从 Context 中提取批处理运行 ID。
func GetRunID(ctx context.Context) string {
	if val, ok := ctx.Value(RunIDKey).(string); ok {
		return val
	}
	return ""
}
