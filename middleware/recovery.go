// Package middleware 提供 linecover HTTP 接口使用的 Gin 中间件。
package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/linecover/response"
)

// Recovery 捕获 handler 中的 panic，记录堆栈并返回统一的 500 响应。
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.ErrorContext(c.Request.Context(), "panic recovered",
					"error", err,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)
				response.ErrorWithStatus(c, http.StatusInternalServerError, "internal server error", "")
				c.Abort()
			}
		}()
		c.Next()
	}
}
