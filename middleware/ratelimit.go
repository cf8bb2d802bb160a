package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/linecover/limiter"
	"github.com/wyfcoding/linecover/response"
)

// RateLimit 以客户端 IP 为 key 限流。限流器自身出错时放行并记录日志。
func RateLimit(l limiter.Limiter, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		allowed, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			logger.ErrorContext(c.Request.Context(), "rate limiter failed, request let through", "key", key, "error", err)
			c.Next()
			return
		}
		if !allowed {
			logger.WarnContext(c.Request.Context(), "request rejected by rate limiter", "key", key, "path", c.Request.URL.Path)
			response.ErrorWithStatus(c, http.StatusTooManyRequests, "too many requests", "access rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}
