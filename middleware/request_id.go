package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/linecover/contextx"
	"github.com/wyfcoding/linecover/idgen"
)

const HeaderXRequestID = "X-Request-ID"

// RequestID 透传请求头中的 X-Request-ID，缺失时用分布式 ID 生成一个，并写回响应头。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderXRequestID)
		if requestID == "" {
			requestID = idgen.GenIDString()
		}
		c.Request = c.Request.WithContext(contextx.WithRequestID(c.Request.Context(), requestID))
		c.Header(HeaderXRequestID, requestID)
		c.Next()
	}
}
