// Package response 提供统一的 HTTP 响应封装，负责把 xerrors 与 gRPC 状态映射为 HTTP 状态码。
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/linecover/xerrors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Body 是所有 JSON 响应的外层结构。
type Body struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Data   any    `json:"data,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Success 发送 HTTP 200，业务码 0。
func Success(c *gin.Context, data any) {
	SuccessWithStatus(c, http.StatusOK, data)
}

// SuccessWithStatus 以指定的 HTTP 状态码发送成功响应。
func SuccessWithStatus(c *gin.Context, status int, data any) {
	c.JSON(status, Body{Code: 0, Msg: "success", Data: data})
}

// SuccessWithRawData 发送不包装 code 和 msg 的原始数据，用于健康检查。
func SuccessWithRawData(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Error 识别 xerrors.Error 或 gRPC Status 并映射状态码，无法识别时返回 500。
func Error(c *gin.Context, err error) {
	if err == nil {
		Success(c, nil)
		return
	}

	statusCode := http.StatusInternalServerError
	code := statusCode
	msg := err.Error()
	detail := ""

	if e, ok := xerrors.FromError(err); ok {
		statusCode = e.HTTPStatus()
		code = e.Code
		msg = e.Message
		detail = e.Detail
	} else if st, ok := status.FromError(err); ok {
		statusCode = grpcCodeToHTTP(st.Code())
		code = statusCode
		msg = st.Message()
	}

	c.JSON(statusCode, Body{Code: code, Msg: msg, Detail: detail})
}

// ErrorWithStatus 发送带指定状态码、消息和详情的错误响应。
func ErrorWithStatus(c *gin.Context, status int, msg string, detail string) {
	c.JSON(status, Body{Code: status, Msg: msg, Detail: detail})
}

func grpcCodeToHTTP(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.Canceled:
		return 499 // Client Closed Request
	case codes.InvalidArgument, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted, codes.FailedPrecondition:
		return http.StatusConflict
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
