package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 返回成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "OK",
		Data:    data,
	})
}

// Error 返回错误响应，message 为空时使用错误码默认消息
func Error(c *gin.Context, code int, message string) {
	ErrorWithData(c, code, message, nil)
}

// ErrorWithData 返回带数据的错误响应（例如字段错误）
func ErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	if message == "" {
		message = GetMessage(code)
	}
	c.JSON(HTTPStatus(code), Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// HTTPStatus 根据业务错误码获取HTTP状态码
func HTTPStatus(code int) int {
	switch {
	case code == CodeSuccess:
		return http.StatusOK
	case code >= CodeBadRequest && code < CodeUnauthorized:
		return http.StatusBadRequest
	case code >= CodeUnauthorized && code < 40200:
		return http.StatusUnauthorized
	case code >= 42900 && code < 43000:
		return http.StatusTooManyRequests
	case code >= CodeUpstreamError && code < 50300:
		return http.StatusBadGateway
	case code >= CodeInternalServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}
