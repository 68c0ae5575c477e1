package response

// 业务错误码定义
const (
	// 成功
	CodeSuccess = 0

	// 客户端错误 (400xx)
	CodeBadRequest    = 40000 // 请求参数错误
	CodeInvalidParams = 40001 // 参数验证失败

	// 认证错误 (401xx)
	CodeUnauthorized       = 40100 // 未认证
	CodeInvalidToken       = 40101 // Token无效
	CodeInvalidCredentials = 40103 // 邮箱或密码错误

	// 频率限制 (429xx)
	CodeTooManyAttempts = 42901 // 登录失败次数过多

	// 服务端错误 (500xx)
	CodeInternalServerError = 50000 // 服务器内部错误
	CodeSessionError        = 50003 // 会话存储错误
	CodeStorageError        = 50005 // Token 持久化失败

	// 上游错误 (502xx)
	CodeUpstreamError = 50200 // 认证 API 不可用
)

// CodeMessage 错误信息映射（对外展示）
var CodeMessage = map[int]string{
	CodeSuccess:             "OK",
	CodeBadRequest:          "Bad request.",
	CodeInvalidParams:       "Please fix the highlighted fields.",
	CodeUnauthorized:        "Not signed in.",
	CodeInvalidToken:        "The server returned an invalid token.",
	CodeInvalidCredentials:  "Invalid email or password.",
	CodeTooManyAttempts:     "Too many failed attempts. Please try again later.",
	CodeInternalServerError: "Something went wrong. Please try again.",
	CodeSessionError:        "Could not start your session. Please try again.",
	CodeStorageError:        "Could not save your session. Please try again.",
	CodeUpstreamError:       "The login service is unavailable. Please try again later.",
}

// GetMessage 获取错误码对应的消息
func GetMessage(code int) string {
	if msg, ok := CodeMessage[code]; ok {
		return msg
	}
	return "Unknown error."
}
