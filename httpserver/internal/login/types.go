package login

import (
	"context"
	"fmt"

	"login-portal/httpserver/pkg/session"
	"login-portal/httpserver/pkg/validator"
)

// HomePath 登录成功或已登录时的跳转目标
const HomePath = "/"

// ============================================================================
// 依赖接口
// ============================================================================

// Authenticator 执行登录 mutation
// 业务拒绝需包装 graphql.ErrRejected
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// Registrar 执行注册 mutation
type Registrar interface {
	Register(ctx context.Context, fullName, email, password string) (string, error)
}

// Decoder 解码 Token 得到身份
type Decoder interface {
	Decode(token string) (session.Identity, error)
}

// TokenReader 读取已持久化的 Token
type TokenReader interface {
	Token() (string, bool)
}

// TokenStorage 读写 Token
type TokenStorage interface {
	TokenReader
	SaveToken(token string) error
}

// TokenEraser 读取并清除 Token
type TokenEraser interface {
	TokenReader
	Clear()
}

// ============================================================================
// 表单与页面状态
// ============================================================================

// Form 登录表单
type Form struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// RegisterForm 注册表单
type RegisterForm struct {
	FullName string `form:"fullName" json:"fullName"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// State 页面状态
type State int

const (
	StateIdle State = iota
	StateValidating
	StateSubmitting
	StateRedirecting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	case StateRedirecting:
		return "redirecting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrorKind 错误类别
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindValidation
	KindCredentials
	KindRateLimited
	KindNetwork
	KindDecode
	KindSession
	KindStorage
	KindCancelled
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindCredentials:
		return "credentials"
	case KindRateLimited:
		return "rate_limited"
	case KindNetwork:
		return "network"
	case KindDecode:
		return "decode"
	case KindSession:
		return "session"
	case KindStorage:
		return "storage"
	case KindCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// 对用户展示的错误消息
const (
	MsgInvalidCredentials = "Invalid email or password."
	MsgRegisterRejected   = "We could not create your account. Please check your details."
	MsgTooManyAttempts    = "Too many failed attempts. Please try again later."
	MsgUnavailable        = "The login service is unavailable. Please try again later."
	MsgInvalidToken       = "Something went wrong while signing you in. Please try again."
	MsgSessionFailed      = "Could not start your session. Please try again."
	MsgCancelled          = "The request was cancelled."
)

// PageError 页面唯一的错误槽：类别 + 展示消息 + 内部原因
type PageError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *PageError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
}

func (e *PageError) Unwrap() error {
	return e.Cause
}

// PageState 渲染页面所需的全部状态，每次提交重新构建
type PageState struct {
	State         State
	Loading       bool
	Email         string
	FullName      string
	Errors        validator.Errors
	FullNameError string
	Error         *PageError
}

// Banner 返回横幅文本；字段校验错误只显示在字段旁
func (p PageState) Banner() string {
	if p.Error == nil || p.Error.Kind == KindValidation {
		return ""
	}
	return p.Error.Message
}

// Outcome 一次提交的结果
type Outcome struct {
	Page       PageState
	Identity   *session.Identity
	RedirectTo string
}

// Redirect 是否应当跳转（并替换历史记录）
func (o Outcome) Redirect() bool {
	return o.RedirectTo != ""
}
