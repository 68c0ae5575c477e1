package handler

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"login-portal/httpserver/internal/login"
	"login-portal/httpserver/internal/view"
	log "login-portal/httpserver/pkg/logger"
	"login-portal/httpserver/pkg/storage"
)

const (
	// LoginPath 登录页
	LoginPath = "/auth/login"
	// RegisterPath 注册页
	RegisterPath = "/auth/register"

	// statusClientClosedRequest 客户端已断开，不再写页面
	statusClientClosedRequest = 499
)

// ============================================================================
// Handler 结构体
// ============================================================================

// AuthHandler 登录、注册、首页与登出页面
type AuthHandler struct {
	ctrl    *login.Controller
	cookies *storage.Codec
}

// NewAuthHandler 创建 AuthHandler 实例
func NewAuthHandler(ctrl *login.Controller, cookies *storage.Codec) *AuthHandler {
	return &AuthHandler{
		ctrl:    ctrl,
		cookies: cookies,
	}
}

// ============================================================================
// Handler 方法
// ============================================================================

// LoginPage 登录页；已有 Token 时直接跳转
func (h *AuthHandler) LoginPage(c *gin.Context) {
	if to, ok := h.ctrl.Mount(h.bind(c)); ok {
		c.Redirect(http.StatusFound, to)
		return
	}
	renderPage(c, http.StatusOK, view.PageLogin, view.LoginPage(login.PageState{}))
}

// Login 登录表单提交
func (h *AuthHandler) Login(c *gin.Context) {
	var form login.Form
	if err := c.ShouldBind(&form); err != nil {
		log.Debug("登录表单绑定失败", zap.Error(err))
	}

	out := h.ctrl.Submit(c.Request.Context(), form, h.bind(c))
	h.finish(c, out, view.PageLogin, view.LoginPage)
}

// RegisterPage 注册页；已有 Token 时直接跳转
func (h *AuthHandler) RegisterPage(c *gin.Context) {
	if to, ok := h.ctrl.Mount(h.bind(c)); ok {
		c.Redirect(http.StatusFound, to)
		return
	}
	renderPage(c, http.StatusOK, view.PageRegister, view.RegisterPage(login.PageState{}))
}

// Register 注册表单提交
func (h *AuthHandler) Register(c *gin.Context) {
	var form login.RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		log.Debug("注册表单绑定失败", zap.Error(err))
	}

	out := h.ctrl.Register(c.Request.Context(), form, h.bind(c))
	h.finish(c, out, view.PageRegister, view.RegisterPage)
}

// Home 首页，需要有效会话
func (h *AuthHandler) Home(c *gin.Context) {
	cookies := h.bind(c)

	identity, err := h.ctrl.CurrentIdentity(c.Request.Context(), cookies)
	if errors.Is(err, login.ErrNotSignedIn) {
		// 会话失效时清掉 Cookie，避免登录页与首页互相跳转
		cookies.Clear()
		c.Redirect(http.StatusFound, LoginPath)
		return
	}
	if err != nil {
		log.Error("查询会话失败", zap.Error(err))
		c.String(http.StatusInternalServerError, login.MsgSessionFailed)
		return
	}

	renderPage(c, http.StatusOK, view.PageHome, view.HomePage(*identity))
}

// Logout 登出后回到登录页
func (h *AuthHandler) Logout(c *gin.Context) {
	// 失败已在控制器记录，Cookie 总会被清除
	_ = h.ctrl.Logout(c.Request.Context(), h.bind(c))
	c.Redirect(http.StatusSeeOther, LoginPath)
}

// ============================================================================
// 工具函数
// ============================================================================

func (h *AuthHandler) bind(c *gin.Context) *storage.CookieStorage {
	return h.cookies.Bind(c.Writer, c.Request)
}

// finish 成功时跳转（替换历史记录），失败时带错误重新渲染表单
func (h *AuthHandler) finish(c *gin.Context, out login.Outcome, page string, data func(login.PageState) view.AuthData) {
	if out.Redirect() {
		c.Redirect(http.StatusSeeOther, out.RedirectTo)
		return
	}
	if out.Page.Error != nil && out.Page.Error.Kind == login.KindCancelled {
		c.Status(statusClientClosedRequest)
		return
	}
	renderPage(c, pageStatus(out.Page.Error), page, data(out.Page))
}

// pageStatus 根据错误类别选择页面状态码
func pageStatus(pe *login.PageError) int {
	if pe == nil {
		return http.StatusOK
	}
	switch pe.Kind {
	case login.KindValidation:
		return http.StatusUnprocessableEntity
	case login.KindCredentials:
		return http.StatusUnauthorized
	case login.KindRateLimited:
		return http.StatusTooManyRequests
	case login.KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// renderPage 渲染 HTML 页面
func renderPage(c *gin.Context, status int, name string, data any) {
	var buf bytes.Buffer
	if err := view.Render(&buf, name, data); err != nil {
		log.Error("渲染页面失败", zap.String("page", name), zap.Error(err))
		c.String(http.StatusInternalServerError, "Something went wrong.")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
