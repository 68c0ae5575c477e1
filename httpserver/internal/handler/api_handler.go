package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"login-portal/httpserver/internal/login"
	log "login-portal/httpserver/pkg/logger"
	"login-portal/httpserver/pkg/response"
	"login-portal/httpserver/pkg/storage"
)

// APIHandler JSON 接口，与页面共用同一个控制器
type APIHandler struct {
	ctrl    *login.Controller
	cookies *storage.Codec
}

// NewAPIHandler 创建 APIHandler 实例
func NewAPIHandler(ctrl *login.Controller, cookies *storage.Codec) *APIHandler {
	return &APIHandler{
		ctrl:    ctrl,
		cookies: cookies,
	}
}

// Login 登录，Token 写入 Cookie，响应体只返回身份
func (h *APIHandler) Login(c *gin.Context) {
	var form login.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		response.Error(c, response.CodeBadRequest, "")
		return
	}

	out := h.ctrl.Submit(c.Request.Context(), form, h.cookies.Bind(c.Writer, c.Request))
	if out.Redirect() {
		response.Success(c, gin.H{
			"id":         out.Identity.ID,
			"email":      out.Identity.Email,
			"fullName":   out.Identity.FullName,
			"redirectTo": out.RedirectTo,
		})
		return
	}

	pe := out.Page.Error
	switch pe.Kind {
	case login.KindCancelled:
		c.Status(statusClientClosedRequest)
	case login.KindValidation:
		response.ErrorWithData(c, response.CodeInvalidParams, "", out.Page.Errors)
	default:
		response.Error(c, apiCode(pe.Kind), pe.Message)
	}
}

// Me 当前登录用户
func (h *APIHandler) Me(c *gin.Context) {
	identity, err := h.ctrl.CurrentIdentity(c.Request.Context(), h.cookies.Bind(c.Writer, c.Request))
	if errors.Is(err, login.ErrNotSignedIn) {
		response.Error(c, response.CodeUnauthorized, "")
		return
	}
	if err != nil {
		log.Error("查询会话失败", zap.Error(err))
		response.Error(c, response.CodeSessionError, "")
		return
	}
	response.Success(c, identity)
}

// Logout 登出
func (h *APIHandler) Logout(c *gin.Context) {
	if err := h.ctrl.Logout(c.Request.Context(), h.cookies.Bind(c.Writer, c.Request)); err != nil {
		response.Error(c, response.CodeSessionError, "")
		return
	}
	response.Success(c, gin.H{})
}

// apiCode 将错误类别映射为业务错误码
func apiCode(kind login.ErrorKind) int {
	switch kind {
	case login.KindCredentials:
		return response.CodeInvalidCredentials
	case login.KindRateLimited:
		return response.CodeTooManyAttempts
	case login.KindNetwork:
		return response.CodeUpstreamError
	case login.KindDecode:
		return response.CodeInvalidToken
	case login.KindSession:
		return response.CodeSessionError
	case login.KindStorage:
		return response.CodeStorageError
	default:
		return response.CodeInternalServerError
	}
}
