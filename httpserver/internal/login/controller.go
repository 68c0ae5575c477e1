package login

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"login-portal/httpserver/pkg/graphql"
	log "login-portal/httpserver/pkg/logger"
	"login-portal/httpserver/pkg/redis"
	"login-portal/httpserver/pkg/session"
	"login-portal/httpserver/pkg/validator"
)

// ErrEmptyToken mutation 成功返回但没有 Token
var ErrEmptyToken = errors.New("login: response carries no token")

// Deps 控制器依赖，全部显式注入
type Deps struct {
	Auth      Authenticator
	Registrar Registrar
	Decoder   Decoder
	Sessions  session.Store
	Limiter   redis.LoginLimiter // 可选
}

// Controller 登录页控制器，与传输层无关
type Controller struct {
	auth      Authenticator
	registrar Registrar
	decoder   Decoder
	sessions  session.Store
	limiter   redis.LoginLimiter
}

// NewController 创建控制器
func NewController(deps Deps) *Controller {
	return &Controller{
		auth:      deps.Auth,
		registrar: deps.Registrar,
		decoder:   deps.Decoder,
		sessions:  deps.Sessions,
		limiter:   deps.Limiter,
	}
}

// Mount 页面加载时检查已有 Token，存在则直接跳转首页
func (c *Controller) Mount(storage TokenReader) (string, bool) {
	if _, ok := storage.Token(); ok {
		return HomePath, true
	}
	return "", false
}

// Submit 登录提交
func (c *Controller) Submit(ctx context.Context, form Form, storage TokenStorage) Outcome {
	page := PageState{
		State: StateValidating,
		Email: form.Email,
	}

	page.Errors = validator.ValidateLoginForm(form.Email, form.Password)
	if page.Errors.HasErrors() {
		return failed(page, KindValidation, "", nil)
	}

	return c.authenticate(ctx, page, attempt{
		email:       form.Email,
		limited:     true,
		rejectedMsg: MsgInvalidCredentials,
		call: func(ctx context.Context) (string, error) {
			return c.auth.Login(ctx, form.Email, form.Password)
		},
	}, storage)
}

// Register 注册提交，成功后与登录一样建立会话
func (c *Controller) Register(ctx context.Context, form RegisterForm, storage TokenStorage) Outcome {
	page := PageState{
		State:    StateValidating,
		Email:    form.Email,
		FullName: form.FullName,
	}

	errs := validator.ValidateRegisterForm(form.FullName, form.Email, form.Password)
	page.Errors = errs.Errors
	page.FullNameError = errs.FullName
	if errs.HasErrors() {
		return failed(page, KindValidation, "", nil)
	}
	if c.registrar == nil {
		return failed(page, KindNetwork, MsgUnavailable, errors.New("login: registration not configured"))
	}

	return c.authenticate(ctx, page, attempt{
		email:       form.Email,
		rejectedMsg: MsgRegisterRejected,
		call: func(ctx context.Context) (string, error) {
			return c.registrar.Register(ctx, form.FullName, form.Email, form.Password)
		},
	}, storage)
}

// attempt 一次对认证 API 的调用
type attempt struct {
	email       string
	limited     bool
	rejectedMsg string
	call        func(ctx context.Context) (string, error)
}

// authenticate 校验通过后的流程：限流 -> mutation -> 取 Token -> 解码 -> 提交
func (c *Controller) authenticate(ctx context.Context, page PageState, a attempt, storage TokenStorage) Outcome {
	page.State = StateSubmitting
	page.Loading = true

	// 占用的尝试只有被拒绝时才计为失败，其余失败都要归还
	var reserved bool
	if a.limited {
		ok, held := c.acquire(ctx, a.email)
		if !ok {
			return failed(page, KindRateLimited, MsgTooManyAttempts, nil)
		}
		reserved = held
	}
	release := func() {
		if reserved {
			c.release(ctx, a.email)
		}
	}

	token, err := a.call(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Info("请求已取消，放弃登录结果", zap.String("email", a.email), zap.Error(ctxErr))
		release()
		return failed(page, KindCancelled, MsgCancelled, ctxErr)
	}
	if err != nil {
		if errors.Is(err, graphql.ErrRejected) {
			log.Warn("认证被拒绝", zap.String("email", a.email), zap.Error(err))
			return failed(page, KindCredentials, a.rejectedMsg, err)
		}
		log.Error("认证 API 调用失败", zap.String("email", a.email), zap.Error(err))
		release()
		return failed(page, KindNetwork, MsgUnavailable, err)
	}
	if token == "" {
		log.Warn("认证响应缺少 Token", zap.String("email", a.email))
		return failed(page, KindCredentials, a.rejectedMsg, ErrEmptyToken)
	}

	identity, err := c.decoder.Decode(token)
	if err != nil {
		log.Error("Token 解码失败", zap.String("email", a.email), zap.Error(err))
		release()
		return failed(page, KindDecode, MsgInvalidToken, err)
	}

	if kind, err := c.commit(ctx, token, identity, storage); err != nil {
		release()
		return failed(page, kind, MsgSessionFailed, err)
	}

	if a.limited {
		c.resetFail(ctx, a.email)
	}

	log.Info("登录成功", zap.String("user_id", identity.ID), zap.String("email", identity.Email))

	page.State = StateRedirecting
	page.Loading = false
	return Outcome{
		Page:       page,
		Identity:   &identity,
		RedirectTo: HomePath,
	}
}

// commit 发布身份并持久化 Token，两者要么都成功要么都不生效
func (c *Controller) commit(ctx context.Context, token string, identity session.Identity, storage TokenStorage) (ErrorKind, error) {
	if err := c.sessions.Publish(ctx, token, identity); err != nil {
		log.Error("发布会话失败", zap.String("user_id", identity.ID), zap.Error(err))
		return KindSession, err
	}

	if err := storage.SaveToken(token); err != nil {
		log.Error("保存 Token 失败，回滚会话", zap.String("user_id", identity.ID), zap.Error(err))
		if rbErr := c.sessions.Revoke(context.WithoutCancel(ctx), token); rbErr != nil {
			log.Error("回滚会话失败", zap.String("user_id", identity.ID), zap.Error(rbErr))
		}
		return KindStorage, err
	}

	return KindNone, nil
}

// acquire 返回是否放行以及是否占用了一次尝试，限流器出错时降级放行且不占用
func (c *Controller) acquire(ctx context.Context, email string) (allowed, reserved bool) {
	if c.limiter == nil {
		return true, false
	}
	ok, err := c.limiter.AcquireLoginAttempt(ctx, email)
	if err != nil {
		log.Warn("检查登录限制失败，降级放行", zap.String("email", email), zap.Error(err))
		return true, false
	}
	if !ok {
		log.Warn("登录失败次数过多", zap.String("email", email))
	}
	return ok, ok
}

func (c *Controller) release(ctx context.Context, email string) {
	if err := c.limiter.ReleaseLoginAttempt(context.WithoutCancel(ctx), email); err != nil {
		log.Warn("归还登录尝试失败", zap.String("email", email), zap.Error(err))
	}
}

func (c *Controller) resetFail(ctx context.Context, email string) {
	if c.limiter == nil {
		return
	}
	if err := c.limiter.ResetLoginFail(ctx, email); err != nil {
		log.Warn("重置登录失败计数失败", zap.String("email", email), zap.Error(err))
	}
}

// failed 回到 Idle，错误写入唯一的错误槽
func failed(page PageState, kind ErrorKind, msg string, cause error) Outcome {
	page.State = StateIdle
	page.Loading = false
	page.Error = &PageError{Kind: kind, Message: msg, Cause: cause}
	return Outcome{Page: page}
}
