package login

import (
	"context"
	"errors"

	"go.uber.org/zap"

	log "login-portal/httpserver/pkg/logger"
	"login-portal/httpserver/pkg/session"
)

// ErrNotSignedIn 没有 Token 或会话已失效
var ErrNotSignedIn = errors.New("login: not signed in")

// CurrentIdentity 根据 Cookie 中的 Token 查询会话身份
func (c *Controller) CurrentIdentity(ctx context.Context, storage TokenReader) (*session.Identity, error) {
	token, ok := storage.Token()
	if !ok {
		return nil, ErrNotSignedIn
	}

	identity, err := c.sessions.Lookup(ctx, token)
	if errors.Is(err, session.ErrNotFound) {
		return nil, ErrNotSignedIn
	}
	if err != nil {
		return nil, err
	}
	return identity, nil
}

// Logout 撤销会话并清除 Token；没有 Token 时直接返回
func (c *Controller) Logout(ctx context.Context, storage TokenEraser) error {
	token, ok := storage.Token()
	if !ok {
		storage.Clear()
		return nil
	}

	storage.Clear()
	if err := c.sessions.Revoke(ctx, token); err != nil {
		log.Error("撤销会话失败", zap.Error(err))
		return err
	}

	log.Info("已登出")
	return nil
}
