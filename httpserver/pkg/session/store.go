// Package session 保存当前登录用户的身份信息，以 Token 为键。
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrNotFound 会话不存在或已过期
var ErrNotFound = errors.New("session not found")

// Identity 由 Token 解码得到的用户身份
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// Store 会话存储
type Store interface {
	// Publish 发布（覆盖）Token 对应的身份
	Publish(ctx context.Context, token string, identity Identity) error

	// Lookup 查询 Token 对应的身份，不存在时返回 ErrNotFound
	Lookup(ctx context.Context, token string) (*Identity, error)

	// Revoke 删除 Token 对应的身份，不存在时不报错
	Revoke(ctx context.Context, token string) error
}

// tokenKey 不直接把 Token 当作存储键
func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
