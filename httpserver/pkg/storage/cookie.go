// Package storage 将认证 Token 持久化到浏览器 Cookie。
package storage

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	// CookieName Token Cookie 名称
	CookieName = "token"

	defaultMaxAge = 2 * 60 * 60
)

// ErrEmptyToken 拒绝写入空 Token
var ErrEmptyToken = errors.New("storage: empty token")

// Codec 负责 Token Cookie 的签名与（可选）加密
type Codec struct {
	sc     *securecookie.SecureCookie
	secure bool
	maxAge int
}

// NewCodec 创建 Codec；blockKey 为空时只签名不加密
func NewCodec(hashKey, blockKey []byte, secure bool, maxAge int) *Codec {
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}
	if len(blockKey) == 0 {
		blockKey = nil
	}
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(maxAge)
	return &Codec{sc: sc, secure: secure, maxAge: maxAge}
}

// Bind 绑定到单个请求
func (c *Codec) Bind(w http.ResponseWriter, r *http.Request) *CookieStorage {
	return &CookieStorage{codec: c, w: w, r: r}
}

// CookieStorage 单个请求内的 Token 读写
type CookieStorage struct {
	codec *Codec
	w     http.ResponseWriter
	r     *http.Request
}

// Token 读取已保存的 Token；校验失败等同于不存在
func (s *CookieStorage) Token() (string, bool) {
	cookie, err := s.r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	var token string
	if err := s.codec.sc.Decode(CookieName, cookie.Value, &token); err != nil {
		return "", false
	}
	if strings.TrimSpace(token) == "" {
		return "", false
	}
	return token, true
}

// SaveToken 写入 Token Cookie
func (s *CookieStorage) SaveToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrEmptyToken
	}

	encoded, err := s.codec.sc.Encode(CookieName, token)
	if err != nil {
		return fmt.Errorf("storage: encode cookie: %w", err)
	}

	http.SetCookie(s.w, &http.Cookie{
		Name:     CookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   s.codec.maxAge,
		HttpOnly: true,
		Secure:   s.codec.secure || s.r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear 删除 Token Cookie
func (s *CookieStorage) Clear() {
	http.SetCookie(s.w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
