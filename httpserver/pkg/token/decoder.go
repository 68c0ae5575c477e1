// Package token 解码认证 API 签发的 JWT，得到会话身份。
package token

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"login-portal/httpserver/pkg/session"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpired       = errors.New("token expired")
	ErrMissingClaims = errors.New("token missing identity claims")
)

// userID 兼容字符串与数字两种 id
type userID string

func (u *userID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*u = userID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*u = userID(n.String())
	return nil
}

// Claims 认证 API 签发的 Token 载荷
type Claims struct {
	UserID   userID `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// Decoder Token 解码器
type Decoder struct {
	secret []byte
	now    func() time.Time
}

// NewDecoder 创建解码器
// secret 为空时不校验签名，仅解析载荷（与浏览器端解码一致）；非空时按 HMAC 校验
func NewDecoder(secret string) *Decoder {
	d := &Decoder{now: time.Now}
	if secret != "" {
		d.secret = []byte(secret)
	}
	return d
}

// Decode 解码 Token 并返回身份
func (d *Decoder) Decode(raw string) (session.Identity, error) {
	var claims Claims

	if d.secret == nil {
		if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
			return session.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		if claims.ExpiresAt != nil && !d.now().Before(claims.ExpiresAt.Time) {
			return session.Identity{}, ErrExpired
		}
	} else {
		_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return d.secret, nil
		}, jwt.WithTimeFunc(d.now))
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return session.Identity{}, ErrExpired
			}
			return session.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	id := string(claims.UserID)
	if id == "" {
		id = claims.Subject
	}
	if id == "" || claims.Email == "" {
		return session.Identity{}, ErrMissingClaims
	}

	return session.Identity{
		ID:       id,
		Email:    claims.Email,
		FullName: claims.FullName,
	}, nil
}
