// Package graphql 调用认证 API 的 login/register mutation。
package graphql

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/machinebox/graphql"
	"go.uber.org/zap"

	log "login-portal/httpserver/pkg/logger"
)

const (
	loginMutation = `mutation Login($email: String!, $password: String!) {
  login(email: $email, password: $password)
}`

	registerMutation = `mutation Register($fullName: String!, $email: String!, $password: String!) {
  register(fullName: $fullName, email: $email, password: $password)
}`
)

var (
	// ErrRejected 认证 API 返回了 GraphQL errors（例如账号或密码错误）
	ErrRejected = errors.New("graphql: request rejected")

	// ErrUnavailable 网络错误、非 2xx 响应、无法解析的响应、超时
	ErrUnavailable = errors.New("graphql: auth api unavailable")
)

// Client 认证 API 客户端
type Client struct {
	gql     *graphql.Client
	timeout time.Duration
}

// NewClient 创建客户端；httpClient 为 nil 时使用默认 Transport
// 传入的 httpClient 不会被修改
func NewClient(endpoint string, timeout time.Duration, httpClient *http.Client) *Client {
	hc := &http.Client{}
	if httpClient != nil {
		copied := *httpClient
		hc = &copied
	}
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc.Transport = statusTransport{base: base}

	gql := graphql.NewClient(endpoint, graphql.WithHTTPClient(hc))
	gql.Log = func(s string) {
		log.Debug("GraphQL 请求", zap.String("detail", s))
	}
	return &Client{gql: gql, timeout: timeout}
}

// Login 执行 login mutation，返回 Token；响应中没有 Token 时返回空字符串
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	req := graphql.NewRequest(loginMutation)
	req.Var("email", email)
	req.Var("password", password)

	var resp struct {
		Login *string `json:"login"`
	}
	if err := c.run(ctx, req, &resp); err != nil {
		return "", err
	}
	if resp.Login == nil {
		return "", nil
	}
	return *resp.Login, nil
}

// Register 执行 register mutation，返回 Token
func (c *Client) Register(ctx context.Context, fullName, email, password string) (string, error) {
	req := graphql.NewRequest(registerMutation)
	req.Var("fullName", fullName)
	req.Var("email", email)
	req.Var("password", password)

	var resp struct {
		Register *string `json:"register"`
	}
	if err := c.run(ctx, req, &resp); err != nil {
		return "", err
	}
	if resp.Register == nil {
		return "", nil
	}
	return *resp.Register, nil
}

func (c *Client) run(ctx context.Context, req *graphql.Request, resp interface{}) error {
	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	err := c.gql.Run(callCtx, req, resp)
	if err == nil {
		return nil
	}
	return classify(ctx, err)
}

// classify 区分调用方取消、服务不可用与业务拒绝
func classify(parent context.Context, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}

	var (
		urlErr    *url.Error
		statusErr *StatusError
	)
	switch {
	case errors.As(err, &statusErr),
		errors.As(err, &urlErr),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	// 2xx 但响应体无法解析时 machinebox/graphql 返回以下文本，GraphQL errors 以 "graphql: <message>" 返回
	msg := err.Error()
	for _, marker := range []string{"decoding response", "reading body"} {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return fmt.Errorf("%w: %s", ErrRejected, strings.TrimPrefix(msg, "graphql: "))
}

// StatusError 认证 API 返回了非 2xx 状态码
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("auth api returned status %d", e.Code)
}

// statusTransport 把非 2xx 响应转换为错误
// machinebox/graphql 不检查状态码，5xx 带 JSON 响应体时会被当作正常结果解析
type statusTransport struct {
	base http.RoundTripper
}

func (t statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		_ = resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode}
	}
	return resp, nil
}
