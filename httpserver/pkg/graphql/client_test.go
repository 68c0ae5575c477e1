package graphql

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// newAPI 启动一个假的认证 API，记录最后一次请求
func newAPI(t *testing.T, status int, body string) (*httptest.Server, *gqlRequest) {
	t.Helper()
	var last gqlRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&last))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &last
}

func TestLogin_Success(t *testing.T) {
	srv, last := newAPI(t, http.StatusOK, `{"data":{"login":"jwt-token"}}`)
	client := NewClient(srv.URL, time.Second, srv.Client())

	token, err := client.Login(context.Background(), "jane@example.com", "secret1")

	require.NoError(t, err)
	assert.Equal(t, "jwt-token", token)
	assert.Contains(t, last.Query, "login(email: $email, password: $password)")
	assert.Equal(t, map[string]interface{}{"email": "jane@example.com", "password": "secret1"}, last.Variables)
}

func TestLogin_MissingPayload(t *testing.T) {
	for _, body := range []string{`{"data":{"login":null}}`, `{"data":null}`, `{}`} {
		srv, _ := newAPI(t, http.StatusOK, body)

		token, err := NewClient(srv.URL, time.Second, srv.Client()).Login(context.Background(), "a@b.co", "secret1")

		assert.NoError(t, err, body)
		assert.Empty(t, token, body)
	}
}

func TestLogin_Rejected(t *testing.T) {
	srv, _ := newAPI(t, http.StatusOK, `{"data":null,"errors":[{"message":"Invalid credentials"}]}`)

	_, err := NewClient(srv.URL, time.Second, srv.Client()).Login(context.Background(), "a@b.co", "secret1")

	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "Invalid credentials")
}

func TestLogin_Unavailable(t *testing.T) {
	srv, _ := newAPI(t, http.StatusBadGateway, `<html>bad gateway</html>`)
	_, err := NewClient(srv.URL, time.Second, srv.Client()).Login(context.Background(), "a@b.co", "secret1")
	assert.ErrorIs(t, err, ErrUnavailable)

	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()
	_, err = NewClient(closed.URL, time.Second, nil).Login(context.Background(), "a@b.co", "secret1")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestLogin_Non200JSON(t *testing.T) {
	cases := []struct {
		status int
		body   string
	}{
		{http.StatusServiceUnavailable, `{"message":"upstream down"}`},
		{http.StatusInternalServerError, `{"errors":[{"message":"db connection refused"}]}`},
		{http.StatusTooManyRequests, `{"data":{"login":"jwt-token"}}`},
	}
	for _, tc := range cases {
		srv, _ := newAPI(t, tc.status, tc.body)
		hc := srv.Client()
		transport := hc.Transport

		token, err := NewClient(srv.URL, time.Second, hc).Login(context.Background(), "a@b.co", "secret1")

		assert.ErrorIs(t, err, ErrUnavailable, tc.body)
		assert.NotErrorIs(t, err, ErrRejected, tc.body)
		assert.Empty(t, token, tc.body)
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr, tc.body)
		assert.Equal(t, tc.status, statusErr.Code)
		assert.Equal(t, transport, hc.Transport, "caller client must not be modified")
	}
}

func TestLogin_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(srv.URL, 50*time.Millisecond, srv.Client()).Login(context.Background(), "a@b.co", "secret1")

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestLogin_CallerCancelled(t *testing.T) {
	srv, _ := newAPI(t, http.StatusOK, `{"data":{"login":"jwt-token"}}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(srv.URL, time.Second, srv.Client()).Login(ctx, "a@b.co", "secret1")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegister_Success(t *testing.T) {
	srv, last := newAPI(t, http.StatusOK, `{"data":{"register":"jwt-token"}}`)

	token, err := NewClient(srv.URL, time.Second, srv.Client()).Register(context.Background(), "Jane Doe", "jane@example.com", "secret1")

	require.NoError(t, err)
	assert.Equal(t, "jwt-token", token)
	assert.Equal(t, "Jane Doe", last.Variables["fullName"])
}
