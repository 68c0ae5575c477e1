package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "login_fail:jane@example.com"

func TestLoginLimiter_AcquireFirstSetsTTL(t *testing.T) {
	client := new(MockClient)
	limiter := NewLoginLimiter(client)
	ctx := context.Background()

	client.On("Incr", ctx, testKey).Return(int64(1), nil)
	client.On("Expire", ctx, testKey, LoginFailTTL).Return(nil)

	allowed, err := limiter.AcquireLoginAttempt(ctx, " Jane@Example.com ")

	require.NoError(t, err)
	assert.True(t, allowed)
	client.AssertExpectations(t)
}

func TestLoginLimiter_Acquire(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		count   int64
		err     error
		allowed bool
		undo    bool
	}{
		{name: "未达上限", count: 3, allowed: true},
		{name: "最后一次", count: MaxLoginAttempts, allowed: true},
		{name: "超过上限", count: MaxLoginAttempts + 1, allowed: false, undo: true},
		{name: "Redis错误", err: errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockClient)
			client.On("Incr", ctx, testKey).Return(tt.count, tt.err)
			if tt.undo {
				client.On("Decr", ctx, testKey).Return(tt.count-1, nil)
			}

			allowed, err := NewLoginLimiter(client).AcquireLoginAttempt(ctx, "jane@example.com")

			if tt.err != nil {
				assert.Error(t, err)
				assert.False(t, allowed)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.allowed, allowed)
			client.AssertNotCalled(t, "Expire", ctx, testKey, LoginFailTTL)
			if !tt.undo {
				client.AssertNotCalled(t, "Decr", ctx, testKey)
			}
			client.AssertExpectations(t)
		})
	}
}

func TestLoginLimiter_Release(t *testing.T) {
	ctx := context.Background()

	client := new(MockClient)
	client.On("Decr", ctx, testKey).Return(int64(2), nil)
	require.NoError(t, NewLoginLimiter(client).ReleaseLoginAttempt(ctx, "jane@example.com"))
	client.AssertNotCalled(t, "Del", ctx, []string{testKey})

	// 计数在尝试期间过期，DECR 从 0 减到 -1
	client = new(MockClient)
	client.On("Decr", ctx, testKey).Return(int64(-1), nil)
	client.On("Del", ctx, []string{testKey}).Return(nil)
	require.NoError(t, NewLoginLimiter(client).ReleaseLoginAttempt(ctx, "jane@example.com"))
	client.AssertExpectations(t)

	client = new(MockClient)
	client.On("Decr", ctx, testKey).Return(int64(0), errors.New("connection refused"))
	assert.Error(t, NewLoginLimiter(client).ReleaseLoginAttempt(ctx, "jane@example.com"))
}

func TestLoginLimiter_Reset(t *testing.T) {
	client := new(MockClient)
	ctx := context.Background()
	client.On("Del", ctx, []string{testKey}).Return(nil)

	assert.NoError(t, NewLoginLimiter(client).ResetLoginFail(ctx, "jane@example.com"))
	client.AssertExpectations(t)
}

func TestMemoryLoginLimiter(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryLoginLimiter().(*memoryLimiter)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	for i := 0; i < MaxLoginAttempts; i++ {
		allowed, err := limiter.AcquireLoginAttempt(ctx, "JANE@example.com")
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, _ := limiter.AcquireLoginAttempt(ctx, "jane@example.com")
	assert.False(t, allowed)

	// 归还后空出一次
	require.NoError(t, limiter.ReleaseLoginAttempt(ctx, "jane@example.com"))
	allowed, _ = limiter.AcquireLoginAttempt(ctx, "jane@example.com")
	assert.True(t, allowed)

	// 过期后恢复
	now = now.Add(LoginFailTTL)
	allowed, _ = limiter.AcquireLoginAttempt(ctx, "jane@example.com")
	assert.True(t, allowed)

	require.NoError(t, limiter.ResetLoginFail(ctx, "jane@example.com"))
	assert.Empty(t, limiter.entries)

	// 没有记录时归还不留下条目
	require.NoError(t, limiter.ReleaseLoginAttempt(ctx, "jane@example.com"))
	assert.Empty(t, limiter.entries)
}

func TestMemoryLoginLimiter_ConcurrentAttempts(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryLoginLimiter()

	const workers = 50
	var (
		wg      sync.WaitGroup
		granted atomic.Int64
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, err := limiter.AcquireLoginAttempt(ctx, "jane@example.com")
			if err == nil && allowed {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(MaxLoginAttempts), granted.Load())
}

func TestMemoryLoginLimiter_SweepsExpiredEmails(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryLoginLimiter().(*memoryLimiter)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 1000; i++ {
		_, err := limiter.AcquireLoginAttempt(ctx, fmt.Sprintf("user%d@example.com", i))
		require.NoError(t, err)
	}
	require.Len(t, limiter.entries, 1000)

	// 这些邮箱再也不会出现，一次写入就应清理掉
	now = now.Add(LoginFailTTL + time.Second)
	_, err := limiter.AcquireLoginAttempt(ctx, "someone-else@example.com")
	require.NoError(t, err)

	assert.Len(t, limiter.entries, 1)
	assert.Contains(t, limiter.entries, limiterKey("someone-else@example.com"))
}
