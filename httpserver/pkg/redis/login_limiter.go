package redis

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	log "login-portal/httpserver/pkg/logger"
)

const (
	// LoginFailKeyPrefix 登录失败计数键前缀
	LoginFailKeyPrefix = "login_fail:"

	// LoginFailTTL 登录失败计数过期时间（15分钟）
	LoginFailTTL = 15 * time.Minute

	// MaxLoginAttempts 最大登录尝试次数
	MaxLoginAttempts = 5
)

// LoginLimiter 登录限制器接口
// 计数 = 已确认的失败次数 + 进行中的尝试，占位与判断在同一次原子自增中完成
type LoginLimiter interface {
	// AcquireLoginAttempt 占用一次尝试（计数器+1），超过上限时返回 false 且不占用
	AcquireLoginAttempt(ctx context.Context, email string) (bool, error)

	// ReleaseLoginAttempt 归还一次未计为失败的尝试（计数器-1）
	ReleaseLoginAttempt(ctx context.Context, email string) error

	// ResetLoginFail 重置登录失败计数（登录成功后调用）
	ResetLoginFail(ctx context.Context, email string) error
}

// limiterKey 邮箱不区分大小写
// 登录失败key设计: login_fail:jane@example.com
func limiterKey(email string) string {
	return LoginFailKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}

// loginLimiter 登录限制器实现
type loginLimiter struct {
	client Client
}

// NewLoginLimiter 创建登录限制器
func NewLoginLimiter(client Client) LoginLimiter {
	return &loginLimiter{client: client}
}

// AcquireLoginAttempt 占用一次尝试
func (ll *loginLimiter) AcquireLoginAttempt(ctx context.Context, email string) (bool, error) {
	key := limiterKey(email)

	count, err := ll.client.Incr(ctx, key)
	if err != nil {
		log.Error("占用登录尝试失败", zap.Error(err), zap.String("email", email))
		return false, err
	}

	if count == 1 {
		if err := ll.client.Expire(ctx, key, LoginFailTTL); err != nil {
			// 计数已经成功，过期时间失败不影响主流程
			log.Error("设置登录失败计数过期时间失败",
				zap.Error(err),
				zap.String("email", email),
				zap.String("key", key))
		}
	}

	if count > MaxLoginAttempts {
		if _, err := ll.client.Decr(ctx, key); err != nil {
			log.Error("撤销超限占用失败", zap.Error(err), zap.String("email", email))
		}
		log.Warn("登录尝试次数过多", zap.String("email", email), zap.Int64("fail_count", count-1))
		return false, nil
	}
	return true, nil
}

// ReleaseLoginAttempt 归还一次尝试
func (ll *loginLimiter) ReleaseLoginAttempt(ctx context.Context, email string) error {
	key := limiterKey(email)

	count, err := ll.client.Decr(ctx, key)
	if err != nil {
		log.Error("归还登录尝试失败", zap.Error(err), zap.String("email", email))
		return err
	}
	// 计数在尝试期间过期或被重置时 DECR 会留下没有过期时间的负数
	if count <= 0 {
		if err := ll.client.Del(ctx, key); err != nil {
			log.Error("清理登录失败计数失败", zap.Error(err), zap.String("email", email))
			return err
		}
	}
	return nil
}

// ResetLoginFail 重置登录失败计数
func (ll *loginLimiter) ResetLoginFail(ctx context.Context, email string) error {
	if err := ll.client.Del(ctx, limiterKey(email)); err != nil {
		log.Error("重置登录失败计数失败", zap.Error(err), zap.String("email", email))
		return err
	}
	return nil
}

// ============================================================================
// 内存实现（session.backend=memory 时使用，单实例有效）
// ============================================================================

// memorySweepInterval 写入时最多每隔这么久清理一次全部过期条目
const memorySweepInterval = time.Minute

type memoryEntry struct {
	count     int64
	expiresAt time.Time
}

type memoryLimiter struct {
	mu        sync.Mutex
	entries   map[string]*memoryEntry
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryLoginLimiter 创建进程内登录限制器
func NewMemoryLoginLimiter() LoginLimiter {
	return &memoryLimiter{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

func (m *memoryLimiter) entry(key string, now time.Time) *memoryEntry {
	e, ok := m.entries[key]
	if ok && !now.Before(e.expiresAt) {
		delete(m.entries, key)
		return nil
	}
	return e
}

// sweep 删除所有过期条目
func (m *memoryLimiter) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < memorySweepInterval {
		return
	}
	m.lastSweep = now
	for key, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, key)
		}
	}
}

// AcquireLoginAttempt 占用一次尝试
func (m *memoryLimiter) AcquireLoginAttempt(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	key := limiterKey(email)
	e := m.entry(key, now)
	if e == nil {
		e = &memoryEntry{expiresAt: now.Add(LoginFailTTL)}
		m.entries[key] = e
	}
	if e.count >= MaxLoginAttempts {
		return false, nil
	}
	e.count++
	return true, nil
}

// ReleaseLoginAttempt 归还一次尝试
func (m *memoryLimiter) ReleaseLoginAttempt(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := limiterKey(email)
	e := m.entry(key, m.now())
	if e == nil {
		return nil
	}
	e.count--
	if e.count <= 0 {
		delete(m.entries, key)
	}
	return nil
}

// ResetLoginFail 重置登录失败计数
func (m *memoryLimiter) ResetLoginFail(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, limiterKey(email))
	return nil
}
