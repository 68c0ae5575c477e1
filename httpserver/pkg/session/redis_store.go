package session

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	log "login-portal/httpserver/pkg/logger"
	"login-portal/httpserver/pkg/redis"
)

const (
	// DefaultTTL Session默认过期时间（2小时）
	DefaultTTL = 2 * time.Hour

	// KeyPrefix Session键前缀
	// 键设计示例：sess:<sha256(token)>
	KeyPrefix = "sess:"
)

// redisStore 基于 Redis 的会话存储
type redisStore struct {
	client redis.Client
	ttl    time.Duration
}

// NewRedisStore 创建Redis会话存储，ttl<=0 时使用 DefaultTTL
func NewRedisStore(client redis.Client, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &redisStore{client: client, ttl: ttl}
}

// Publish 写入身份信息
func (s *redisStore) Publish(ctx context.Context, token string, identity Identity) error {
	if err := s.client.SetJSON(ctx, KeyPrefix+tokenKey(token), identity, s.ttl); err != nil {
		log.Error("发布Session失败", zap.Error(err), zap.String("user_id", identity.ID))
		return fmt.Errorf("发布Session失败: %w", err)
	}

	log.Debug("发布Session成功", zap.String("user_id", identity.ID))
	return nil
}

// Lookup 查询身份信息
func (s *redisStore) Lookup(ctx context.Context, token string) (*Identity, error) {
	var identity Identity
	if err := s.client.GetJSON(ctx, KeyPrefix+tokenKey(token), &identity); err != nil {
		if redis.IsNil(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("查询Session失败: %w", err)
	}
	return &identity, nil
}

// Revoke 删除身份信息
func (s *redisStore) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, KeyPrefix+tokenKey(token)); err != nil {
		log.Error("销毁Session失败", zap.Error(err))
		return fmt.Errorf("销毁Session失败: %w", err)
	}
	return nil
}
