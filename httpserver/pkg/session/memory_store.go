package session

import (
	"context"
	"sync"
	"time"
)

// sweepInterval 写入时最多每隔这么久清理一次全部过期会话
const sweepInterval = time.Minute

type memoryItem struct {
	identity  Identity
	expiresAt time.Time
}

// memoryStore 进程内会话存储，用于本地开发与测试
type memoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	ttl   time.Duration
	now   func() time.Time

	lastSweep time.Time
}

// NewMemoryStore 创建进程内会话存储，ttl<=0 时使用 DefaultTTL
func NewMemoryStore(ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &memoryStore{
		items: make(map[string]memoryItem),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *memoryStore) Publish(_ context.Context, token string, identity Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	s.items[tokenKey(token)] = memoryItem{identity: identity, expiresAt: now.Add(s.ttl)}
	return nil
}

// sweep 删除过期会话，调用方持有写锁
func (s *memoryStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now
	for key, item := range s.items {
		if !now.Before(item.expiresAt) {
			delete(s.items, key)
		}
	}
}

func (s *memoryStore) Lookup(_ context.Context, token string) (*Identity, error) {
	s.mu.RLock()
	item, ok := s.items[tokenKey(token)]
	s.mu.RUnlock()

	if !ok || !s.now().Before(item.expiresAt) {
		return nil, ErrNotFound
	}
	identity := item.identity
	return &identity, nil
}

func (s *memoryStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, tokenKey(token))
	return nil
}
