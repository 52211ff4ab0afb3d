// Package dedup claims short-lived keys so that duplicated webhook deliveries are processed once.
package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "powerpix:dedup:"

type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisStore(opt *redis.Options, ttl time.Duration) *RedisStore {
	return &RedisStore{Client: redis.NewClient(opt), TTL: ttl}
}

// Claim reports whether the caller is the first to claim key within the TTL.
func (s *RedisStore) Claim(ctx context.Context, key string) (bool, error) {
	return s.Client.SetNX(ctx, keyPrefix+key, time.Now().Unix(), s.TTL).Result()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.Client.Del(ctx, keyPrefix+key).Err()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

type MemoryStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]time.Time
	now   func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, items: map[string]time.Time{}, now: time.Now}
}

func (s *MemoryStore) Claim(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expires, ok := s.items[key]; ok && now.Before(expires) {
		return false, nil
	}
	s.items[key] = now.Add(s.ttl)

	return true, nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()

	return nil
}
