package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreFull is returned by a Store when a write exceeds its capacity.
// Callers treat it like any other write failure: logged, never fatal.
var ErrStoreFull = errors.New("store capacity exceeded")

// Store is the persisted string slot store backing snapshots and history.
// Get reports presence explicitly so an absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, key string) error
}

// RedisStore persists slots in Redis with an optional TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps a Redis client. ttl of zero keeps slots forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, key, value, s.ttl).Err()
}

func (s *RedisStore) Del(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// MemoryStore is an in-process Store used in tests and as a degraded fallback.
// MaxBytes bounds the total stored size to emulate a quota-limited store.
type MemoryStore struct {
	mu       sync.Mutex
	values   map[string]string
	MaxBytes int
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.values[key]
	return val, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.MaxBytes > 0 {
		total := len(value)
		for k, v := range s.values {
			if k == key {
				continue
			}
			total += len(v)
		}
		if total > s.MaxBytes {
			return ErrStoreFull
		}
	}
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
