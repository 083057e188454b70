package cache

import (
	"context"
	"time"
)

// Store es lo que consume el middleware de cache de respuestas.
// Hay dos implementaciones: MemoryStore (default) y el adapter de Redis.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	InvalidateMatching(ctx context.Context, pattern string)
}

type MemoryStore struct {
	c *Cache[[]byte]
}

func NewMemoryStore(c *Cache[[]byte]) *MemoryStore {
	return &MemoryStore{c: c}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	return s.c.Get(key)
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	s.c.SetWithTTL(key, value, ttl)
}

func (s *MemoryStore) InvalidateMatching(_ context.Context, pattern string) {
	s.c.InvalidateMatching(pattern)
}
