package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"sjmc-records/internal/platform/logger"

	goredis "github.com/redis/go-redis/v9"
)

const scanCount = 200

// Store implementa cache.Store sobre Redis para compartir el cache de
// respuestas entre réplicas. Las fallas se loguean y se tratan como miss.
type Store struct {
	client goredis.UniversalClient
	prefix string
	log    logger.Logger
}

type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

func NewClient(opts Options) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

func NewStore(client goredis.UniversalClient, prefix string, log logger.Logger) *Store {
	if prefix == "" {
		prefix = "sjmc:cache:"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Store{client: client, prefix: prefix, log: log.With(map[string]any{"component": "redis_cache"})}
}

// Ping verifica la conexión al arrancar.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			s.log.Warn("cache get failed", map[string]any{"key": key, "err": err})
		}
		return nil, false
	}
	return b, true
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		s.log.Warn("cache set failed", map[string]any{"key": key, "err": err})
	}
}

// InvalidateMatching borra las keys que contienen pattern (substring) usando SCAN.
func (s *Store) InvalidateMatching(ctx context.Context, pattern string) {
	match := s.matchPattern(pattern)

	var cursor uint64
	removed := 0
	for {
		keys, next, err := s.client.Scan(ctx, cursor, match, scanCount).Result()
		if err != nil {
			s.log.Warn("cache invalidate failed", map[string]any{"pattern": pattern, "err": err})
			return
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				s.log.Warn("cache invalidate failed", map[string]any{"pattern": pattern, "err": err})
				return
			}
			removed += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	s.log.Debug("cache invalidated", map[string]any{"pattern": pattern, "removed": removed})
}

func (s *Store) matchPattern(substr string) string {
	return escapeGlob(s.prefix) + "*" + escapeGlob(substr) + "*"
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\', '^':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) Close() error {
	return s.client.Close()
}
