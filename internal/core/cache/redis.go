package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV is the slice of the shared key-value store the storefront relies on.
// Values are always raw bytes; serialization happens above this boundary.
// A missing key is a normal (nil, nil) return, never an error.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Store is the redis implementation of KV.
type Store struct {
	RDB *redis.Client
}

func New(addr, pass string, db int) *Store {
	return &Store{
		RDB: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
	}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.RDB.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return b, err
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.RDB.Set(ctx, key, value, ttl).Err()
}

func (s *Store) Incr(ctx context.Context, key string) (int64, error) {
	return s.RDB.Incr(ctx, key).Result()
}

func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.RDB.Expire(ctx, key, ttl).Err()
}

func (s *Store) Del(ctx context.Context, key string) error {
	return s.RDB.Del(ctx, key).Err()
}
