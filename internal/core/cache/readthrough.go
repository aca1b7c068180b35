package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Reader implements cache-aside reads over a KV store. The serialization
// contract is fixed at this boundary: JSON on write, JSON on read, only
// bytes in the store. Cache entries are advisory — any store failure or
// undecodable payload degrades to the loader.
type Reader struct {
	kv  KV
	sf  singleflight.Group
	log *zap.Logger
}

func NewReader(kv KV, log *zap.Logger) *Reader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reader{kv: kv, log: log}
}

// GetOrLoadJSON returns the cached value for key, or loads it from the
// source of record and populates the cache with the given ttl.
//
//   - A present, decodable entry is returned without invoking load.
//   - A corrupt entry is evicted best-effort and treated as a miss.
//   - load returning (nil, nil) means the entity does not exist; the
//     absence is returned as-is and never cached.
//   - KV errors are logged and bypassed; load errors propagate unchanged.
func GetOrLoadJSON[T any](
	r *Reader,
	ctx context.Context,
	key string,
	ttl time.Duration,
	load func(ctx context.Context) (*T, error),
) (*T, error) {
	b, err := r.kv.Get(ctx, key)
	if err != nil {
		r.log.Warn("cache get failed, bypassing", zap.String("key", key), zap.Error(err))
	} else if b != nil {
		var out T
		if e := json.Unmarshal(b, &out); e == nil {
			return &out, nil
		}
		// Corrupt entry: purge so the next read doesn't trip on it again.
		r.log.Warn("cache entry undecodable, evicting", zap.String("key", key))
		if e := r.kv.Del(ctx, key); e != nil {
			r.log.Warn("cache evict failed", zap.String("key", key), zap.Error(e))
		}
	}

	// Collapse concurrent misses for the same key into one load.
	v, err, _ := r.sf.Do(key, func() (any, error) {
		val, e := load(ctx)
		if e != nil {
			return nil, e
		}
		if val == nil {
			// Absence is not cached; it would mask later creation.
			return (*T)(nil), nil
		}
		enc, e := json.Marshal(val)
		if e != nil {
			return nil, e
		}
		if e := r.kv.Set(ctx, key, enc, ttl); e != nil {
			r.log.Warn("cache set failed", zap.String("key", key), zap.Error(e))
		}
		return val, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}

// Invalidate drops a key; failures are logged, not returned.
func (r *Reader) Invalidate(ctx context.Context, key string) {
	if err := r.kv.Del(ctx, key); err != nil {
		r.log.Warn("cache invalidate failed", zap.String("key", key), zap.Error(err))
	}
}
