// Package cache keeps a short-lived index from stream key to its owner so the
// ingest layer's publish checks can skip the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Entry is what the ingest path needs to know about an active stream key.
type Entry struct {
	UserID    string    `json:"userId"`
	StreamID  string    `json:"streamId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// KeyCache stores Entries by stream key. A miss is reported as (nil, nil).
type KeyCache interface {
	Get(ctx context.Context, streamKey string) (*Entry, error)
	Set(ctx context.Context, streamKey string, e Entry) error
	Delete(ctx context.Context, streamKey string) error
}

// Nop is used when no Redis address is configured.
type Nop struct{}

func (Nop) Get(context.Context, string) (*Entry, error) { return nil, nil }
func (Nop) Set(context.Context, string, Entry) error     { return nil }
func (Nop) Delete(context.Context, string) error         { return nil }

const keyPrefix = "streamkeeper:streamkey:"

// timeNow is a seam for tests.
var timeNow = time.Now

// RedisCache stores entries as JSON with a TTL ending at the key's expiry,
// capped at maxTTL. The cap bounds how long an entry can outlive a stop whose
// eviction raced with a concurrent Set.
type RedisCache struct {
	client redis.UniversalClient
	maxTTL time.Duration
}

// NewRedisCache wraps client. maxTTL <= 0 means entries live until the
// stream key expires.
func NewRedisCache(client redis.UniversalClient, maxTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, maxTTL: maxTTL}
}

func (c *RedisCache) Get(ctx context.Context, streamKey string) (*Entry, error) {
	raw, err := c.client.Get(ctx, keyPrefix+streamKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	e := &Entry{}
	if err := json.Unmarshal(raw, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Set is a no-op for entries that have already expired.
func (c *RedisCache) Set(ctx context.Context, streamKey string, e Entry) error {
	ttl := e.ExpiresAt.Sub(timeNow())
	if ttl <= 0 {
		return nil
	}
	if c.maxTTL > 0 && ttl > c.maxTTL {
		ttl = c.maxTTL
	}

	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyPrefix+streamKey, raw, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, streamKey string) error {
	return c.client.Del(ctx, keyPrefix+streamKey).Err()
}
