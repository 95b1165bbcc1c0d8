package token

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRegistry backs the refresh-token registry with Redis for
// multi-process deployments. Entries carry a TTL so Sweep is a no-op.
type RedisRegistry struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisRegistry(redisURL string, ttl time.Duration) (*RedisRegistry, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &RedisRegistry{rdb: rdb, prefix: "invites:rt:", ttl: ttl}, nil
}

// key hashes the token so raw credentials never appear in Redis.
func (r *RedisRegistry) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return r.prefix + hex.EncodeToString(sum[:])
}

func (r *RedisRegistry) Put(ctx context.Context, token string, e Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.key(token), payload, r.ttl).Err()
}

// Consume uses GETDEL so concurrent rotations observe exactly one winner.
func (r *RedisRegistry) Consume(ctx context.Context, token string) (Entry, bool, error) {
	raw, err := r.rdb.GetDel(ctx, r.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}

	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

func (r *RedisRegistry) Delete(ctx context.Context, token string) error {
	return r.rdb.Del(ctx, r.key(token)).Err()
}

func (r *RedisRegistry) Sweep(context.Context, time.Time) error { return nil }

func (r *RedisRegistry) Close() error { return r.rdb.Close() }
