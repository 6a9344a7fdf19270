package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRevocations keeps revoked jtis as keys whose TTL ends when the token
// would stop validating anyway, so the set never grows without bound.
type RedisRevocations struct {
	rdb    redis.Cmdable
	prefix string
	now    func() time.Time
}

func NewRedisRevocations(rdb redis.Cmdable, prefix string) *RedisRevocations {
	if prefix == "" {
		prefix = "revoked"
	}
	return &RedisRevocations{rdb: rdb, prefix: prefix, now: time.Now}
}

func (r *RedisRevocations) key(jti string) string { return r.prefix + ":" + jti }

// Revoke records jti until the given deadline.  A deadline already in the
// past needs no entry: the token fails validation on its own.
func (r *RedisRevocations) Revoke(ctx context.Context, jti, ownerID string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, r.key(jti), ownerID, ttl).Err()
}

// IsRevoked reports whether jti has a live revocation entry.
func (r *RedisRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.key(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
