package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key prefix for revoked tokens.
const revokedKeyPrefix = "revoked:jti:"

// Redis is the shared revocation list for multi-instance deployments.
type Redis struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed revocation list. The client lifecycle
// is managed by the caller.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Revoke marks a jti revoked with TTL. SETEX gives atomic set-with-expiry;
// the key existence is what matters.
func (s *Redis) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, revokedKeyPrefix+jti, "1", ttl).Err()
}

// IsRevoked reports whether the jti is on the list. A missing key means
// not revoked (or already past expiry).
func (s *Redis) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	_, err := s.client.Get(ctx, revokedKeyPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
