package stores

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DenyList records revoked tokens until their natural expiry.
type DenyList struct {
	redis  redis.UniversalClient
	prefix string
}

// NewDenyList returns a deny-list keyed under prefix ("rad" when empty).
func NewDenyList(redisClient redis.UniversalClient, prefix string) *DenyList {
	if prefix == "" {
		prefix = "rad"
	}
	return &DenyList{redis: redisClient, prefix: prefix}
}

func (d *DenyList) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return d.prefix + ":" + hex.EncodeToString(sum[:])
}

// Revoke denies token for ttl. Non-positive ttls are a no-op since the token
// has already expired.
func (d *DenyList) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := d.redis.Set(ctx, d.key(token), 1, ttl).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// IsRevoked reports whether token is on the deny-list.
func (d *DenyList) IsRevoked(ctx context.Context, token string) (bool, error) {
	err := d.redis.Get(ctx, d.key(token)).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	return false, unavailable(err)
}

// RevokeOnce denies token for ttl and reports whether this call was the one
// that revoked it. A second caller presenting the same token gets false.
func (d *DenyList) RevokeOnce(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, nil
	}
	first, err := d.redis.SetNX(ctx, d.key(token), 1, ttl).Result()
	if err != nil {
		return false, unavailable(err)
	}
	return first, nil
}
