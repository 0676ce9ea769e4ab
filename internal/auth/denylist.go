package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// denyPrefix namespaces revocation entries in Redis.
const denyPrefix = "revoked:"

// Denylist records invalidated token ids in an expiring Redis
// keyspace. Entries carry a TTL equal to the remaining lifetime of
// the token they revoke, so they disappear exactly when the token
// would have expired anyway and never need manual cleanup.
type Denylist struct {
	rdb *redis.Client
}

func NewDenylist(rdb *redis.Client) *Denylist {
	return &Denylist{rdb: rdb}
}

// Revoke marks a token id invalid for the remaining lifetime of the
// token. A non-positive ttl means the token already expired naturally
// and there is nothing to track; the call is a no-op. Revoking an
// already-revoked id is likewise a no-op, which makes logout
// idempotent.
func (d *Denylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return d.rdb.Set(ctx, denyPrefix+tokenID, "1", ttl).Err()
}

// RevokeNX atomically claims a token id: it returns true if the id
// was not yet revoked and is now, false if someone got there first.
// The refresh path uses this as its rotation guard: of two
// concurrent refreshes presenting the same token, exactly one
// observes true. A non-positive ttl reports false: the token is
// already dead and must not be rotated.
func (d *Denylist) RevokeNX(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, nil
	}
	return d.rdb.SetNX(ctx, denyPrefix+tokenID, "1", ttl).Result()
}

// IsRevoked reports whether a token id is present in the denylist.
func (d *Denylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.rdb.Exists(ctx, denyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
