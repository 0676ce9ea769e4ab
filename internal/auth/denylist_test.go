package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDenylist(t *testing.T) (*Denylist, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewDenylist(rdb), mr
}

func TestDenylistRevokeAndCheck(t *testing.T) {
	deny, _ := testDenylist(t)
	ctx := context.Background()

	revoked, err := deny.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, deny.Revoke(ctx, "jti-1", time.Minute))

	revoked, err = deny.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// Re-revoking the same id is a no-op.
	require.NoError(t, deny.Revoke(ctx, "jti-1", time.Minute))
}

func TestDenylistEntryExpires(t *testing.T) {
	deny, mr := testDenylist(t)
	ctx := context.Background()

	require.NoError(t, deny.Revoke(ctx, "jti-1", time.Minute))
	mr.FastForward(2 * time.Minute)

	revoked, err := deny.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestDenylistRevokeExpiredTokenIsNoop(t *testing.T) {
	deny, mr := testDenylist(t)
	ctx := context.Background()

	require.NoError(t, deny.Revoke(ctx, "jti-1", 0))
	require.NoError(t, deny.Revoke(ctx, "jti-2", -time.Minute))
	assert.Empty(t, mr.Keys())
}

func TestDenylistRevokeNXClaimsExactlyOnce(t *testing.T) {
	deny, _ := testDenylist(t)
	ctx := context.Background()

	claimed, err := deny.RevokeNX(ctx, "jti-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = deny.RevokeNX(ctx, "jti-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, claimed)

	revoked, err := deny.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestDenylistRevokeNXRejectsDeadToken(t *testing.T) {
	deny, _ := testDenylist(t)

	claimed, err := deny.RevokeNX(context.Background(), "jti-1", -time.Second)
	require.NoError(t, err)
	assert.False(t, claimed)
}
