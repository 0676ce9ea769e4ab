package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndDecodeRoundTrip(t *testing.T) {
	codec := NewCodec("0123456789abcdef0123456789abcdef")

	tok, err := codec.Issue("42", TypeAccess, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Value)
	require.NotEmpty(t, tok.ID)
	assert.WithinDuration(t, time.Now().Add(time.Minute), tok.ExpiresAt, 5*time.Second)

	claims, err := codec.Decode(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, TypeAccess, claims.TokenType)
	assert.Equal(t, tok.ID, claims.ID)
}

func TestDecodeRejectsWrongSecret(t *testing.T) {
	codec := NewCodec("0123456789abcdef0123456789abcdef")
	other := NewCodec("ffffffffffffffffffffffffffffffff")

	tok, err := codec.Issue("42", TypeAccess, time.Minute)
	require.NoError(t, err)

	_, err = other.Decode(tok.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecodeRejectsTamperedToken(t *testing.T) {
	codec := NewCodec("0123456789abcdef0123456789abcdef")

	tok, err := codec.Issue("42", TypeRefresh, time.Minute)
	require.NoError(t, err)

	raw := []byte(tok.Value)
	raw[len(raw)-1] ^= 0x01
	_, err = codec.Decode(string(raw))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecodeRejectsExpiredToken(t *testing.T) {
	codec := NewCodec("0123456789abcdef0123456789abcdef")

	tok, err := codec.Issue("42", TypeAccess, -time.Minute)
	require.NoError(t, err)

	_, err = codec.Decode(tok.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	codec := NewCodec("0123456789abcdef0123456789abcdef")

	for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := codec.Decode(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, "input %q", raw)
	}
}

func TestIssuedTokenIDsAreUnique(t *testing.T) {
	codec := NewCodec("0123456789abcdef0123456789abcdef")

	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		tok, err := codec.Issue("1", TypeAccess, time.Minute)
		require.NoError(t, err)
		assert.False(t, seen[tok.ID], "duplicate jti %s", tok.ID)
		seen[tok.ID] = true
	}
}
