package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret1", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, VerifyPassword(hash, "secret1"))
	assert.False(t, VerifyPassword(hash, "secret2"))
	assert.False(t, VerifyPassword(hash, ""))
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	// A garbage stored hash must verify false, never panic or error out.
	assert.False(t, VerifyPassword("not-a-bcrypt-hash", "secret1"))
	assert.False(t, VerifyPassword("", "secret1"))
}

func TestLongPasswordsTruncateConsistently(t *testing.T) {
	long := strings.Repeat("a", 100)
	hash, err := HashPassword(long, bcrypt.MinCost)
	require.NoError(t, err)

	// Both paths truncate at the same boundary, so the full string
	// still verifies, as does any password sharing the first 72 bytes.
	assert.True(t, VerifyPassword(hash, long))
	assert.True(t, VerifyPassword(hash, strings.Repeat("a", 80)))
	assert.False(t, VerifyPassword(hash, strings.Repeat("b", 100)))
}

func TestTruncateForBcryptUTF8Boundary(t *testing.T) {
	// 23 three-byte runes = 69 bytes, then one more rune would cross
	// the 72-byte limit mid-sequence.
	s := strings.Repeat("日", 25) // 75 bytes
	got := truncateForBcrypt(s)
	assert.LessOrEqual(t, len(got), bcryptMaxBytes)
	assert.Equal(t, strings.Repeat("日", 24), got) // 72 bytes exactly

	s2 := strings.Repeat("日", 24) + "ab" // 74 bytes, cut lands inside nothing
	got2 := truncateForBcrypt(s2)
	assert.Equal(t, strings.Repeat("日", 24), got2)

	// Short inputs pass through untouched.
	assert.Equal(t, "secret1", truncateForBcrypt("secret1"))
}
