package auth

import (
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores everything past 72 bytes and newer library versions
// reject longer inputs outright. Inputs are truncated at a UTF-8-safe
// boundary on both the hash and verify paths so long passwords map
// deterministically instead of erroring at runtime.
const bcryptMaxBytes = 72

// HashPassword returns a bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(truncateForBcrypt(plain)), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares a bcrypt hash and a plain password.
// A malformed stored hash is a verification failure, never an error
// that aborts the caller.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(truncateForBcrypt(plain))) == nil
}

func truncateForBcrypt(s string) string {
	if len(s) <= bcryptMaxBytes {
		return s
	}
	b := []byte(s)[:bcryptMaxBytes]
	// Back off any bytes of a rune the cut split in half. A complete
	// trailing rune decodes cleanly and ends the loop immediately.
	for len(b) > 0 {
		r, size := utf8.DecodeLastRune(b)
		if r != utf8.RuneError || size > 1 {
			break
		}
		b = b[:len(b)-1]
	}
	return string(b)
}
