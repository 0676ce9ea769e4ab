// Package auth implements the session-token lifecycle: password
// hashing, signed token issuance and decoding, a Redis-backed
// revocation denylist and the session manager that ties them together
// for login, resolve, refresh and logout.
package auth

import "errors"

// ErrInvalidCredentials is returned by Login for a missing user, an
// inactive account or a password mismatch. Callers must not be able
// to tell which; handlers translate it into HTTP 401 with a generic
// message.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidToken covers every token failure: malformed, badly
// signed, expired, wrong type or revoked. All collapse into the same
// caller-visible 401 to avoid oracle leaks.
var ErrInvalidToken = errors.New("invalid token")
