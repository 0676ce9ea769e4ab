package auth

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the "typ" claim. Access tokens authorize API
// calls; refresh tokens only mint new pairs.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims is the payload of every session token: subject (user id as
// string), a random 128-bit token id used as the revocation key, the
// token type, issued-at and expiry.
type Claims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// Token is a freshly issued signed token together with the metadata
// callers need without re-decoding it.
type Token struct {
	Value     string    // the serialized JWT
	ID        string    // the jti claim
	ExpiresAt time.Time // UTC expiry
}

// Codec signs and verifies session tokens with a shared HS256 secret.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Issue builds and signs a token of the given type for a subject. The
// token id is 16 bytes of crypto/rand encoded as hex, unguessable and
// unique enough to key the denylist.
func (c *Codec) Issue(subject, tokenType string, ttl time.Duration) (Token, error) {
	jti, err := randomHex(16)
	if err != nil {
		return Token{}, err
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, ID: jti, ExpiresAt: exp}, nil
}

// Decode verifies signature and expiry atomically and returns the
// claims. Any failure, including a wrong signing algorithm or missing
// subject/id claims, is ErrInvalidToken; a token never comes back
// partially trusted.
func (c *Codec) Decode(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.ID == "" || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
