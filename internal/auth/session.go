package auth

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/plantops/machinetrack/internal/model"
)

// UserDirectory is the slice of the user repository the session
// manager needs: credential lookup plus the eager role/permission
// load attached to every resolved identity. Lookups return
// sql.ErrNoRows for unknown users.
type UserDirectory interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	Grants(ctx context.Context, userID uint64) (roles []string, permissions []string, err error)
}

// Identity is a resolved user together with an immutable snapshot of
// role names and the union of permission codes granted by those
// roles. It is loaded once per request at resolve time; RBAC checks
// against it are synchronous and side-effect-free.
type Identity struct {
	User        model.User
	Roles       []string
	Permissions []string
}

// HasRole reports whether the identity carries the named role.
func (id *Identity) HasRole(name string) bool {
	for _, r := range id.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// HasPermission reports whether any of the identity's roles grants
// the permission code. An identity with zero roles has zero
// permissions.
func (id *Identity) HasPermission(code string) bool {
	for _, p := range id.Permissions {
		if p == code {
			return true
		}
	}
	return false
}

// TokenPair is the access/refresh pair handed to clients.
type TokenPair struct {
	Access     string
	AccessExp  time.Time
	Refresh    string
	RefreshExp time.Time
}

// Session orchestrates login, token issuance, refresh rotation,
// logout and bearer-token resolution. It holds no per-request state;
// everything lives in the user store and the denylist.
type Session struct {
	codec      *Codec
	deny       *Denylist
	users      UserDirectory
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewSession wires the session manager. refreshTTL is expected to be
// a multiple of accessTTL (see config.RefreshTTLMult).
func NewSession(codec *Codec, deny *Denylist, users UserDirectory, accessTTL, refreshTTL time.Duration) *Session {
	return &Session{
		codec:      codec,
		deny:       deny,
		users:      users,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Login validates credentials and issues a fresh token pair. A
// missing user, an inactive account and a wrong password all return
// ErrInvalidCredentials; nothing distinguishes them to the caller.
func (s *Session) Login(ctx context.Context, email, password string) (*Identity, TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, err
	}
	if !u.IsActive || !VerifyPassword(u.PasswordHash, password) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}

	ident, err := s.identityFor(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.issuePair(u.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return ident, pair, nil
}

// Resolve turns a bearer access token into an active user identity.
// This is the hot path on every protected request: one denylist read,
// one user lookup, no side effects. Every failure mode (bad
// signature, expiry, wrong type, revoked id, unknown or inactive
// user) is ErrInvalidToken.
func (s *Session) Resolve(ctx context.Context, accessToken string) (*Identity, error) {
	claims, err := s.codec.Decode(accessToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != TypeAccess {
		return nil, ErrInvalidToken
	}
	revoked, err := s.deny.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidToken
	}
	u, err := s.userFromSubject(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	return s.identityFor(ctx, u)
}

// Refresh rotates a refresh token: the presented token's id is
// atomically claimed on the denylist before a new pair is issued, so
// a concurrent duplicate refresh of the same token observes the
// revocation and fails. A rotated-out refresh token is dead forever.
func (s *Session) Refresh(ctx context.Context, refreshToken string) (*Identity, TokenPair, error) {
	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		return nil, TokenPair{}, ErrInvalidToken
	}
	if claims.TokenType != TypeRefresh {
		return nil, TokenPair{}, ErrInvalidToken
	}

	// Set-if-absent is the rotation guard: false means the id was
	// already revoked (replay) or the token has no lifetime left.
	remaining := time.Until(claims.ExpiresAt.Time)
	claimed, err := s.deny.RevokeNX(ctx, claims.ID, remaining)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if !claimed {
		return nil, TokenPair{}, ErrInvalidToken
	}

	u, err := s.userFromSubject(ctx, claims.Subject)
	if err != nil {
		return nil, TokenPair{}, err
	}
	ident, err := s.identityFor(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.issuePair(u.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return ident, pair, nil
}

// Logout revokes both presented tokens. Each side is best-effort: a
// token that fails to decode surfaces ErrInvalidToken, but the other
// token is still revoked. Revoking an already-revoked id is a no-op,
// so logout is idempotent.
func (s *Session) Logout(ctx context.Context, accessToken, refreshToken string) error {
	var invalid bool
	for _, raw := range []string{accessToken, refreshToken} {
		if raw == "" {
			continue
		}
		claims, err := s.codec.Decode(raw)
		if err != nil {
			invalid = true
			continue
		}
		if err := s.deny.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
			return err
		}
	}
	if invalid {
		return ErrInvalidToken
	}
	return nil
}

func (s *Session) issuePair(userID uint64) (TokenPair, error) {
	sub := strconv.FormatUint(userID, 10)
	access, err := s.codec.Issue(sub, TypeAccess, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.codec.Issue(sub, TypeRefresh, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		Access:     access.Value,
		AccessExp:  access.ExpiresAt,
		Refresh:    refresh.Value,
		RefreshExp: refresh.ExpiresAt,
	}, nil
}

func (s *Session) userFromSubject(ctx context.Context, subject string) (model.User, error) {
	uid, err := strconv.ParseUint(subject, 10, 64)
	if err != nil {
		return model.User{}, ErrInvalidToken
	}
	u, err := s.users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrInvalidToken
		}
		return model.User{}, err
	}
	if !u.IsActive {
		return model.User{}, ErrInvalidToken
	}
	return u, nil
}

func (s *Session) identityFor(ctx context.Context, u model.User) (*Identity, error) {
	roles, perms, err := s.users.Grants(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &Identity{User: u, Roles: roles, Permissions: perms}, nil
}
