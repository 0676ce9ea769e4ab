package auth

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/plantops/machinetrack/internal/model"
)

// fakeDirectory is an in-memory UserDirectory for session tests.
type fakeDirectory struct {
	users map[uint64]model.User
	roles map[uint64][]string
	perms map[uint64][]string
}

func (f *fakeDirectory) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (f *fakeDirectory) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeDirectory) Grants(_ context.Context, userID uint64) ([]string, []string, error) {
	return f.roles[userID], f.perms[userID], nil
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	h, err := HashPassword(plain, bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func testSession(t *testing.T) (*Session, *fakeDirectory, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	dir := &fakeDirectory{
		users: map[uint64]model.User{
			1: {ID: 1, Email: "alice@plant.example", PasswordHash: mustHash(t, "correct horse"), IsActive: true},
			2: {ID: 2, Email: "bob@plant.example", PasswordHash: mustHash(t, "hunter2pass"), IsActive: false},
			3: {ID: 3, Email: "carol@plant.example", PasswordHash: mustHash(t, "tr0ub4dor"), IsActive: true},
		},
		roles: map[uint64][]string{
			1: {"Technician"},
		},
		perms: map[uint64][]string{
			1: {"equipment.read", "equipment.write"},
		},
	}
	s := NewSession(NewCodec("0123456789abcdef0123456789abcdef"), NewDenylist(rdb), dir, 15*time.Minute, 7*24*time.Hour)
	return s, dir, mr
}

func TestLoginAndResolve(t *testing.T) {
	s, _, _ := testSession(t)
	ctx := context.Background()

	ident, pair, err := s.Login(ctx, "alice@plant.example", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), ident.User.ID)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)
	assert.True(t, pair.RefreshExp.After(pair.AccessExp))

	resolved, err := s.Resolve(ctx, pair.Access)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), resolved.User.ID)
	assert.Equal(t, []string{"Technician"}, resolved.Roles)
	assert.True(t, resolved.HasPermission("equipment.read"))
	assert.False(t, resolved.HasPermission("manage_users"))
}

func TestLoginNormalizesEmail(t *testing.T) {
	s, _, _ := testSession(t)

	_, _, err := s.Login(context.Background(), "  ALICE@Plant.Example ", "correct horse")
	require.NoError(t, err)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	s, _, _ := testSession(t)
	ctx := context.Background()

	cases := map[string]struct{ email, password string }{
		"unknown user":   {"nobody@plant.example", "whatever"},
		"wrong password": {"alice@plant.example", "wrong"},
		"inactive user":  {"bob@plant.example", "hunter2pass"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := s.Login(ctx, tc.email, tc.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestResolveRejectsRefreshToken(t *testing.T) {
	s, _, _ := testSession(t)
	ctx := context.Background()

	_, pair, err := s.Login(ctx, "alice@plant.example", "correct horse")
	require.NoError(t, err)

	_, err = s.Resolve(ctx, pair.Refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolveRejectsExpiredToken(t *testing.T) {
	s, _, _ := testSession(t)

	tok, err := s.codec.Issue("1", TypeAccess, -time.Minute)
	require.NoError(t, err)

	_, err = s.Resolve(context.Background(), tok.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolveRejectsDeactivatedUser(t *testing.T) {
	s, dir, _ := testSession(t)
	ctx := context.Background()

	_, pair, err := s.Login(ctx, "alice@plant.example", "correct horse")
	require.NoError(t, err)

	// Deactivation takes effect on the next resolve even though the
	// token itself is still unexpired and unrevoked.
	u := dir.users[1]
	u.IsActive = false
	dir.users[1] = u

	_, err = s.Resolve(ctx, pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshRotatesAndBlocksReplay(t *testing.T) {
	s, _, _ := testSession(t)
	ctx := context.Background()

	_, pair1, err := s.Login(ctx, "alice@plant.example", "correct horse")
	require.NoError(t, err)

	_, pair2, err := s.Refresh(ctx, pair1.Refresh)
	require.NoError(t, err)
	assert.NotEqual(t, pair1.Refresh, pair2.Refresh)

	// Replaying the rotated-out token fails; the new token still works.
	_, _, err = s.Refresh(ctx, pair1.Refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, pair3, err := s.Refresh(ctx, pair2.Refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, pair3.Access)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	s, _, _ := testSession(t)
	ctx := context.Background()

	_, pair, err := s.Login(ctx, "alice@plant.example", "correct horse")
	require.NoError(t, err)

	_, _, err = s.Refresh(ctx, pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// The failed attempt must not consume the access token.
	_, err = s.Resolve(ctx, pair.Access)
	assert.NoError(t, err)
}

func TestLogoutRevokesBothTokens(t *testing.T) {
	s, _, _ := testSession(t)
	ctx := context.Background()

	_, pair, err := s.Login(ctx, "alice@plant.example", "correct horse")
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx, pair.Access, pair.Refresh))

	_, err = s.Resolve(ctx, pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, _, err = s.Refresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Logging out twice is fine.
	assert.NoError(t, s.Logout(ctx, pair.Access, pair.Refresh))
}

func TestLogoutWithOneBadTokenStillRevokesTheOther(t *testing.T) {
	s, _, _ := testSession(t)
	ctx := context.Background()

	_, pair, err := s.Login(ctx, "alice@plant.example", "correct horse")
	require.NoError(t, err)

	err = s.Logout(ctx, "garbage-token", pair.Refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = s.Refresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRolelessIdentityHasNoGrants(t *testing.T) {
	s, _, _ := testSession(t)
	ctx := context.Background()

	ident, _, err := s.Login(ctx, "carol@plant.example", "tr0ub4dor")
	require.NoError(t, err)
	assert.Empty(t, ident.Roles)
	assert.False(t, ident.HasRole("Admin"))
	assert.False(t, ident.HasPermission("equipment.read"))
}
