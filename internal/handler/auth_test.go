package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/plantops/machinetrack/internal/auth"
	"github.com/plantops/machinetrack/internal/model"
)

// memDirectory backs the session with a fixed user set.
type memDirectory struct {
	users map[uint64]model.User
}

func (m *memDirectory) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (m *memDirectory) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (m *memDirectory) Grants(_ context.Context, _ uint64) ([]string, []string, error) {
	return []string{"Technician"}, []string{"equipment.read"}, nil
}

func newAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	hash, err := auth.HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)
	dir := &memDirectory{users: map[uint64]model.User{
		1: {ID: 1, Email: "alice@plant.example", PasswordHash: hash, IsActive: true},
	}}
	session := auth.NewSession(
		auth.NewCodec("0123456789abcdef0123456789abcdef"),
		auth.NewDenylist(rdb),
		dir,
		15*time.Minute,
		24*time.Hour,
	)
	return NewAuthHandler(session)
}

func doJSON(t *testing.T, handler echo.HandlerFunc, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(req, rec)))
	return rec
}

func loginPair(t *testing.T, h *AuthHandler) tokenResp {
	t.Helper()
	rec := doJSON(t, h.Login, http.MethodPost, "/v1/auth/login",
		`{"email":"alice@plant.example","password":"correct horse"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp tokenResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	return resp
}

func TestLoginReturnsBearerPair(t *testing.T) {
	h := newAuthHandler(t)
	resp := loginPair(t, h)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.NotEqual(t, resp.AccessToken, resp.RefreshToken)
}

func TestLoginBadCredentialsIs401(t *testing.T) {
	h := newAuthHandler(t)

	rec := doJSON(t, h.Login, http.MethodPost, "/v1/auth/login",
		`{"email":"alice@plant.example","password":"wrong"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")
}

func TestLoginMissingFieldsIs400(t *testing.T) {
	h := newAuthHandler(t)

	rec := doJSON(t, h.Login, http.MethodPost, "/v1/auth/login", `{"email":"alice@plant.example"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshRotatesPair(t *testing.T) {
	h := newAuthHandler(t)
	first := loginPair(t, h)

	hdr := http.Header{refreshHeader: []string{first.RefreshToken}}
	rec := doJSON(t, h.Refresh, http.MethodPost, "/v1/auth/refresh", "", hdr)
	require.Equal(t, http.StatusOK, rec.Code)

	var second tokenResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The rotated-out token is rejected on replay.
	rec = doJSON(t, h.Refresh, http.MethodPost, "/v1/auth/refresh", "", hdr)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshWithoutHeaderIs400(t *testing.T) {
	h := newAuthHandler(t)

	rec := doJSON(t, h.Refresh, http.MethodPost, "/v1/auth/refresh", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	h := newAuthHandler(t)
	pair := loginPair(t, h)

	hdr := http.Header{
		"Authorization": []string{"Bearer " + pair.AccessToken},
		refreshHeader:   []string{pair.RefreshToken},
	}
	rec := doJSON(t, h.Logout, http.MethodPost, "/v1/auth/logout", "", hdr)
	require.Equal(t, http.StatusOK, rec.Code)

	refreshHdr := http.Header{refreshHeader: []string{pair.RefreshToken}}
	rec = doJSON(t, h.Refresh, http.MethodPost, "/v1/auth/refresh", "", refreshHdr)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutWithNoTokensIs400(t *testing.T) {
	h := newAuthHandler(t)

	rec := doJSON(t, h.Logout, http.MethodPost, "/v1/auth/logout", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
