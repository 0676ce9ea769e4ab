package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/plantops/machinetrack/internal/auth"
	"github.com/plantops/machinetrack/internal/middleware"
)

// refreshHeader carries the refresh token on refresh and logout
// requests; access tokens travel in Authorization as usual.
const refreshHeader = "X-Refresh-Token"

// AuthHandler exposes the session lifecycle over HTTP.
type AuthHandler struct {
	Session *auth.Session
}

func NewAuthHandler(s *auth.Session) *AuthHandler {
	return &AuthHandler{Session: s}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Login verifies credentials and returns a fresh token pair. Any
// credential failure is the same 401; the cause is never leaked.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	_, pair, err := h.Session.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		c.Logger().Errorf("login: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	return c.JSON(http.StatusOK, tokenResp{
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
		TokenType:    "bearer",
	})
}

// Refresh rotates the presented refresh token and returns a brand-new
// pair. A rotated-out or otherwise invalid token is 401.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := strings.TrimSpace(c.Request().Header.Get(refreshHeader))
	if raw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": refreshHeader + " header required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	_, pair, err := h.Session.Refresh(ctx, raw)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
		}
		c.Logger().Errorf("refresh: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}

	return c.JSON(http.StatusOK, tokenResp{
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
		TokenType:    "bearer",
	})
}

// Logout revokes the access token from the Authorization header and
// the refresh token from the X-Refresh-Token header. Revocation is
// best-effort on each; if either token fails to decode the response
// is 401 but the other token is revoked anyway.
func (h *AuthHandler) Logout(c echo.Context) error {
	access := strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
	refresh := strings.TrimSpace(c.Request().Header.Get(refreshHeader))
	if access == "" && refresh == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no tokens supplied"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Session.Logout(ctx, access, refresh); err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
		}
		c.Logger().Errorf("logout: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// Me returns the authenticated user's identity snapshot.
func (h *AuthHandler) Me(c echo.Context) error {
	ident := middleware.CurrentIdentity(c)
	if ident == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":          ident.User.ID,
		"email":       ident.User.Email,
		"roles":       ident.Roles,
		"permissions": ident.Permissions,
	})
}
