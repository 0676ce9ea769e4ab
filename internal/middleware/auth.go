package middleware // middleware provides shared request processing for handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/plantops/machinetrack/internal/auth"
)

// identityKey is where the resolved identity lives in the echo context.
const identityKey = "identity"

// Authenticate returns middleware that resolves the bearer access
// token into a full user identity (user row + roles + permissions)
// and stores it in the request context. Every token failure collapses
// into the same 401 response; store failures surface as 503 so a
// Redis outage is not mistaken for a bad credential.
func Authenticate(s *auth.Session) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			ident, err := s.Resolve(c.Request().Context(), raw)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidToken) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
				}
				c.Logger().Errorf("resolve token: %v", err)
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "auth backend unavailable"})
			}

			c.Set(identityKey, ident)
			return next(c)
		}
	}
}

// CurrentIdentity returns the identity stored by Authenticate, or nil
// when the request is unauthenticated.
func CurrentIdentity(c echo.Context) *auth.Identity {
	if v, ok := c.Get(identityKey).(*auth.Identity); ok {
		return v
	}
	return nil
}
