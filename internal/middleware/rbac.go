package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole returns middleware that enforces that the resolved user
// carries at least one of the named roles. The check is fail-closed:
// a missing identity or an empty role set is always 403. Revealing
// the required role in the response is acceptable; revealing why
// credentials failed is not, which is why this never returns 401.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident := CurrentIdentity(c)
			if ident != nil {
				for _, r := range roles {
					if ident.HasRole(r) {
						return next(c)
					}
				}
			}
			return c.JSON(http.StatusForbidden, echo.Map{
				"error":         "forbidden",
				"required_role": roles,
			})
		}
	}
}

// RequirePermission returns middleware that enforces a permission
// code across the union of the user's roles. Fail-closed like
// RequireRole.
func RequirePermission(code string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident := CurrentIdentity(c)
			if ident == nil || !ident.HasPermission(code) {
				return c.JSON(http.StatusForbidden, echo.Map{
					"error":               "forbidden",
					"required_permission": code,
				})
			}
			return next(c)
		}
	}
}
