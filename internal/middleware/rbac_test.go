package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantops/machinetrack/internal/auth"
	"github.com/plantops/machinetrack/internal/model"
)

func rbacContext(t *testing.T, ident *auth.Identity) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/lines", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if ident != nil {
		c.Set(identityKey, ident)
	}
	return c, rec
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestRequireRoleAllowsMatchingRole(t *testing.T) {
	ident := &auth.Identity{User: model.User{ID: 1}, Roles: []string{"Supervisor"}}
	c, rec := rbacContext(t, ident)

	err := RequireRole("Admin", "Supervisor")(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleForbidsOtherRole(t *testing.T) {
	ident := &auth.Identity{User: model.User{ID: 1}, Roles: []string{"Operator"}}
	c, rec := rbacContext(t, ident)

	err := RequireRole("Admin")(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "required_role")
}

func TestRequireRoleFailsClosedWithoutIdentity(t *testing.T) {
	c, rec := rbacContext(t, nil)

	err := RequireRole("Admin")(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequirePermissionAllowsGrantedCode(t *testing.T) {
	ident := &auth.Identity{User: model.User{ID: 1}, Permissions: []string{"equipment.read"}}
	c, rec := rbacContext(t, ident)

	err := RequirePermission("equipment.read")(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequirePermissionForbidsMissingCode(t *testing.T) {
	ident := &auth.Identity{User: model.User{ID: 1}, Permissions: []string{"equipment.read"}}
	c, rec := rbacContext(t, ident)

	err := RequirePermission("equipment.write")(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "required_permission")
}

func TestRequirePermissionFailsClosedWithoutIdentity(t *testing.T) {
	c, rec := rbacContext(t, nil)

	err := RequirePermission("equipment.read")(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCurrentIdentityNilWhenUnset(t *testing.T) {
	c, _ := rbacContext(t, nil)
	assert.Nil(t, CurrentIdentity(c))
}
