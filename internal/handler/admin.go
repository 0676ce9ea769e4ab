package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/plantops/machinetrack/internal/config"
	"github.com/plantops/machinetrack/internal/repository"
)

// Permission codes known to the seeder and the route guards.
const (
	PermManageUsers    = "manage_users"
	PermEquipmentRead  = "equipment.read"
	PermEquipmentWrite = "equipment.write"
	PermAuditRead      = "audit.read"
)

// seedRoles is the standard role set created at bootstrap, mapped to
// the permissions each role carries.
var seedRoles = map[string][]string{
	"Operator":    {PermEquipmentRead},
	"Technician":  {PermEquipmentRead, PermEquipmentWrite},
	"Supervisor":  {PermEquipmentRead, PermEquipmentWrite, PermAuditRead},
	"Manager":     {PermEquipmentRead, PermAuditRead},
	"Admin":       {PermManageUsers, PermEquipmentRead, PermEquipmentWrite, PermAuditRead},
	"SystemAdmin": {PermManageUsers, PermEquipmentRead, PermEquipmentWrite, PermAuditRead},
}

// AdminHandler covers bootstrap of the first administrator and
// role/permission management.
type AdminHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	Roles *repository.RoleRepo
}

func NewAdminHandler(cfg config.Config, u *repository.UserRepo, r *repository.RoleRepo) *AdminHandler {
	return &AdminHandler{Cfg: cfg, Users: u, Roles: r}
}

type bootstrapReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Bootstrap creates the first admin account together with the
// standard role and permission set. The endpoint is one-shot: once
// any user carries the Admin role it answers 409 forever.
func (h *AdminHandler) Bootstrap(c echo.Context) error {
	var req bootstrapReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	n, err := h.Users.CountWithRole(ctx, "Admin")
	if err != nil {
		c.Logger().Errorf("bootstrap: count admins: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "bootstrap failed"})
	}
	if n > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "already bootstrapped"})
	}

	uid, err := h.Users.Create(ctx, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		c.Logger().Errorf("bootstrap: create user: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "bootstrap failed"})
	}

	if err := h.seed(ctx, uid); err != nil {
		c.Logger().Errorf("bootstrap: seed roles: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "bootstrap failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{"id": uid, "email": req.Email, "role": "Admin"})
}

// seed creates the standard roles and permissions and assigns the
// Admin role to the freshly created user. Every step is idempotent.
func (h *AdminHandler) seed(ctx context.Context, adminID uint64) error {
	permIDs := map[string]uint64{}
	for _, perms := range seedRoles {
		for _, code := range perms {
			if _, ok := permIDs[code]; ok {
				continue
			}
			id, err := h.Roles.EnsurePermission(ctx, code, "")
			if err != nil {
				return err
			}
			permIDs[code] = id
		}
	}
	for name, perms := range seedRoles {
		roleID, err := h.Roles.EnsureRole(ctx, name, "Role "+name)
		if err != nil {
			return err
		}
		for _, code := range perms {
			if err := h.Roles.GrantPermission(ctx, roleID, permIDs[code]); err != nil {
				return err
			}
		}
		if name == "Admin" {
			if err := h.Roles.AssignRole(ctx, adminID, roleID); err != nil {
				return err
			}
		}
	}
	return nil
}

type userReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateUser registers a new account. Guarded by manage_users.
func (h *AdminHandler) CreateUser(c echo.Context) error {
	var req userReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		c.Logger().Errorf("create user: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": uid, "email": req.Email})
}

type roleReq struct {
	Role string `json:"role"`
}

// AssignRole links a role to a user by role name.
func (h *AdminHandler) AssignRole(c echo.Context) error {
	uid, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req roleReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Role) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	role, err := h.Roles.GetRoleByName(ctx, strings.TrimSpace(req.Role))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "role not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Roles.AssignRole(ctx, uid, role.ID); err != nil {
		c.Logger().Errorf("assign role: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assign failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// RemoveRole unlinks a role from a user by role name.
func (h *AdminHandler) RemoveRole(c echo.Context) error {
	uid, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req roleReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Role) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	role, err := h.Roles.GetRoleByName(ctx, strings.TrimSpace(req.Role))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "role not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Roles.RemoveRole(ctx, uid, role.ID); err != nil {
		c.Logger().Errorf("remove role: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "remove failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// ListRoles returns all defined roles.
func (h *AdminHandler) ListRoles(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	roles, err := h.Roles.ListRoles(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]echo.Map, 0, len(roles))
	for _, r := range roles {
		out = append(out, echo.Map{"id": r.ID, "name": r.Name, "description": r.Description})
	}
	return c.JSON(http.StatusOK, out)
}

type activeReq struct {
	Active bool `json:"active"`
}

// SetUserActive flips a user's active flag. Deactivation kills the
// user's sessions on their next resolve.
func (h *AdminHandler) SetUserActive(c echo.Context) error {
	uid, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req activeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.SetActive(ctx, uid, req.Active); err != nil {
		c.Logger().Errorf("set active: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
