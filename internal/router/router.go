package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/plantops/machinetrack/internal/auth"
	"github.com/plantops/machinetrack/internal/handler"
	"github.com/plantops/machinetrack/internal/middleware"
)

// Handlers bundles everything the router wires up.
type Handlers struct {
	Auth    *handler.AuthHandler
	Admin   *handler.AdminHandler
	Lines   *handler.LineHandler
	Machines *handler.MachineHandler
	Repairs *handler.RepairHandler
	Audit   *handler.AuditHandler
	Status  *handler.StatusHandler
}

// Register wires all routes. Unauthenticated operations live under
// /v1/auth and /v1/system; everything else under /v1 passes through
// the bearer-resolve middleware and per-route RBAC guards. The cache
// middleware is applied only to equipment reads and runs after the
// auth and permission checks so a cache hit can never bypass them.
func Register(e *echo.Echo, h Handlers, session *auth.Session, cache echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)
	e.GET("/v1/system/status", h.Status.Status)

	// Session lifecycle. Login and refresh mint tokens; logout only
	// needs the tokens themselves, so none of these routes sit behind
	// the resolve middleware.
	ag := e.Group("/v1/auth")
	ag.POST("/login", h.Auth.Login)
	ag.POST("/refresh", h.Auth.Refresh)
	ag.POST("/logout", h.Auth.Logout)

	// One-shot first-admin bootstrap. The handler itself refuses to
	// run once an Admin exists.
	e.POST("/v1/admin/bootstrap", h.Admin.Bootstrap)

	// Protected API.
	v1 := e.Group("/v1")
	v1.Use(middleware.Authenticate(session))

	v1.GET("/me", h.Auth.Me)

	// User and role management.
	users := v1.Group("", middleware.RequirePermission(handler.PermManageUsers))
	users.POST("/users", h.Admin.CreateUser)
	users.PATCH("/users/:id/active", h.Admin.SetUserActive)
	users.POST("/users/:id/roles", h.Admin.AssignRole)
	users.DELETE("/users/:id/roles", h.Admin.RemoveRole)
	users.GET("/roles", h.Admin.ListRoles)

	// Equipment: reads for anyone with equipment.read, writes behind
	// equipment.write.
	read := v1.Group("", middleware.RequirePermission(handler.PermEquipmentRead), cache)
	read.GET("/lines", h.Lines.List)
	read.GET("/lines/:id", h.Lines.Get)
	read.GET("/machines", h.Machines.List)
	read.GET("/machines/:id", h.Machines.Get)
	read.GET("/repairs", h.Repairs.List)
	read.GET("/repairs/:id", h.Repairs.Get)
	read.GET("/repairs/:id/attachments", h.Repairs.ListAttachments)

	write := v1.Group("", middleware.RequirePermission(handler.PermEquipmentWrite))
	write.POST("/lines", h.Lines.Create)
	write.PATCH("/lines/:id", h.Lines.Update)
	write.DELETE("/lines/:id", h.Lines.Delete)
	write.POST("/machines", h.Machines.Create)
	write.PATCH("/machines/:id", h.Machines.Update)
	write.DELETE("/machines/:id", h.Machines.Delete)
	write.POST("/repairs", h.Repairs.Create)
	write.PATCH("/repairs/:id", h.Repairs.Update)
	write.POST("/repairs/:id/attachments", h.Repairs.AddAttachment)
	write.DELETE("/repairs/:id/attachments/:attachment_id", h.Repairs.DeleteAttachment)

	// The audit trail is sensitive; it needs its own permission.
	v1.GET("/audit", h.Audit.List, middleware.RequirePermission(handler.PermAuditRead))
}
