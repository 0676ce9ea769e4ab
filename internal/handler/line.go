package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/plantops/machinetrack/internal/middleware"
	"github.com/plantops/machinetrack/internal/model"
	"github.com/plantops/machinetrack/internal/repository"
	"github.com/plantops/machinetrack/internal/service"
)

// LineHandler implements CRUD for production lines.
type LineHandler struct {
	Lines *repository.LineRepo
	Audit *service.AuditRecorder
}

func NewLineHandler(lines *repository.LineRepo, audit *service.AuditRecorder) *LineHandler {
	return &LineHandler{Lines: lines, Audit: audit}
}

type lineReq struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Notes       string `json:"notes"`
}

type lineResp struct {
	ID          uint64 `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	IsActive    bool   `json:"is_active"`
	Notes       string `json:"notes"`
}

func lineToResp(l model.Line) lineResp {
	return lineResp{
		ID: l.ID, Code: l.Code, Name: l.Name, Description: l.Description,
		Status: l.Status, IsActive: l.IsActive, Notes: l.Notes,
	}
}

func validLineStatus(s string) bool {
	switch s {
	case model.LineStatusWorking, model.LineStatusMaintenance, model.LineStatusStopped:
		return true
	}
	return false
}

// Create adds a production line.
func (h *LineHandler) Create(c echo.Context) error {
	var req lineReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Code == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code/name required"})
	}
	if req.Status == "" {
		req.Status = model.LineStatusWorking
	}
	if !validLineStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	line := model.Line{
		Code: req.Code, Name: req.Name, Description: req.Description,
		Status: req.Status, Notes: req.Notes, IsActive: true,
	}
	id, err := h.Lines.Create(ctx, line)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "line code already exists"})
		}
		c.Logger().Errorf("create line: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	line.ID = id
	h.Audit.Record(ctx, "lines", id, actorID(c), model.AuditActionCreate, nil, line)

	return c.JSON(http.StatusCreated, lineToResp(line))
}

// List returns production lines; ?active=true filters soft-deleted ones.
func (h *LineHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	activeOnly := c.QueryParam("active") == "true"
	lines, err := h.Lines.List(ctx, activeOnly)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]lineResp, 0, len(lines))
	for _, l := range lines {
		out = append(out, lineToResp(l))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one production line.
func (h *LineHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	line, err := h.Lines.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "line not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, lineToResp(line))
}

// Update modifies a production line.
func (h *LineHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req lineReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	line, err := h.Lines.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "line not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	old := line

	if req.Name != "" {
		line.Name = req.Name
	}
	if req.Description != "" {
		line.Description = req.Description
	}
	if req.Notes != "" {
		line.Notes = req.Notes
	}
	if req.Status != "" {
		if !validLineStatus(req.Status) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		line.Status = req.Status
	}

	if err := h.Lines.Update(ctx, line); err != nil {
		c.Logger().Errorf("update line: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	h.Audit.Record(ctx, "lines", id, actorID(c), model.AuditActionUpdate, old, line)

	return c.JSON(http.StatusOK, lineToResp(line))
}

// Delete soft-deletes a production line.
func (h *LineHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	old, err := h.Lines.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "line not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Lines.SoftDelete(ctx, id); err != nil {
		c.Logger().Errorf("delete line: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	h.Audit.Record(ctx, "lines", id, actorID(c), model.AuditActionDelete, old, nil)

	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// actorID extracts the acting user's id for the audit trail, 0 when
// the request is unauthenticated.
func actorID(c echo.Context) uint64 {
	if ident := middleware.CurrentIdentity(c); ident != nil {
		return ident.User.ID
	}
	return 0
}
