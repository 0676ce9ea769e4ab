package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/plantops/machinetrack/internal/model"
	"github.com/plantops/machinetrack/internal/repository"
	"github.com/plantops/machinetrack/internal/service"
)

// MachineHandler implements CRUD for machines.
type MachineHandler struct {
	Machines *repository.MachineRepo
	Lines    *repository.LineRepo
	Audit    *service.AuditRecorder
}

func NewMachineHandler(m *repository.MachineRepo, l *repository.LineRepo, audit *service.AuditRecorder) *MachineHandler {
	return &MachineHandler{Machines: m, Lines: l, Audit: audit}
}

type machineReq struct {
	LineID       uint64 `json:"line_id"`
	Name         string `json:"name"`
	AssetNumber  string `json:"asset_number"`
	SerialNumber string `json:"serial_number"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Type         string `json:"type"`
	Status       string `json:"status"`
	Notes        string `json:"notes"`
}

type machineResp struct {
	ID           uint64 `json:"id"`
	LineID       uint64 `json:"line_id"`
	Name         string `json:"name"`
	AssetNumber  string `json:"asset_number"`
	SerialNumber string `json:"serial_number"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Type         string `json:"type"`
	Status       string `json:"status"`
	IsActive     bool   `json:"is_active"`
	Notes        string `json:"notes"`
}

func machineToResp(m model.Machine) machineResp {
	return machineResp{
		ID: m.ID, LineID: m.LineID, Name: m.Name, AssetNumber: m.AssetNumber,
		SerialNumber: m.SerialNumber, Manufacturer: m.Manufacturer, Model: m.Model,
		Type: m.Type, Status: m.Status, IsActive: m.IsActive, Notes: m.Notes,
	}
}

func validMachineStatus(s string) bool {
	switch s {
	case model.MachineStatusOperational, model.MachineStatusBroken, model.MachineStatusMaintenance:
		return true
	}
	return false
}

// Create adds a machine to a line.
func (h *MachineHandler) Create(c echo.Context) error {
	var req machineReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.LineID == 0 || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "line_id/name required"})
	}
	if req.Status == "" {
		req.Status = model.MachineStatusOperational
	}
	if !validMachineStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// The parent line must exist and be active.
	line, err := h.Lines.GetByID(ctx, req.LineID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "line not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !line.IsActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "line is inactive"})
	}

	m := model.Machine{
		LineID: req.LineID, Name: req.Name, AssetNumber: req.AssetNumber,
		SerialNumber: req.SerialNumber, Manufacturer: req.Manufacturer,
		Model: req.Model, Type: req.Type, Status: req.Status, Notes: req.Notes,
		IsActive: true,
	}
	id, err := h.Machines.Create(ctx, m)
	if err != nil {
		c.Logger().Errorf("create machine: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	m.ID = id
	h.Audit.Record(ctx, "machines", id, actorID(c), model.AuditActionCreate, nil, m)

	return c.JSON(http.StatusCreated, machineToResp(m))
}

// List returns machines; ?line_id=N filters to one line.
func (h *MachineHandler) List(c echo.Context) error {
	var lineID uint64
	if v := c.QueryParam("line_id"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid line_id"})
		}
		lineID = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	machines, err := h.Machines.List(ctx, lineID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]machineResp, 0, len(machines))
	for _, m := range machines {
		out = append(out, machineToResp(m))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one machine.
func (h *MachineHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Machines.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "machine not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, machineToResp(m))
}

// Update modifies a machine.
func (h *MachineHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req machineReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Machines.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "machine not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	old := m

	if req.LineID != 0 {
		m.LineID = req.LineID
	}
	if req.Name != "" {
		m.Name = req.Name
	}
	if req.AssetNumber != "" {
		m.AssetNumber = req.AssetNumber
	}
	if req.SerialNumber != "" {
		m.SerialNumber = req.SerialNumber
	}
	if req.Manufacturer != "" {
		m.Manufacturer = req.Manufacturer
	}
	if req.Model != "" {
		m.Model = req.Model
	}
	if req.Type != "" {
		m.Type = req.Type
	}
	if req.Notes != "" {
		m.Notes = req.Notes
	}
	if req.Status != "" {
		if !validMachineStatus(req.Status) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		m.Status = req.Status
	}

	if err := h.Machines.Update(ctx, m); err != nil {
		c.Logger().Errorf("update machine: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	h.Audit.Record(ctx, "machines", id, actorID(c), model.AuditActionUpdate, old, m)

	return c.JSON(http.StatusOK, machineToResp(m))
}

// Delete soft-deletes a machine.
func (h *MachineHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	old, err := h.Machines.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "machine not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := h.Machines.SoftDelete(ctx, id); err != nil {
		c.Logger().Errorf("delete machine: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	h.Audit.Record(ctx, "machines", id, actorID(c), model.AuditActionDelete, old, nil)

	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
