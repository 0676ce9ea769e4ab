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

// RepairHandler implements CRUD for repair records and their
// attachment metadata.
type RepairHandler struct {
	Repairs  *repository.RepairRepo
	Machines *repository.MachineRepo
	Audit    *service.AuditRecorder
}

func NewRepairHandler(r *repository.RepairRepo, m *repository.MachineRepo, audit *service.AuditRecorder) *RepairHandler {
	return &RepairHandler{Repairs: r, Machines: m, Audit: audit}
}

type repairReq struct {
	MachineID     uint64   `json:"machine_id"`
	StartDate     string   `json:"start_date"` // RFC 3339
	EndDate       string   `json:"end_date"`
	Description   string   `json:"description"`
	ActionsTaken  string   `json:"actions_taken"`
	PerformedBy   uint64   `json:"performed_by"`
	RepairType    string   `json:"repair_type"`
	Status        string   `json:"status"`
	Cost          *float64 `json:"cost"`
	PartsUsed     string   `json:"parts_used"`
	DowntimeHours *float64 `json:"downtime_hours"`
}

type repairResp struct {
	ID            uint64   `json:"id"`
	MachineID     uint64   `json:"machine_id"`
	AssetNumber   string   `json:"asset_number"`
	StartDate     string   `json:"start_date"`
	EndDate       string   `json:"end_date,omitempty"`
	Description   string   `json:"description"`
	ActionsTaken  string   `json:"actions_taken"`
	PerformedBy   uint64   `json:"performed_by,omitempty"`
	CreatedBy     uint64   `json:"created_by"`
	RepairType    string   `json:"repair_type"`
	Status        string   `json:"status"`
	Cost          *float64 `json:"cost,omitempty"`
	PartsUsed     string   `json:"parts_used"`
	DowntimeHours *float64 `json:"downtime_hours,omitempty"`
}

func repairToResp(rp model.Repair) repairResp {
	out := repairResp{
		ID: rp.ID, MachineID: rp.MachineID, AssetNumber: rp.AssetNumber,
		StartDate: rp.StartDate.UTC().Format(time.RFC3339), Description: rp.Description,
		ActionsTaken: rp.ActionsTaken, CreatedBy: rp.CreatedBy,
		RepairType: rp.RepairType, Status: rp.Status, PartsUsed: rp.PartsUsed,
	}
	if rp.EndDate.Valid {
		out.EndDate = rp.EndDate.Time.UTC().Format(time.RFC3339)
	}
	if rp.PerformedBy.Valid {
		out.PerformedBy = uint64(rp.PerformedBy.Int64)
	}
	if rp.Cost.Valid {
		v := rp.Cost.Float64
		out.Cost = &v
	}
	if rp.DowntimeHours.Valid {
		v := rp.DowntimeHours.Float64
		out.DowntimeHours = &v
	}
	return out
}

func validRepairType(s string) bool {
	return s == model.RepairTypeScheduled || s == model.RepairTypeUnscheduled
}

func validRepairStatus(s string) bool {
	switch s {
	case model.RepairStatusOpen, model.RepairStatusInProgress, model.RepairStatusClosed:
		return true
	}
	return false
}

// Create opens a repair record against a machine.
func (h *RepairHandler) Create(c echo.Context) error {
	var req repairReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.MachineID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "machine_id required"})
	}
	if req.RepairType == "" {
		req.RepairType = model.RepairTypeUnscheduled
	}
	if req.Status == "" {
		req.Status = model.RepairStatusOpen
	}
	if !validRepairType(req.RepairType) || !validRepairStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid repair_type/status"})
	}

	start := time.Now().UTC()
	if req.StartDate != "" {
		t, err := time.Parse(time.RFC3339, req.StartDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_date"})
		}
		start = t.UTC()
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Machines.GetByID(ctx, req.MachineID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "machine not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	rp := model.Repair{
		MachineID:    req.MachineID,
		AssetNumber:  m.AssetNumber,
		StartDate:    start,
		Description:  req.Description,
		ActionsTaken: req.ActionsTaken,
		CreatedBy:    actorID(c),
		RepairType:   req.RepairType,
		Status:       req.Status,
		PartsUsed:    req.PartsUsed,
	}
	if req.EndDate != "" {
		t, err := time.Parse(time.RFC3339, req.EndDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_date"})
		}
		rp.EndDate = sql.NullTime{Time: t.UTC(), Valid: true}
	}
	if req.PerformedBy != 0 {
		rp.PerformedBy = sql.NullInt64{Int64: int64(req.PerformedBy), Valid: true}
	}
	if req.Cost != nil {
		rp.Cost = sql.NullFloat64{Float64: *req.Cost, Valid: true}
	}
	if req.DowntimeHours != nil {
		rp.DowntimeHours = sql.NullFloat64{Float64: *req.DowntimeHours, Valid: true}
	}

	id, err := h.Repairs.Create(ctx, rp)
	if err != nil {
		c.Logger().Errorf("create repair: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	rp.ID = id
	h.Audit.Record(ctx, "repairs", id, actorID(c), model.AuditActionCreate, nil, rp)

	return c.JSON(http.StatusCreated, repairToResp(rp))
}

// List returns repairs; ?machine_id=N filters to one machine.
func (h *RepairHandler) List(c echo.Context) error {
	var machineID uint64
	if v := c.QueryParam("machine_id"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid machine_id"})
		}
		machineID = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	repairs, err := h.Repairs.List(ctx, machineID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]repairResp, 0, len(repairs))
	for _, rp := range repairs {
		out = append(out, repairToResp(rp))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one repair record.
func (h *RepairHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rp, err := h.Repairs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "repair not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, repairToResp(rp))
}

// Update modifies a repair record (close it, attach findings, costs).
func (h *RepairHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req repairReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rp, err := h.Repairs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "repair not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	old := rp

	if req.Description != "" {
		rp.Description = req.Description
	}
	if req.ActionsTaken != "" {
		rp.ActionsTaken = req.ActionsTaken
	}
	if req.PartsUsed != "" {
		rp.PartsUsed = req.PartsUsed
	}
	if req.EndDate != "" {
		t, err := time.Parse(time.RFC3339, req.EndDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_date"})
		}
		rp.EndDate = sql.NullTime{Time: t.UTC(), Valid: true}
	}
	if req.PerformedBy != 0 {
		rp.PerformedBy = sql.NullInt64{Int64: int64(req.PerformedBy), Valid: true}
	}
	if req.RepairType != "" {
		if !validRepairType(req.RepairType) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid repair_type"})
		}
		rp.RepairType = req.RepairType
	}
	if req.Status != "" {
		if !validRepairStatus(req.Status) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		rp.Status = req.Status
	}
	if req.Cost != nil {
		rp.Cost = sql.NullFloat64{Float64: *req.Cost, Valid: true}
	}
	if req.DowntimeHours != nil {
		rp.DowntimeHours = sql.NullFloat64{Float64: *req.DowntimeHours, Valid: true}
	}
	rp.UpdatedBy = sql.NullInt64{Int64: int64(actorID(c)), Valid: true}

	if err := h.Repairs.Update(ctx, rp); err != nil {
		c.Logger().Errorf("update repair: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	h.Audit.Record(ctx, "repairs", id, actorID(c), model.AuditActionUpdate, old, rp)

	return c.JSON(http.StatusOK, repairToResp(rp))
}

type attachmentReq struct {
	OriginalName string `json:"original_name"`
	FilePath     string `json:"file_path"`
	MimeType     string `json:"mime_type"`
	SizeBytes    int64  `json:"size_bytes"`
}

// AddAttachment registers attachment metadata on a repair record.
func (h *RepairHandler) AddAttachment(c echo.Context) error {
	repairID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req attachmentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.OriginalName == "" || req.FilePath == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "original_name/file_path required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Repairs.GetByID(ctx, repairID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "repair not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	a := model.RepairAttachment{
		RepairID:     repairID,
		OriginalName: req.OriginalName,
		FilePath:     req.FilePath,
		MimeType:     req.MimeType,
		SizeBytes:    req.SizeBytes,
		UploadedBy:   sql.NullInt64{Int64: int64(actorID(c)), Valid: true},
	}
	id, err := h.Repairs.AddAttachment(ctx, a)
	if err != nil {
		c.Logger().Errorf("add attachment: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{"id": id, "repair_id": repairID})
}

// ListAttachments returns attachment metadata for a repair.
func (h *RepairHandler) ListAttachments(c echo.Context) error {
	repairID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	atts, err := h.Repairs.ListAttachments(ctx, repairID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]echo.Map, 0, len(atts))
	for _, a := range atts {
		out = append(out, echo.Map{
			"id": a.ID, "repair_id": a.RepairID, "original_name": a.OriginalName,
			"file_path": a.FilePath, "mime_type": a.MimeType, "size_bytes": a.SizeBytes,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// DeleteAttachment removes attachment metadata.
func (h *RepairHandler) DeleteAttachment(c echo.Context) error {
	attID, err := strconv.ParseUint(c.Param("attachment_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid attachment id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Repairs.DeleteAttachment(ctx, attID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "attachment not found"})
		}
		c.Logger().Errorf("delete attachment: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
