package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/plantops/machinetrack/internal/repository"
)

// AuditHandler exposes the change history.
type AuditHandler struct {
	Logs *repository.AuditRepo
}

func NewAuditHandler(logs *repository.AuditRepo) *AuditHandler {
	return &AuditHandler{Logs: logs}
}

// List returns audit entries newest first. Supports ?table=, ?limit=
// and ?offset= query parameters.
func (h *AuditHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entries, err := h.Logs.List(ctx, c.QueryParam("table"), limit, offset)
	if err != nil {
		c.Logger().Errorf("list audit: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	out := make([]echo.Map, 0, len(entries))
	for _, e := range entries {
		out = append(out, echo.Map{
			"id":         e.ID,
			"table_name": e.TableName,
			"object_id":  e.ObjectID,
			"user_id":    e.UserID,
			"action":     e.Action,
			"old_data":   e.OldData,
			"new_data":   e.NewData,
			"timestamp":  e.Timestamp,
		})
	}
	return c.JSON(http.StatusOK, out)
}
