package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Health is a liveness endpoint for load balancers. It returns a
// plain "ok" without touching any backend.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// StatusHandler reports the reachability of each backing service.
type StatusHandler struct {
	DB  *sql.DB
	RDB *redis.Client
}

func NewStatusHandler(db *sql.DB, rdb *redis.Client) *StatusHandler {
	return &StatusHandler{DB: db, RDB: rdb}
}

// Status pings the database and Redis with a short deadline and
// reports ok|fail per service.
func (h *StatusHandler) Status(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	if err := h.DB.PingContext(ctx); err != nil {
		dbStatus = "fail"
	}
	redisStatus := "ok"
	if h.RDB == nil {
		redisStatus = "fail"
	} else if err := h.RDB.Ping(ctx).Err(); err != nil {
		redisStatus = "fail"
	}

	return c.JSON(http.StatusOK, echo.Map{
		"backend":  "ok",
		"database": dbStatus,
		"redis":    redisStatus,
	})
}
