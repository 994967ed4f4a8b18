package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"bizdesk-service/pkg/logger"
)

// Pinger is satisfied by the store.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health reports liveness; ?check=db also pings the database.
func (h *HealthHandler) Health(c echo.Context) error {
	if c.QueryParam("check") == "db" {
		if err := h.db.Ping(c.Request().Context()); err != nil {
			logger.FromEcho(c).Warn("Health check failed", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "message": msgUnavailable})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
