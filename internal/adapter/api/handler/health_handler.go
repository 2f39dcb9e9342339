package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"marketplace/pkg/logger"
)

// Pinger reports whether the storage backend is reachable.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	storageDriver string
	ping          Pinger
}

var healthHandler *HealthHandler

func NewHealthHandler(storageDriver string, ping Pinger) *HealthHandler {
	return &HealthHandler{
		storageDriver: storageDriver,
		ping:          ping,
	}
}

func SetupHealthHandler(storageDriver string, ping Pinger) {
	healthHandler = NewHealthHandler(storageDriver, ping)
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	status := http.StatusOK
	body := map[string]string{
		"status":  "ok",
		"storage": h.storageDriver,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}

	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			logger.Error("storage health check failed: %v", err)
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}

	return c.JSON(status, body)
}
