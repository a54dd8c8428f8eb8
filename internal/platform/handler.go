package platform

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gymbook/reservation-api/internal/db"
)

const (
	ServiceName = "Gym Reservation API"
	Description = "Gym service catalog and reservation management"
)

// Handler serves the unauthenticated platform endpoints.
type Handler struct {
	pinger  db.Pinger
	version string
	now     func() time.Time
}

func NewHandler(pinger db.Pinger, version string) *Handler {
	return &Handler{
		pinger:  pinger,
		version: version,
		now:     time.Now,
	}
}

// Health reports service liveness and database reachability.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	resp := HealthResponse{
		Status:    "ok",
		Timestamp: h.now().UTC(),
		Service:   ServiceName,
		Database:  "connected",
	}

	if h.pinger == nil {
		resp.Database = "unconfigured"
	} else if err := h.pinger.Ping(ctx); err != nil {
		_ = c.Error(err)
		status = http.StatusServiceUnavailable
		resp.Status = "degraded"
		resp.Database = "unavailable"
	}

	c.JSON(status, resp)
}

// Info describes the API and lists its endpoints.
func (h *Handler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		Name:        ServiceName,
		Version:     h.version,
		Description: Description,
		Status:      "running",
		Timestamp:   h.now().UTC(),
		Endpoints:   endpoints,
	})
}
