package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	redisclient "github.com/VitalPointAI/argus-sub001/internal/clients/redis"
	"github.com/VitalPointAI/argus-sub001/internal/http/response"
)

type HealthHandler struct {
	db  *gorm.DB
	bus redisclient.AlertBus
}

func NewHealthHandler(db *gorm.DB, bus redisclient.AlertBus) *HealthHandler {
	return &HealthHandler{db: db, bus: bus}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// ReadyCheck verifies the dependencies a request would actually touch. The
// alert bus is optional, so its state is reported but never fails readiness.
func (h *HealthHandler) ReadyCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if h.db == nil {
		response.RespondError(c, http.StatusServiceUnavailable, "not_ready", nil)
		return
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		response.RespondError(c, http.StatusServiceUnavailable, "postgres_unavailable", err)
		return
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		response.RespondError(c, http.StatusServiceUnavailable, "postgres_unavailable", err)
		return
	}

	busState := "disabled"
	if h.bus != nil {
		busState = "up"
		if err := h.bus.Ping(ctx); err != nil {
			busState = "down"
		}
	}
	response.RespondOK(c, gin.H{
		"ok":        true,
		"alert_bus": busState,
		"checked":   time.Now().UTC(),
	})
}
