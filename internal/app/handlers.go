package app

import (
	"gorm.io/gorm"

	redisclient "github.com/VitalPointAI/argus-sub001/internal/clients/redis"
	apphttp "github.com/VitalPointAI/argus-sub001/internal/http"
	"github.com/VitalPointAI/argus-sub001/internal/http/handlers"
	"github.com/VitalPointAI/argus-sub001/internal/observability"
	"github.com/VitalPointAI/argus-sub001/internal/platform/logger"
)

type Handlers struct {
	Health     *handlers.HealthHandler
	Rating     *handlers.RatingHandler
	Reputation *handlers.ReputationHandler
	Admin      *handlers.AdminHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, bus redisclient.AlertBus, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     handlers.NewHealthHandler(db, bus),
		Rating:     handlers.NewRatingHandler(s.Rating),
		Reputation: handlers.NewReputationHandler(s.Reputation),
		Admin:      handlers.NewAdminHandler(s.Decay, s.Trust, s.Reputation, s.Anomaly),
	}
}

func wireServer(log *logger.Logger, metrics *observability.Metrics, h Handlers) *apphttp.Server {
	log.Info("Wiring router...")
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:               log,
		Metrics:           metrics,
		HealthHandler:     h.Health,
		RatingHandler:     h.Rating,
		ReputationHandler: h.Reputation,
		AdminHandler:      h.Admin,
	})
}
