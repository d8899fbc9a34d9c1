package app

import (
	"gorm.io/gorm"

	redisclient "github.com/VitalPointAI/argus-sub001/internal/clients/redis"
	"github.com/VitalPointAI/argus-sub001/internal/jobs"
	"github.com/VitalPointAI/argus-sub001/internal/platform/logger"
	"github.com/VitalPointAI/argus-sub001/internal/services"
)

type Services struct {
	Notifier   services.ReputationNotifier
	Reputation services.ReputationService
	Anomaly    services.AnomalyService
	Rating     services.RatingService
	Decay      services.DecayService
	Trust      services.TrustService

	DecayWorker *jobs.DecayWorker
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, bus redisclient.AlertBus) Services {
	log.Info("Wiring services...")
	notifier := services.NewBusNotifier(log, bus)
	reputation := services.NewReputationService(db, log, cfg.Scoring, cfg.Decay, r.Sources, r.Ratings, r.CrossRefs, r.History, notifier)
	anomaly := services.NewAnomalyService(db, log, cfg.Anomaly, r.Ratings, r.Anomalies, reputation, notifier)
	rating := services.NewRatingService(db, log, cfg.RateLimit, r.Users, r.Sources, r.Ratings, r.RatingLimits, anomaly, reputation)
	decay := services.NewDecayService(db, log, cfg.Decay, r.Sources, r.History, notifier)
	trust := services.NewTrustService(db, log, cfg.Trust, r.Users, notifier)
	return Services{
		Notifier:    notifier,
		Reputation:  reputation,
		Anomaly:     anomaly,
		Rating:      rating,
		Decay:       decay,
		Trust:       trust,
		DecayWorker: jobs.NewDecayWorker(log, decay),
	}
}
