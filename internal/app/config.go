package app

import (
	"github.com/VitalPointAI/argus-sub001/internal/platform/logger"
	"github.com/VitalPointAI/argus-sub001/internal/services"
)

// Config collects the tunable policy for every scoring concern.
// Each section reads its own environment overrides in services.
type Config struct {
	Scoring   services.ScoringConfig
	RateLimit services.RateLimitConfig
	Anomaly   services.AnomalyConfig
	Decay     services.DecayConfig
	Trust     services.TrustConfig
}

func LoadConfig(log *logger.Logger) Config {
	log.Info("Loading reputation policy from environment...")
	return Config{
		Scoring:   services.DefaultScoringConfig(),
		RateLimit: services.DefaultRateLimitConfig(),
		Anomaly:   services.DefaultAnomalyConfig(),
		Decay:     services.DefaultDecayConfig(),
		Trust:     services.DefaultTrustConfig(),
	}
}
