package services

import (
	"time"

	"github.com/VitalPointAI/argus-sub001/internal/platform/envutil"
)

// ScoringConfig holds the reliability blend policy. Weights renormalize over
// whichever components a source actually has, so they need not sum to 1.
type ScoringConfig struct {
	RatingWeight   float64
	AccuracyWeight float64
	PriorWeight    float64
	NoOpEpsilon    float64
	MinScore       float64
	MaxScore       float64
	InitialScore   float64
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		RatingWeight:   envutil.Float("REPUTATION_RATING_WEIGHT", 0.3),
		AccuracyWeight: envutil.Float("REPUTATION_ACCURACY_WEIGHT", 0.5),
		PriorWeight:    envutil.Float("REPUTATION_PRIOR_WEIGHT", 0.2),
		NoOpEpsilon:    envutil.Float("REPUTATION_NOOP_EPSILON", 0.1),
		MinScore:       0,
		MaxScore:       100,
		InitialScore:   50,
	}
}

type RateLimitConfig struct {
	DailyLimit int
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		DailyLimit: envutil.Int("RATING_DAILY_LIMIT", 20),
	}
}

type AnomalyConfig struct {
	Window             time.Duration
	MinClusterSize     int
	DominanceThreshold float64
}

func DefaultAnomalyConfig() AnomalyConfig {
	return AnomalyConfig{
		Window:             envutil.Duration("ANOMALY_WINDOW", time.Hour),
		MinClusterSize:     envutil.Int("ANOMALY_MIN_CLUSTER", 5),
		DominanceThreshold: envutil.Float("ANOMALY_DOMINANCE", 0.8),
	}
}

type DecayConfig struct {
	StaleAfter   time.Duration
	ReapplyAfter time.Duration
	Penalty      float64
	Floor        float64
	BatchLimit   int
	Parallelism  int
}

func DefaultDecayConfig() DecayConfig {
	return DecayConfig{
		StaleAfter:   envutil.Duration("DECAY_STALE_AFTER", 30*24*time.Hour),
		ReapplyAfter: envutil.Duration("DECAY_REAPPLY_AFTER", 7*24*time.Hour),
		Penalty:      envutil.Float("DECAY_PENALTY", 2),
		Floor:        envutil.Float("DECAY_FLOOR", 10),
		BatchLimit:   envutil.Int("DECAY_BATCH_LIMIT", 500),
		Parallelism:  envutil.Int("DECAY_PARALLELISM", 4),
	}
}

type TrustConfig struct {
	MinTrust float64
	MaxTrust float64
}

func DefaultTrustConfig() TrustConfig {
	return TrustConfig{
		MinTrust: envutil.Float("TRUST_MIN", 0.1),
		MaxTrust: envutil.Float("TRUST_MAX", 3.0),
	}
}
