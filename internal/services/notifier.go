package services

import (
	"context"

	"github.com/google/uuid"

	redisclient "github.com/VitalPointAI/argus-sub001/internal/clients/redis"
	"github.com/VitalPointAI/argus-sub001/internal/platform/logger"
)

// ReputationNotifier fans reputation events out to the main app. Calls are
// fire-and-forget: a dead bus never blocks or fails the write that
// triggered the event.
type ReputationNotifier interface {
	AnomalyDetected(ctx context.Context, sourceID uuid.UUID, anomalyType string, affected int)
	ScoreChanged(ctx context.Context, sourceID uuid.UUID, oldScore, newScore float64, reason string)
	DecayApplied(ctx context.Context, processed, decayed int)
	TrustUpdated(ctx context.Context, userID uuid.UUID, trust float64)
}

type busNotifier struct {
	log *logger.Logger
	bus redisclient.AlertBus
}

// NewBusNotifier wraps the alert bus. A nil bus yields a notifier that
// drops everything, which is how single-instance deployments run.
func NewBusNotifier(baseLog *logger.Logger, bus redisclient.AlertBus) ReputationNotifier {
	return &busNotifier{
		log: baseLog.With("service", "ReputationNotifier"),
		bus: bus,
	}
}

func (n *busNotifier) AnomalyDetected(ctx context.Context, sourceID uuid.UUID, anomalyType string, affected int) {
	n.publish(ctx, redisclient.AlertMessage{
		Event:    redisclient.EventAnomalyDetected,
		SourceID: sourceID.String(),
		Data: map[string]interface{}{
			"anomaly_type":     anomalyType,
			"affected_ratings": affected,
		},
	})
}

func (n *busNotifier) ScoreChanged(ctx context.Context, sourceID uuid.UUID, oldScore, newScore float64, reason string) {
	n.publish(ctx, redisclient.AlertMessage{
		Event:    redisclient.EventScoreChanged,
		SourceID: sourceID.String(),
		Data: map[string]interface{}{
			"old_score": oldScore,
			"new_score": newScore,
			"reason":    reason,
		},
	})
}

func (n *busNotifier) DecayApplied(ctx context.Context, processed, decayed int) {
	n.publish(ctx, redisclient.AlertMessage{
		Event: redisclient.EventDecayApplied,
		Data: map[string]interface{}{
			"processed": processed,
			"decayed":   decayed,
		},
	})
}

func (n *busNotifier) TrustUpdated(ctx context.Context, userID uuid.UUID, trust float64) {
	n.publish(ctx, redisclient.AlertMessage{
		Event:  redisclient.EventTrustUpdated,
		UserID: userID.String(),
		Data: map[string]interface{}{
			"trust_score": trust,
		},
	})
}

func (n *busNotifier) publish(ctx context.Context, msg redisclient.AlertMessage) {
	if n == nil || n.bus == nil {
		return
	}
	if err := n.bus.Publish(ctx, msg); err != nil {
		n.log.Warn("alert publish failed", "event", msg.Event, "error", err)
	}
}
