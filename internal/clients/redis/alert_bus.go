package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/VitalPointAI/argus-sub001/internal/platform/logger"
)

const (
	EventAnomalyDetected = "reputation.anomaly_detected"
	EventScoreChanged    = "reputation.score_changed"
	EventDecayApplied    = "reputation.decay_applied"
	EventTrustUpdated    = "reputation.trust_updated"
)

// AlertMessage is the wire shape published to the alerts channel. The main
// app subscribes and pushes these to dashboards; the engine only publishes.
type AlertMessage struct {
	Event    string                 `json:"event"`
	SourceID string                 `json:"source_id,omitempty"`
	UserID   string                 `json:"user_id,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
	SentAt   time.Time              `json:"sent_at"`
}

type AlertBus interface {
	Publish(ctx context.Context, msg AlertMessage) error
	Ping(ctx context.Context) error
	Close() error
}

type alertBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewAlertBus(log *logger.Logger) (AlertBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_ALERT_CHANNEL"))
	if ch == "" {
		ch = "reputation.alerts"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &alertBus{
		log:     log.With("service", "RedisAlertBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *alertBus) Publish(ctx context.Context, msg AlertMessage) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis alert bus not initialized")
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *alertBus) Ping(ctx context.Context) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis alert bus not initialized")
	}
	return b.rdb.Ping(ctx).Err()
}

func (b *alertBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
