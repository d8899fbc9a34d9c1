package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	redisclient "github.com/VitalPointAI/argus-sub001/internal/clients/redis"
	"github.com/VitalPointAI/argus-sub001/internal/data/repos"
	"github.com/VitalPointAI/argus-sub001/internal/data/repos/testutil"
	types "github.com/VitalPointAI/argus-sub001/internal/domain"
)

func todayKey() string {
	return time.Now().UTC().Format(types.DayFormat)
}

// testStack wires the full service graph against one rolled-back test
// transaction. Service-level transactions nest as savepoints inside it, so
// every test starts from a clean table set and leaves nothing behind.
type testStack struct {
	tx        *gorm.DB
	scoring   ScoringConfig
	decayCfg  DecayConfig
	users     repos.UserRepo
	sources   repos.SourceRepo
	ratings   repos.SourceRatingRepo
	limiter   repos.RatingLimitRepo
	anomalies repos.RatingAnomalyRepo
	crossRefs repos.CrossReferenceRepo
	history   repos.ReliabilityHistoryRepo

	rating     RatingService
	reputation ReputationService
	anomaly    AnomalyService
	decay      DecayService
	trust      TrustService
	bus        *fakeAlertBus
}

type stackConfig struct {
	limits  RateLimitConfig
	scoring ScoringConfig
	anomaly AnomalyConfig
	decay   DecayConfig
	trust   TrustConfig
}

type stackOption func(*stackConfig)

func withDailyLimit(n int) stackOption {
	return func(c *stackConfig) { c.limits.DailyLimit = n }
}

func newTestStack(t *testing.T, opts ...stackOption) *testStack {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	cfg := stackConfig{
		limits:  DefaultRateLimitConfig(),
		scoring: DefaultScoringConfig(),
		anomaly: DefaultAnomalyConfig(),
		decay:   DefaultDecayConfig(),
		trust:   DefaultTrustConfig(),
	}
	// Everything runs through the single test connection, so the decay pass
	// must not fan out.
	cfg.decay.Parallelism = 1
	for _, opt := range opts {
		opt(&cfg)
	}

	st := &testStack{
		tx:        tx,
		scoring:   cfg.scoring,
		decayCfg:  cfg.decay,
		users:     repos.NewUserRepo(tx, log),
		sources:   repos.NewSourceRepo(tx, log),
		ratings:   repos.NewSourceRatingRepo(tx, log),
		limiter:   repos.NewRatingLimitRepo(tx, log),
		anomalies: repos.NewRatingAnomalyRepo(tx, log),
		crossRefs: repos.NewCrossReferenceRepo(tx, log),
		history:   repos.NewReliabilityHistoryRepo(tx, log),
		bus:       &fakeAlertBus{},
	}
	notifier := NewBusNotifier(log, st.bus)
	st.reputation = NewReputationService(tx, log, cfg.scoring, cfg.decay, st.sources, st.ratings, st.crossRefs, st.history, notifier)
	st.anomaly = NewAnomalyService(tx, log, cfg.anomaly, st.ratings, st.anomalies, st.reputation, notifier)
	st.rating = NewRatingService(tx, log, cfg.limits, st.users, st.sources, st.ratings, st.limiter, st.anomaly, st.reputation)
	st.decay = NewDecayService(tx, log, cfg.decay, st.sources, st.history, notifier)
	st.trust = NewTrustService(tx, log, cfg.trust, st.users, notifier)
	return st
}

type fakeAlertBus struct {
	mu       sync.Mutex
	messages []redisclient.AlertMessage
}

func (f *fakeAlertBus) Publish(_ context.Context, msg redisclient.AlertMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeAlertBus) Ping(_ context.Context) error { return nil }
func (f *fakeAlertBus) Close() error                 { return nil }

func (f *fakeAlertBus) events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.messages))
	for _, m := range f.messages {
		out = append(out, m.Event)
	}
	return out
}

func (f *fakeAlertBus) countEvent(event string) int {
	n := 0
	for _, e := range f.events() {
		if e == event {
			n++
		}
	}
	return n
}
