package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/VitalPointAI/argus-sub001/internal/data/dberr"
	"github.com/VitalPointAI/argus-sub001/internal/data/repos"
	"github.com/VitalPointAI/argus-sub001/internal/domain/reperr"
	"github.com/VitalPointAI/argus-sub001/internal/observability"
	"github.com/VitalPointAI/argus-sub001/internal/platform/dbctx"
	"github.com/VitalPointAI/argus-sub001/internal/platform/logger"
)

// TrustUpdate reports one recompute of an analyst's trust score. Applied is
// false when the analyst has no ratings yet or the score came out unchanged.
type TrustUpdate struct {
	UserID          uuid.UUID `json:"user_id"`
	OldTrust        float64   `json:"old_trust_score"`
	NewTrust        float64   `json:"new_trust_score"`
	AccurateRatings int       `json:"accurate_ratings"`
	TotalRatings    int       `json:"total_ratings_given"`
	Applied         bool      `json:"applied"`
}

type TrustService interface {
	UpdateUserTrustScore(ctx context.Context, userID uuid.UUID) (*TrustUpdate, error)
	RecordRatingOutcome(ctx context.Context, userID uuid.UUID, wasAccurate bool) (*TrustUpdate, error)
}

type trustService struct {
	db       *gorm.DB
	log      *logger.Logger
	cfg      TrustConfig
	users    repos.UserRepo
	notifier ReputationNotifier
}

func NewTrustService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg TrustConfig,
	users repos.UserRepo,
	notifier ReputationNotifier,
) TrustService {
	return &trustService{
		db:       db,
		log:      baseLog.With("service", "TrustService"),
		cfg:      cfg,
		users:    users,
		notifier: notifier,
	}
}

// UpdateUserTrustScore recomputes trust from the accuracy counters. Only
// future rating weights change; weights already snapshotted on stored
// ratings stay as they were.
func (s *trustService) UpdateUserTrustScore(ctx context.Context, userID uuid.UUID) (*TrustUpdate, error) {
	const op = "TrustService.UpdateUserTrustScore"
	if userID == uuid.Nil {
		return nil, reperr.New(reperr.CodeValidation, op, "missing user id", nil)
	}
	var update *TrustUpdate
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		return s.recomputeLocked(dbc, op, userID, &update)
	})
	if err != nil {
		return nil, err
	}
	s.afterTrustChange(ctx, update)
	return update, nil
}

// RecordRatingOutcome is the claim-adjudication entry point: bumps the
// accuracy counter when the adjudicated claim held up and recomputes trust
// over the updated counters in the same transaction.
func (s *trustService) RecordRatingOutcome(ctx context.Context, userID uuid.UUID, wasAccurate bool) (*TrustUpdate, error) {
	const op = "TrustService.RecordRatingOutcome"
	if userID == uuid.Nil {
		return nil, reperr.New(reperr.CodeValidation, op, "missing user id", nil)
	}
	var update *TrustUpdate
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		user, err := s.users.LockByID(dbc, userID)
		if err != nil {
			return dberr.MapError(op, err)
		}
		if user == nil {
			return reperr.New(reperr.CodeNotFound, op, "user not found", nil)
		}
		if wasAccurate {
			if err := s.users.IncrementAccurateRatings(dbc, userID); err != nil {
				return dberr.MapError(op, err)
			}
		}
		return s.recomputeLocked(dbc, op, userID, &update)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("rating outcome recorded", "user_id", userID, "was_accurate", wasAccurate)
	s.afterTrustChange(ctx, update)
	return update, nil
}

// recomputeLocked reads the locked analyst row (re-reading picks up counter
// writes earlier in the same transaction) and persists the recomputed trust
// when it moved.
func (s *trustService) recomputeLocked(dbc dbctx.Context, op string, userID uuid.UUID, out **TrustUpdate) error {
	user, err := s.users.LockByID(dbc, userID)
	if err != nil {
		return dberr.MapError(op, err)
	}
	if user == nil {
		return reperr.New(reperr.CodeNotFound, op, "user not found", nil)
	}
	update := &TrustUpdate{
		UserID:          userID,
		OldTrust:        user.TrustScore,
		NewTrust:        user.TrustScore,
		AccurateRatings: user.AccurateRatings,
		TotalRatings:    user.TotalRatingsGiven,
	}
	*out = update
	if user.TotalRatingsGiven == 0 {
		return nil
	}
	trust := computeTrustScore(s.cfg, user.AccurateRatings, user.TotalRatingsGiven)
	update.NewTrust = trust
	if trust == user.TrustScore {
		return nil
	}
	if err := s.users.UpdateTrustScore(dbc, userID, trust); err != nil {
		return dberr.MapError(op, err)
	}
	update.Applied = true
	return nil
}

func (s *trustService) afterTrustChange(ctx context.Context, update *TrustUpdate) {
	if update == nil || !update.Applied {
		return
	}
	if m := observability.Current(); m != nil {
		m.IncTrustUpdate()
	}
	s.log.Info("trust score updated",
		"user_id", update.UserID,
		"old_trust", update.OldTrust,
		"new_trust", update.NewTrust,
		"accurate", update.AccurateRatings,
		"total", update.TotalRatings)
	if s.notifier != nil {
		s.notifier.TrustUpdated(ctx, update.UserID, update.NewTrust)
	}
}
