package services

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/VitalPointAI/argus-sub001/internal/data/dberr"
	"github.com/VitalPointAI/argus-sub001/internal/data/repos"
	types "github.com/VitalPointAI/argus-sub001/internal/domain"
	"github.com/VitalPointAI/argus-sub001/internal/domain/reperr"
	"github.com/VitalPointAI/argus-sub001/internal/observability"
	"github.com/VitalPointAI/argus-sub001/internal/platform/dbctx"
	"github.com/VitalPointAI/argus-sub001/internal/platform/logger"
)

const (
	recentRatingsLimit  = 10
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// ScoreChange is the outcome of one reliability recompute. Applied is false
// when the blended score landed within the no-op epsilon of the prior, in
// which case nothing was persisted.
type ScoreChange struct {
	SourceID uuid.UUID `json:"source_id"`
	OldScore float64   `json:"old_score"`
	NewScore float64   `json:"new_score"`
	Reason   string    `json:"reason"`
	Applied  bool      `json:"applied"`
}

type RecordCrossReferenceInput struct {
	SourceID           uuid.UUID  `json:"source_id"`
	ContentID          uuid.UUID  `json:"content_id"`
	ClaimID            *uuid.UUID `json:"claim_id,omitempty"`
	WasAccurate        bool       `json:"was_accurate"`
	VerificationSource string     `json:"verification_source"`
	Confidence         float64    `json:"confidence"`
}

type ReputationView struct {
	SourceID         uuid.UUID     `json:"source_id"`
	Name             string        `json:"name"`
	Category         string        `json:"category,omitempty"`
	ReliabilityScore float64       `json:"reliability_score"`
	TotalRatings     int64         `json:"total_ratings"`
	AverageRating    float64       `json:"average_rating"`
	WeightedAverage  float64       `json:"weighted_average_rating"`
	AccuracyRate     *float64      `json:"accuracy_rate,omitempty"`
	TotalClaims      int64         `json:"total_claims"`
	LastArticleAt    *time.Time    `json:"last_article_at,omitempty"`
	IsStale          bool          `json:"is_stale"`
	RecentRatings    []*RatingView `json:"recent_ratings"`
}

type ReliabilityChangeView struct {
	OldScore     float64                `json:"old_score"`
	NewScore     float64                `json:"new_score"`
	ChangeReason string                 `json:"change_reason"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	ChangedAt    time.Time              `json:"changed_at"`
}

type ReputationService interface {
	Recalculate(ctx context.Context, sourceID uuid.UUID, reason string) (*ScoreChange, error)
	GetReputation(ctx context.Context, sourceID uuid.UUID) (*ReputationView, error)
	RecordCrossReference(ctx context.Context, in RecordCrossReferenceInput) (*ScoreChange, error)
	GetReliabilityHistory(ctx context.Context, sourceID uuid.UUID, limit int) ([]*ReliabilityChangeView, error)
	RecordSourceActivity(ctx context.Context, sourceID uuid.UUID, at time.Time) error
}

type reputationService struct {
	db        *gorm.DB
	log       *logger.Logger
	scoring   ScoringConfig
	decay     DecayConfig
	sources   repos.SourceRepo
	ratings   repos.SourceRatingRepo
	crossRefs repos.CrossReferenceRepo
	history   repos.ReliabilityHistoryRepo
	notifier  ReputationNotifier
}

func NewReputationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	scoring ScoringConfig,
	decay DecayConfig,
	sources repos.SourceRepo,
	ratings repos.SourceRatingRepo,
	crossRefs repos.CrossReferenceRepo,
	history repos.ReliabilityHistoryRepo,
	notifier ReputationNotifier,
) ReputationService {
	return &reputationService{
		db:        db,
		log:       baseLog.With("service", "ReputationService"),
		scoring:   scoring,
		decay:     decay,
		sources:   sources,
		ratings:   ratings,
		crossRefs: crossRefs,
		history:   history,
		notifier:  notifier,
	}
}

func (s *reputationService) Recalculate(ctx context.Context, sourceID uuid.UUID, reason string) (*ScoreChange, error) {
	const op = "ReputationService.Recalculate"
	if sourceID == uuid.Nil {
		return nil, reperr.New(reperr.CodeValidation, op, "missing source id", nil)
	}
	if strings.TrimSpace(reason) == "" {
		return nil, reperr.New(reperr.CodeValidation, op, "missing change reason", nil)
	}
	var change *ScoreChange
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		return s.recalculateLocked(dbc, sourceID, reason, &change)
	})
	if err != nil {
		return nil, err
	}
	s.afterScoreChange(ctx, change)
	return change, nil
}

// recalculateLocked runs one aggregation inside the caller's transaction.
// The source row is locked so concurrent triggers serialize on one prior:
// score read, compare, conditional write and history append commit as a unit.
func (s *reputationService) recalculateLocked(dbc dbctx.Context, sourceID uuid.UUID, reason string, out **ScoreChange) error {
	const op = "ReputationService.Recalculate"
	src, err := s.sources.LockByID(dbc, sourceID)
	if err != nil {
		return dberr.MapError(op, err)
	}
	if src == nil {
		return reperr.New(reperr.CodeNotFound, op, "source not found", nil)
	}
	agg, err := s.ratings.WeightedAggregateBySource(dbc, sourceID)
	if err != nil {
		return dberr.MapError(op, err)
	}
	acc, err := s.crossRefs.AccuracyBySource(dbc, sourceID)
	if err != nil {
		return dberr.MapError(op, err)
	}
	in := ScoreInputs{
		WeightedRatingSum: agg.WeightedSum,
		RatingWeightSum:   agg.WeightSum,
		RatingCount:       agg.Count,
		AccurateClaims:    acc.AccurateClaims,
		TotalClaims:       acc.TotalClaims,
		PriorScore:        src.ReliabilityScore,
	}
	newScore := blendReliability(s.scoring, in)
	change := &ScoreChange{SourceID: sourceID, OldScore: src.ReliabilityScore, NewScore: newScore, Reason: reason}
	*out = change
	if math.Abs(newScore-src.ReliabilityScore) <= s.scoring.NoOpEpsilon {
		return nil
	}
	if err := s.sources.UpdateScore(dbc, sourceID, newScore); err != nil {
		return dberr.MapError(op, err)
	}
	// The metadata snapshots the aggregates this step was computed from, so
	// the audit trail replays: blend(prior, metadata) reproduces new_score.
	meta, _ := json.Marshal(map[string]interface{}{
		"rating_count":    agg.Count,
		"weighted_sum":    agg.WeightedSum,
		"weight_sum":      agg.WeightSum,
		"accurate_claims": acc.AccurateClaims,
		"total_claims":    acc.TotalClaims,
	})
	hist := &types.ReliabilityHistory{
		SourceID:     sourceID,
		OldScore:     src.ReliabilityScore,
		NewScore:     newScore,
		ChangeReason: reason,
		Metadata:     datatypes.JSON(meta),
	}
	if err := s.history.Append(dbc, hist); err != nil {
		return dberr.MapError(op, err)
	}
	change.Applied = true
	return nil
}

func (s *reputationService) afterScoreChange(ctx context.Context, change *ScoreChange) {
	if change == nil {
		return
	}
	if m := observability.Current(); m != nil {
		m.ObserveScoreRecompute(change.Reason, change.Applied, change.NewScore)
	}
	if !change.Applied {
		return
	}
	s.log.Info("reliability score updated",
		"source_id", change.SourceID,
		"old_score", change.OldScore,
		"new_score", change.NewScore,
		"reason", change.Reason)
	if s.notifier != nil {
		s.notifier.ScoreChanged(ctx, change.SourceID, change.OldScore, change.NewScore, change.Reason)
	}
}

func (s *reputationService) GetReputation(ctx context.Context, sourceID uuid.UUID) (*ReputationView, error) {
	const op = "ReputationService.GetReputation"
	if sourceID == uuid.Nil {
		return nil, reperr.New(reperr.CodeValidation, op, "missing source id", nil)
	}
	dbc := dbctx.Context{Ctx: ctx}
	src, err := s.sources.GetByID(dbc, sourceID)
	if err != nil {
		return nil, dberr.MapError(op, err)
	}
	if src == nil {
		return nil, reperr.New(reperr.CodeNotFound, op, "source not found", nil)
	}
	stats, err := s.ratings.StatsBySource(dbc, sourceID)
	if err != nil {
		return nil, dberr.MapError(op, err)
	}
	acc, err := s.crossRefs.AccuracyBySource(dbc, sourceID)
	if err != nil {
		return nil, dberr.MapError(op, err)
	}
	recent, err := s.ratings.ListBySource(dbc, sourceID, recentRatingsLimit, 0)
	if err != nil {
		return nil, dberr.MapError(op, err)
	}

	view := &ReputationView{
		SourceID:         src.ID,
		Name:             src.Name,
		Category:         src.Category,
		ReliabilityScore: src.ReliabilityScore,
		TotalRatings:     stats.TotalRatings,
		AverageRating:    stats.AverageRating,
		WeightedAverage:  stats.WeightedAverage,
		TotalClaims:      acc.TotalClaims,
		LastArticleAt:    src.LastArticleAt,
		RecentRatings:    make([]*RatingView, 0, len(recent)),
	}
	if acc.TotalClaims > 0 {
		rate := float64(acc.AccurateClaims) / float64(acc.TotalClaims)
		view.AccuracyRate = &rate
	}
	if src.LastArticleAt != nil {
		view.IsStale = time.Now().UTC().Sub(*src.LastArticleAt) > s.decay.StaleAfter
	}
	for _, r := range recent {
		view.RecentRatings = append(view.RecentRatings, ratingView(r))
	}
	return view, nil
}

func (s *reputationService) RecordCrossReference(ctx context.Context, in RecordCrossReferenceInput) (*ScoreChange, error) {
	const op = "ReputationService.RecordCrossReference"
	if in.SourceID == uuid.Nil {
		return nil, reperr.New(reperr.CodeValidation, op, "missing source id", nil)
	}
	if in.ContentID == uuid.Nil {
		return nil, reperr.New(reperr.CodeValidation, op, "missing content id", nil)
	}
	verifier := strings.TrimSpace(in.VerificationSource)
	if verifier == "" {
		return nil, reperr.New(reperr.CodeValidation, op, "missing verification source", nil)
	}
	if in.Confidence < 0 || in.Confidence > 1 {
		return nil, reperr.New(reperr.CodeValidation, op, "confidence must be within [0, 1]", nil)
	}
	var change *ScoreChange
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		// Locked before the insert so an unknown source reads as
		// not_found instead of a foreign key failure.
		src, err := s.sources.LockByID(dbc, in.SourceID)
		if err != nil {
			return dberr.MapError(op, err)
		}
		if src == nil {
			return reperr.New(reperr.CodeNotFound, op, "source not found", nil)
		}
		row := &types.CrossReferenceResult{
			SourceID:           in.SourceID,
			ContentID:          in.ContentID,
			ClaimID:            in.ClaimID,
			WasAccurate:        in.WasAccurate,
			VerificationSource: verifier,
			Confidence:         in.Confidence,
		}
		if err := s.crossRefs.Create(dbc, []*types.CrossReferenceResult{row}); err != nil {
			return dberr.MapError(op, err)
		}
		// Re-aggregates over the row set including the append above.
		return s.recalculateLocked(dbc, in.SourceID, types.ChangeReasonCrossReference, &change)
	})
	if err != nil {
		return nil, err
	}
	if m := observability.Current(); m != nil {
		m.IncCrossReference(in.WasAccurate)
	}
	s.log.Info("cross-reference recorded",
		"source_id", in.SourceID,
		"content_id", in.ContentID,
		"was_accurate", in.WasAccurate,
		"verification_source", verifier)
	s.afterScoreChange(ctx, change)
	return change, nil
}

func (s *reputationService) GetReliabilityHistory(ctx context.Context, sourceID uuid.UUID, limit int) ([]*ReliabilityChangeView, error) {
	const op = "ReputationService.GetReliabilityHistory"
	if sourceID == uuid.Nil {
		return nil, reperr.New(reperr.CodeValidation, op, "missing source id", nil)
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	dbc := dbctx.Context{Ctx: ctx}
	src, err := s.sources.GetByID(dbc, sourceID)
	if err != nil {
		return nil, dberr.MapError(op, err)
	}
	if src == nil {
		return nil, reperr.New(reperr.CodeNotFound, op, "source not found", nil)
	}
	rows, err := s.history.ListBySource(dbc, sourceID, limit)
	if err != nil {
		return nil, dberr.MapError(op, err)
	}
	out := make([]*ReliabilityChangeView, 0, len(rows))
	for _, h := range rows {
		v := &ReliabilityChangeView{
			OldScore:     h.OldScore,
			NewScore:     h.NewScore,
			ChangeReason: h.ChangeReason,
			ChangedAt:    h.ChangedAt,
		}
		if len(h.Metadata) > 0 {
			meta := map[string]interface{}{}
			if err := json.Unmarshal(h.Metadata, &meta); err == nil {
				v.Metadata = meta
			}
		}
		out = append(out, v)
	}
	return out, nil
}

// RecordSourceActivity advances last_article_at when the content pipeline
// sees a fresh article. The marker never moves backwards, so out-of-order
// ingest events cannot re-stale a source.
func (s *reputationService) RecordSourceActivity(ctx context.Context, sourceID uuid.UUID, at time.Time) error {
	const op = "ReputationService.RecordSourceActivity"
	if sourceID == uuid.Nil {
		return reperr.New(reperr.CodeValidation, op, "missing source id", nil)
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	dbc := dbctx.Context{Ctx: ctx}
	src, err := s.sources.GetByID(dbc, sourceID)
	if err != nil {
		return dberr.MapError(op, err)
	}
	if src == nil {
		return reperr.New(reperr.CodeNotFound, op, "source not found", nil)
	}
	if src.LastArticleAt != nil && src.LastArticleAt.After(at) {
		return nil
	}
	if err := s.sources.TouchLastArticle(dbc, sourceID, at); err != nil {
		return dberr.MapError(op, err)
	}
	s.log.Debug("source activity recorded", "source_id", sourceID, "at", at)
	return nil
}
