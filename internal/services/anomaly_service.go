package services

import (
	"context"
	"encoding/json"
	"fmt"
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

const defaultAnomalyListLimit = 20

// AnomalyFinding is returned when a rating burst tripped detection. Warning
// is the caller-facing string attached to the submission result.
type AnomalyFinding struct {
	AnomalyID   uuid.UUID `json:"anomaly_id"`
	SourceID    uuid.UUID `json:"source_id"`
	AnomalyType string    `json:"anomaly_type"`
	Total       int       `json:"total"`
	Flagged     int       `json:"flagged"`
	Warning     string    `json:"warning"`
}

type AnomalyView struct {
	ID                uuid.UUID              `json:"id"`
	SourceID          uuid.UUID              `json:"source_id"`
	AnomalyType       string                 `json:"anomaly_type"`
	AffectedRatingIDs []uuid.UUID            `json:"affected_rating_ids"`
	Details           map[string]interface{} `json:"details,omitempty"`
	DetectedAt        time.Time              `json:"detected_at"`
}

type AnomalyService interface {
	DetectForSource(ctx context.Context, sourceID uuid.UUID) (*AnomalyFinding, error)
	ListAnomalies(ctx context.Context, sourceID uuid.UUID, limit int) ([]*AnomalyView, error)
	UnflagRatings(ctx context.Context, sourceID uuid.UUID, ratingIDs []uuid.UUID) (*ScoreChange, error)
}

type anomalyService struct {
	db         *gorm.DB
	log        *logger.Logger
	cfg        AnomalyConfig
	ratings    repos.SourceRatingRepo
	anomalies  repos.RatingAnomalyRepo
	reputation ReputationService
	notifier   ReputationNotifier
}

func NewAnomalyService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg AnomalyConfig,
	ratings repos.SourceRatingRepo,
	anomalies repos.RatingAnomalyRepo,
	reputation ReputationService,
	notifier ReputationNotifier,
) AnomalyService {
	return &anomalyService{
		db:         db,
		log:        baseLog.With("service", "AnomalyService"),
		cfg:        cfg,
		ratings:    ratings,
		anomalies:  anomalies,
		reputation: reputation,
		notifier:   notifier,
	}
}

// DetectForSource examines the recent rating window for one source and
// records what it finds. Coordinated clusters additionally flag every rating
// carrying the dominant value; flags are reversible, nothing is deleted.
// Returns nil with no side effects when the window is below the cluster
// minimum.
func (s *anomalyService) DetectForSource(ctx context.Context, sourceID uuid.UUID) (*AnomalyFinding, error) {
	const op = "AnomalyService.DetectForSource"
	if sourceID == uuid.Nil {
		return nil, reperr.New(reperr.CodeValidation, op, "missing source id", nil)
	}
	since := time.Now().UTC().Add(-s.cfg.Window)
	var finding *AnomalyFinding
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		recent, err := s.ratings.ListRecentBySource(dbc, sourceID, since)
		if err != nil {
			return dberr.MapError(op, err)
		}
		w := classifyWindow(s.cfg, recent)
		if w == nil {
			return nil
		}
		ids := make([]uuid.UUID, 0, len(recent))
		for _, r := range recent {
			ids = append(ids, r.ID)
		}
		details, _ := json.Marshal(map[string]interface{}{
			"total":             w.Total,
			"histogram":         w.Histogram,
			"dominant_value":    w.DominantValue,
			"dominant_count":    w.DominantCount,
			"dominant_fraction": w.Fraction,
			"window":            s.cfg.Window.String(),
		})
		affected, _ := json.Marshal(ids)
		row := &types.RatingAnomaly{
			SourceID:          sourceID,
			AnomalyType:       w.Type,
			AffectedRatingIDs: datatypes.JSON(affected),
			Details:           datatypes.JSON(details),
		}
		if err := s.anomalies.Create(dbc, row); err != nil {
			return dberr.MapError(op, err)
		}
		finding = &AnomalyFinding{
			AnomalyID:   row.ID,
			SourceID:    sourceID,
			AnomalyType: w.Type,
			Total:       w.Total,
		}
		if w.Type == types.AnomalyTypeCoordinated {
			reason := fmt.Sprintf("coordinated rating cluster (anomaly %s)", row.ID)
			if err := s.ratings.FlagByIDs(dbc, w.FlaggedIDs, reason); err != nil {
				return dberr.MapError(op, err)
			}
			finding.Flagged = len(w.FlaggedIDs)
			finding.Warning = fmt.Sprintf(
				"coordinated rating activity detected: %d of %d recent ratings share the value %d; flagged pending review",
				w.DominantCount, w.Total, w.DominantValue)
		} else {
			finding.Warning = fmt.Sprintf(
				"unusual rating volume: %d ratings within %s", w.Total, s.cfg.Window)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if finding == nil {
		return nil, nil
	}
	if m := observability.Current(); m != nil {
		m.IncAnomaly(finding.AnomalyType)
		m.AddRatingsFlagged(finding.Flagged)
	}
	s.log.Warn("rating anomaly detected",
		"source_id", sourceID,
		"anomaly_type", finding.AnomalyType,
		"window_total", finding.Total,
		"flagged", finding.Flagged)
	if s.notifier != nil {
		s.notifier.AnomalyDetected(ctx, sourceID, finding.AnomalyType, finding.Flagged)
	}
	return finding, nil
}

func (s *anomalyService) ListAnomalies(ctx context.Context, sourceID uuid.UUID, limit int) ([]*AnomalyView, error) {
	const op = "AnomalyService.ListAnomalies"
	if sourceID == uuid.Nil {
		return nil, reperr.New(reperr.CodeValidation, op, "missing source id", nil)
	}
	if limit <= 0 {
		limit = defaultAnomalyListLimit
	}
	rows, err := s.anomalies.ListBySource(dbctx.Context{Ctx: ctx}, sourceID, limit)
	if err != nil {
		return nil, dberr.MapError(op, err)
	}
	out := make([]*AnomalyView, 0, len(rows))
	for _, row := range rows {
		v := &AnomalyView{
			ID:          row.ID,
			SourceID:    row.SourceID,
			AnomalyType: row.AnomalyType,
			DetectedAt:  row.DetectedAt,
		}
		if len(row.AffectedRatingIDs) > 0 {
			_ = json.Unmarshal(row.AffectedRatingIDs, &v.AffectedRatingIDs)
		}
		if len(row.Details) > 0 {
			_ = json.Unmarshal(row.Details, &v.Details)
		}
		out = append(out, v)
	}
	return out, nil
}

// UnflagRatings is the manual-review reversal: reviewed ratings re-enter
// score computation. The follow-up recompute is best-effort; the cleared
// flags are durable either way and the next trigger heals the score.
func (s *anomalyService) UnflagRatings(ctx context.Context, sourceID uuid.UUID, ratingIDs []uuid.UUID) (*ScoreChange, error) {
	const op = "AnomalyService.UnflagRatings"
	if sourceID == uuid.Nil {
		return nil, reperr.New(reperr.CodeValidation, op, "missing source id", nil)
	}
	cleaned := make([]uuid.UUID, 0, len(ratingIDs))
	for _, id := range ratingIDs {
		if id != uuid.Nil {
			cleaned = append(cleaned, id)
		}
	}
	if len(cleaned) == 0 {
		return nil, reperr.New(reperr.CodeValidation, op, "no rating ids given", nil)
	}
	if err := s.ratings.UnflagByIDs(dbctx.Context{Ctx: ctx}, cleaned); err != nil {
		return nil, dberr.MapError(op, err)
	}
	s.log.Info("ratings unflagged", "source_id", sourceID, "count", len(cleaned))
	change, err := s.reputation.Recalculate(ctx, sourceID, types.ChangeReasonUserRating)
	if err != nil {
		s.log.Warn("score recompute failed after unflag", "source_id", sourceID, "error", err)
		return nil, nil
	}
	return change, nil
}
