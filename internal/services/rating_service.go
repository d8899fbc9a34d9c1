package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
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
	defaultRatingPageSize = 20
	maxRatingPageSize     = 100
)

type SubmitRatingInput struct {
	SourceID uuid.UUID `json:"source_id"`
	UserID   uuid.UUID `json:"user_id"`
	Rating   int       `json:"rating"`
	Comment  string    `json:"comment,omitempty"`
}

// SubmitRatingResult reports one accepted submission. Weight is the trust
// snapshot stored on the row, Remaining the rate-limit budget left today,
// and Warning carries the anomaly detector's verdict when one fired.
type SubmitRatingResult struct {
	RatingID  uuid.UUID `json:"id"`
	SourceID  uuid.UUID `json:"source_id"`
	Rating    int       `json:"rating"`
	Weight    float64   `json:"weight"`
	IsUpdate  bool      `json:"is_update"`
	Remaining int       `json:"remaining_today"`
	Warning   string    `json:"warning,omitempty"`
}

type RatingView struct {
	ID         uuid.UUID `json:"id"`
	SourceID   uuid.UUID `json:"source_id"`
	UserID     uuid.UUID `json:"user_id"`
	Rating     int       `json:"rating"`
	Weight     float64   `json:"weight"`
	Comment    string    `json:"comment,omitempty"`
	IsFlagged  bool      `json:"is_flagged"`
	FlagReason string    `json:"flag_reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type RatingStatsView struct {
	TotalRatings    int64         `json:"total_ratings"`
	AverageRating   float64       `json:"average_rating"`
	WeightedAverage float64       `json:"weighted_average_rating"`
	Distribution    map[int]int64 `json:"rating_distribution"`
}

type RatingPage struct {
	Ratings []*RatingView    `json:"ratings"`
	Stats   *RatingStatsView `json:"stats"`
}

type RatingService interface {
	SubmitRating(ctx context.Context, in SubmitRatingInput) (*SubmitRatingResult, error)
	GetRatings(ctx context.Context, sourceID uuid.UUID, limit, offset int) (*RatingPage, error)
}

type ratingService struct {
	db         *gorm.DB
	log        *logger.Logger
	limits     RateLimitConfig
	users      repos.UserRepo
	sources    repos.SourceRepo
	ratings    repos.SourceRatingRepo
	limiter    repos.RatingLimitRepo
	anomaly    AnomalyService
	reputation ReputationService
}

func NewRatingService(
	db *gorm.DB,
	baseLog *logger.Logger,
	limits RateLimitConfig,
	users repos.UserRepo,
	sources repos.SourceRepo,
	ratings repos.SourceRatingRepo,
	limiter repos.RatingLimitRepo,
	anomaly AnomalyService,
	reputation ReputationService,
) RatingService {
	return &ratingService{
		db:         db,
		log:        baseLog.With("service", "RatingService"),
		limits:     limits,
		users:      users,
		sources:    sources,
		ratings:    ratings,
		limiter:    limiter,
		anomaly:    anomaly,
		reputation: reputation,
	}
}

// SubmitRating upserts one analyst's rating of a source. A resubmission
// updates the existing row in place with a fresh trust snapshot and bypasses
// the daily limit; a first-time rating consumes one unit of it atomically
// with the insert. The analyst row is locked for the duration, which
// serializes concurrent submissions from the same account and closes the
// counter race.
func (s *ratingService) SubmitRating(ctx context.Context, in SubmitRatingInput) (*SubmitRatingResult, error) {
	const op = "RatingService.SubmitRating"
	if in.SourceID == uuid.Nil {
		return nil, reperr.New(reperr.CodeValidation, op, "missing source id", nil)
	}
	if in.UserID == uuid.Nil {
		return nil, reperr.New(reperr.CodeValidation, op, "missing user id", nil)
	}
	if in.Rating < types.RatingMin || in.Rating > types.RatingMax {
		return nil, reperr.New(reperr.CodeInvalidRating, op,
			fmt.Sprintf("rating must be an integer between %d and %d", types.RatingMin, types.RatingMax), nil)
	}
	comment := strings.TrimSpace(in.Comment)
	day := time.Now().UTC().Format(types.DayFormat)

	var result *SubmitRatingResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		user, err := s.users.LockByID(dbc, in.UserID)
		if err != nil {
			return dberr.MapError(op, err)
		}
		if user == nil {
			return reperr.New(reperr.CodeNotFound, op, "user not found", nil)
		}
		source, err := s.sources.GetByID(dbc, in.SourceID)
		if err != nil {
			return dberr.MapError(op, err)
		}
		if source == nil {
			return reperr.New(reperr.CodeNotFound, op, "source not found", nil)
		}

		existing, err := s.ratings.GetBySourceAndUser(dbc, in.SourceID, in.UserID)
		if err != nil {
			return dberr.MapError(op, err)
		}
		if existing != nil {
			if err := s.ratings.UpdateSubmission(dbc, existing.ID, in.Rating, comment, user.TrustScore); err != nil {
				return dberr.MapError(op, err)
			}
			used, err := s.limiter.CountForDay(dbc, in.UserID, day)
			if err != nil {
				return dberr.MapError(op, err)
			}
			result = &SubmitRatingResult{
				RatingID:  existing.ID,
				SourceID:  in.SourceID,
				Rating:    in.Rating,
				Weight:    user.TrustScore,
				IsUpdate:  true,
				Remaining: remainingToday(s.limits.DailyLimit, used),
			}
			return nil
		}

		used, err := s.limiter.CountForDay(dbc, in.UserID, day)
		if err != nil {
			return dberr.MapError(op, err)
		}
		if used >= s.limits.DailyLimit {
			return reperr.New(reperr.CodeRateLimited, op,
				fmt.Sprintf("daily limit of %d new ratings reached", s.limits.DailyLimit), nil)
		}
		row := &types.SourceRating{
			SourceID: in.SourceID,
			UserID:   in.UserID,
			Rating:   in.Rating,
			Weight:   user.TrustScore,
			Comment:  comment,
		}
		if err := s.ratings.Create(dbc, row); err != nil {
			return dberr.MapError(op, err)
		}
		if err := s.limiter.IncrementDay(dbc, in.UserID, day); err != nil {
			return dberr.MapError(op, err)
		}
		if err := s.users.IncrementRatingsGiven(dbc, in.UserID); err != nil {
			return dberr.MapError(op, err)
		}
		result = &SubmitRatingResult{
			RatingID:  row.ID,
			SourceID:  in.SourceID,
			Rating:    in.Rating,
			Weight:    user.TrustScore,
			Remaining: remainingToday(s.limits.DailyLimit, used+1),
		}
		return nil
	})
	if err != nil {
		if m := observability.Current(); m != nil {
			m.IncRatingSubmitted(submitOutcome(err))
		}
		return nil, err
	}
	if m := observability.Current(); m != nil {
		if result.IsUpdate {
			m.IncRatingSubmitted("updated")
		} else {
			m.IncRatingSubmitted("created")
		}
	}
	s.log.Info("rating submitted",
		"source_id", in.SourceID,
		"user_id", in.UserID,
		"rating", in.Rating,
		"is_update", result.IsUpdate)

	// Anomaly detection first, then re-aggregation, so a coordinated burst
	// is flagged before its values feed the score. Both are best-effort:
	// the rating is durable and the next write retriggers them.
	if finding, derr := s.anomaly.DetectForSource(ctx, in.SourceID); derr != nil {
		s.log.Warn("anomaly detection failed after rating write", "source_id", in.SourceID, "error", derr)
	} else if finding != nil {
		result.Warning = finding.Warning
	}
	if _, rerr := s.reputation.Recalculate(ctx, in.SourceID, types.ChangeReasonUserRating); rerr != nil {
		s.log.Warn("score recompute failed after rating write", "source_id", in.SourceID, "error", rerr)
	}
	return result, nil
}

func (s *ratingService) GetRatings(ctx context.Context, sourceID uuid.UUID, limit, offset int) (*RatingPage, error) {
	const op = "RatingService.GetRatings"
	if sourceID == uuid.Nil {
		return nil, reperr.New(reperr.CodeValidation, op, "missing source id", nil)
	}
	if limit <= 0 {
		limit = defaultRatingPageSize
	}
	if limit > maxRatingPageSize {
		limit = maxRatingPageSize
	}
	if offset < 0 {
		offset = 0
	}
	dbc := dbctx.Context{Ctx: ctx}
	src, err := s.sources.GetByID(dbc, sourceID)
	if err != nil {
		return nil, dberr.MapError(op, err)
	}
	if src == nil {
		return nil, reperr.New(reperr.CodeNotFound, op, "source not found", nil)
	}
	rows, err := s.ratings.ListBySource(dbc, sourceID, limit, offset)
	if err != nil {
		return nil, dberr.MapError(op, err)
	}
	stats, err := s.ratings.StatsBySource(dbc, sourceID)
	if err != nil {
		return nil, dberr.MapError(op, err)
	}
	page := &RatingPage{
		Ratings: make([]*RatingView, 0, len(rows)),
		Stats: &RatingStatsView{
			TotalRatings:    stats.TotalRatings,
			AverageRating:   stats.AverageRating,
			WeightedAverage: stats.WeightedAverage,
			Distribution:    stats.Distribution,
		},
	}
	for _, r := range rows {
		page.Ratings = append(page.Ratings, ratingView(r))
	}
	return page, nil
}

func ratingView(r *types.SourceRating) *RatingView {
	if r == nil {
		return nil
	}
	return &RatingView{
		ID:         r.ID,
		SourceID:   r.SourceID,
		UserID:     r.UserID,
		Rating:     r.Rating,
		Weight:     r.Weight,
		Comment:    r.Comment,
		IsFlagged:  r.IsFlagged,
		FlagReason: r.FlagReason,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func remainingToday(limit, used int) int {
	left := limit - used
	if left < 0 {
		return 0
	}
	return left
}

func submitOutcome(err error) string {
	switch reperr.CodeOf(err) {
	case reperr.CodeInvalidRating, reperr.CodeValidation:
		return "rejected_invalid"
	case reperr.CodeNotFound:
		return "rejected_not_found"
	case reperr.CodeRateLimited:
		return "rejected_rate_limit"
	default:
		return "failed"
	}
}
