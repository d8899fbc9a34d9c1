package ratings

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/VitalPointAI/argus-sub001/internal/domain"
	"github.com/VitalPointAI/argus-sub001/internal/platform/dbctx"
	"github.com/VitalPointAI/argus-sub001/internal/platform/logger"
)

// WeightedAggregate is the scoring input over a source's non-flagged
// ratings: sum(rating*weight), sum(weight), row count.
type WeightedAggregate struct {
	WeightedSum float64
	WeightSum   float64
	Count       int64
}

// RatingStats is the display aggregate for a source's visible ratings.
type RatingStats struct {
	TotalRatings    int64
	AverageRating   float64
	WeightedAverage float64
	Distribution    map[int]int64
}

type SourceRatingRepo interface {
	Create(dbc dbctx.Context, row *types.SourceRating) error
	UpdateSubmission(dbc dbctx.Context, id uuid.UUID, rating int, comment string, weight float64) error
	GetBySourceAndUser(dbc dbctx.Context, sourceID, userID uuid.UUID) (*types.SourceRating, error)
	ListBySource(dbc dbctx.Context, sourceID uuid.UUID, limit, offset int) ([]*types.SourceRating, error)
	ListRecentBySource(dbc dbctx.Context, sourceID uuid.UUID, since time.Time) ([]*types.SourceRating, error)
	WeightedAggregateBySource(dbc dbctx.Context, sourceID uuid.UUID) (*WeightedAggregate, error)
	StatsBySource(dbc dbctx.Context, sourceID uuid.UUID) (*RatingStats, error)
	FlagByIDs(dbc dbctx.Context, ids []uuid.UUID, reason string) error
	UnflagByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type sourceRatingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSourceRatingRepo(db *gorm.DB, baseLog *logger.Logger) SourceRatingRepo {
	return &sourceRatingRepo{
		db:  db,
		log: baseLog.With("repo", "SourceRatingRepo"),
	}
}

func (r *sourceRatingRepo) Create(dbc dbctx.Context, row *types.SourceRating) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil || row.SourceID == uuid.Nil || row.UserID == uuid.Nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return transaction.WithContext(dbc.Ctx).Create(row).Error
}

// UpdateSubmission overwrites the mutable fields of an existing rating.
// Flag state is deliberately left alone: a flagged rating stays flagged
// through resubmission until review clears it.
func (r *sourceRatingRepo) UpdateSubmission(dbc dbctx.Context, id uuid.UUID, rating int, comment string, weight float64) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.SourceRating{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"rating":     rating,
			"comment":    comment,
			"weight":     weight,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *sourceRatingRepo) GetBySourceAndUser(dbc dbctx.Context, sourceID, userID uuid.UUID) (*types.SourceRating, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if sourceID == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	var row types.SourceRating
	err := transaction.WithContext(dbc.Ctx).
		Where("source_id = ? AND user_id = ?", sourceID, userID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *sourceRatingRepo) ListBySource(dbc dbctx.Context, sourceID uuid.UUID, limit, offset int) ([]*types.SourceRating, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*types.SourceRating{}
	if sourceID == uuid.Nil {
		return out, nil
	}
	q := transaction.WithContext(dbc.Ctx).
		Where("source_id = ?", sourceID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListRecentBySource returns every rating created since the cutoff,
// flagged or not. Anomaly detection wants the raw window.
func (r *sourceRatingRepo) ListRecentBySource(dbc dbctx.Context, sourceID uuid.UUID, since time.Time) ([]*types.SourceRating, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*types.SourceRating{}
	if sourceID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("source_id = ? AND created_at >= ?", sourceID, since.UTC()).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sourceRatingRepo) WeightedAggregateBySource(dbc dbctx.Context, sourceID uuid.UUID) (*WeightedAggregate, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if sourceID == uuid.Nil {
		return &WeightedAggregate{}, nil
	}
	var row struct {
		WeightedSum float64
		WeightSum   float64
		Count       int64
	}
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.SourceRating{}).
		Select("COALESCE(SUM(rating * weight), 0) AS weighted_sum, COALESCE(SUM(weight), 0) AS weight_sum, COUNT(*) AS count").
		Where("source_id = ? AND is_flagged = false", sourceID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &WeightedAggregate{
		WeightedSum: row.WeightedSum,
		WeightSum:   row.WeightSum,
		Count:       row.Count,
	}, nil
}

func (r *sourceRatingRepo) StatsBySource(dbc dbctx.Context, sourceID uuid.UUID) (*RatingStats, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	stats := &RatingStats{Distribution: map[int]int64{}}
	for v := types.RatingMin; v <= types.RatingMax; v++ {
		stats.Distribution[v] = 0
	}
	if sourceID == uuid.Nil {
		return stats, nil
	}

	var agg struct {
		Total       int64
		Avg         float64
		WeightedSum float64
		WeightSum   float64
	}
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.SourceRating{}).
		Select("COUNT(*) AS total, COALESCE(AVG(rating), 0) AS avg, COALESCE(SUM(rating * weight), 0) AS weighted_sum, COALESCE(SUM(weight), 0) AS weight_sum").
		Where("source_id = ? AND is_flagged = false", sourceID).
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}
	stats.TotalRatings = agg.Total
	stats.AverageRating = agg.Avg
	if agg.WeightSum > 0 {
		stats.WeightedAverage = agg.WeightedSum / agg.WeightSum
	}

	var buckets []struct {
		Rating int
		N      int64
	}
	err = transaction.WithContext(dbc.Ctx).
		Model(&types.SourceRating{}).
		Select("rating, COUNT(*) AS n").
		Where("source_id = ? AND is_flagged = false", sourceID).
		Group("rating").
		Scan(&buckets).Error
	if err != nil {
		return nil, err
	}
	for _, b := range buckets {
		stats.Distribution[b.Rating] = b.N
	}
	return stats, nil
}

func (r *sourceRatingRepo) FlagByIDs(dbc dbctx.Context, ids []uuid.UUID, reason string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.SourceRating{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"is_flagged":  true,
			"flag_reason": reason,
			"updated_at":  time.Now().UTC(),
		}).Error
}

func (r *sourceRatingRepo) UnflagByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.SourceRating{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"is_flagged":  false,
			"flag_reason": "",
			"updated_at":  time.Now().UTC(),
		}).Error
}
