package ratings

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/VitalPointAI/argus-sub001/internal/domain"
	"github.com/VitalPointAI/argus-sub001/internal/platform/dbctx"
	"github.com/VitalPointAI/argus-sub001/internal/platform/logger"
)

type RatingAnomalyRepo interface {
	Create(dbc dbctx.Context, row *types.RatingAnomaly) error
	ListBySource(dbc dbctx.Context, sourceID uuid.UUID, limit int) ([]*types.RatingAnomaly, error)
}

type ratingAnomalyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRatingAnomalyRepo(db *gorm.DB, baseLog *logger.Logger) RatingAnomalyRepo {
	return &ratingAnomalyRepo{
		db:  db,
		log: baseLog.With("repo", "RatingAnomalyRepo"),
	}
}

func (r *ratingAnomalyRepo) Create(dbc dbctx.Context, row *types.RatingAnomaly) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil || row.SourceID == uuid.Nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.DetectedAt.IsZero() {
		row.DetectedAt = time.Now().UTC()
	}
	return transaction.WithContext(dbc.Ctx).Create(row).Error
}

func (r *ratingAnomalyRepo) ListBySource(dbc dbctx.Context, sourceID uuid.UUID, limit int) ([]*types.RatingAnomaly, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*types.RatingAnomaly{}
	if sourceID == uuid.Nil {
		return out, nil
	}
	q := transaction.WithContext(dbc.Ctx).
		Where("source_id = ?", sourceID).
		Order("detected_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
