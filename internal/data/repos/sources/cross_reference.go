package sources

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/VitalPointAI/argus-sub001/internal/domain"
	"github.com/VitalPointAI/argus-sub001/internal/platform/dbctx"
	"github.com/VitalPointAI/argus-sub001/internal/platform/logger"
)

// AccuracySummary is the claim-level accuracy aggregate for one source.
type AccuracySummary struct {
	AccurateClaims int64
	TotalClaims    int64
}

type CrossReferenceRepo interface {
	Create(dbc dbctx.Context, rows []*types.CrossReferenceResult) error
	ListBySource(dbc dbctx.Context, sourceID uuid.UUID, limit int) ([]*types.CrossReferenceResult, error)
	AccuracyBySource(dbc dbctx.Context, sourceID uuid.UUID) (*AccuracySummary, error)
}

type crossReferenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCrossReferenceRepo(db *gorm.DB, baseLog *logger.Logger) CrossReferenceRepo {
	return &crossReferenceRepo{
		db:  db,
		log: baseLog.With("repo", "CrossReferenceRepo"),
	}
}

func (r *crossReferenceRepo) Create(dbc dbctx.Context, rows []*types.CrossReferenceResult) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
	}
	return transaction.WithContext(dbc.Ctx).Create(rows).Error
}

func (r *crossReferenceRepo) ListBySource(dbc dbctx.Context, sourceID uuid.UUID, limit int) ([]*types.CrossReferenceResult, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*types.CrossReferenceResult{}
	if sourceID == uuid.Nil {
		return out, nil
	}
	q := transaction.WithContext(dbc.Ctx).
		Where("source_id = ?", sourceID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *crossReferenceRepo) AccuracyBySource(dbc dbctx.Context, sourceID uuid.UUID) (*AccuracySummary, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if sourceID == uuid.Nil {
		return &AccuracySummary{}, nil
	}
	var row struct {
		AccurateClaims int64
		TotalClaims    int64
	}
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.CrossReferenceResult{}).
		Select("COALESCE(SUM(CASE WHEN was_accurate THEN 1 ELSE 0 END), 0) AS accurate_claims, COUNT(*) AS total_claims").
		Where("source_id = ?", sourceID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &AccuracySummary{
		AccurateClaims: row.AccurateClaims,
		TotalClaims:    row.TotalClaims,
	}, nil
}
