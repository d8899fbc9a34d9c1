package sources

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/VitalPointAI/argus-sub001/internal/domain"
	"github.com/VitalPointAI/argus-sub001/internal/platform/dbctx"
	"github.com/VitalPointAI/argus-sub001/internal/platform/logger"
)

type ReliabilityHistoryRepo interface {
	Append(dbc dbctx.Context, row *types.ReliabilityHistory) error
	ListBySource(dbc dbctx.Context, sourceID uuid.UUID, limit int) ([]*types.ReliabilityHistory, error)
	LatestBySource(dbc dbctx.Context, sourceID uuid.UUID) (*types.ReliabilityHistory, error)
	OldestBySource(dbc dbctx.Context, sourceID uuid.UUID) (*types.ReliabilityHistory, error)
}

type reliabilityHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReliabilityHistoryRepo(db *gorm.DB, baseLog *logger.Logger) ReliabilityHistoryRepo {
	return &reliabilityHistoryRepo{
		db:  db,
		log: baseLog.With("repo", "ReliabilityHistoryRepo"),
	}
}

func (r *reliabilityHistoryRepo) Append(dbc dbctx.Context, row *types.ReliabilityHistory) error {
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
	if row.ChangedAt.IsZero() {
		row.ChangedAt = time.Now().UTC()
	}
	return transaction.WithContext(dbc.Ctx).Create(row).Error
}

func (r *reliabilityHistoryRepo) ListBySource(dbc dbctx.Context, sourceID uuid.UUID, limit int) ([]*types.ReliabilityHistory, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*types.ReliabilityHistory{}
	if sourceID == uuid.Nil {
		return out, nil
	}
	q := transaction.WithContext(dbc.Ctx).
		Where("source_id = ?", sourceID).
		Order("changed_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reliabilityHistoryRepo) LatestBySource(dbc dbctx.Context, sourceID uuid.UUID) (*types.ReliabilityHistory, error) {
	return r.endpointBySource(dbc, sourceID, "changed_at DESC")
}

func (r *reliabilityHistoryRepo) OldestBySource(dbc dbctx.Context, sourceID uuid.UUID) (*types.ReliabilityHistory, error) {
	return r.endpointBySource(dbc, sourceID, "changed_at ASC")
}

func (r *reliabilityHistoryRepo) endpointBySource(dbc dbctx.Context, sourceID uuid.UUID, order string) (*types.ReliabilityHistory, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if sourceID == uuid.Nil {
		return nil, nil
	}
	var row types.ReliabilityHistory
	err := transaction.WithContext(dbc.Ctx).
		Where("source_id = ?", sourceID).
		Order(order).
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
