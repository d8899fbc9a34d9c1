package sources

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/VitalPointAI/argus-sub001/internal/domain"
	"github.com/VitalPointAI/argus-sub001/internal/platform/dbctx"
	"github.com/VitalPointAI/argus-sub001/internal/platform/logger"
)

type SourceRepo interface {
	Create(dbc dbctx.Context, rows []*types.Source) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Source, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Source, error)
	UpdateScore(dbc dbctx.Context, id uuid.UUID, score float64) error
	TouchLastArticle(dbc dbctx.Context, id uuid.UUID, at time.Time) error
	ListDecayCandidates(dbc dbctx.Context, articleCutoff, decayCutoff time.Time, limit int) ([]*types.Source, error)
	ApplyDecay(dbc dbctx.Context, id uuid.UUID, score float64, at time.Time) error
}

type sourceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSourceRepo(db *gorm.DB, baseLog *logger.Logger) SourceRepo {
	return &sourceRepo{
		db:  db,
		log: baseLog.With("repo", "SourceRepo"),
	}
}

func (r *sourceRepo) Create(dbc dbctx.Context, rows []*types.Source) error {
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

func (r *sourceRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Source, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Source
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
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

// LockByID takes FOR UPDATE on the source row; only meaningful inside a
// transaction.
func (r *sourceRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Source, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Source
	err := transaction.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
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

func (r *sourceRepo) UpdateScore(dbc dbctx.Context, id uuid.UUID, score float64) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Source{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"reliability_score": score,
			"updated_at":        time.Now().UTC(),
		}).Error
}

func (r *sourceRepo) TouchLastArticle(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Source{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_article_at": at.UTC(),
			"updated_at":      time.Now().UTC(),
		}).Error
}

// ListDecayCandidates returns sources whose newest content predates
// articleCutoff and whose last decay predates decayCutoff (or never ran).
// Sources with no recorded content are skipped; there is nothing to go
// stale from.
func (r *sourceRepo) ListDecayCandidates(dbc dbctx.Context, articleCutoff, decayCutoff time.Time, limit int) ([]*types.Source, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*types.Source{}
	q := transaction.WithContext(dbc.Ctx).
		Where("last_article_at IS NOT NULL AND last_article_at < ?", articleCutoff.UTC()).
		Where("decay_applied_at IS NULL OR decay_applied_at < ?", decayCutoff.UTC()).
		Order("last_article_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sourceRepo) ApplyDecay(dbc dbctx.Context, id uuid.UUID, score float64, at time.Time) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Source{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"reliability_score": score,
			"decay_applied_at":  at.UTC(),
			"updated_at":        time.Now().UTC(),
		}).Error
}
