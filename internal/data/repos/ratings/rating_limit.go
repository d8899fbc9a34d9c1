package ratings

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/VitalPointAI/argus-sub001/internal/domain"
	"github.com/VitalPointAI/argus-sub001/internal/platform/dbctx"
	"github.com/VitalPointAI/argus-sub001/internal/platform/logger"
)

type RatingLimitRepo interface {
	IncrementDay(dbc dbctx.Context, userID uuid.UUID, day string) error
	CountForDay(dbc dbctx.Context, userID uuid.UUID, day string) (int, error)
}

type ratingLimitRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRatingLimitRepo(db *gorm.DB, baseLog *logger.Logger) RatingLimitRepo {
	return &ratingLimitRepo{
		db:  db,
		log: baseLog.With("repo", "RatingLimitRepo"),
	}
}

// IncrementDay bumps the analyst's counter for the given UTC day, creating
// the row on first use. The upsert keeps concurrent submissions from losing
// increments.
func (r *ratingLimitRepo) IncrementDay(dbc dbctx.Context, userID uuid.UUID, day string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || day == "" {
		return nil
	}
	now := time.Now().UTC()
	row := &types.RatingLimit{
		ID:        uuid.New(),
		UserID:    userID,
		Day:       day,
		Count:     1,
		UpdatedAt: now,
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "day"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"count":      gorm.Expr("rating_limit.count + 1"),
				"updated_at": now,
			}),
		}).
		Create(row).Error
}

func (r *ratingLimitRepo) CountForDay(dbc dbctx.Context, userID uuid.UUID, day string) (int, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || day == "" {
		return 0, nil
	}
	var row types.RatingLimit
	err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND day = ?", userID, day).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return 0, err
	}
	if row.ID == uuid.Nil {
		return 0, nil
	}
	return row.Count, nil
}
