package repos

import (
	"github.com/VitalPointAI/argus-sub001/internal/data/repos/ratings"
	"github.com/VitalPointAI/argus-sub001/internal/data/repos/sources"
	"github.com/VitalPointAI/argus-sub001/internal/data/repos/users"
	"github.com/VitalPointAI/argus-sub001/internal/platform/logger"
	"gorm.io/gorm"
)

type UserRepo = users.UserRepo

type SourceRepo = sources.SourceRepo
type CrossReferenceRepo = sources.CrossReferenceRepo
type ReliabilityHistoryRepo = sources.ReliabilityHistoryRepo

type SourceRatingRepo = ratings.SourceRatingRepo
type RatingLimitRepo = ratings.RatingLimitRepo
type RatingAnomalyRepo = ratings.RatingAnomalyRepo

type AccuracySummary = sources.AccuracySummary
type WeightedAggregate = ratings.WeightedAggregate
type RatingStats = ratings.RatingStats

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return users.NewUserRepo(db, baseLog)
}

func NewSourceRepo(db *gorm.DB, baseLog *logger.Logger) SourceRepo {
	return sources.NewSourceRepo(db, baseLog)
}
func NewCrossReferenceRepo(db *gorm.DB, baseLog *logger.Logger) CrossReferenceRepo {
	return sources.NewCrossReferenceRepo(db, baseLog)
}
func NewReliabilityHistoryRepo(db *gorm.DB, baseLog *logger.Logger) ReliabilityHistoryRepo {
	return sources.NewReliabilityHistoryRepo(db, baseLog)
}

func NewSourceRatingRepo(db *gorm.DB, baseLog *logger.Logger) SourceRatingRepo {
	return ratings.NewSourceRatingRepo(db, baseLog)
}
func NewRatingLimitRepo(db *gorm.DB, baseLog *logger.Logger) RatingLimitRepo {
	return ratings.NewRatingLimitRepo(db, baseLog)
}
func NewRatingAnomalyRepo(db *gorm.DB, baseLog *logger.Logger) RatingAnomalyRepo {
	return ratings.NewRatingAnomalyRepo(db, baseLog)
}
