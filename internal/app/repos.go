package app

import (
	"gorm.io/gorm"

	"github.com/VitalPointAI/argus-sub001/internal/data/repos"
	"github.com/VitalPointAI/argus-sub001/internal/platform/logger"
)

type Repos struct {
	Users        repos.UserRepo
	Sources      repos.SourceRepo
	Ratings      repos.SourceRatingRepo
	RatingLimits repos.RatingLimitRepo
	Anomalies    repos.RatingAnomalyRepo
	CrossRefs    repos.CrossReferenceRepo
	History      repos.ReliabilityHistoryRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Users:        repos.NewUserRepo(db, log),
		Sources:      repos.NewSourceRepo(db, log),
		Ratings:      repos.NewSourceRatingRepo(db, log),
		RatingLimits: repos.NewRatingLimitRepo(db, log),
		Anomalies:    repos.NewRatingAnomalyRepo(db, log),
		CrossRefs:    repos.NewCrossReferenceRepo(db, log),
		History:      repos.NewReliabilityHistoryRepo(db, log),
	}
}
