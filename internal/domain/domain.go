package domain

import (
	"github.com/VitalPointAI/argus-sub001/internal/domain/ratings"
	"github.com/VitalPointAI/argus-sub001/internal/domain/sources"
	"github.com/VitalPointAI/argus-sub001/internal/domain/user"
)

const (
	ChangeReasonUserRating     = sources.ChangeReasonUserRating
	ChangeReasonCrossReference = sources.ChangeReasonCrossReference
	ChangeReasonDecay          = sources.ChangeReasonDecay

	AnomalyTypeSpike       = ratings.AnomalyTypeSpike
	AnomalyTypeCoordinated = ratings.AnomalyTypeCoordinated

	RatingMin = ratings.RatingMin
	RatingMax = ratings.RatingMax

	DayFormat = ratings.DayFormat
)

type User = user.User
type Source = sources.Source
type CrossReferenceResult = sources.CrossReferenceResult
type ReliabilityHistory = sources.ReliabilityHistory
type SourceRating = ratings.SourceRating
type RatingLimit = ratings.RatingLimit
type RatingAnomaly = ratings.RatingAnomaly

// AllModels feeds AutoMigrate. Order matters: referenced tables first.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Source{},
		&SourceRating{},
		&RatingLimit{},
		&CrossReferenceResult{},
		&ReliabilityHistory{},
		&RatingAnomaly{},
	}
}
