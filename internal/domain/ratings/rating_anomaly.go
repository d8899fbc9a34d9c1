package ratings

import (
	"time"

	"github.com/google/uuid"
	"github.com/VitalPointAI/argus-sub001/internal/domain/sources"
	"gorm.io/datatypes"
)

const (
	AnomalyTypeSpike       = "spike"
	AnomalyTypeCoordinated = "coordinated"
)

// RatingAnomaly records one detection over a source's recent rating window.
// AffectedRatingIDs holds the ids flagged by the detection (empty for a
// plain volume spike); Details keeps the histogram and thresholds that
// triggered it.
type RatingAnomaly struct {
	ID       uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SourceID uuid.UUID       `gorm:"type:uuid;not null;index" json:"source_id"`
	Source   *sources.Source `gorm:"constraint:OnDelete:CASCADE;foreignKey:SourceID;references:ID" json:"source,omitempty"`

	AnomalyType       string         `gorm:"column:anomaly_type;not null;index" json:"anomaly_type"`
	AffectedRatingIDs datatypes.JSON `gorm:"type:jsonb;column:affected_rating_ids" json:"affected_rating_ids,omitempty"`
	Details           datatypes.JSON `gorm:"type:jsonb;column:details" json:"details,omitempty"`

	DetectedAt time.Time `gorm:"column:detected_at;not null;default:now();index" json:"detected_at"`
}

func (RatingAnomaly) TableName() string { return "rating_anomaly" }
