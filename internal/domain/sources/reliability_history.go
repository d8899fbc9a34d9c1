package sources

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ChangeReasonUserRating     = "user_rating"
	ChangeReasonCrossReference = "cross_reference"
	ChangeReasonDecay          = "decay"
)

// ReliabilityHistory is the append-only ledger of reliability score changes.
// Metadata snapshots the aggregate inputs at the time of the change so a
// given step can be audited later.
type ReliabilityHistory struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SourceID uuid.UUID `gorm:"type:uuid;not null;index:idx_reliability_history_source_changed" json:"source_id"`
	Source   *Source   `gorm:"constraint:OnDelete:CASCADE;foreignKey:SourceID;references:ID" json:"source,omitempty"`

	OldScore     float64        `gorm:"column:old_score;not null" json:"old_score"`
	NewScore     float64        `gorm:"column:new_score;not null" json:"new_score"`
	ChangeReason string         `gorm:"column:change_reason;not null;index" json:"change_reason"`
	Metadata     datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata,omitempty"`

	ChangedAt time.Time `gorm:"column:changed_at;not null;default:now();index:idx_reliability_history_source_changed" json:"changed_at"`
}

func (ReliabilityHistory) TableName() string { return "reliability_history" }
