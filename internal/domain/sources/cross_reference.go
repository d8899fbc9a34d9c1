package sources

import (
	"time"

	"github.com/google/uuid"
)

// CrossReferenceResult records one fact-check outcome for a claim published
// by a source. Rows are append-only; the accuracy component of the
// reliability score is an aggregate over them.
type CrossReferenceResult struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SourceID uuid.UUID `gorm:"type:uuid;not null;index" json:"source_id"`
	Source   *Source   `gorm:"constraint:OnDelete:CASCADE;foreignKey:SourceID;references:ID" json:"source,omitempty"`

	ContentID uuid.UUID  `gorm:"type:uuid;not null;index" json:"content_id"`
	ClaimID   *uuid.UUID `gorm:"type:uuid;index" json:"claim_id,omitempty"`

	WasAccurate        bool    `gorm:"column:was_accurate;not null" json:"was_accurate"`
	VerificationSource string  `gorm:"column:verification_source;not null" json:"verification_source"`
	Confidence         float64 `gorm:"column:confidence;not null;default:0" json:"confidence"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (CrossReferenceResult) TableName() string { return "cross_reference_result" }
