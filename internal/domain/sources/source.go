package sources

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Source is an intelligence source tracked by the engine. ReliabilityScore
// lives on [0,100] and starts at 50 for an unknown source. LastArticleAt is
// bumped whenever the ingestion side observes new content; DecayAppliedAt
// marks the most recent staleness penalty so decay runs stay weekly.
type Source struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name     string    `gorm:"column:name;not null;index" json:"name"`
	URL      string    `gorm:"column:url" json:"url"`
	Category string    `gorm:"column:category;index" json:"category"`

	ReliabilityScore float64    `gorm:"column:reliability_score;not null;default:50" json:"reliability_score"`
	LastArticleAt    *time.Time `gorm:"column:last_article_at;index" json:"last_article_at,omitempty"`
	DecayAppliedAt   *time.Time `gorm:"column:decay_applied_at" json:"decay_applied_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Source) TableName() string { return "source" }
