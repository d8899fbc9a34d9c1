package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an analyst account as the reputation engine sees it. Trust fields
// track how often the analyst's ratings agreed with later verification, and
// TrustScore is the weight their future ratings carry.
type User struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Handle      string    `gorm:"uniqueIndex;not null;column:handle" json:"handle"`
	DisplayName string    `gorm:"column:display_name" json:"display_name"`

	TrustScore        float64 `gorm:"column:trust_score;not null;default:1.0" json:"trust_score"`
	TotalRatingsGiven int     `gorm:"column:total_ratings_given;not null;default:0" json:"total_ratings_given"`
	AccurateRatings   int     `gorm:"column:accurate_ratings;not null;default:0" json:"accurate_ratings"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }
