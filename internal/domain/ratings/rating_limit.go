package ratings

import (
	"time"

	"github.com/google/uuid"
	"github.com/VitalPointAI/argus-sub001/internal/domain/user"
)

// DayFormat keys RatingLimit rows. Days roll over at midnight UTC.
const DayFormat = "2006-01-02"

// RatingLimit counts first-time ratings per analyst per UTC day. Resubmitted
// ratings do not touch it.
type RatingLimit struct {
	ID     uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_rating_limit_user_day" json:"user_id"`
	User   *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Day    string     `gorm:"column:day;not null;uniqueIndex:idx_rating_limit_user_day" json:"day"`
	Count  int        `gorm:"column:count;not null;default:0" json:"count"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (RatingLimit) TableName() string { return "rating_limit" }
