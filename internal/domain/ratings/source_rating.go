package ratings

import (
	"time"

	"github.com/google/uuid"
	"github.com/VitalPointAI/argus-sub001/internal/domain/sources"
	"github.com/VitalPointAI/argus-sub001/internal/domain/user"
)

const (
	RatingMin = 1
	RatingMax = 5
)

// SourceRating is one analyst's current rating of a source. The
// (source_id, user_id) pair is unique: resubmitting overwrites in place
// rather than stacking rows, which is what keeps a single analyst from
// multiplying their influence on a score. Weight is the analyst's trust
// score frozen at submission time.
type SourceRating struct {
	ID       uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SourceID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_source_rating_source_user;index" json:"source_id"`
	Source   *sources.Source `gorm:"constraint:OnDelete:CASCADE;foreignKey:SourceID;references:ID" json:"source,omitempty"`
	UserID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_source_rating_source_user" json:"user_id"`
	User     *user.User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	Rating  int     `gorm:"column:rating;not null" json:"rating"`
	Weight  float64 `gorm:"column:weight;not null;default:1" json:"weight"`
	Comment string  `gorm:"column:comment" json:"comment,omitempty"`

	IsFlagged  bool   `gorm:"column:is_flagged;not null;default:false;index" json:"is_flagged"`
	FlagReason string `gorm:"column:flag_reason" json:"flag_reason,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (SourceRating) TableName() string { return "source_rating" }
