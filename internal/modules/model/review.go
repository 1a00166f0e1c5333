package model

import (
	"time"

	"github.com/google/uuid"
)

// Review is one party's rating of the other for a completed listing
// transaction. The composite unique index enforces at most one review per
// (listing, reviewer, reviewee); the service still checks before writing so
// duplicates surface as a domain error.
type Review struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ListingID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_listing_pair,priority:1" json:"listing_id"`
	ReviewerID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_reviews_listing_pair,priority:2" json:"reviewer_id"`
	RevieweeID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_reviews_listing_pair,priority:3" json:"reviewee_id"`

	Rating  int     `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment *string `gorm:"type:text" json:"comment"`
	IsAuto  bool    `gorm:"not null;default:false" json:"is_auto"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	Listing  *Listing `gorm:"foreignKey:ListingID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
	Reviewer *User    `gorm:"foreignKey:ReviewerID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
	Reviewee *User    `gorm:"foreignKey:RevieweeID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
}

func (Review) TableName() string { return "reviews" }
