package model

import (
	"time"

	"github.com/google/uuid"
)

// BlacklistEntry blocks a user from inquiring and applying. Admin-managed.
type BlacklistEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Reason    string    `gorm:"type:text" json:"reason"`
	CreatedBy uuid.UUID `gorm:"type:uuid;not null" json:"created_by"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
}

func (BlacklistEntry) TableName() string { return "blacklist_entries" }
