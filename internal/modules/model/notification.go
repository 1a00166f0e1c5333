package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Notification is a delivered row the client polls for. Rows are written by
// the notification emitter consuming domain events off the queue, never
// directly by core request handlers.
type Notification struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Type    string            `gorm:"type:text;not null" json:"type"`
	Payload datatypes.JSONMap `gorm:"type:jsonb" json:"payload"`

	Read   bool       `gorm:"not null;default:false" json:"read"`
	ReadAt *time.Time `json:"read_at"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
}

func (Notification) TableName() string { return "notifications" }
