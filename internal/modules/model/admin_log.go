package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AdminLog records every admin mutation for the console audit trail.
type AdminLog struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AdminID uuid.UUID `gorm:"type:uuid;not null;index" json:"admin_id"`

	Action string            `gorm:"type:text;not null" json:"action"`
	Target string            `gorm:"type:text" json:"target"`
	Detail datatypes.JSONMap `gorm:"type:jsonb" json:"detail"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	Admin *User `gorm:"foreignKey:AdminID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
}

func (AdminLog) TableName() string { return "admin_logs" }
