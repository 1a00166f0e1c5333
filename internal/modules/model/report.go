package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReportKindUser = "user_report"
	ReportKindBug  = "bug"
)

const (
	ReportOpen     = "open"
	ReportResolved = "resolved"
)

// Report covers both user reports and bug tickets, distinguished by kind.
type Report struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReporterID uuid.UUID `gorm:"type:uuid;not null;index" json:"reporter_id"`

	Kind string `gorm:"type:text;not null;default:'user_report'" json:"kind"`
	Body string `gorm:"type:text;not null" json:"body"`

	TargetUserID    *uuid.UUID `gorm:"type:uuid;index" json:"target_user_id"`
	TargetListingID *uuid.UUID `gorm:"type:uuid;index" json:"target_listing_id"`

	Status     string     `gorm:"type:text;not null;default:'open';index" json:"status"`
	ResolvedBy *uuid.UUID `gorm:"type:uuid" json:"resolved_by"`
	ResolvedAt *time.Time `json:"resolved_at"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	Reporter *User `gorm:"foreignKey:ReporterID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
}

func (Report) TableName() string { return "reports" }
