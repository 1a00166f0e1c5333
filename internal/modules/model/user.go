package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser       = "user"
	RoleSubAdmin   = "sub_admin"
	RoleSuperAdmin = "super_admin"
)

const (
	VerificationUnverified = "unverified"
	VerificationApplicant  = "applicant"
	VerificationHost       = "host"
)

type User struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email       string    `gorm:"type:text;not null;uniqueIndex" json:"email"`
	DisplayName string    `gorm:"type:text;not null" json:"display_name"`
	PasswordPHC string    `gorm:"type:text;not null" json:"-"`

	Role              string `gorm:"type:text;not null;default:'user'" json:"role"`
	VerificationLevel string `gorm:"type:text;not null;default:'unverified'" json:"verification_level"`
	Suspended         bool   `gorm:"not null;default:false" json:"suspended"`

	// Aggregate over reviews received, recomputed on every review insert.
	Rating      float64 `gorm:"type:numeric(2,1);not null;default:0" json:"rating"`
	ReviewCount int     `gorm:"not null;default:0" json:"review_count"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	// User <-> Listing
	Listings []Listing `gorm:"foreignKey:HostID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`

	// User <-> Application
	Applications []Application `gorm:"foreignKey:GuestID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`

	// User <-> Notification
	Notifications []Notification `gorm:"constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
}

func (User) TableName() string { return "users" }

// VerificationRank orders verification levels so handlers can gate actions
// with a simple comparison.
func VerificationRank(level string) int {
	switch level {
	case VerificationApplicant:
		return 1
	case VerificationHost:
		return 2
	default:
		return 0
	}
}

// AdminRank orders roles for admin gates. Regular users rank 0.
func AdminRank(role string) int {
	switch role {
	case RoleSubAdmin:
		return 1
	case RoleSuperAdmin:
		return 2
	default:
		return 0
	}
}
