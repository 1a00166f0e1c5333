package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ApplicationPending   = "pending"
	ApplicationAccepted  = "accepted"
	ApplicationRejected  = "rejected"
	ApplicationCancelled = "cancelled"
)

// Application is a guest's formal request to be selected for a listing.
// The partial unique index enforces at most one accepted application per
// listing at the storage level, so a racing double-select fails loudly
// instead of silently breaking the invariant.
type Application struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ListingID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_applications_one_accepted,unique,where:status = 'accepted'" json:"listing_id"`
	GuestID   uuid.UUID `gorm:"type:uuid;not null;index" json:"guest_id"`

	Status  string `gorm:"type:text;not null;default:'pending';index" json:"status"`
	Message string `gorm:"type:text" json:"message"`

	SelectedAt *time.Time `json:"selected_at"`

	// Two-phase notify flag: rejected applicants are notified once, then the
	// flag flips, so a retried selection does not re-notify.
	RejectionNotified bool `gorm:"not null;default:false" json:"rejection_notified"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Listing *Listing `gorm:"foreignKey:ListingID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
	Guest   *User    `gorm:"foreignKey:GuestID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
}

func (Application) TableName() string { return "applications" }
