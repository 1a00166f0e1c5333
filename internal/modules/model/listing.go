package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ListingOpen    = "open"
	ListingMatched = "matched"
	ListingClosed  = "closed"
)

// Listing is a host's offer of a ticket/slot for companionship at an event.
// available_slots is 0 exactly when status has left "open".
type Listing struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	HostID uuid.UUID `gorm:"type:uuid;not null;index" json:"host_id"`

	Title        string    `gorm:"type:text;not null" json:"title"`
	EventName    string    `gorm:"type:text;not null" json:"event_name"`
	EventStartsAt time.Time `gorm:"not null" json:"event_starts_at"`
	Venue        string    `gorm:"type:text" json:"venue"`

	Status         string `gorm:"type:text;not null;default:'open';index" json:"status"`
	TotalSlots     int    `gorm:"not null;default:1" json:"total_slots"`
	AvailableSlots int    `gorm:"not null;default:1" json:"available_slots"`
	InquiryCount   int    `gorm:"not null;default:0" json:"inquiry_count"`

	Details datatypes.JSONMap `gorm:"type:jsonb" json:"details"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Host *User `gorm:"foreignKey:HostID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`

	// Listing <-> Application
	Applications []Application `gorm:"constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`

	// Listing <-> Conversation
	Conversations []Conversation `gorm:"constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
}

func (Listing) TableName() string { return "listings" }
