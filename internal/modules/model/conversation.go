package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ConversationInquiry = "inquiry"
	ConversationPending = "pending"
	ConversationMatched = "matched"
)

// Conversation is the matching-state container between a host and one guest
// for one listing. Type advances monotonically inquiry -> pending -> matched.
// At most one conversation exists per (listing, guest).
type Conversation struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ListingID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversations_listing_guest,priority:1" json:"listing_id"`
	HostID    uuid.UUID `gorm:"type:uuid;not null;index" json:"host_id"`
	GuestID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_conversations_listing_guest,priority:2" json:"guest_id"`

	Type string `gorm:"column:conversation_type;type:text;not null;default:'inquiry'" json:"conversation_type"`

	InquiryStartedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"inquiry_started_at"`
	AppliedAt        *time.Time `json:"applied_at"`
	MatchedAt        *time.Time `json:"matched_at"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Listing *Listing `gorm:"foreignKey:ListingID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
	Host    *User    `gorm:"foreignKey:HostID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
	Guest   *User    `gorm:"foreignKey:GuestID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`

	// Conversation <-> TransactionConfirmation
	Confirmation *TransactionConfirmation `gorm:"constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
}

func (Conversation) TableName() string { return "conversations" }
