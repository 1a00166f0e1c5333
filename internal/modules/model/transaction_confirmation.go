package model

import (
	"time"

	"github.com/google/uuid"
)

// TransactionConfirmation is the post-match two-party acknowledgment that the
// ticket handoff occurred. completed_at is set exactly once, the first time
// both confirmation stamps are non-null, and is never unset afterwards.
type TransactionConfirmation struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"conversation_id"`
	ListingID      uuid.UUID `gorm:"type:uuid;not null;index" json:"listing_id"`
	HostID         uuid.UUID `gorm:"type:uuid;not null;index" json:"host_id"`
	GuestID        uuid.UUID `gorm:"type:uuid;not null;index" json:"guest_id"`

	HostConfirmedAt  *time.Time `json:"host_confirmed_at"`
	GuestConfirmedAt *time.Time `json:"guest_confirmed_at"`

	// Advisory: surfaced to clients as "days remaining". Nothing expires or
	// reopens a listing when it passes.
	DeadlineAt time.Time `gorm:"not null" json:"deadline_at"`

	CompletedAt *time.Time `json:"completed_at"`

	// TODO: wire the deadline-expiry job that sets this; no job writes it yet.
	AutoCompleted bool `gorm:"not null;default:false" json:"auto_completed"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Conversation *Conversation `gorm:"foreignKey:ConversationID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
}

func (TransactionConfirmation) TableName() string { return "transaction_confirmations" }

// BothConfirmed reports whether both parties currently hold a confirmation
// stamp. Completion additionally requires the one-shot completed_at write.
func (t *TransactionConfirmation) BothConfirmed() bool {
	return t.HostConfirmedAt != nil && t.GuestConfirmedAt != nil
}
