package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/seatmate-io/seatmate/internal/config"
	"github.com/seatmate-io/seatmate/internal/modules/model"
	"github.com/seatmate-io/seatmate/internal/modules/repo"
	"github.com/seatmate-io/seatmate/internal/telemetry"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SelectionService interface {
	// Select accepts one pending application and settles the whole listing:
	// competitors rejected, conversation matched, confirmation seeded, listing
	// moved to matched. Each step is independently retriable.
	Select(ctx context.Context, hostID uuid.UUID, in SelectInput) (*SelectOutput, error)
}

type selectionService struct {
	listings      repo.ListingRepo
	apps          repo.ApplicationRepo
	conversations repo.ConversationRepo
	confirmations repo.ConfirmationRepo
	publisher     EventPublisher
	cfg           *config.Config
	log           *zap.Logger
}

func NewSelectionService(
	listings repo.ListingRepo,
	apps repo.ApplicationRepo,
	conversations repo.ConversationRepo,
	confirmations repo.ConfirmationRepo,
	publisher EventPublisher,
	cfg *config.Config,
	log *zap.Logger,
) SelectionService {
	return &selectionService{
		listings:      listings,
		apps:          apps,
		conversations: conversations,
		confirmations: confirmations,
		publisher:     publisher,
		cfg:           cfg,
		log:           log,
	}
}

type SelectInput struct {
	ListingID     uuid.UUID `json:"listing_id"`
	ApplicationID uuid.UUID `json:"application_id"`
}

type SelectOutput struct {
	ConversationID uuid.UUID `json:"conversation_id"`
}

func (s *selectionService) Select(ctx context.Context, hostID uuid.UUID, in SelectInput) (*SelectOutput, error) {
	listing, err := s.listings.GetByID(ctx, in.ListingID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	if listing.HostID != hostID {
		return nil, ErrForbidden
	}

	accepted, err := s.apps.HasAccepted(ctx, in.ListingID)
	if err != nil {
		return nil, err
	}
	if accepted {
		return nil, ErrAlreadySelected
	}

	target, err := s.apps.GetByID(ctx, in.ApplicationID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	if target.ListingID != in.ListingID {
		return nil, ErrNotFound
	}
	if target.Status != model.ApplicationPending {
		return nil, &InvalidStateError{Entity: "application", Current: target.Status}
	}

	now := time.Now()

	// 1. Accept the target. The partial unique index on accepted applications
	// makes a racing double-select fail here instead of corrupting state.
	rows, err := s.apps.MarkAccepted(ctx, in.ApplicationID, now)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		if cur, gerr := s.apps.GetByID(ctx, in.ApplicationID); gerr == nil {
			return nil, &InvalidStateError{Entity: "application", Current: cur.Status}
		}
		return nil, &InvalidStateError{Entity: "application", Current: target.Status}
	}

	// 2. Reject the rest, notify flag down for the two-phase notify below.
	if err := s.apps.RejectOtherPending(ctx, in.ListingID, in.ApplicationID); err != nil {
		return nil, err
	}

	// 3. Upsert the winner's matched conversation.
	conv, err := s.conversations.UpsertMatched(ctx, in.ListingID, listing.HostID, target.GuestID, now)
	if err != nil {
		return nil, err
	}

	// 4. Seed the confirmation. A retry finding it already there is fine.
	if err := s.ensureConfirmation(ctx, conv, now); err != nil {
		return nil, err
	}

	// 5. Listing leaves the market.
	if err := s.listings.SetStatus(ctx, in.ListingID, model.ListingMatched); err != nil {
		return nil, err
	}

	// 6. Tell the winner.
	emitEvent(ctx, s.publisher, s.cfg, s.log, NotificationEvent{
		Type:      EventApplicationAccepted,
		UserID:    target.GuestID,
		ActorID:   hostID,
		ListingID: in.ListingID,
		Payload:   map[string]interface{}{"application_id": target.ID, "conversation_id": conv.ID},
	})

	// 7. Tell each loser once: emit, then flip the flag, so a retried
	// invocation skips already-notified rows.
	rejected, err := s.apps.ListRejectedUnnotified(ctx, in.ListingID)
	if err != nil {
		return nil, err
	}
	for _, a := range rejected {
		emitEvent(ctx, s.publisher, s.cfg, s.log, NotificationEvent{
			Type:      EventApplicationRejected,
			UserID:    a.GuestID,
			ActorID:   hostID,
			ListingID: in.ListingID,
			Payload:   map[string]interface{}{"application_id": a.ID},
		})
		if err := s.apps.MarkRejectionNotified(ctx, a.ID); err != nil {
			return nil, err
		}
	}

	telemetry.RecordMatch(ctx, "select")
	return &SelectOutput{ConversationID: conv.ID}, nil
}

func (s *selectionService) ensureConfirmation(ctx context.Context, conv *model.Conversation, matchedAt time.Time) error {
	_, err := s.confirmations.GetByConversation(ctx, conv.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.confirmations.Create(ctx, &model.TransactionConfirmation{
		ConversationID: conv.ID,
		ListingID:      conv.ListingID,
		HostID:         conv.HostID,
		GuestID:        conv.GuestID,
		DeadlineAt:     matchedAt.Add(confirmDeadline),
	})
}
