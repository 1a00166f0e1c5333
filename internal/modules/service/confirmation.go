package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/seatmate-io/seatmate/internal/config"
	"github.com/seatmate-io/seatmate/internal/modules/model"
	"github.com/seatmate-io/seatmate/internal/modules/repo"
	"github.com/seatmate-io/seatmate/internal/telemetry"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// confirmDeadline is the advisory window both parties get to confirm the
// handoff, counted from the match. Nothing expires when it passes; clients
// render the remaining days.
const confirmDeadline = 7 * 24 * time.Hour

const (
	ConfirmActionConfirm = "confirm"
	ConfirmActionCancel  = "cancel"
)

type ConfirmationService interface {
	// Confirm stamps or clears the actor's confirmation on the conversation's
	// transaction. The first call that leaves both stamps set completes the
	// transaction exactly once.
	Confirm(ctx context.Context, actorID, conversationID uuid.UUID, action string) (*ConfirmOutput, error)
	// Status returns the confirmation view for a party of the conversation.
	Status(ctx context.Context, actorID, conversationID uuid.UUID) (*ConfirmOutput, error)
	ListCompletedForUser(ctx context.Context, userID uuid.UUID) ([]model.TransactionConfirmation, error)
}

type confirmationService struct {
	conversations repo.ConversationRepo
	confirmations repo.ConfirmationRepo
	publisher     EventPublisher
	cfg           *config.Config
	log           *zap.Logger
}

func NewConfirmationService(
	conversations repo.ConversationRepo,
	confirmations repo.ConfirmationRepo,
	publisher EventPublisher,
	cfg *config.Config,
	log *zap.Logger,
) ConfirmationService {
	return &confirmationService{
		conversations: conversations,
		confirmations: confirmations,
		publisher:     publisher,
		cfg:           cfg,
		log:           log,
	}
}

type ConfirmOutput struct {
	HostConfirmedAt  *time.Time `json:"host_confirmed_at"`
	GuestConfirmedAt *time.Time `json:"guest_confirmed_at"`
	BothConfirmed    bool       `json:"both_confirmed"`
	Completed        bool       `json:"completed"`
	DaysRemaining    int        `json:"days_remaining"`
}

func confirmOutput(t *model.TransactionConfirmation, now time.Time) *ConfirmOutput {
	out := &ConfirmOutput{
		HostConfirmedAt:  t.HostConfirmedAt,
		GuestConfirmedAt: t.GuestConfirmedAt,
		BothConfirmed:    t.BothConfirmed(),
		Completed:        t.CompletedAt != nil,
	}
	if remaining := t.DeadlineAt.Sub(now); remaining > 0 {
		out.DaysRemaining = int(remaining.Hours() / 24)
	}
	return out
}

func (s *confirmationService) Confirm(ctx context.Context, actorID, conversationID uuid.UUID, action string) (*ConfirmOutput, error) {
	if action != ConfirmActionConfirm && action != ConfirmActionCancel {
		return nil, fmt.Errorf("unsupported confirm action %q", action)
	}

	t, conv, err := s.resolve(ctx, actorID, conversationID)
	if err != nil {
		return nil, err
	}
	if t.CompletedAt != nil {
		return nil, ErrAlreadyCompleted
	}

	column := repo.ColGuestConfirmedAt
	if actorID == conv.HostID {
		column = repo.ColHostConfirmedAt
	}

	now := time.Now()
	var stamp *time.Time
	if action == ConfirmActionConfirm {
		stamp = &now
	}
	rows, err := s.confirmations.SetConfirmedAt(ctx, t.ID, column, stamp)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// Completion landed between our read and write.
		return nil, ErrAlreadyCompleted
	}

	// Single conditional write decides completion; at most one of two racing
	// confirmers gets rows=1 here.
	completedRows, err := s.confirmations.CompleteIfBothConfirmed(ctx, t.ID, now)
	if err != nil {
		return nil, err
	}
	if completedRows == 1 {
		for _, userID := range []uuid.UUID{conv.HostID, conv.GuestID} {
			emitEvent(ctx, s.publisher, s.cfg, s.log, NotificationEvent{
				Type:      EventTransactionCompleted,
				UserID:    userID,
				ActorID:   actorID,
				ListingID: conv.ListingID,
				Payload:   map[string]interface{}{"conversation_id": conv.ID},
			})
		}
		telemetry.RecordCompletion(ctx)
	}

	fresh, err := s.confirmations.GetByID(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	return confirmOutput(fresh, now), nil
}

func (s *confirmationService) Status(ctx context.Context, actorID, conversationID uuid.UUID) (*ConfirmOutput, error) {
	t, _, err := s.resolve(ctx, actorID, conversationID)
	if err != nil {
		return nil, err
	}
	return confirmOutput(t, time.Now()), nil
}

func (s *confirmationService) ListCompletedForUser(ctx context.Context, userID uuid.UUID) ([]model.TransactionConfirmation, error) {
	return s.confirmations.ListCompletedForUser(ctx, userID)
}

// resolve loads the conversation, checks the actor is a party, and lazily
// creates the confirmation row for matched conversations predating it.
func (s *confirmationService) resolve(ctx context.Context, actorID, conversationID uuid.UUID) (*model.TransactionConfirmation, *model.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, nil, wrapNotFound(err)
	}
	if conv.HostID != actorID && conv.GuestID != actorID {
		return nil, nil, ErrForbidden
	}
	if conv.Type != model.ConversationMatched {
		return nil, nil, &InvalidStateError{Entity: "conversation", Current: conv.Type}
	}

	t, err := s.confirmations.GetByConversation(ctx, conversationID)
	if err == nil {
		return t, conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	matchedAt := time.Now()
	if conv.MatchedAt != nil {
		matchedAt = *conv.MatchedAt
	}
	t = &model.TransactionConfirmation{
		ConversationID: conv.ID,
		ListingID:      conv.ListingID,
		HostID:         conv.HostID,
		GuestID:        conv.GuestID,
		DeadlineAt:     matchedAt.Add(confirmDeadline),
	}
	if err := s.confirmations.Create(ctx, t); err != nil {
		return nil, nil, err
	}
	return t, conv, nil
}
