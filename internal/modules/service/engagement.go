package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/seatmate-io/seatmate/internal/config"
	"github.com/seatmate-io/seatmate/internal/modules/model"
	"github.com/seatmate-io/seatmate/internal/modules/repo"
	"github.com/seatmate-io/seatmate/internal/pkg/paging"
	"github.com/seatmate-io/seatmate/internal/telemetry"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// inquireDebounceTTL caps how often one guest can bump a listing's inquiry
// counter. The conversation itself stays idempotent regardless.
const inquireDebounceTTL = time.Minute

type EngagementService interface {
	// Inquire opens (or returns) the guest's conversation on a listing.
	Inquire(ctx context.Context, in InquireInput) (*InquireOutput, error)
	// Apply advances the guest's conversation inquiry -> pending and records
	// an application row for the selection flow.
	Apply(ctx context.Context, guest *model.User, conversationID uuid.UUID, message string) (*model.Conversation, error)
	// Accept is the host's conversation-direct match path. No application
	// bookkeeping happens here.
	Accept(ctx context.Context, hostID, conversationID uuid.UUID) (*model.Conversation, error)
	// CancelApplication withdraws the guest's own pending application.
	CancelApplication(ctx context.Context, guestID, applicationID uuid.UUID) error
	// UpdateApplicationStatus is the PATCH path: host sets accepted/rejected,
	// guest sets cancelled. Accept creates the conversation when missing.
	UpdateApplicationStatus(ctx context.Context, actor *model.User, applicationID uuid.UUID, status string) (*model.Application, error)
	ListConversations(ctx context.Context, in ListConversationsInput) (*ListConversationsOutput, error)
	ListApplications(ctx context.Context, userID, listingID uuid.UUID, status string) ([]model.Application, error)
	GetConversation(ctx context.Context, userID, conversationID uuid.UUID) (*model.Conversation, error)
}

type engagementService struct {
	listings      repo.ListingRepo
	conversations repo.ConversationRepo
	apps          repo.ApplicationRepo
	confirmations repo.ConfirmationRepo
	blacklist     repo.BlacklistRepo
	rdb           *redis.Client
	publisher     EventPublisher
	cfg           *config.Config
	log           *zap.Logger
}

func NewEngagementService(
	listings repo.ListingRepo,
	conversations repo.ConversationRepo,
	apps repo.ApplicationRepo,
	confirmations repo.ConfirmationRepo,
	blacklist repo.BlacklistRepo,
	rdb *redis.Client,
	publisher EventPublisher,
	cfg *config.Config,
	log *zap.Logger,
) EngagementService {
	return &engagementService{
		listings:      listings,
		conversations: conversations,
		apps:          apps,
		confirmations: confirmations,
		blacklist:     blacklist,
		rdb:           rdb,
		publisher:     publisher,
		cfg:           cfg,
		log:           log,
	}
}

type InquireInput struct {
	GuestID   uuid.UUID `json:"guest_id"`
	ListingID uuid.UUID `json:"listing_id"`
	Message   string    `json:"message"`
}

type InquireOutput struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Exists         bool      `json:"exists"`
	Type           string    `json:"conversation_type"`
}

func (s *engagementService) Inquire(ctx context.Context, in InquireInput) (*InquireOutput, error) {
	listing, err := s.listings.GetByID(ctx, in.ListingID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	if listing.HostID == in.GuestID {
		return nil, ErrSelfInquiry
	}
	blocked, err := s.blacklist.Contains(ctx, in.GuestID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrBlacklisted
	}

	existing, err := s.conversations.GetByListingAndGuest(ctx, in.ListingID, in.GuestID)
	if err == nil {
		return &InquireOutput{ConversationID: existing.ID, Exists: true, Type: existing.Type}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	c := &model.Conversation{
		ListingID:        in.ListingID,
		HostID:           listing.HostID,
		GuestID:          in.GuestID,
		Type:             model.ConversationInquiry,
		InquiryStartedAt: time.Now(),
	}
	if err := s.conversations.Create(ctx, c); err != nil {
		return nil, err
	}

	if s.bumpInquiryAllowed(ctx, in.ListingID, in.GuestID) {
		if err := s.listings.IncrementInquiryCount(ctx, in.ListingID); err != nil {
			s.log.Sugar().Errorw("increment inquiry count", "listing_id", in.ListingID, "err", err)
		}
	}

	emitEvent(ctx, s.publisher, s.cfg, s.log, NotificationEvent{
		Type:      EventInquiryReceived,
		UserID:    listing.HostID,
		ActorID:   in.GuestID,
		ListingID: in.ListingID,
		Payload:   map[string]interface{}{"conversation_id": c.ID, "message": in.Message},
	})

	return &InquireOutput{ConversationID: c.ID, Exists: false, Type: c.Type}, nil
}

// bumpInquiryAllowed is a redis SETNX debounce. Redis being down degrades to
// always bumping, never to dropping the inquiry.
func (s *engagementService) bumpInquiryAllowed(ctx context.Context, listingID, guestID uuid.UUID) bool {
	if s.rdb == nil {
		return true
	}
	key := fmt.Sprintf("inquiry:debounce:%s:%s", listingID, guestID)
	ok, err := s.rdb.SetNX(ctx, key, 1, inquireDebounceTTL).Result()
	if err != nil {
		s.log.Sugar().Warnw("inquiry debounce", "err", err)
		return true
	}
	return ok
}

func (s *engagementService) Apply(ctx context.Context, guest *model.User, conversationID uuid.UUID, message string) (*model.Conversation, error) {
	if model.VerificationRank(guest.VerificationLevel) < model.VerificationRank(model.VerificationApplicant) {
		return nil, ErrVerificationRequired
	}

	c, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	if c.GuestID != guest.ID {
		return nil, ErrForbidden
	}
	listing, err := s.listings.GetByID(ctx, c.ListingID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	if listing.Status != model.ListingOpen {
		return nil, &InvalidStateError{Entity: "listing", Current: listing.Status}
	}

	now := time.Now()
	rows, err := s.conversations.MarkPending(ctx, conversationID, now)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		if cur, gerr := s.conversations.GetByID(ctx, conversationID); gerr == nil {
			return nil, &InvalidStateError{Entity: "conversation", Current: cur.Type}
		}
		return nil, &InvalidStateError{Entity: "conversation", Current: c.Type}
	}

	// Record the application row for the selection flow unless one is active.
	_, err = s.apps.GetActiveByListingAndGuest(ctx, c.ListingID, guest.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		app := &model.Application{
			ListingID: c.ListingID,
			GuestID:   guest.ID,
			Status:    model.ApplicationPending,
			Message:   message,
		}
		if err := s.apps.Create(ctx, app); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	emitEvent(ctx, s.publisher, s.cfg, s.log, NotificationEvent{
		Type:      EventApplicationSubmitted,
		UserID:    c.HostID,
		ActorID:   guest.ID,
		ListingID: c.ListingID,
		Payload:   map[string]interface{}{"conversation_id": c.ID},
	})

	c.Type = model.ConversationPending
	c.AppliedAt = &now
	return c, nil
}

func (s *engagementService) Accept(ctx context.Context, hostID, conversationID uuid.UUID) (*model.Conversation, error) {
	c, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	if c.HostID != hostID {
		return nil, ErrForbidden
	}
	if c.Type != model.ConversationPending {
		return nil, &InvalidStateError{Entity: "conversation", Current: c.Type}
	}
	listing, err := s.listings.GetByID(ctx, c.ListingID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	if listing.Status != model.ListingOpen {
		return nil, &InvalidStateError{Entity: "listing", Current: listing.Status}
	}

	// One logical unit without storage transactions: each step is idempotent,
	// a retried call converges.
	now := time.Now()
	if _, err := s.conversations.MarkMatched(ctx, conversationID, now); err != nil {
		return nil, err
	}
	if err := s.conversations.DeleteOthersByListing(ctx, c.ListingID, conversationID); err != nil {
		return nil, err
	}
	if err := s.listings.SetStatus(ctx, c.ListingID, model.ListingClosed); err != nil {
		return nil, err
	}
	if err := s.seedConfirmation(ctx, c, now); err != nil {
		return nil, err
	}

	emitEvent(ctx, s.publisher, s.cfg, s.log, NotificationEvent{
		Type:      EventConversationMatched,
		UserID:    c.GuestID,
		ActorID:   hostID,
		ListingID: c.ListingID,
		Payload:   map[string]interface{}{"conversation_id": c.ID},
	})

	telemetry.RecordMatch(ctx, "accept")

	c.Type = model.ConversationMatched
	c.MatchedAt = &now
	return c, nil
}

// seedConfirmation creates the confirmation row for a freshly matched
// conversation, tolerating a retry that finds it already there.
func (s *engagementService) seedConfirmation(ctx context.Context, c *model.Conversation, matchedAt time.Time) error {
	_, err := s.confirmations.GetByConversation(ctx, c.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.confirmations.Create(ctx, &model.TransactionConfirmation{
		ConversationID: c.ID,
		ListingID:      c.ListingID,
		HostID:         c.HostID,
		GuestID:        c.GuestID,
		DeadlineAt:     matchedAt.Add(confirmDeadline),
	})
}

func (s *engagementService) CancelApplication(ctx context.Context, guestID, applicationID uuid.UUID) error {
	a, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		return wrapNotFound(err)
	}
	if a.GuestID != guestID {
		return ErrForbidden
	}
	rows, err := s.apps.UpdateStatusFromPending(ctx, applicationID, model.ApplicationCancelled)
	if err != nil {
		return err
	}
	if rows == 0 {
		return &InvalidStateError{Entity: "application", Current: a.Status}
	}
	return nil
}

func (s *engagementService) UpdateApplicationStatus(ctx context.Context, actor *model.User, applicationID uuid.UUID, status string) (*model.Application, error) {
	a, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	listing, err := s.listings.GetByID(ctx, a.ListingID)
	if err != nil {
		return nil, wrapNotFound(err)
	}

	switch status {
	case model.ApplicationCancelled:
		if a.GuestID != actor.ID {
			return nil, ErrForbidden
		}
	case model.ApplicationAccepted, model.ApplicationRejected:
		if listing.HostID != actor.ID {
			return nil, ErrForbidden
		}
	default:
		return nil, fmt.Errorf("unsupported application status %q", status)
	}

	now := time.Now()
	var rows int64
	if status == model.ApplicationAccepted {
		rows, err = s.apps.MarkAccepted(ctx, applicationID, now)
	} else {
		rows, err = s.apps.UpdateStatusFromPending(ctx, applicationID, status)
	}
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, &InvalidStateError{Entity: "application", Current: a.Status}
	}

	if status == model.ApplicationAccepted {
		// Accepting through this path also ensures the conversation exists
		// and is matched, mirroring the selection flow.
		if _, err := s.conversations.UpsertMatched(ctx, a.ListingID, listing.HostID, a.GuestID, now); err != nil {
			return nil, err
		}
		emitEvent(ctx, s.publisher, s.cfg, s.log, NotificationEvent{
			Type:      EventApplicationAccepted,
			UserID:    a.GuestID,
			ActorID:   actor.ID,
			ListingID: a.ListingID,
			Payload:   map[string]interface{}{"application_id": a.ID},
		})
	}
	if status == model.ApplicationRejected {
		emitEvent(ctx, s.publisher, s.cfg, s.log, NotificationEvent{
			Type:      EventApplicationRejected,
			UserID:    a.GuestID,
			ActorID:   actor.ID,
			ListingID: a.ListingID,
			Payload:   map[string]interface{}{"application_id": a.ID},
		})
		if err := s.apps.MarkRejectionNotified(ctx, a.ID); err != nil {
			return nil, err
		}
	}

	return s.apps.GetByID(ctx, applicationID)
}

type ListConversationsInput struct {
	UserID   uuid.UUID `json:"user_id"`
	Limit    int       `json:"limit"`
	Cursor   string    `json:"cursor"`
	TimeDesc bool      `json:"time_desc"`
}

type ListConversationsOutput struct {
	Items      []model.Conversation `json:"items"`
	NextCursor string               `json:"next_cursor,omitempty"`
	HasMore    bool                 `json:"has_more"`
}

func (s *engagementService) ListConversations(ctx context.Context, in ListConversationsInput) (*ListConversationsOutput, error) {
	var afterT time.Time
	var afterID uuid.UUID
	var err error
	if in.Cursor != "" {
		afterT, afterID, err = paging.DecodeCursor(in.Cursor)
		if err != nil {
			return nil, err
		}
	}

	items, err := s.conversations.ListForUser(ctx, in.UserID, afterT, afterID, in.Limit+1, in.TimeDesc)
	if err != nil {
		return nil, err
	}

	out := &ListConversationsOutput{Items: items}
	if len(items) > in.Limit {
		out.HasMore = true
		out.Items = items[:in.Limit]
		last := out.Items[len(out.Items)-1]
		out.NextCursor = paging.EncodeCursor(last.CreatedAt, last.ID)
	}
	return out, nil
}

func (s *engagementService) ListApplications(ctx context.Context, userID, listingID uuid.UUID, status string) ([]model.Application, error) {
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	if listing.HostID != userID {
		return nil, ErrForbidden
	}
	return s.apps.ListByListing(ctx, listingID, status)
}

func (s *engagementService) GetConversation(ctx context.Context, userID, conversationID uuid.UUID) (*model.Conversation, error) {
	c, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	if c.HostID != userID && c.GuestID != userID {
		return nil, ErrForbidden
	}
	return c, nil
}
