package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/seatmate-io/seatmate/internal/config"
	"github.com/seatmate-io/seatmate/internal/modules/model"
	"github.com/stretchr/testify/mock"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "seatmate-test"
	cfg.RabbitMQ.ExchangeName.Notifications = "seatmate.notifications"
	cfg.RabbitMQ.RoutingKey.NotificationDeliver = "notification.deliver"
	return cfg
}

// recordingPublisher captures emitted events in order.
type recordingPublisher struct {
	mu     sync.Mutex
	events []NotificationEvent
}

func (p *recordingPublisher) PublishJSON(ctx context.Context, exchangeName string, routingKey string, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev, ok := body.(NotificationEvent); ok {
		p.events = append(p.events, ev)
	}
	return nil
}

func (p *recordingPublisher) byType(eventType string) []NotificationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []NotificationEvent
	for _, ev := range p.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

type MockListingRepo struct {
	mock.Mock
}

func (m *MockListingRepo) Create(ctx context.Context, l *model.Listing) error {
	return m.Called(ctx, l).Error(0)
}

func (m *MockListingRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Listing), args.Error(1)
}

func (m *MockListingRepo) List(ctx context.Context, status string, hostID uuid.UUID, afterCreatedAt time.Time, afterID uuid.UUID, limit int, timeDesc bool) ([]model.Listing, error) {
	args := m.Called(ctx, status, hostID, afterCreatedAt, afterID, limit, timeDesc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Listing), args.Error(1)
}

func (m *MockListingRepo) UpdateWhereOpen(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (int64, error) {
	args := m.Called(ctx, id, updates)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockListingRepo) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockListingRepo) IncrementInquiryCount(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockListingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockApplicationRepo struct {
	mock.Mock
}

func (m *MockApplicationRepo) Create(ctx context.Context, a *model.Application) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockApplicationRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Application), args.Error(1)
}

func (m *MockApplicationRepo) GetActiveByListingAndGuest(ctx context.Context, listingID, guestID uuid.UUID) (*model.Application, error) {
	args := m.Called(ctx, listingID, guestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Application), args.Error(1)
}

func (m *MockApplicationRepo) ListByListing(ctx context.Context, listingID uuid.UUID, status string) ([]model.Application, error) {
	args := m.Called(ctx, listingID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Application), args.Error(1)
}

func (m *MockApplicationRepo) HasAccepted(ctx context.Context, listingID uuid.UUID) (bool, error) {
	args := m.Called(ctx, listingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockApplicationRepo) MarkAccepted(ctx context.Context, id uuid.UUID, selectedAt time.Time) (int64, error) {
	args := m.Called(ctx, id, selectedAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockApplicationRepo) RejectOtherPending(ctx context.Context, listingID, exceptID uuid.UUID) error {
	return m.Called(ctx, listingID, exceptID).Error(0)
}

func (m *MockApplicationRepo) ListRejectedUnnotified(ctx context.Context, listingID uuid.UUID) ([]model.Application, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Application), args.Error(1)
}

func (m *MockApplicationRepo) MarkRejectionNotified(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockApplicationRepo) UpdateStatusFromPending(ctx context.Context, id uuid.UUID, status string) (int64, error) {
	args := m.Called(ctx, id, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockApplicationRepo) DeletePendingByListing(ctx context.Context, listingID uuid.UUID) ([]model.Application, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Application), args.Error(1)
}

type MockConversationRepo struct {
	mock.Mock
}

func (m *MockConversationRepo) Create(ctx context.Context, c *model.Conversation) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *MockConversationRepo) GetByListingAndGuest(ctx context.Context, listingID, guestID uuid.UUID) (*model.Conversation, error) {
	args := m.Called(ctx, listingID, guestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *MockConversationRepo) ListForUser(ctx context.Context, userID uuid.UUID, afterCreatedAt time.Time, afterID uuid.UUID, limit int, timeDesc bool) ([]model.Conversation, error) {
	args := m.Called(ctx, userID, afterCreatedAt, afterID, limit, timeDesc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Conversation), args.Error(1)
}

func (m *MockConversationRepo) MarkPending(ctx context.Context, id uuid.UUID, appliedAt time.Time) (int64, error) {
	args := m.Called(ctx, id, appliedAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockConversationRepo) MarkMatched(ctx context.Context, id uuid.UUID, matchedAt time.Time) (int64, error) {
	args := m.Called(ctx, id, matchedAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockConversationRepo) UpsertMatched(ctx context.Context, listingID, hostID, guestID uuid.UUID, matchedAt time.Time) (*model.Conversation, error) {
	args := m.Called(ctx, listingID, hostID, guestID, matchedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *MockConversationRepo) DeleteOthersByListing(ctx context.Context, listingID, keepID uuid.UUID) error {
	return m.Called(ctx, listingID, keepID).Error(0)
}

type MockConfirmationRepo struct {
	mock.Mock
}

func (m *MockConfirmationRepo) Create(ctx context.Context, t *model.TransactionConfirmation) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockConfirmationRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.TransactionConfirmation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TransactionConfirmation), args.Error(1)
}

func (m *MockConfirmationRepo) GetByConversation(ctx context.Context, conversationID uuid.UUID) (*model.TransactionConfirmation, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TransactionConfirmation), args.Error(1)
}

func (m *MockConfirmationRepo) GetByListing(ctx context.Context, listingID uuid.UUID) (*model.TransactionConfirmation, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TransactionConfirmation), args.Error(1)
}

func (m *MockConfirmationRepo) SetConfirmedAt(ctx context.Context, id uuid.UUID, column string, at *time.Time) (int64, error) {
	args := m.Called(ctx, id, column, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockConfirmationRepo) CompleteIfBothConfirmed(ctx context.Context, id uuid.UUID, completedAt time.Time) (int64, error) {
	args := m.Called(ctx, id, completedAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockConfirmationRepo) ListBothConfirmedBefore(ctx context.Context, cutoff time.Time) ([]model.TransactionConfirmation, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TransactionConfirmation), args.Error(1)
}

func (m *MockConfirmationRepo) ListCompletedForUser(ctx context.Context, userID uuid.UUID) ([]model.TransactionConfirmation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TransactionConfirmation), args.Error(1)
}

type MockReviewRepo struct {
	mock.Mock
}

func (m *MockReviewRepo) Create(ctx context.Context, rev *model.Review) error {
	return m.Called(ctx, rev).Error(0)
}

func (m *MockReviewRepo) Exists(ctx context.Context, listingID, reviewerID, revieweeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, listingID, reviewerID, revieweeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewRepo) ListForUser(ctx context.Context, revieweeID uuid.UUID, afterCreatedAt time.Time, afterID uuid.UUID, limit int, timeDesc bool) ([]model.Review, error) {
	args := m.Called(ctx, revieweeID, afterCreatedAt, afterID, limit, timeDesc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Review), args.Error(1)
}

func (m *MockReviewRepo) RecomputeUserRating(ctx context.Context, revieweeID uuid.UUID) error {
	return m.Called(ctx, revieweeID).Error(0)
}

type MockBlacklistRepo struct {
	mock.Mock
}

func (m *MockBlacklistRepo) Add(ctx context.Context, e *model.BlacklistEntry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockBlacklistRepo) Remove(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockBlacklistRepo) Contains(ctx context.Context, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBlacklistRepo) List(ctx context.Context) ([]model.BlacklistEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.BlacklistEntry), args.Error(1)
}
