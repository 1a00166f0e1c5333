package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/seatmate-io/seatmate/internal/modules/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func newEngagementFixture(t *testing.T) (*MockListingRepo, *MockConversationRepo, *MockApplicationRepo, *MockConfirmationRepo, *MockBlacklistRepo, *recordingPublisher, EngagementService) {
	listings := new(MockListingRepo)
	convs := new(MockConversationRepo)
	apps := new(MockApplicationRepo)
	confs := new(MockConfirmationRepo)
	blacklist := new(MockBlacklistRepo)
	pub := &recordingPublisher{}
	svc := NewEngagementService(listings, convs, apps, confs, blacklist, testRedis(t), pub, testConfig(), zap.NewNop())
	return listings, convs, apps, confs, blacklist, pub, svc
}

func TestEngagementService_Inquire(t *testing.T) {
	hostID := uuid.New()
	guestID := uuid.New()
	listingID := uuid.New()

	listing := func() *model.Listing {
		return &model.Listing{ID: listingID, HostID: hostID, Status: model.ListingOpen}
	}

	t.Run("creates a new conversation and notifies the host", func(t *testing.T) {
		listings, convs, _, _, blacklist, pub, svc := newEngagementFixture(t)

		listings.On("GetByID", mock.Anything, listingID).Return(listing(), nil)
		blacklist.On("Contains", mock.Anything, guestID).Return(false, nil)
		convs.On("GetByListingAndGuest", mock.Anything, listingID, guestID).Return(nil, gorm.ErrRecordNotFound)
		convs.On("Create", mock.Anything, mock.MatchedBy(func(c *model.Conversation) bool {
			return c.ListingID == listingID && c.GuestID == guestID && c.Type == model.ConversationInquiry
		})).Return(nil)
		listings.On("IncrementInquiryCount", mock.Anything, listingID).Return(nil)

		out, err := svc.Inquire(context.Background(), InquireInput{GuestID: guestID, ListingID: listingID, Message: "hi"})

		require.NoError(t, err)
		assert.False(t, out.Exists)
		assert.Equal(t, model.ConversationInquiry, out.Type)
		assert.Len(t, pub.byType(EventInquiryReceived), 1)
		assert.Equal(t, hostID, pub.byType(EventInquiryReceived)[0].UserID)
	})

	t.Run("idempotent for an existing conversation", func(t *testing.T) {
		listings, convs, _, _, blacklist, pub, svc := newEngagementFixture(t)
		existingID := uuid.New()

		listings.On("GetByID", mock.Anything, listingID).Return(listing(), nil)
		blacklist.On("Contains", mock.Anything, guestID).Return(false, nil)
		convs.On("GetByListingAndGuest", mock.Anything, listingID, guestID).
			Return(&model.Conversation{ID: existingID, Type: model.ConversationPending}, nil)

		out, err := svc.Inquire(context.Background(), InquireInput{GuestID: guestID, ListingID: listingID})

		require.NoError(t, err)
		assert.True(t, out.Exists)
		assert.Equal(t, existingID, out.ConversationID)
		assert.Equal(t, model.ConversationPending, out.Type)
		assert.Empty(t, pub.events)
	})

	t.Run("rejects self-inquiry", func(t *testing.T) {
		listings, _, _, _, _, _, svc := newEngagementFixture(t)
		listings.On("GetByID", mock.Anything, listingID).Return(listing(), nil)

		_, err := svc.Inquire(context.Background(), InquireInput{GuestID: hostID, ListingID: listingID})
		assert.ErrorIs(t, err, ErrSelfInquiry)
	})

	t.Run("rejects blacklisted guests", func(t *testing.T) {
		listings, _, _, _, blacklist, _, svc := newEngagementFixture(t)
		listings.On("GetByID", mock.Anything, listingID).Return(listing(), nil)
		blacklist.On("Contains", mock.Anything, guestID).Return(true, nil)

		_, err := svc.Inquire(context.Background(), InquireInput{GuestID: guestID, ListingID: listingID})
		assert.ErrorIs(t, err, ErrBlacklisted)
	})
}

func TestEngagementService_Apply(t *testing.T) {
	hostID := uuid.New()
	guestID := uuid.New()
	listingID := uuid.New()
	convID := uuid.New()

	guest := func(level string) *model.User {
		return &model.User{ID: guestID, VerificationLevel: level}
	}
	inquiryConv := func() *model.Conversation {
		return &model.Conversation{ID: convID, ListingID: listingID, HostID: hostID, GuestID: guestID, Type: model.ConversationInquiry}
	}

	t.Run("advances to pending and records the application", func(t *testing.T) {
		listings, convs, apps, _, _, pub, svc := newEngagementFixture(t)

		convs.On("GetByID", mock.Anything, convID).Return(inquiryConv(), nil)
		listings.On("GetByID", mock.Anything, listingID).
			Return(&model.Listing{ID: listingID, HostID: hostID, Status: model.ListingOpen}, nil)
		convs.On("MarkPending", mock.Anything, convID, mock.Anything).Return(int64(1), nil)
		apps.On("GetActiveByListingAndGuest", mock.Anything, listingID, guestID).Return(nil, gorm.ErrRecordNotFound)
		apps.On("Create", mock.Anything, mock.MatchedBy(func(a *model.Application) bool {
			return a.ListingID == listingID && a.GuestID == guestID && a.Status == model.ApplicationPending
		})).Return(nil)

		conv, err := svc.Apply(context.Background(), guest(model.VerificationApplicant), convID, "pick me")

		require.NoError(t, err)
		assert.Equal(t, model.ConversationPending, conv.Type)
		assert.Len(t, pub.byType(EventApplicationSubmitted), 1)
	})

	t.Run("requires applicant verification", func(t *testing.T) {
		_, _, _, _, _, _, svc := newEngagementFixture(t)

		_, err := svc.Apply(context.Background(), guest(model.VerificationUnverified), convID, "")
		assert.ErrorIs(t, err, ErrVerificationRequired)
	})

	t.Run("second apply fails with the current state", func(t *testing.T) {
		listings, convs, _, _, _, _, svc := newEngagementFixture(t)

		pendingConv := inquiryConv()
		pendingConv.Type = model.ConversationPending
		convs.On("GetByID", mock.Anything, convID).Return(pendingConv, nil)
		listings.On("GetByID", mock.Anything, listingID).
			Return(&model.Listing{ID: listingID, HostID: hostID, Status: model.ListingOpen}, nil)
		convs.On("MarkPending", mock.Anything, convID, mock.Anything).Return(int64(0), nil)

		_, err := svc.Apply(context.Background(), guest(model.VerificationApplicant), convID, "")

		var stateErr *InvalidStateError
		require.ErrorAs(t, err, &stateErr)
		assert.Equal(t, model.ConversationPending, stateErr.Current)
	})

	t.Run("closed listing rejects applies", func(t *testing.T) {
		listings, convs, _, _, _, _, svc := newEngagementFixture(t)

		convs.On("GetByID", mock.Anything, convID).Return(inquiryConv(), nil)
		listings.On("GetByID", mock.Anything, listingID).
			Return(&model.Listing{ID: listingID, HostID: hostID, Status: model.ListingClosed}, nil)

		_, err := svc.Apply(context.Background(), guest(model.VerificationApplicant), convID, "")
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestEngagementService_Accept(t *testing.T) {
	hostID := uuid.New()
	guestID := uuid.New()
	listingID := uuid.New()
	convID := uuid.New()

	pendingConv := func() *model.Conversation {
		return &model.Conversation{ID: convID, ListingID: listingID, HostID: hostID, GuestID: guestID, Type: model.ConversationPending}
	}

	t.Run("matches, purges competitors, closes, seeds confirmation", func(t *testing.T) {
		listings, convs, _, confs, _, pub, svc := newEngagementFixture(t)

		convs.On("GetByID", mock.Anything, convID).Return(pendingConv(), nil)
		listings.On("GetByID", mock.Anything, listingID).
			Return(&model.Listing{ID: listingID, HostID: hostID, Status: model.ListingOpen}, nil)
		convs.On("MarkMatched", mock.Anything, convID, mock.Anything).Return(int64(1), nil)
		convs.On("DeleteOthersByListing", mock.Anything, listingID, convID).Return(nil)
		listings.On("SetStatus", mock.Anything, listingID, model.ListingClosed).Return(nil)
		confs.On("GetByConversation", mock.Anything, convID).Return(nil, gorm.ErrRecordNotFound)
		confs.On("Create", mock.Anything, mock.MatchedBy(func(tc *model.TransactionConfirmation) bool {
			return tc.ConversationID == convID &&
				time.Until(tc.DeadlineAt) > confirmDeadline-time.Minute
		})).Return(nil)

		conv, err := svc.Accept(context.Background(), hostID, convID)

		require.NoError(t, err)
		assert.Equal(t, model.ConversationMatched, conv.Type)
		assert.Len(t, pub.byType(EventConversationMatched), 1)
		assert.Equal(t, guestID, pub.byType(EventConversationMatched)[0].UserID)
		confs.AssertExpectations(t)
	})

	t.Run("only the host may accept", func(t *testing.T) {
		_, convs, _, _, _, _, svc := newEngagementFixture(t)
		convs.On("GetByID", mock.Anything, convID).Return(pendingConv(), nil)

		_, err := svc.Accept(context.Background(), guestID, convID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("inquiry conversation cannot be accepted", func(t *testing.T) {
		_, convs, _, _, _, _, svc := newEngagementFixture(t)
		c := pendingConv()
		c.Type = model.ConversationInquiry
		convs.On("GetByID", mock.Anything, convID).Return(c, nil)

		_, err := svc.Accept(context.Background(), hostID, convID)
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestEngagementService_CancelApplication(t *testing.T) {
	guestID := uuid.New()
	appID := uuid.New()

	t.Run("withdraws own pending application", func(t *testing.T) {
		_, _, apps, _, _, _, svc := newEngagementFixture(t)
		apps.On("GetByID", mock.Anything, appID).
			Return(&model.Application{ID: appID, GuestID: guestID, Status: model.ApplicationPending}, nil)
		apps.On("UpdateStatusFromPending", mock.Anything, appID, model.ApplicationCancelled).Return(int64(1), nil)

		assert.NoError(t, svc.CancelApplication(context.Background(), guestID, appID))
	})

	t.Run("cannot withdraw someone else's application", func(t *testing.T) {
		_, _, apps, _, _, _, svc := newEngagementFixture(t)
		apps.On("GetByID", mock.Anything, appID).
			Return(&model.Application{ID: appID, GuestID: uuid.New(), Status: model.ApplicationPending}, nil)

		assert.ErrorIs(t, svc.CancelApplication(context.Background(), guestID, appID), ErrForbidden)
	})

	t.Run("accepted application cannot be withdrawn", func(t *testing.T) {
		_, _, apps, _, _, _, svc := newEngagementFixture(t)
		apps.On("GetByID", mock.Anything, appID).
			Return(&model.Application{ID: appID, GuestID: guestID, Status: model.ApplicationAccepted}, nil)
		apps.On("UpdateStatusFromPending", mock.Anything, appID, model.ApplicationCancelled).Return(int64(0), nil)

		assert.ErrorIs(t, svc.CancelApplication(context.Background(), guestID, appID), ErrInvalidState)
	})
}
