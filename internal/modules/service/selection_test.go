package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/seatmate-io/seatmate/internal/modules/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestSelectionService_Select(t *testing.T) {
	hostID := uuid.New()
	guestID := uuid.New()
	loserID := uuid.New()
	listingID := uuid.New()
	appID := uuid.New()
	loserAppID := uuid.New()
	convID := uuid.New()

	openListing := func() *model.Listing {
		return &model.Listing{ID: listingID, HostID: hostID, Status: model.ListingOpen}
	}
	pendingApp := func() *model.Application {
		return &model.Application{ID: appID, ListingID: listingID, GuestID: guestID, Status: model.ApplicationPending}
	}

	tests := []struct {
		name        string
		callerID    uuid.UUID
		setup       func(*MockListingRepo, *MockApplicationRepo, *MockConversationRepo, *MockConfirmationRepo)
		checkEvents func(*testing.T, *recordingPublisher)
		expectErr   error
	}{
		{
			name:     "success with one competitor rejected",
			callerID: hostID,
			setup: func(l *MockListingRepo, a *MockApplicationRepo, c *MockConversationRepo, tc *MockConfirmationRepo) {
				l.On("GetByID", mock.Anything, listingID).Return(openListing(), nil)
				a.On("HasAccepted", mock.Anything, listingID).Return(false, nil)
				a.On("GetByID", mock.Anything, appID).Return(pendingApp(), nil)
				a.On("MarkAccepted", mock.Anything, appID, mock.Anything).Return(int64(1), nil)
				a.On("RejectOtherPending", mock.Anything, listingID, appID).Return(nil)
				c.On("UpsertMatched", mock.Anything, listingID, hostID, guestID, mock.Anything).
					Return(&model.Conversation{ID: convID, ListingID: listingID, HostID: hostID, GuestID: guestID, Type: model.ConversationMatched}, nil)
				tc.On("GetByConversation", mock.Anything, convID).Return(nil, gorm.ErrRecordNotFound)
				tc.On("Create", mock.Anything, mock.MatchedBy(func(t *model.TransactionConfirmation) bool {
					return t.ConversationID == convID && t.HostID == hostID && t.GuestID == guestID
				})).Return(nil)
				l.On("SetStatus", mock.Anything, listingID, model.ListingMatched).Return(nil)
				a.On("ListRejectedUnnotified", mock.Anything, listingID).
					Return([]model.Application{{ID: loserAppID, ListingID: listingID, GuestID: loserID, Status: model.ApplicationRejected}}, nil)
				a.On("MarkRejectionNotified", mock.Anything, loserAppID).Return(nil)
			},
			checkEvents: func(t *testing.T, pub *recordingPublisher) {
				accepted := pub.byType(EventApplicationAccepted)
				assert.Len(t, accepted, 1)
				assert.Equal(t, guestID, accepted[0].UserID)

				rejected := pub.byType(EventApplicationRejected)
				assert.Len(t, rejected, 1)
				assert.Equal(t, loserID, rejected[0].UserID)
			},
		},
		{
			name:     "not the host",
			callerID: guestID,
			setup: func(l *MockListingRepo, a *MockApplicationRepo, c *MockConversationRepo, tc *MockConfirmationRepo) {
				l.On("GetByID", mock.Anything, listingID).Return(openListing(), nil)
			},
			expectErr: ErrForbidden,
		},
		{
			name:     "listing already has accepted applicant",
			callerID: hostID,
			setup: func(l *MockListingRepo, a *MockApplicationRepo, c *MockConversationRepo, tc *MockConfirmationRepo) {
				l.On("GetByID", mock.Anything, listingID).Return(openListing(), nil)
				a.On("HasAccepted", mock.Anything, listingID).Return(true, nil)
			},
			expectErr: ErrAlreadySelected,
		},
		{
			name:     "target application not pending",
			callerID: hostID,
			setup: func(l *MockListingRepo, a *MockApplicationRepo, c *MockConversationRepo, tc *MockConfirmationRepo) {
				l.On("GetByID", mock.Anything, listingID).Return(openListing(), nil)
				a.On("HasAccepted", mock.Anything, listingID).Return(false, nil)
				a.On("GetByID", mock.Anything, appID).
					Return(&model.Application{ID: appID, ListingID: listingID, GuestID: guestID, Status: model.ApplicationCancelled}, nil)
			},
			expectErr: ErrInvalidState,
		},
		{
			name:     "target belongs to a different listing",
			callerID: hostID,
			setup: func(l *MockListingRepo, a *MockApplicationRepo, c *MockConversationRepo, tc *MockConfirmationRepo) {
				l.On("GetByID", mock.Anything, listingID).Return(openListing(), nil)
				a.On("HasAccepted", mock.Anything, listingID).Return(false, nil)
				a.On("GetByID", mock.Anything, appID).
					Return(&model.Application{ID: appID, ListingID: uuid.New(), GuestID: guestID, Status: model.ApplicationPending}, nil)
			},
			expectErr: ErrNotFound,
		},
		{
			name:     "lost the accept race",
			callerID: hostID,
			setup: func(l *MockListingRepo, a *MockApplicationRepo, c *MockConversationRepo, tc *MockConfirmationRepo) {
				l.On("GetByID", mock.Anything, listingID).Return(openListing(), nil)
				a.On("HasAccepted", mock.Anything, listingID).Return(false, nil)
				a.On("GetByID", mock.Anything, appID).Return(pendingApp(), nil).Once()
				a.On("MarkAccepted", mock.Anything, appID, mock.Anything).Return(int64(0), nil)
				a.On("GetByID", mock.Anything, appID).
					Return(&model.Application{ID: appID, ListingID: listingID, GuestID: guestID, Status: model.ApplicationRejected}, nil)
			},
			expectErr: ErrInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listings := new(MockListingRepo)
			apps := new(MockApplicationRepo)
			convs := new(MockConversationRepo)
			confs := new(MockConfirmationRepo)
			pub := &recordingPublisher{}
			tt.setup(listings, apps, convs, confs)

			svc := NewSelectionService(listings, apps, convs, confs, pub, testConfig(), zap.NewNop())
			out, err := svc.Select(context.Background(), tt.callerID, SelectInput{ListingID: listingID, ApplicationID: appID})

			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, convID, out.ConversationID)
			if tt.checkEvents != nil {
				tt.checkEvents(t, pub)
			}
			listings.AssertExpectations(t)
			apps.AssertExpectations(t)
			convs.AssertExpectations(t)
			confs.AssertExpectations(t)
		})
	}
}
