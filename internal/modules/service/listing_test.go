package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/seatmate-io/seatmate/internal/modules/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestListingService_Create(t *testing.T) {
	t.Run("host verification is required", func(t *testing.T) {
		svc := NewListingService(new(MockListingRepo), new(MockApplicationRepo), &recordingPublisher{}, testConfig(), zap.NewNop())

		err := svc.Create(context.Background(), &model.User{ID: uuid.New(), VerificationLevel: model.VerificationApplicant}, &model.Listing{Title: "two seats"})
		assert.ErrorIs(t, err, ErrVerificationRequired)
	})

	t.Run("opens with slots mirrored", func(t *testing.T) {
		listings := new(MockListingRepo)
		hostID := uuid.New()

		listings.On("Create", mock.Anything, mock.MatchedBy(func(l *model.Listing) bool {
			return l.HostID == hostID && l.Status == model.ListingOpen &&
				l.TotalSlots == 2 && l.AvailableSlots == 2
		})).Return(nil)

		svc := NewListingService(listings, new(MockApplicationRepo), &recordingPublisher{}, testConfig(), zap.NewNop())
		err := svc.Create(context.Background(),
			&model.User{ID: hostID, VerificationLevel: model.VerificationHost},
			&model.Listing{Title: "two seats", TotalSlots: 2})

		require.NoError(t, err)
		listings.AssertExpectations(t)
	})
}

func TestListingService_Update(t *testing.T) {
	hostID := uuid.New()
	guestID := uuid.New()
	listingID := uuid.New()
	updates := map[string]interface{}{"price": 4500}

	t.Run("edits an open listing", func(t *testing.T) {
		listings := new(MockListingRepo)

		listings.On("GetByID", mock.Anything, listingID).
			Return(&model.Listing{ID: listingID, HostID: hostID, Status: model.ListingOpen}, nil)
		listings.On("UpdateWhereOpen", mock.Anything, listingID, updates).Return(int64(1), nil)

		svc := NewListingService(listings, new(MockApplicationRepo), &recordingPublisher{}, testConfig(), zap.NewNop())
		l, err := svc.Update(context.Background(), hostID, listingID, updates, false)

		require.NoError(t, err)
		assert.Equal(t, listingID, l.ID)
	})

	t.Run("edit with removal notifies dropped applicants", func(t *testing.T) {
		listings := new(MockListingRepo)
		apps := new(MockApplicationRepo)
		pub := &recordingPublisher{}

		listings.On("GetByID", mock.Anything, listingID).
			Return(&model.Listing{ID: listingID, HostID: hostID, Status: model.ListingOpen}, nil)
		listings.On("UpdateWhereOpen", mock.Anything, listingID, updates).Return(int64(1), nil)
		apps.On("DeletePendingByListing", mock.Anything, listingID).
			Return([]model.Application{{ID: uuid.New(), ListingID: listingID, GuestID: guestID}}, nil)

		svc := NewListingService(listings, apps, pub, testConfig(), zap.NewNop())
		_, err := svc.Update(context.Background(), hostID, listingID, updates, true)

		require.NoError(t, err)
		removed := pub.byType(EventApplicationRemoved)
		require.Len(t, removed, 1)
		assert.Equal(t, guestID, removed[0].UserID)
		assert.Equal(t, "listing_edited", removed[0].Payload["reason"])
	})

	t.Run("matched listing is frozen", func(t *testing.T) {
		listings := new(MockListingRepo)

		listings.On("GetByID", mock.Anything, listingID).
			Return(&model.Listing{ID: listingID, HostID: hostID, Status: model.ListingOpen}, nil).Once()
		listings.On("UpdateWhereOpen", mock.Anything, listingID, updates).Return(int64(0), nil)
		listings.On("GetByID", mock.Anything, listingID).
			Return(&model.Listing{ID: listingID, HostID: hostID, Status: model.ListingMatched}, nil)

		svc := NewListingService(listings, new(MockApplicationRepo), &recordingPublisher{}, testConfig(), zap.NewNop())
		_, err := svc.Update(context.Background(), hostID, listingID, updates, false)

		var stateErr *InvalidStateError
		require.ErrorAs(t, err, &stateErr)
		assert.Equal(t, model.ListingMatched, stateErr.Current)
	})

	t.Run("non-owner cannot edit", func(t *testing.T) {
		listings := new(MockListingRepo)
		listings.On("GetByID", mock.Anything, listingID).
			Return(&model.Listing{ID: listingID, HostID: hostID, Status: model.ListingOpen}, nil)

		svc := NewListingService(listings, new(MockApplicationRepo), &recordingPublisher{}, testConfig(), zap.NewNop())
		_, err := svc.Update(context.Background(), guestID, listingID, updates, false)

		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestListingService_Close(t *testing.T) {
	hostID := uuid.New()
	listingID := uuid.New()

	t.Run("closes and notifies pending applicants", func(t *testing.T) {
		listings := new(MockListingRepo)
		apps := new(MockApplicationRepo)
		pub := &recordingPublisher{}
		guestA := uuid.New()
		guestB := uuid.New()

		listings.On("GetByID", mock.Anything, listingID).
			Return(&model.Listing{ID: listingID, HostID: hostID, Status: model.ListingOpen}, nil)
		apps.On("DeletePendingByListing", mock.Anything, listingID).
			Return([]model.Application{
				{ID: uuid.New(), ListingID: listingID, GuestID: guestA},
				{ID: uuid.New(), ListingID: listingID, GuestID: guestB},
			}, nil)
		listings.On("SetStatus", mock.Anything, listingID, model.ListingClosed).Return(nil)

		svc := NewListingService(listings, apps, pub, testConfig(), zap.NewNop())
		require.NoError(t, svc.Close(context.Background(), hostID, listingID))

		removed := pub.byType(EventApplicationRemoved)
		require.Len(t, removed, 2)
		assert.Equal(t, "listing_closed", removed[0].Payload["reason"])
		listings.AssertExpectations(t)
	})

	t.Run("only the host may close", func(t *testing.T) {
		listings := new(MockListingRepo)
		listings.On("GetByID", mock.Anything, listingID).
			Return(&model.Listing{ID: listingID, HostID: hostID, Status: model.ListingOpen}, nil)

		svc := NewListingService(listings, new(MockApplicationRepo), &recordingPublisher{}, testConfig(), zap.NewNop())
		assert.ErrorIs(t, svc.Close(context.Background(), uuid.New(), listingID), ErrForbidden)
	})

	t.Run("matched listing closes when the handoff is done", func(t *testing.T) {
		listings := new(MockListingRepo)
		apps := new(MockApplicationRepo)

		listings.On("GetByID", mock.Anything, listingID).
			Return(&model.Listing{ID: listingID, HostID: hostID, Status: model.ListingMatched}, nil)
		apps.On("DeletePendingByListing", mock.Anything, listingID).Return([]model.Application{}, nil)
		listings.On("SetStatus", mock.Anything, listingID, model.ListingClosed).Return(nil)

		svc := NewListingService(listings, apps, &recordingPublisher{}, testConfig(), zap.NewNop())
		require.NoError(t, svc.Close(context.Background(), hostID, listingID))
	})

	t.Run("closed listing stays closed", func(t *testing.T) {
		listings := new(MockListingRepo)
		listings.On("GetByID", mock.Anything, listingID).
			Return(&model.Listing{ID: listingID, HostID: hostID, Status: model.ListingClosed}, nil)

		svc := NewListingService(listings, new(MockApplicationRepo), &recordingPublisher{}, testConfig(), zap.NewNop())
		assert.ErrorIs(t, svc.Close(context.Background(), hostID, listingID), ErrInvalidState)
	})
}
