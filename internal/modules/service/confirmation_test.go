package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/seatmate-io/seatmate/internal/modules/model"
	"github.com/seatmate-io/seatmate/internal/modules/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestConfirmationService_Confirm(t *testing.T) {
	hostID := uuid.New()
	guestID := uuid.New()
	convID := uuid.New()
	confID := uuid.New()
	listingID := uuid.New()
	matchedAt := time.Now().Add(-time.Hour)

	matchedConv := func() *model.Conversation {
		return &model.Conversation{
			ID: convID, ListingID: listingID, HostID: hostID, GuestID: guestID,
			Type: model.ConversationMatched, MatchedAt: &matchedAt,
		}
	}
	confirmation := func(hostAt, guestAt, completedAt *time.Time) *model.TransactionConfirmation {
		return &model.TransactionConfirmation{
			ID: confID, ConversationID: convID, ListingID: listingID,
			HostID: hostID, GuestID: guestID,
			HostConfirmedAt: hostAt, GuestConfirmedAt: guestAt, CompletedAt: completedAt,
			DeadlineAt: matchedAt.Add(confirmDeadline),
		}
	}

	now := time.Now()

	t.Run("guest confirm completes after host confirmed", func(t *testing.T) {
		convs := new(MockConversationRepo)
		confs := new(MockConfirmationRepo)
		pub := &recordingPublisher{}

		convs.On("GetByID", mock.Anything, convID).Return(matchedConv(), nil)
		confs.On("GetByConversation", mock.Anything, convID).Return(confirmation(&now, nil, nil), nil)
		confs.On("SetConfirmedAt", mock.Anything, confID, repo.ColGuestConfirmedAt, mock.Anything).Return(int64(1), nil)
		confs.On("CompleteIfBothConfirmed", mock.Anything, confID, mock.Anything).Return(int64(1), nil)
		confs.On("GetByID", mock.Anything, confID).Return(confirmation(&now, &now, &now), nil)

		svc := NewConfirmationService(convs, confs, pub, testConfig(), zap.NewNop())
		out, err := svc.Confirm(context.Background(), guestID, convID, ConfirmActionConfirm)

		assert.NoError(t, err)
		assert.True(t, out.BothConfirmed)
		assert.True(t, out.Completed)

		// both parties get exactly one completion event
		completed := pub.byType(EventTransactionCompleted)
		assert.Len(t, completed, 2)
		recipients := map[uuid.UUID]bool{completed[0].UserID: true, completed[1].UserID: true}
		assert.True(t, recipients[hostID])
		assert.True(t, recipients[guestID])
	})

	t.Run("single confirm does not complete", func(t *testing.T) {
		convs := new(MockConversationRepo)
		confs := new(MockConfirmationRepo)
		pub := &recordingPublisher{}

		convs.On("GetByID", mock.Anything, convID).Return(matchedConv(), nil)
		confs.On("GetByConversation", mock.Anything, convID).Return(confirmation(nil, nil, nil), nil)
		confs.On("SetConfirmedAt", mock.Anything, confID, repo.ColHostConfirmedAt, mock.Anything).Return(int64(1), nil)
		confs.On("CompleteIfBothConfirmed", mock.Anything, confID, mock.Anything).Return(int64(0), nil)
		confs.On("GetByID", mock.Anything, confID).Return(confirmation(&now, nil, nil), nil)

		svc := NewConfirmationService(convs, confs, pub, testConfig(), zap.NewNop())
		out, err := svc.Confirm(context.Background(), hostID, convID, ConfirmActionConfirm)

		assert.NoError(t, err)
		assert.False(t, out.BothConfirmed)
		assert.False(t, out.Completed)
		assert.Empty(t, pub.byType(EventTransactionCompleted))
	})

	t.Run("cancel clears the actor's stamp", func(t *testing.T) {
		convs := new(MockConversationRepo)
		confs := new(MockConfirmationRepo)
		pub := &recordingPublisher{}

		convs.On("GetByID", mock.Anything, convID).Return(matchedConv(), nil)
		confs.On("GetByConversation", mock.Anything, convID).Return(confirmation(&now, nil, nil), nil)
		confs.On("SetConfirmedAt", mock.Anything, confID, repo.ColHostConfirmedAt, (*time.Time)(nil)).Return(int64(1), nil)
		confs.On("CompleteIfBothConfirmed", mock.Anything, confID, mock.Anything).Return(int64(0), nil)
		confs.On("GetByID", mock.Anything, confID).Return(confirmation(nil, nil, nil), nil)

		svc := NewConfirmationService(convs, confs, pub, testConfig(), zap.NewNop())
		out, err := svc.Confirm(context.Background(), hostID, convID, ConfirmActionCancel)

		assert.NoError(t, err)
		assert.Nil(t, out.HostConfirmedAt)
		assert.False(t, out.Completed)
	})

	t.Run("confirm after completion fails", func(t *testing.T) {
		convs := new(MockConversationRepo)
		confs := new(MockConfirmationRepo)

		convs.On("GetByID", mock.Anything, convID).Return(matchedConv(), nil)
		confs.On("GetByConversation", mock.Anything, convID).Return(confirmation(&now, &now, &now), nil)

		svc := NewConfirmationService(convs, confs, &recordingPublisher{}, testConfig(), zap.NewNop())
		_, err := svc.Confirm(context.Background(), hostID, convID, ConfirmActionConfirm)

		assert.ErrorIs(t, err, ErrAlreadyCompleted)
	})

	t.Run("stamp write loses the completion race", func(t *testing.T) {
		convs := new(MockConversationRepo)
		confs := new(MockConfirmationRepo)

		convs.On("GetByID", mock.Anything, convID).Return(matchedConv(), nil)
		confs.On("GetByConversation", mock.Anything, convID).Return(confirmation(&now, nil, nil), nil)
		confs.On("SetConfirmedAt", mock.Anything, confID, repo.ColGuestConfirmedAt, mock.Anything).Return(int64(0), nil)

		svc := NewConfirmationService(convs, confs, &recordingPublisher{}, testConfig(), zap.NewNop())
		_, err := svc.Confirm(context.Background(), guestID, convID, ConfirmActionConfirm)

		assert.ErrorIs(t, err, ErrAlreadyCompleted)
	})

	t.Run("outsider is rejected", func(t *testing.T) {
		convs := new(MockConversationRepo)
		confs := new(MockConfirmationRepo)

		convs.On("GetByID", mock.Anything, convID).Return(matchedConv(), nil)

		svc := NewConfirmationService(convs, confs, &recordingPublisher{}, testConfig(), zap.NewNop())
		_, err := svc.Confirm(context.Background(), uuid.New(), convID, ConfirmActionConfirm)

		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unmatched conversation is invalid state", func(t *testing.T) {
		convs := new(MockConversationRepo)
		confs := new(MockConfirmationRepo)

		convs.On("GetByID", mock.Anything, convID).
			Return(&model.Conversation{ID: convID, HostID: hostID, GuestID: guestID, Type: model.ConversationPending}, nil)

		svc := NewConfirmationService(convs, confs, &recordingPublisher{}, testConfig(), zap.NewNop())
		_, err := svc.Confirm(context.Background(), hostID, convID, ConfirmActionConfirm)

		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("lazily creates the confirmation row", func(t *testing.T) {
		convs := new(MockConversationRepo)
		confs := new(MockConfirmationRepo)

		convs.On("GetByID", mock.Anything, convID).Return(matchedConv(), nil)
		confs.On("GetByConversation", mock.Anything, convID).Return(nil, gorm.ErrRecordNotFound)
		confs.On("Create", mock.Anything, mock.MatchedBy(func(tc *model.TransactionConfirmation) bool {
			tc.ID = confID
			return tc.ConversationID == convID && tc.DeadlineAt.Equal(matchedAt.Add(confirmDeadline))
		})).Return(nil)
		confs.On("SetConfirmedAt", mock.Anything, confID, repo.ColHostConfirmedAt, mock.Anything).Return(int64(1), nil)
		confs.On("CompleteIfBothConfirmed", mock.Anything, confID, mock.Anything).Return(int64(0), nil)
		confs.On("GetByID", mock.Anything, confID).Return(confirmation(&now, nil, nil), nil)

		svc := NewConfirmationService(convs, confs, &recordingPublisher{}, testConfig(), zap.NewNop())
		out, err := svc.Confirm(context.Background(), hostID, convID, ConfirmActionConfirm)

		assert.NoError(t, err)
		assert.NotNil(t, out.HostConfirmedAt)
	})
}
