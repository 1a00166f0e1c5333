package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/seatmate-io/seatmate/internal/modules/model"
	"gorm.io/gorm"
)

type ConversationRepo interface {
	Create(ctx context.Context, c *model.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Conversation, error)
	GetByListingAndGuest(ctx context.Context, listingID, guestID uuid.UUID) (*model.Conversation, error)
	ListForUser(ctx context.Context, userID uuid.UUID, afterCreatedAt time.Time, afterID uuid.UUID, limit int, timeDesc bool) ([]model.Conversation, error)
	// MarkPending advances inquiry -> pending conditionally. Rows affected is
	// 0 when the conversation already left the inquiry state.
	MarkPending(ctx context.Context, id uuid.UUID, appliedAt time.Time) (int64, error)
	// MarkMatched advances to matched from any earlier state.
	MarkMatched(ctx context.Context, id uuid.UUID, matchedAt time.Time) (int64, error)
	// UpsertMatched writes the winner's matched conversation: updates in place
	// when one exists for (listing, guest), inserts otherwise.
	UpsertMatched(ctx context.Context, listingID, hostID, guestID uuid.UUID, matchedAt time.Time) (*model.Conversation, error)
	// DeleteOthersByListing purges every other guest's conversation on the
	// listing once one applicant is matched. Losers are not archived.
	DeleteOthersByListing(ctx context.Context, listingID, keepID uuid.UUID) error
}

type conversationRepo struct{ db *gorm.DB }

func NewConversationRepo(db *gorm.DB) ConversationRepo {
	return &conversationRepo{db: db}
}

func (r *conversationRepo) Create(ctx context.Context, c *model.Conversation) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *conversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Conversation, error) {
	var c model.Conversation
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *conversationRepo) GetByListingAndGuest(ctx context.Context, listingID, guestID uuid.UUID) (*model.Conversation, error) {
	var c model.Conversation
	err := r.db.WithContext(ctx).
		Where("listing_id = ? AND guest_id = ?", listingID, guestID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *conversationRepo) ListForUser(ctx context.Context, userID uuid.UUID, afterCreatedAt time.Time, afterID uuid.UUID, limit int, timeDesc bool) ([]model.Conversation, error) {
	q := r.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("host_id = ? OR guest_id = ?", userID, userID)
	q = applyCursor(q, afterCreatedAt, afterID, timeDesc)

	var items []model.Conversation
	return items, q.Limit(limit).Find(&items).Error
}

func (r *conversationRepo) MarkPending(ctx context.Context, id uuid.UUID, appliedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("id = ? AND conversation_type = ?", id, model.ConversationInquiry).
		Updates(map[string]interface{}{
			"conversation_type": model.ConversationPending,
			"applied_at":        appliedAt,
		})
	return res.RowsAffected, res.Error
}

func (r *conversationRepo) MarkMatched(ctx context.Context, id uuid.UUID, matchedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("id = ? AND conversation_type <> ?", id, model.ConversationMatched).
		Updates(map[string]interface{}{
			"conversation_type": model.ConversationMatched,
			"matched_at":        matchedAt,
		})
	return res.RowsAffected, res.Error
}

func (r *conversationRepo) UpsertMatched(ctx context.Context, listingID, hostID, guestID uuid.UUID, matchedAt time.Time) (*model.Conversation, error) {
	existing, err := r.GetByListingAndGuest(ctx, listingID, guestID)
	switch {
	case err == nil:
		if _, err := r.MarkMatched(ctx, existing.ID, matchedAt); err != nil {
			return nil, err
		}
		existing.Type = model.ConversationMatched
		existing.MatchedAt = &matchedAt
		return existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		c := &model.Conversation{
			ListingID:        listingID,
			HostID:           hostID,
			GuestID:          guestID,
			Type:             model.ConversationMatched,
			InquiryStartedAt: matchedAt,
			MatchedAt:        &matchedAt,
		}
		if err := r.Create(ctx, c); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, err
	}
}

func (r *conversationRepo) DeleteOthersByListing(ctx context.Context, listingID, keepID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("listing_id = ? AND id <> ?", listingID, keepID).
		Delete(&model.Conversation{}).Error
}
