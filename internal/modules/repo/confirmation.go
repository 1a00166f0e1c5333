package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/seatmate-io/seatmate/internal/modules/model"
	"gorm.io/gorm"
)

type ConfirmationRepo interface {
	Create(ctx context.Context, t *model.TransactionConfirmation) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.TransactionConfirmation, error)
	GetByConversation(ctx context.Context, conversationID uuid.UUID) (*model.TransactionConfirmation, error)
	GetByListing(ctx context.Context, listingID uuid.UUID) (*model.TransactionConfirmation, error)
	// SetConfirmedAt writes one party's confirmation stamp (nil to un-confirm)
	// only while the transaction is not completed. Rows affected is 0 when
	// completion raced ahead.
	SetConfirmedAt(ctx context.Context, id uuid.UUID, column string, at *time.Time) (int64, error)
	// CompleteIfBothConfirmed sets completed_at once, iff both stamps are
	// present and completed_at is still null. Exactly-once completion hangs on
	// this single conditional write.
	CompleteIfBothConfirmed(ctx context.Context, id uuid.UUID, completedAt time.Time) (int64, error)
	// ListBothConfirmedBefore returns confirmations whose two stamps are both
	// older than the cutoff, for the auto-review sweep. completed_at may still
	// be null when a crash landed between the stamp and completion writes; the
	// sweep converges such rows.
	ListBothConfirmedBefore(ctx context.Context, cutoff time.Time) ([]model.TransactionConfirmation, error)
	ListCompletedForUser(ctx context.Context, userID uuid.UUID) ([]model.TransactionConfirmation, error)
}

// Confirmation stamp columns for SetConfirmedAt.
const (
	ColHostConfirmedAt  = "host_confirmed_at"
	ColGuestConfirmedAt = "guest_confirmed_at"
)

type confirmationRepo struct{ db *gorm.DB }

func NewConfirmationRepo(db *gorm.DB) ConfirmationRepo {
	return &confirmationRepo{db: db}
}

func (r *confirmationRepo) Create(ctx context.Context, t *model.TransactionConfirmation) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *confirmationRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.TransactionConfirmation, error) {
	var t model.TransactionConfirmation
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *confirmationRepo) GetByConversation(ctx context.Context, conversationID uuid.UUID) (*model.TransactionConfirmation, error) {
	var t model.TransactionConfirmation
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *confirmationRepo) GetByListing(ctx context.Context, listingID uuid.UUID) (*model.TransactionConfirmation, error) {
	var t model.TransactionConfirmation
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *confirmationRepo) SetConfirmedAt(ctx context.Context, id uuid.UUID, column string, at *time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.TransactionConfirmation{}).
		Where("id = ? AND completed_at IS NULL", id).
		Update(column, at)
	return res.RowsAffected, res.Error
}

func (r *confirmationRepo) CompleteIfBothConfirmed(ctx context.Context, id uuid.UUID, completedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.TransactionConfirmation{}).
		Where("id = ? AND completed_at IS NULL AND host_confirmed_at IS NOT NULL AND guest_confirmed_at IS NOT NULL", id).
		Update("completed_at", completedAt)
	return res.RowsAffected, res.Error
}

func (r *confirmationRepo) ListBothConfirmedBefore(ctx context.Context, cutoff time.Time) ([]model.TransactionConfirmation, error) {
	var items []model.TransactionConfirmation
	// Full scan of both-confirmed rows; fine at marketplace scale.
	err := r.db.WithContext(ctx).
		Where("host_confirmed_at <= ? AND guest_confirmed_at <= ?", cutoff, cutoff).
		Find(&items).Error
	return items, err
}

func (r *confirmationRepo) ListCompletedForUser(ctx context.Context, userID uuid.UUID) ([]model.TransactionConfirmation, error) {
	var items []model.TransactionConfirmation
	err := r.db.WithContext(ctx).
		Where("completed_at IS NOT NULL AND (host_id = ? OR guest_id = ?)", userID, userID).
		Order("completed_at DESC").
		Find(&items).Error
	return items, err
}
