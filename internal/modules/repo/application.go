package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/seatmate-io/seatmate/internal/modules/model"
	"gorm.io/gorm"
)

type ApplicationRepo interface {
	Create(ctx context.Context, a *model.Application) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Application, error)
	// GetActiveByListingAndGuest returns the guest's non-cancelled application
	// for the listing, if any. Used to forbid duplicate applies.
	GetActiveByListingAndGuest(ctx context.Context, listingID, guestID uuid.UUID) (*model.Application, error)
	ListByListing(ctx context.Context, listingID uuid.UUID, status string) ([]model.Application, error)
	HasAccepted(ctx context.Context, listingID uuid.UUID) (bool, error)
	// MarkAccepted flips a pending application to accepted. Rows affected is 0
	// when the application was no longer pending.
	MarkAccepted(ctx context.Context, id uuid.UUID, selectedAt time.Time) (int64, error)
	// RejectOtherPending marks every other pending application on the listing
	// rejected with rejection_notified=false for the two-phase notify.
	RejectOtherPending(ctx context.Context, listingID, exceptID uuid.UUID) error
	ListRejectedUnnotified(ctx context.Context, listingID uuid.UUID) ([]model.Application, error)
	MarkRejectionNotified(ctx context.Context, id uuid.UUID) error
	// UpdateStatusFromPending transitions pending -> status conditionally.
	UpdateStatusFromPending(ctx context.Context, id uuid.UUID, status string) (int64, error)
	// DeletePendingByListing removes all pending applications, returning the
	// affected rows first so callers can notify the guests.
	DeletePendingByListing(ctx context.Context, listingID uuid.UUID) ([]model.Application, error)
}

type applicationRepo struct{ db *gorm.DB }

func NewApplicationRepo(db *gorm.DB) ApplicationRepo {
	return &applicationRepo{db: db}
}

func (r *applicationRepo) Create(ctx context.Context, a *model.Application) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *applicationRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	var a model.Application
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *applicationRepo) GetActiveByListingAndGuest(ctx context.Context, listingID, guestID uuid.UUID) (*model.Application, error) {
	var a model.Application
	err := r.db.WithContext(ctx).
		Where("listing_id = ? AND guest_id = ? AND status <> ?", listingID, guestID, model.ApplicationCancelled).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *applicationRepo) ListByListing(ctx context.Context, listingID uuid.UUID, status string) ([]model.Application, error) {
	q := r.db.WithContext(ctx).Where("listing_id = ?", listingID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var items []model.Application
	return items, q.Order("created_at ASC").Find(&items).Error
}

func (r *applicationRepo) HasAccepted(ctx context.Context, listingID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("listing_id = ? AND status = ?", listingID, model.ApplicationAccepted).
		Count(&count).Error
	return count > 0, err
}

func (r *applicationRepo) MarkAccepted(ctx context.Context, id uuid.UUID, selectedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("id = ? AND status = ?", id, model.ApplicationPending).
		Updates(map[string]interface{}{
			"status":      model.ApplicationAccepted,
			"selected_at": selectedAt,
		})
	return res.RowsAffected, res.Error
}

func (r *applicationRepo) RejectOtherPending(ctx context.Context, listingID, exceptID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Application{}).
		Where("listing_id = ? AND id <> ? AND status = ?", listingID, exceptID, model.ApplicationPending).
		Updates(map[string]interface{}{
			"status":             model.ApplicationRejected,
			"rejection_notified": false,
		}).Error
}

func (r *applicationRepo) ListRejectedUnnotified(ctx context.Context, listingID uuid.UUID) ([]model.Application, error) {
	var items []model.Application
	err := r.db.WithContext(ctx).
		Where("listing_id = ? AND status = ? AND rejection_notified = false", listingID, model.ApplicationRejected).
		Find(&items).Error
	return items, err
}

func (r *applicationRepo) MarkRejectionNotified(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Application{}).
		Where("id = ?", id).
		Update("rejection_notified", true).Error
}

func (r *applicationRepo) UpdateStatusFromPending(ctx context.Context, id uuid.UUID, status string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("id = ? AND status = ?", id, model.ApplicationPending).
		Update("status", status)
	return res.RowsAffected, res.Error
}

func (r *applicationRepo) DeletePendingByListing(ctx context.Context, listingID uuid.UUID) ([]model.Application, error) {
	var items []model.Application
	err := r.db.WithContext(ctx).
		Where("listing_id = ? AND status = ?", listingID, model.ApplicationPending).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	err = r.db.WithContext(ctx).
		Where("listing_id = ? AND status = ?", listingID, model.ApplicationPending).
		Delete(&model.Application{}).Error
	return items, err
}
