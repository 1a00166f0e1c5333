package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/seatmate-io/seatmate/internal/modules/model"
	"gorm.io/gorm"
)

type ListingRepo interface {
	Create(ctx context.Context, l *model.Listing) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Listing, error)
	List(ctx context.Context, status string, hostID uuid.UUID, afterCreatedAt time.Time, afterID uuid.UUID, limit int, timeDesc bool) ([]model.Listing, error)
	// UpdateWhereOpen applies updates only while the listing is still open.
	// Returns the number of rows touched so callers can detect a lost race.
	UpdateWhereOpen(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (int64, error)
	// SetStatus moves the listing out of open; available_slots goes to zero in
	// the same write to keep the slots/status invariant.
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	IncrementInquiryCount(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type listingRepo struct{ db *gorm.DB }

func NewListingRepo(db *gorm.DB) ListingRepo {
	return &listingRepo{db: db}
}

func (r *listingRepo) Create(ctx context.Context, l *model.Listing) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *listingRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Listing, error) {
	var l model.Listing
	if err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *listingRepo) List(ctx context.Context, status string, hostID uuid.UUID, afterCreatedAt time.Time, afterID uuid.UUID, limit int, timeDesc bool) ([]model.Listing, error) {
	q := r.db.WithContext(ctx).Model(&model.Listing{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if hostID != uuid.Nil {
		q = q.Where("host_id = ?", hostID)
	}
	q = applyCursor(q, afterCreatedAt, afterID, timeDesc)

	var items []model.Listing
	return items, q.Limit(limit).Find(&items).Error
}

func (r *listingRepo) UpdateWhereOpen(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Listing{}).
		Where("id = ? AND status = ?", id, model.ListingOpen).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *listingRepo) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	updates := map[string]interface{}{"status": status}
	if status != model.ListingOpen {
		updates["available_slots"] = 0
	}
	return r.db.WithContext(ctx).Model(&model.Listing{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *listingRepo) IncrementInquiryCount(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Listing{}).
		Where("id = ?", id).
		UpdateColumn("inquiry_count", gorm.Expr("inquiry_count + 1")).Error
}

func (r *listingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	// Applications and conversations go with it via FK cascades.
	return r.db.WithContext(ctx).Delete(&model.Listing{}, "id = ?", id).Error
}
