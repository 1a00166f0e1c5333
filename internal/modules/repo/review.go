package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/seatmate-io/seatmate/internal/modules/model"
	"gorm.io/gorm"
)

type ReviewRepo interface {
	Create(ctx context.Context, rev *model.Review) error
	Exists(ctx context.Context, listingID, reviewerID, revieweeID uuid.UUID) (bool, error)
	ListForUser(ctx context.Context, revieweeID uuid.UUID, afterCreatedAt time.Time, afterID uuid.UUID, limit int, timeDesc bool) ([]model.Review, error)
	// RecomputeUserRating rewrites the reviewee's aggregate from all reviews
	// received: mean rounded to 1 decimal, plus the count.
	RecomputeUserRating(ctx context.Context, revieweeID uuid.UUID) error
}

type reviewRepo struct{ db *gorm.DB }

func NewReviewRepo(db *gorm.DB) ReviewRepo {
	return &reviewRepo{db: db}
}

func (r *reviewRepo) Create(ctx context.Context, rev *model.Review) error {
	return r.db.WithContext(ctx).Create(rev).Error
}

func (r *reviewRepo) Exists(ctx context.Context, listingID, reviewerID, revieweeID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Review{}).
		Where("listing_id = ? AND reviewer_id = ? AND reviewee_id = ?", listingID, reviewerID, revieweeID).
		Count(&count).Error
	return count > 0, err
}

func (r *reviewRepo) ListForUser(ctx context.Context, revieweeID uuid.UUID, afterCreatedAt time.Time, afterID uuid.UUID, limit int, timeDesc bool) ([]model.Review, error) {
	q := r.db.WithContext(ctx).Model(&model.Review{}).
		Where("reviewee_id = ?", revieweeID)
	q = applyCursor(q, afterCreatedAt, afterID, timeDesc)

	var items []model.Review
	return items, q.Limit(limit).Find(&items).Error
}

func (r *reviewRepo) RecomputeUserRating(ctx context.Context, revieweeID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE users SET
			rating = COALESCE((SELECT ROUND(AVG(rating)::numeric, 1) FROM reviews WHERE reviewee_id = ?), 0),
			review_count = (SELECT COUNT(*) FROM reviews WHERE reviewee_id = ?)
		WHERE id = ?`,
		revieweeID, revieweeID, revieweeID,
	).Error
}
