package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/seatmate-io/seatmate/internal/modules/model"
	"gorm.io/gorm"
)

type NotificationRepo interface {
	Create(ctx context.Context, n *model.Notification) error
	ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, afterCreatedAt time.Time, afterID uuid.UUID, limit int, timeDesc bool) ([]model.Notification, error)
	// MarkRead marks the notification read iff it belongs to the user.
	MarkRead(ctx context.Context, id, userID uuid.UUID, readAt time.Time) (int64, error)
}

type notificationRepo struct{ db *gorm.DB }

func NewNotificationRepo(db *gorm.DB) NotificationRepo {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepo) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, afterCreatedAt time.Time, afterID uuid.UUID, limit int, timeDesc bool) ([]model.Notification, error) {
	q := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read = false")
	}
	q = applyCursor(q, afterCreatedAt, afterID, timeDesc)

	var items []model.Notification
	return items, q.Limit(limit).Find(&items).Error
}

func (r *notificationRepo) MarkRead(ctx context.Context, id, userID uuid.UUID, readAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"read":    true,
			"read_at": readAt,
		})
	return res.RowsAffected, res.Error
}
