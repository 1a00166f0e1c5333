package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/seatmate-io/seatmate/internal/modules/model"
	"gorm.io/gorm"
)

type ReportRepo interface {
	Create(ctx context.Context, rep *model.Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Report, error)
	List(ctx context.Context, status, kind string, afterCreatedAt time.Time, afterID uuid.UUID, limit int, timeDesc bool) ([]model.Report, error)
	// Resolve flips an open report to resolved. Rows affected is 0 when the
	// report was already resolved.
	Resolve(ctx context.Context, id, resolvedBy uuid.UUID, resolvedAt time.Time) (int64, error)
}

type BlacklistRepo interface {
	Add(ctx context.Context, e *model.BlacklistEntry) error
	Remove(ctx context.Context, userID uuid.UUID) error
	Contains(ctx context.Context, userID uuid.UUID) (bool, error)
	List(ctx context.Context) ([]model.BlacklistEntry, error)
}

type AdminLogRepo interface {
	Create(ctx context.Context, l *model.AdminLog) error
	List(ctx context.Context, afterCreatedAt time.Time, afterID uuid.UUID, limit int, timeDesc bool) ([]model.AdminLog, error)
}

type reportRepo struct{ db *gorm.DB }

func NewReportRepo(db *gorm.DB) ReportRepo {
	return &reportRepo{db: db}
}

func (r *reportRepo) Create(ctx context.Context, rep *model.Report) error {
	return r.db.WithContext(ctx).Create(rep).Error
}

func (r *reportRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	var rep model.Report
	if err := r.db.WithContext(ctx).First(&rep, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *reportRepo) List(ctx context.Context, status, kind string, afterCreatedAt time.Time, afterID uuid.UUID, limit int, timeDesc bool) ([]model.Report, error) {
	q := r.db.WithContext(ctx).Model(&model.Report{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	q = applyCursor(q, afterCreatedAt, afterID, timeDesc)

	var items []model.Report
	return items, q.Limit(limit).Find(&items).Error
}

func (r *reportRepo) Resolve(ctx context.Context, id, resolvedBy uuid.UUID, resolvedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Report{}).
		Where("id = ? AND status = ?", id, model.ReportOpen).
		Updates(map[string]interface{}{
			"status":      model.ReportResolved,
			"resolved_by": resolvedBy,
			"resolved_at": resolvedAt,
		})
	return res.RowsAffected, res.Error
}

type blacklistRepo struct{ db *gorm.DB }

func NewBlacklistRepo(db *gorm.DB) BlacklistRepo {
	return &blacklistRepo{db: db}
}

func (r *blacklistRepo) Add(ctx context.Context, e *model.BlacklistEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *blacklistRepo) Remove(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.BlacklistEntry{}).Error
}

func (r *blacklistRepo) Contains(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.BlacklistEntry{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count > 0, err
}

func (r *blacklistRepo) List(ctx context.Context) ([]model.BlacklistEntry, error) {
	var items []model.BlacklistEntry
	return items, r.db.WithContext(ctx).Order("created_at DESC").Find(&items).Error
}

type adminLogRepo struct{ db *gorm.DB }

func NewAdminLogRepo(db *gorm.DB) AdminLogRepo {
	return &adminLogRepo{db: db}
}

func (r *adminLogRepo) Create(ctx context.Context, l *model.AdminLog) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *adminLogRepo) List(ctx context.Context, afterCreatedAt time.Time, afterID uuid.UUID, limit int, timeDesc bool) ([]model.AdminLog, error) {
	q := r.db.WithContext(ctx).Model(&model.AdminLog{})
	q = applyCursor(q, afterCreatedAt, afterID, timeDesc)

	var items []model.AdminLog
	return items, q.Limit(limit).Find(&items).Error
}
