package repo

import (
	"context"
	"time"

	"github.com/seatmate-io/seatmate/internal/modules/model"
	"gorm.io/gorm"
)

type AuthSessionRepo interface {
	Create(ctx context.Context, s *model.AuthSession) error
	DeleteByTokenHMAC(ctx context.Context, tokenHMAC string) error
	DeleteExpired(ctx context.Context) error
}

type authSessionRepo struct{ db *gorm.DB }

func NewAuthSessionRepo(db *gorm.DB) AuthSessionRepo {
	return &authSessionRepo{db: db}
}

func (r *authSessionRepo) Create(ctx context.Context, s *model.AuthSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *authSessionRepo) DeleteByTokenHMAC(ctx context.Context, tokenHMAC string) error {
	return r.db.WithContext(ctx).
		Where("token_hmac = ?", tokenHMAC).
		Delete(&model.AuthSession{}).Error
}

func (r *authSessionRepo) DeleteExpired(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&model.AuthSession{}).Error
}
