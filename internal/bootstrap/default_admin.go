package bootstrap

import (
	"context"
	"errors"

	"github.com/seatmate-io/seatmate/internal/config"
	"github.com/seatmate-io/seatmate/internal/modules/model"
	"github.com/seatmate-io/seatmate/internal/pkg/utils/secrets"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EnsureDefaultAdminExists creates or realigns the super admin account when
// the service starts, so a fresh deployment is operable without manual SQL.
func EnsureDefaultAdminExists(ctx context.Context, db *gorm.DB, cfg *config.Config, log *zap.Logger) error {
	email := cfg.Auth.AdminEmail
	password := cfg.Auth.AdminPassword
	if email == "" || password == "" {
		return nil
	}

	phc, err := secrets.HashPassword(password, cfg.Auth.SecretPepper)
	if err != nil {
		return err
	}

	var admin model.User
	err = db.WithContext(ctx).Where("email = ?", email).First(&admin).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"password_phc": phc,
			"role":         model.RoleSuperAdmin,
		}
		if uErr := db.WithContext(ctx).Model(&admin).Updates(updates).Error; uErr != nil {
			return uErr
		}
		log.Sugar().Infow("default admin exists", "user", admin.ID)
		return nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		admin = model.User{
			Email:             email,
			DisplayName:       "admin",
			PasswordPHC:       phc,
			Role:              model.RoleSuperAdmin,
			VerificationLevel: model.VerificationHost,
		}
		if cErr := db.WithContext(ctx).Create(&admin).Error; cErr != nil {
			return cErr
		}
		log.Sugar().Infow("default admin created", "user", admin.ID)
		return nil

	default:
		return err
	}
}
