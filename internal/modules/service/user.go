package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/seatmate-io/seatmate/internal/config"
	"github.com/seatmate-io/seatmate/internal/modules/model"
	"github.com/seatmate-io/seatmate/internal/modules/repo"
	"github.com/seatmate-io/seatmate/internal/pkg/utils/secrets"
	"github.com/seatmate-io/seatmate/internal/pkg/utils/tokens"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	// Login verifies credentials and issues a bearer token. Only the HMAC of
	// the token secret is stored.
	Login(ctx context.Context, email, password string) (*LoginOutput, error)
	Logout(ctx context.Context, rawToken string) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// UpdateVerification advances the user's own verification level. Levels
	// only move forward; demotion is an admin operation.
	UpdateVerification(ctx context.Context, userID uuid.UUID, level string) (*model.User, error)
}

type userService struct {
	users    repo.UserRepo
	sessions repo.AuthSessionRepo
	cfg      *config.Config
	log      *zap.Logger
}

func NewUserService(users repo.UserRepo, sessions repo.AuthSessionRepo, cfg *config.Config, log *zap.Logger) UserService {
	return &userService{
		users:    users,
		sessions: sessions,
		cfg:      cfg,
		log:      log,
	}
}

type RegisterInput struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	phc, err := secrets.HashPassword(in.Password, s.cfg.Auth.SecretPepper)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Email:             in.Email,
		DisplayName:       in.DisplayName,
		PasswordPHC:       phc,
		Role:              model.RoleUser,
		VerificationLevel: model.VerificationUnverified,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

type LoginOutput struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

func (s *userService) Login(ctx context.Context, email, password string) (*LoginOutput, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	ok, err := secrets.VerifyPassword(password, s.cfg.Auth.SecretPepper, u.PasswordPHC)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if u.Suspended {
		return nil, ErrForbidden
	}

	secret, err := tokens.NewSecret()
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().Add(time.Duration(s.cfg.Auth.SessionTTLHours) * time.Hour)
	session := &model.AuthSession{
		UserID:    u.ID,
		TokenHMAC: tokens.HMAC256Hex(s.cfg.Auth.SecretPepper, secret),
		ExpiresAt: expiresAt,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	// Prune opportunistically; expired rows are already ignored by auth.
	if err := s.sessions.DeleteExpired(ctx); err != nil {
		s.log.Sugar().Warnw("prune expired sessions", "err", err)
	}

	return &LoginOutput{
		Token:     s.cfg.Auth.SessionTokenPrefix + secret,
		ExpiresAt: expiresAt,
		User:      u,
	}, nil
}

func (s *userService) Logout(ctx context.Context, rawToken string) error {
	secret, ok := tokens.ParseToken(rawToken, s.cfg.Auth.SessionTokenPrefix)
	if !ok {
		return ErrInvalidCredentials
	}
	return s.sessions.DeleteByTokenHMAC(ctx, tokens.HMAC256Hex(s.cfg.Auth.SecretPepper, secret))
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return u, nil
}

func (s *userService) UpdateVerification(ctx context.Context, userID uuid.UUID, level string) (*model.User, error) {
	if model.VerificationRank(level) == 0 && level != model.VerificationUnverified {
		return nil, fmt.Errorf("unknown verification level %q", level)
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	if model.VerificationRank(level) < model.VerificationRank(u.VerificationLevel) {
		return nil, &InvalidStateError{Entity: "verification", Current: u.VerificationLevel}
	}
	if err := s.users.UpdateVerificationLevel(ctx, userID, level); err != nil {
		return nil, err
	}
	u.VerificationLevel = level
	return u, nil
}
