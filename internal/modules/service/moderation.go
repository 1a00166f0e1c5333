package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/seatmate-io/seatmate/internal/config"
	"github.com/seatmate-io/seatmate/internal/modules/model"
	"github.com/seatmate-io/seatmate/internal/modules/repo"
	"github.com/seatmate-io/seatmate/internal/pkg/paging"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type ModerationService interface {
	// CreateReport files a user report or bug ticket on behalf of a user.
	CreateReport(ctx context.Context, reporterID uuid.UUID, in CreateReportInput) (*model.Report, error)
	ListReports(ctx context.Context, in ListReportsInput) (*ListReportsOutput, error)
	// ResolveReport closes an open report. sub_admin and above.
	ResolveReport(ctx context.Context, admin *model.User, reportID uuid.UUID) error
	// BlacklistUser blocks a user from inquiring and applying. super_admin only.
	BlacklistUser(ctx context.Context, admin *model.User, userID uuid.UUID, reason string) error
	UnblacklistUser(ctx context.Context, admin *model.User, userID uuid.UUID) error
	ListBlacklist(ctx context.Context) ([]model.BlacklistEntry, error)
	// SuspendUser toggles account suspension. super_admin only.
	SuspendUser(ctx context.Context, admin *model.User, userID uuid.UUID, suspended bool) error
	// SetVerificationLevel overrides a user's level in either direction.
	SetVerificationLevel(ctx context.Context, admin *model.User, userID uuid.UUID, level string) error
	ListUsers(ctx context.Context, in ListUsersInput) (*ListUsersOutput, error)
	ListAdminLogs(ctx context.Context, in ListAdminLogsInput) (*ListAdminLogsOutput, error)
}

type moderationService struct {
	users     repo.UserRepo
	reports   repo.ReportRepo
	blacklist repo.BlacklistRepo
	logs      repo.AdminLogRepo
	cfg       *config.Config
	log       *zap.Logger
}

func NewModerationService(
	users repo.UserRepo,
	reports repo.ReportRepo,
	blacklist repo.BlacklistRepo,
	logs repo.AdminLogRepo,
	cfg *config.Config,
	log *zap.Logger,
) ModerationService {
	return &moderationService{
		users:     users,
		reports:   reports,
		blacklist: blacklist,
		logs:      logs,
		cfg:       cfg,
		log:       log,
	}
}

// audit records the admin mutation; a failed audit write is logged, not
// propagated, the mutation already happened.
func (s *moderationService) audit(ctx context.Context, adminID uuid.UUID, action, target string, detail datatypes.JSONMap) {
	err := s.logs.Create(ctx, &model.AdminLog{
		AdminID: adminID,
		Action:  action,
		Target:  target,
		Detail:  detail,
	})
	if err != nil {
		s.log.Sugar().Errorw("write admin log", "action", action, "err", err)
	}
}

type CreateReportInput struct {
	Kind            string     `json:"kind"`
	Body            string     `json:"body"`
	TargetUserID    *uuid.UUID `json:"target_user_id"`
	TargetListingID *uuid.UUID `json:"target_listing_id"`
}

func (s *moderationService) CreateReport(ctx context.Context, reporterID uuid.UUID, in CreateReportInput) (*model.Report, error) {
	if in.Kind != model.ReportKindUser && in.Kind != model.ReportKindBug {
		return nil, fmt.Errorf("unknown report kind %q", in.Kind)
	}
	rep := &model.Report{
		ReporterID:      reporterID,
		Kind:            in.Kind,
		Body:            in.Body,
		TargetUserID:    in.TargetUserID,
		TargetListingID: in.TargetListingID,
		Status:          model.ReportOpen,
	}
	if err := s.reports.Create(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

type ListReportsInput struct {
	Status   string `json:"status"`
	Kind     string `json:"kind"`
	Limit    int    `json:"limit"`
	Cursor   string `json:"cursor"`
	TimeDesc bool   `json:"time_desc"`
}

type ListReportsOutput struct {
	Items      []model.Report `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
	HasMore    bool           `json:"has_more"`
}

func (s *moderationService) ListReports(ctx context.Context, in ListReportsInput) (*ListReportsOutput, error) {
	var afterT time.Time
	var afterID uuid.UUID
	var err error
	if in.Cursor != "" {
		afterT, afterID, err = paging.DecodeCursor(in.Cursor)
		if err != nil {
			return nil, err
		}
	}

	items, err := s.reports.List(ctx, in.Status, in.Kind, afterT, afterID, in.Limit+1, in.TimeDesc)
	if err != nil {
		return nil, err
	}

	out := &ListReportsOutput{Items: items}
	if len(items) > in.Limit {
		out.HasMore = true
		out.Items = items[:in.Limit]
		last := out.Items[len(out.Items)-1]
		out.NextCursor = paging.EncodeCursor(last.CreatedAt, last.ID)
	}
	return out, nil
}

func (s *moderationService) ResolveReport(ctx context.Context, admin *model.User, reportID uuid.UUID) error {
	if model.AdminRank(admin.Role) < model.AdminRank(model.RoleSubAdmin) {
		return ErrForbidden
	}
	rows, err := s.reports.Resolve(ctx, reportID, admin.ID, time.Now())
	if err != nil {
		return err
	}
	if rows == 0 {
		rep, gerr := s.reports.GetByID(ctx, reportID)
		if gerr != nil {
			return wrapNotFound(gerr)
		}
		return &InvalidStateError{Entity: "report", Current: rep.Status}
	}
	s.audit(ctx, admin.ID, "report.resolve", reportID.String(), nil)
	return nil
}

func (s *moderationService) BlacklistUser(ctx context.Context, admin *model.User, userID uuid.UUID, reason string) error {
	if model.AdminRank(admin.Role) < model.AdminRank(model.RoleSuperAdmin) {
		return ErrForbidden
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return wrapNotFound(err)
	}
	err := s.blacklist.Add(ctx, &model.BlacklistEntry{
		UserID:    userID,
		Reason:    reason,
		CreatedBy: admin.ID,
	})
	if err != nil {
		return err
	}
	s.audit(ctx, admin.ID, "blacklist.add", userID.String(), datatypes.JSONMap{"reason": reason})
	return nil
}

func (s *moderationService) UnblacklistUser(ctx context.Context, admin *model.User, userID uuid.UUID) error {
	if model.AdminRank(admin.Role) < model.AdminRank(model.RoleSuperAdmin) {
		return ErrForbidden
	}
	if err := s.blacklist.Remove(ctx, userID); err != nil {
		return err
	}
	s.audit(ctx, admin.ID, "blacklist.remove", userID.String(), nil)
	return nil
}

func (s *moderationService) ListBlacklist(ctx context.Context) ([]model.BlacklistEntry, error) {
	return s.blacklist.List(ctx)
}

func (s *moderationService) SuspendUser(ctx context.Context, admin *model.User, userID uuid.UUID, suspended bool) error {
	if model.AdminRank(admin.Role) < model.AdminRank(model.RoleSuperAdmin) {
		return ErrForbidden
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return wrapNotFound(err)
	}
	if err := s.users.UpdateSuspended(ctx, userID, suspended); err != nil {
		return err
	}
	s.audit(ctx, admin.ID, "user.suspend", userID.String(), datatypes.JSONMap{"suspended": suspended})
	return nil
}

func (s *moderationService) SetVerificationLevel(ctx context.Context, admin *model.User, userID uuid.UUID, level string) error {
	if model.AdminRank(admin.Role) < model.AdminRank(model.RoleSubAdmin) {
		return ErrForbidden
	}
	if model.VerificationRank(level) == 0 && level != model.VerificationUnverified {
		return fmt.Errorf("unknown verification level %q", level)
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return wrapNotFound(err)
	}
	if err := s.users.UpdateVerificationLevel(ctx, userID, level); err != nil {
		return err
	}
	s.audit(ctx, admin.ID, "user.set_verification", userID.String(), datatypes.JSONMap{"level": level})
	return nil
}

type ListUsersInput struct {
	Limit    int    `json:"limit"`
	Cursor   string `json:"cursor"`
	TimeDesc bool   `json:"time_desc"`
}

type ListUsersOutput struct {
	Items      []model.User `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
	HasMore    bool         `json:"has_more"`
}

func (s *moderationService) ListUsers(ctx context.Context, in ListUsersInput) (*ListUsersOutput, error) {
	var afterT time.Time
	var afterID uuid.UUID
	var err error
	if in.Cursor != "" {
		afterT, afterID, err = paging.DecodeCursor(in.Cursor)
		if err != nil {
			return nil, err
		}
	}

	items, err := s.users.List(ctx, afterT, afterID, in.Limit+1, in.TimeDesc)
	if err != nil {
		return nil, err
	}

	out := &ListUsersOutput{Items: items}
	if len(items) > in.Limit {
		out.HasMore = true
		out.Items = items[:in.Limit]
		last := out.Items[len(out.Items)-1]
		out.NextCursor = paging.EncodeCursor(last.CreatedAt, last.ID)
	}
	return out, nil
}

type ListAdminLogsInput struct {
	Limit    int    `json:"limit"`
	Cursor   string `json:"cursor"`
	TimeDesc bool   `json:"time_desc"`
}

type ListAdminLogsOutput struct {
	Items      []model.AdminLog `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
	HasMore    bool             `json:"has_more"`
}

func (s *moderationService) ListAdminLogs(ctx context.Context, in ListAdminLogsInput) (*ListAdminLogsOutput, error) {
	var afterT time.Time
	var afterID uuid.UUID
	var err error
	if in.Cursor != "" {
		afterT, afterID, err = paging.DecodeCursor(in.Cursor)
		if err != nil {
			return nil, err
		}
	}

	items, err := s.logs.List(ctx, afterT, afterID, in.Limit+1, in.TimeDesc)
	if err != nil {
		return nil, err
	}

	out := &ListAdminLogsOutput{Items: items}
	if len(items) > in.Limit {
		out.HasMore = true
		out.Items = items[:in.Limit]
		last := out.Items[len(out.Items)-1]
		out.NextCursor = paging.EncodeCursor(last.CreatedAt, last.ID)
	}
	return out, nil
}
