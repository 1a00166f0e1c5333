package service

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/seatmate-io/seatmate/internal/config"
	"github.com/seatmate-io/seatmate/internal/infra/httpclient"
	"github.com/seatmate-io/seatmate/internal/modules/model"
	"github.com/seatmate-io/seatmate/internal/modules/repo"
	"github.com/seatmate-io/seatmate/internal/pkg/paging"
	"gorm.io/datatypes"

	"go.uber.org/zap"
)

type NotificationService interface {
	// HandleEvent materializes one queued domain event into a notification
	// row and, when enabled, forwards it to the outbound webhook. Wired as
	// the consumer handler.
	HandleEvent(body []byte) error
	List(ctx context.Context, in ListNotificationsInput) (*ListNotificationsOutput, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
}

type notificationService struct {
	notifications repo.NotificationRepo
	webhook       *httpclient.WebhookClient
	cfg           *config.Config
	log           *zap.Logger
}

func NewNotificationService(notifications repo.NotificationRepo, webhook *httpclient.WebhookClient, cfg *config.Config, log *zap.Logger) NotificationService {
	return &notificationService{
		notifications: notifications,
		webhook:       webhook,
		cfg:           cfg,
		log:           log,
	}
}

func (s *notificationService) HandleEvent(body []byte) error {
	var ev NotificationEvent
	if err := sonic.Unmarshal(body, &ev); err != nil {
		// A malformed message would requeue forever; drop it loudly instead.
		s.log.Sugar().Errorw("drop malformed event", "err", err, "body", string(body))
		return nil
	}

	payload := datatypes.JSONMap{}
	for k, v := range ev.Payload {
		payload[k] = v
	}
	payload["actor_id"] = ev.ActorID.String()
	payload["listing_id"] = ev.ListingID.String()
	payload["occurred_at"] = ev.OccurredAt.Format(time.RFC3339)

	ctx := context.Background()
	n := &model.Notification{
		UserID:  ev.UserID,
		Type:    ev.Type,
		Payload: payload,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return err
	}

	if err := s.webhook.Deliver(ctx, ev); err != nil {
		// Fire and forget: the row is already written, a webhook failure
		// must not requeue the event and duplicate it.
		s.log.Sugar().Warnw("webhook delivery failed", "type", ev.Type, "err", err)
	}
	return nil
}

type ListNotificationsInput struct {
	UserID     uuid.UUID `json:"user_id"`
	UnreadOnly bool      `json:"unread_only"`
	Limit      int       `json:"limit"`
	Cursor     string    `json:"cursor"`
	TimeDesc   bool      `json:"time_desc"`
}

type ListNotificationsOutput struct {
	Items      []model.Notification `json:"items"`
	NextCursor string               `json:"next_cursor,omitempty"`
	HasMore    bool                 `json:"has_more"`
}

func (s *notificationService) List(ctx context.Context, in ListNotificationsInput) (*ListNotificationsOutput, error) {
	var afterT time.Time
	var afterID uuid.UUID
	var err error
	if in.Cursor != "" {
		afterT, afterID, err = paging.DecodeCursor(in.Cursor)
		if err != nil {
			return nil, err
		}
	}

	items, err := s.notifications.ListForUser(ctx, in.UserID, in.UnreadOnly, afterT, afterID, in.Limit+1, in.TimeDesc)
	if err != nil {
		return nil, err
	}

	out := &ListNotificationsOutput{Items: items}
	if len(items) > in.Limit {
		out.HasMore = true
		out.Items = items[:in.Limit]
		last := out.Items[len(out.Items)-1]
		out.NextCursor = paging.EncodeCursor(last.CreatedAt, last.ID)
	}
	return out, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	rows, err := s.notifications.MarkRead(ctx, notificationID, userID, time.Now())
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
