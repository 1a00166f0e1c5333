package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/seatmate-io/seatmate/internal/config"
	"go.uber.org/zap"
)

// Domain event types carried over the notification exchange.
const (
	EventInquiryReceived      = "inquiry_received"
	EventApplicationSubmitted = "application_submitted"
	EventApplicationAccepted  = "application_accepted"
	EventApplicationRejected  = "application_rejected"
	EventApplicationRemoved   = "application_removed"
	EventConversationMatched  = "conversation_matched"
	EventTransactionCompleted = "transaction_completed"
	EventReviewReceived       = "review_received"
)

// NotificationEvent is the wire shape published for every domain event. The
// notification emitter consumes these and materializes notification rows.
type NotificationEvent struct {
	Type       string                 `json:"type"`
	UserID     uuid.UUID              `json:"user_id"`
	ActorID    uuid.UUID              `json:"actor_id,omitempty"`
	ListingID  uuid.UUID              `json:"listing_id,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// EventPublisher is satisfied by *mq.Publisher. Services depend on the
// interface so tests can swap in a recorder.
type EventPublisher interface {
	PublishJSON(ctx context.Context, exchangeName string, routingKey string, body any) error
}

// emitEvent publishes best-effort: a broker hiccup must not fail the request
// that already committed its database writes.
func emitEvent(ctx context.Context, pub EventPublisher, cfg *config.Config, log *zap.Logger, ev NotificationEvent) {
	if pub == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	err := pub.PublishJSON(ctx,
		cfg.RabbitMQ.ExchangeName.Notifications,
		cfg.RabbitMQ.RoutingKey.NotificationDeliver,
		ev,
	)
	if err != nil {
		log.Sugar().Errorw("publish domain event", "type", ev.Type, "user_id", ev.UserID, "err", err)
	}
}
