package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/seatmate-io/seatmate/internal/config"
	"github.com/seatmate-io/seatmate/internal/modules/model"
	"github.com/seatmate-io/seatmate/internal/modules/repo"
	"github.com/seatmate-io/seatmate/internal/pkg/paging"
	"github.com/seatmate-io/seatmate/internal/telemetry"
	"go.uber.org/zap"
)

// autoReviewAfter is how long a completed transaction sits unreviewed before
// the sweep fills the gap with a synthetic 5-star review.
const autoReviewAfter = 3 * 24 * time.Hour

const (
	sweepLockKey = "reviews:auto-complete:lock"
	sweepLockTTL = 10 * time.Minute

	autoReviewRating = 5
)

type ReviewService interface {
	// Create records one party's review of the other for a completed
	// transaction and recomputes the reviewee's aggregate.
	Create(ctx context.Context, reviewerID uuid.UUID, in CreateReviewInput) (*model.Review, error)
	ListForUser(ctx context.Context, in ListReviewsInput) (*ListReviewsOutput, error)
	// PendingReviews lists the completed transactions the user has not yet
	// reviewed.
	PendingReviews(ctx context.Context, userID uuid.UUID) ([]PendingReview, error)
	// AutoComplete is the sweep: transactions both-confirmed for three days
	// and unreviewed get synthetic reviews in both directions. Rows whose
	// completion write was lost to a crash are completed on the way.
	// Re-running is a no-op.
	AutoComplete(ctx context.Context) (*AutoCompleteOutput, error)
}

type reviewService struct {
	reviews       repo.ReviewRepo
	confirmations repo.ConfirmationRepo
	rdb           *redis.Client
	publisher     EventPublisher
	cfg           *config.Config
	log           *zap.Logger
}

func NewReviewService(
	reviews repo.ReviewRepo,
	confirmations repo.ConfirmationRepo,
	rdb *redis.Client,
	publisher EventPublisher,
	cfg *config.Config,
	log *zap.Logger,
) ReviewService {
	return &reviewService{
		reviews:       reviews,
		confirmations: confirmations,
		rdb:           rdb,
		publisher:     publisher,
		cfg:           cfg,
		log:           log,
	}
}

type CreateReviewInput struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Rating         int       `json:"rating"`
	Comment        *string   `json:"comment"`
}

func (s *reviewService) Create(ctx context.Context, reviewerID uuid.UUID, in CreateReviewInput) (*model.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5, got %d", in.Rating)
	}

	t, err := s.confirmations.GetByConversation(ctx, in.ConversationID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	if t.CompletedAt == nil {
		return nil, &InvalidStateError{Entity: "transaction", Current: "incomplete"}
	}

	var revieweeID uuid.UUID
	switch reviewerID {
	case t.HostID:
		revieweeID = t.GuestID
	case t.GuestID:
		revieweeID = t.HostID
	default:
		return nil, ErrForbidden
	}

	exists, err := s.reviews.Exists(ctx, t.ListingID, reviewerID, revieweeID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateReview
	}

	rev := &model.Review{
		ListingID:  t.ListingID,
		ReviewerID: reviewerID,
		RevieweeID: revieweeID,
		Rating:     in.Rating,
		Comment:    in.Comment,
	}
	if err := s.reviews.Create(ctx, rev); err != nil {
		return nil, err
	}
	if err := s.reviews.RecomputeUserRating(ctx, revieweeID); err != nil {
		return nil, err
	}

	emitEvent(ctx, s.publisher, s.cfg, s.log, NotificationEvent{
		Type:      EventReviewReceived,
		UserID:    revieweeID,
		ActorID:   reviewerID,
		ListingID: t.ListingID,
		Payload:   map[string]interface{}{"review_id": rev.ID, "rating": rev.Rating},
	})

	return rev, nil
}

type ListReviewsInput struct {
	RevieweeID uuid.UUID `json:"reviewee_id"`
	Limit      int       `json:"limit"`
	Cursor     string    `json:"cursor"`
	TimeDesc   bool      `json:"time_desc"`
}

type ListReviewsOutput struct {
	Items      []model.Review `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
	HasMore    bool           `json:"has_more"`
}

func (s *reviewService) ListForUser(ctx context.Context, in ListReviewsInput) (*ListReviewsOutput, error) {
	var afterT time.Time
	var afterID uuid.UUID
	var err error
	if in.Cursor != "" {
		afterT, afterID, err = paging.DecodeCursor(in.Cursor)
		if err != nil {
			return nil, err
		}
	}

	items, err := s.reviews.ListForUser(ctx, in.RevieweeID, afterT, afterID, in.Limit+1, in.TimeDesc)
	if err != nil {
		return nil, err
	}

	out := &ListReviewsOutput{Items: items}
	if len(items) > in.Limit {
		out.HasMore = true
		out.Items = items[:in.Limit]
		last := out.Items[len(out.Items)-1]
		out.NextCursor = paging.EncodeCursor(last.CreatedAt, last.ID)
	}
	return out, nil
}

type PendingReview struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	ListingID      uuid.UUID `json:"listing_id"`
	RevieweeID     uuid.UUID `json:"reviewee_id"`
	CompletedAt    time.Time `json:"completed_at"`
}

func (s *reviewService) PendingReviews(ctx context.Context, userID uuid.UUID) ([]PendingReview, error) {
	completed, err := s.confirmations.ListCompletedForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	pending := make([]PendingReview, 0, len(completed))
	for _, t := range completed {
		revieweeID := t.GuestID
		if userID == t.GuestID {
			revieweeID = t.HostID
		}
		exists, err := s.reviews.Exists(ctx, t.ListingID, userID, revieweeID)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		pending = append(pending, PendingReview{
			ConversationID: t.ConversationID,
			ListingID:      t.ListingID,
			RevieweeID:     revieweeID,
			CompletedAt:    *t.CompletedAt,
		})
	}
	return pending, nil
}

type AutoCompleteOutput struct {
	Scanned int `json:"scanned"`
	Created int `json:"created"`
}

func (s *reviewService) AutoComplete(ctx context.Context) (*AutoCompleteOutput, error) {
	if s.rdb != nil {
		ok, err := s.rdb.SetNX(ctx, sweepLockKey, 1, sweepLockTTL).Result()
		if err != nil {
			return nil, err
		}
		if !ok {
			s.log.Info("auto-review sweep already running, skipping")
			return &AutoCompleteOutput{}, nil
		}
		defer s.rdb.Del(context.WithoutCancel(ctx), sweepLockKey)
	}

	cutoff := time.Now().Add(-autoReviewAfter)
	candidates, err := s.confirmations.ListBothConfirmedBefore(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	out := &AutoCompleteOutput{Scanned: len(candidates)}
	for _, t := range candidates {
		if t.CompletedAt == nil {
			// Both stamps landed but the completion write was lost; converge
			// before reviewing.
			if err := s.completeStale(ctx, &t); err != nil {
				return nil, err
			}
		}
		pairs := [][2]uuid.UUID{
			{t.HostID, t.GuestID},
			{t.GuestID, t.HostID},
		}
		for _, p := range pairs {
			created, err := s.autoReview(ctx, t.ListingID, p[0], p[1])
			if err != nil {
				return nil, err
			}
			if created {
				out.Created++
			}
		}
	}

	if out.Created > 0 {
		telemetry.RecordAutoReviews(ctx, int64(out.Created))
	}
	s.log.Sugar().Infow("auto-review sweep done", "scanned", out.Scanned, "created", out.Created)
	return out, nil
}

func (s *reviewService) completeStale(ctx context.Context, t *model.TransactionConfirmation) error {
	now := time.Now()
	rows, err := s.confirmations.CompleteIfBothConfirmed(ctx, t.ID, now)
	if err != nil {
		return err
	}
	if rows == 0 {
		return nil
	}
	t.CompletedAt = &now
	telemetry.RecordCompletion(ctx)
	for _, userID := range []uuid.UUID{t.HostID, t.GuestID} {
		emitEvent(ctx, s.publisher, s.cfg, s.log, NotificationEvent{
			Type:      EventTransactionCompleted,
			UserID:    userID,
			ListingID: t.ListingID,
			Payload:   map[string]interface{}{"conversation_id": t.ConversationID},
		})
	}
	s.log.Sugar().Infow("completed stale confirmation", "confirmation_id", t.ID)
	return nil
}

func (s *reviewService) autoReview(ctx context.Context, listingID, reviewerID, revieweeID uuid.UUID) (bool, error) {
	exists, err := s.reviews.Exists(ctx, listingID, reviewerID, revieweeID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	rev := &model.Review{
		ListingID:  listingID,
		ReviewerID: reviewerID,
		RevieweeID: revieweeID,
		Rating:     autoReviewRating,
		IsAuto:     true,
	}
	if err := s.reviews.Create(ctx, rev); err != nil {
		return false, err
	}
	if err := s.reviews.RecomputeUserRating(ctx, revieweeID); err != nil {
		return false, err
	}
	return true, nil
}
