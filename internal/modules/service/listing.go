package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/seatmate-io/seatmate/internal/config"
	"github.com/seatmate-io/seatmate/internal/modules/model"
	"github.com/seatmate-io/seatmate/internal/modules/repo"
	"github.com/seatmate-io/seatmate/internal/pkg/paging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ListingService interface {
	Create(ctx context.Context, host *model.User, l *model.Listing) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Listing, error)
	List(ctx context.Context, in ListListingsInput) (*ListListingsOutput, error)
	// Update edits listing fields while the listing is still open. Once a
	// match happened the listing is frozen. With removeApplicants, all
	// pending applications are deleted and their guests notified.
	Update(ctx context.Context, userID, listingID uuid.UUID, updates map[string]interface{}, removeApplicants bool) (*model.Listing, error)
	// Close retires an open listing, or marks a matched one's handoff done.
	// Pending applications are removed and their guests notified.
	Close(ctx context.Context, userID, listingID uuid.UUID) error
	Delete(ctx context.Context, user *model.User, listingID uuid.UUID) error
}

type listingService struct {
	listings  repo.ListingRepo
	apps      repo.ApplicationRepo
	publisher EventPublisher
	cfg       *config.Config
	log       *zap.Logger
}

func NewListingService(listings repo.ListingRepo, apps repo.ApplicationRepo, publisher EventPublisher, cfg *config.Config, log *zap.Logger) ListingService {
	return &listingService{
		listings:  listings,
		apps:      apps,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

func (s *listingService) Create(ctx context.Context, host *model.User, l *model.Listing) error {
	if model.VerificationRank(host.VerificationLevel) < model.VerificationRank(model.VerificationHost) {
		return ErrVerificationRequired
	}
	l.HostID = host.ID
	l.Status = model.ListingOpen
	if l.TotalSlots <= 0 {
		l.TotalSlots = 1
	}
	l.AvailableSlots = l.TotalSlots
	return s.listings.Create(ctx, l)
}

func (s *listingService) GetByID(ctx context.Context, id uuid.UUID) (*model.Listing, error) {
	l, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return l, nil
}

type ListListingsInput struct {
	Status   string    `json:"status"`
	HostID   uuid.UUID `json:"host_id"`
	Limit    int       `json:"limit"`
	Cursor   string    `json:"cursor"`
	TimeDesc bool      `json:"time_desc"`
}

type ListListingsOutput struct {
	Items      []model.Listing `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
	HasMore    bool            `json:"has_more"`
}

func (s *listingService) List(ctx context.Context, in ListListingsInput) (*ListListingsOutput, error) {
	var afterT time.Time
	var afterID uuid.UUID
	var err error
	if in.Cursor != "" {
		afterT, afterID, err = paging.DecodeCursor(in.Cursor)
		if err != nil {
			return nil, err
		}
	}

	// Query limit+1 is used to determine has_more
	items, err := s.listings.List(ctx, in.Status, in.HostID, afterT, afterID, in.Limit+1, in.TimeDesc)
	if err != nil {
		return nil, err
	}

	out := &ListListingsOutput{Items: items}
	if len(items) > in.Limit {
		out.HasMore = true
		out.Items = items[:in.Limit]
		last := out.Items[len(out.Items)-1]
		out.NextCursor = paging.EncodeCursor(last.CreatedAt, last.ID)
	}
	return out, nil
}

func (s *listingService) Update(ctx context.Context, userID, listingID uuid.UUID, updates map[string]interface{}, removeApplicants bool) (*model.Listing, error) {
	l, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	if l.HostID != userID {
		return nil, ErrForbidden
	}
	rows, err := s.listings.UpdateWhereOpen(ctx, listingID, updates)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// Re-read for the current state; the listing left "open" under us.
		if cur, gerr := s.listings.GetByID(ctx, listingID); gerr == nil {
			return nil, &InvalidStateError{Entity: "listing", Current: cur.Status}
		}
		return nil, &InvalidStateError{Entity: "listing", Current: l.Status}
	}

	if removeApplicants {
		removed, err := s.apps.DeletePendingByListing(ctx, listingID)
		if err != nil {
			return nil, err
		}
		for _, a := range removed {
			emitEvent(ctx, s.publisher, s.cfg, s.log, NotificationEvent{
				Type:      EventApplicationRemoved,
				UserID:    a.GuestID,
				ActorID:   userID,
				ListingID: listingID,
				Payload:   map[string]interface{}{"reason": "listing_edited"},
			})
		}
	}

	return s.listings.GetByID(ctx, listingID)
}

func (s *listingService) Close(ctx context.Context, userID, listingID uuid.UUID) error {
	l, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return wrapNotFound(err)
	}
	if l.HostID != userID {
		return ErrForbidden
	}
	if l.Status != model.ListingOpen && l.Status != model.ListingMatched {
		return &InvalidStateError{Entity: "listing", Current: l.Status}
	}

	removed, err := s.apps.DeletePendingByListing(ctx, listingID)
	if err != nil {
		return err
	}
	if err := s.listings.SetStatus(ctx, listingID, model.ListingClosed); err != nil {
		return err
	}

	for _, a := range removed {
		emitEvent(ctx, s.publisher, s.cfg, s.log, NotificationEvent{
			Type:      EventApplicationRemoved,
			UserID:    a.GuestID,
			ActorID:   userID,
			ListingID: listingID,
			Payload:   map[string]interface{}{"reason": "listing_closed"},
		})
	}
	return nil
}

func (s *listingService) Delete(ctx context.Context, user *model.User, listingID uuid.UUID) error {
	l, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return wrapNotFound(err)
	}
	if l.HostID != user.ID && model.AdminRank(user.Role) < model.AdminRank(model.RoleSuperAdmin) {
		return ErrForbidden
	}
	return s.listings.Delete(ctx, listingID)
}

// wrapNotFound maps the storage miss onto the domain sentinel.
func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
