package service

import (
	"context"
	"errors"
	"time"

	"github.com/leahpeker/vedgyproject/internal/adapter/nats"
	"github.com/leahpeker/vedgyproject/internal/domain/entity"
	"github.com/leahpeker/vedgyproject/internal/platform/logger"
	"github.com/leahpeker/vedgyproject/internal/repository"
)

const (
	natsSubjectListingSubmitted   = "listing.submitted"
	natsSubjectListingDeactivated = "listing.deactivated"
	natsSubjectListingRenewed     = "listing.renewed"
	natsSubjectListingDeleted     = "listing.deleted"
)

type listingEvent struct {
	ListingID  string    `json:"listing_id"`
	UserID     string    `json:"user_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ListingCache is the read cache for public listing lookups.
type ListingCache interface {
	Get(ctx context.Context, listingID string) (*entity.Listing, error)
	Set(ctx context.Context, listing *entity.Listing) error
	Invalidate(ctx context.Context, listingID string) error
}

// PhotoStore is the storage adapter surface the services need.
type PhotoStore interface {
	Store(ctx context.Context, data []byte) (string, error)
	URLFor(key string) string
	Delete(ctx context.Context, key string) (bool, error)
}

type DashboardListings struct {
	Active           []entity.Listing
	Drafts           []entity.Listing
	PaymentSubmitted []entity.Listing
	Deactivated      []entity.Listing
	Expired          []entity.Listing
}

type ListingService interface {
	Create(ctx context.Context, actor entity.Actor, details entity.ListingDetails) (*entity.Listing, error)
	Edit(ctx context.Context, actor entity.Actor, listingID string, details entity.ListingDetails) (*entity.Listing, error)
	SubmitPayment(ctx context.Context, actor entity.Actor, listingID string) (*entity.Listing, error)
	Deactivate(ctx context.Context, actor entity.Actor, listingID string) (*entity.Listing, error)
	Renew(ctx context.Context, actor entity.Actor, listingID string) (*entity.Listing, error)
	Delete(ctx context.Context, actor entity.Actor, listingID string) error
	GetPublic(ctx context.Context, listingID string) (*entity.Listing, error)
	ListPublic(ctx context.Context) ([]entity.Listing, error)
	Dashboard(ctx context.Context, actor entity.Actor) (*DashboardListings, error)
}

type listingService struct {
	repo      repository.ListingRepository
	cache     ListingCache
	store     PhotoStore
	publisher nats.MessagePublisher
	sweeper   *Sweeper
	log       logger.Logger
}

func NewListingService(
	repo repository.ListingRepository,
	cache ListingCache,
	store PhotoStore,
	publisher nats.MessagePublisher,
	sweeper *Sweeper,
	log logger.Logger,
) ListingService {
	return &listingService{
		repo:      repo,
		cache:     cache,
		store:     store,
		publisher: publisher,
		sweeper:   sweeper,
		log:       log,
	}
}

func (s *listingService) Create(ctx context.Context, actor entity.Actor, details entity.ListingDetails) (*entity.Listing, error) {
	s.log.Infof("Creating listing for user %s", actor.UserID)

	listing, err := entity.NewListing(actor.UserID, details)
	if err != nil {
		return nil, err
	}

	id, err := s.repo.Create(ctx, listing)
	if err != nil {
		s.log.Errorf("Failed to create listing for user %s: %v", actor.UserID, err)
		return nil, err
	}
	listing.ID = id
	return listing, nil
}

func (s *listingService) Edit(ctx context.Context, actor entity.Actor, listingID string, details entity.ListingDetails) (*entity.Listing, error) {
	listing, err := s.loadOwned(ctx, listingID, actor)
	if err != nil {
		return nil, err
	}
	if !listing.IsEditable() {
		return nil, ErrInvalidTransition
	}

	err = s.repo.UpdateDetails(ctx, repository.UpdateDetailsParams{
		ListingID: listingID,
		Version:   listing.Version,
		Details:   details,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}
	s.invalidate(ctx, listingID)

	return s.get(ctx, listingID)
}

func (s *listingService) SubmitPayment(ctx context.Context, actor entity.Actor, listingID string) (*entity.Listing, error) {
	return s.ownerTransition(ctx, actor, listingID, entity.StatusPaymentSubmitted, natsSubjectListingSubmitted)
}

func (s *listingService) Deactivate(ctx context.Context, actor entity.Actor, listingID string) (*entity.Listing, error) {
	return s.ownerTransition(ctx, actor, listingID, entity.StatusDeactivated, natsSubjectListingDeactivated)
}

// Renew converts an expired or deactivated listing back to draft for
// re-editing and re-submission. Prior paid_at/expires_at stay in place until
// the next approval stamps fresh ones.
func (s *listingService) Renew(ctx context.Context, actor entity.Actor, listingID string) (*entity.Listing, error) {
	listing, err := s.loadOwned(ctx, listingID, actor)
	if err != nil {
		return nil, err
	}
	if !listing.IsRenewable() {
		return nil, ErrInvalidTransition
	}
	return s.transition(ctx, listing, entity.StatusDraft, nil, natsSubjectListingRenewed)
}

func (s *listingService) Delete(ctx context.Context, actor entity.Actor, listingID string) error {
	listing, err := s.loadOwned(ctx, listingID, actor)
	if err != nil {
		return err
	}
	if !listing.IsDeletable() {
		return ErrInvalidTransition
	}

	allowed := []entity.ListingStatus{entity.StatusDraft, entity.StatusDeactivated, entity.StatusExpired}
	deleted, err := s.repo.Delete(ctx, listingID, allowed)
	if err != nil {
		return mapRepoError(err)
	}

	// Blob deletion is tolerant: a dangling blob is a lesser harm than a
	// dangling photo record.
	for _, photo := range deleted.Photos {
		if _, err := s.store.Delete(ctx, photo.Filename); err != nil {
			s.log.Warnf("Failed to delete photo blob %s for deleted listing %s: %v", photo.Filename, listingID, err)
		}
	}

	s.invalidate(ctx, listingID)
	s.publish(ctx, natsSubjectListingDeleted, deleted)
	s.log.Infof("Listing %s deleted by user %s along with %d photo(s)", listingID, actor.UserID, len(deleted.Photos))
	return nil
}

func (s *listingService) GetPublic(ctx context.Context, listingID string) (*entity.Listing, error) {
	now := time.Now().UTC()

	cached, err := s.cache.Get(ctx, listingID)
	if err != nil {
		s.log.Warnf("Listing cache read failed for %s: %v", listingID, err)
	}
	if cached != nil && cached.Status == entity.StatusActive && !cached.IsOverdue(now) {
		return cached, nil
	}

	s.sweeper.Sweep(ctx)

	listing, err := s.get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != entity.StatusActive {
		return nil, ErrListingNotFound
	}

	if err := s.cache.Set(ctx, listing); err != nil {
		s.log.Warnf("Listing cache write failed for %s: %v", listingID, err)
	}
	return listing, nil
}

func (s *listingService) ListPublic(ctx context.Context) ([]entity.Listing, error) {
	s.sweeper.Sweep(ctx)
	return s.repo.ListByStatus(ctx, entity.StatusActive)
}

func (s *listingService) Dashboard(ctx context.Context, actor entity.Actor) (*DashboardListings, error) {
	s.sweeper.Sweep(ctx)

	listings, err := s.repo.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	dashboard := &DashboardListings{}
	for _, l := range listings {
		switch l.Status {
		case entity.StatusActive:
			dashboard.Active = append(dashboard.Active, l)
		case entity.StatusDraft:
			dashboard.Drafts = append(dashboard.Drafts, l)
		case entity.StatusPaymentSubmitted:
			dashboard.PaymentSubmitted = append(dashboard.PaymentSubmitted, l)
		case entity.StatusDeactivated:
			dashboard.Deactivated = append(dashboard.Deactivated, l)
		case entity.StatusExpired:
			dashboard.Expired = append(dashboard.Expired, l)
		}
	}
	return dashboard, nil
}

func (s *listingService) ownerTransition(ctx context.Context, actor entity.Actor, listingID string, to entity.ListingStatus, subject string) (*entity.Listing, error) {
	listing, err := s.loadOwned(ctx, listingID, actor)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, listing, to, nil, subject)
}

func (s *listingService) transition(ctx context.Context, listing *entity.Listing, to entity.ListingStatus, activation *entity.Activation, subject string) (*entity.Listing, error) {
	if !listing.CanTransitionTo(to) {
		return nil, ErrInvalidTransition
	}

	err := s.repo.Transition(ctx, repository.TransitionParams{
		ListingID:  listing.ID,
		From:       listing.Status,
		To:         to,
		Version:    listing.Version,
		Activation: activation,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	if err := listing.TransitionTo(to); err != nil {
		return nil, err
	}
	if activation != nil {
		listing.PaidAt = &activation.PaidAt
		listing.ExpiresAt = &activation.ExpiresAt
	}

	s.invalidate(ctx, listing.ID)
	s.publish(ctx, subject, listing)
	return listing, nil
}

func (s *listingService) loadOwned(ctx context.Context, listingID string, actor entity.Actor) (*entity.Listing, error) {
	listing, err := s.get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !listing.IsOwnedBy(actor.UserID) {
		s.log.Warnf("User %s attempted to mutate listing %s owned by %s", actor.UserID, listingID, listing.UserID)
		return nil, ErrUnauthorized
	}
	return listing, nil
}

func (s *listingService) get(ctx context.Context, listingID string) (*entity.Listing, error) {
	listing, err := s.repo.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return listing, nil
}

func (s *listingService) invalidate(ctx context.Context, listingID string) {
	if err := s.cache.Invalidate(ctx, listingID); err != nil {
		s.log.Warnf("Failed to invalidate listing cache for %s: %v", listingID, err)
	}
}

func (s *listingService) publish(ctx context.Context, subject string, listing *entity.Listing) {
	event := listingEvent{
		ListingID:  listing.ID,
		UserID:     listing.UserID,
		Status:     string(listing.Status),
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, subject, event); err != nil {
		s.log.Warnf("Failed to publish %s event for listing %s: %v", subject, listing.ID, err)
	}
}
