package service

import (
	"context"
	"fmt"
	"time"

	"github.com/leahpeker/vedgyproject/internal/adapter/email"
	"github.com/leahpeker/vedgyproject/internal/adapter/nats"
	"github.com/leahpeker/vedgyproject/internal/domain/entity"
	"github.com/leahpeker/vedgyproject/internal/platform/logger"
	"github.com/leahpeker/vedgyproject/internal/platform/metrics"
	"github.com/leahpeker/vedgyproject/internal/repository"
)

const (
	natsSubjectListingApproved = "listing.approved"
	natsSubjectListingRejected = "listing.rejected"
)

type ModerationService interface {
	Queue(ctx context.Context, actor entity.Actor) ([]entity.Listing, error)
	Approve(ctx context.Context, actor entity.Actor, listingID string) (*entity.Listing, error)
	Reject(ctx context.Context, actor entity.Actor, listingID string) (*entity.Listing, error)
}

type moderationService struct {
	repo      repository.ListingRepository
	cache     ListingCache
	publisher nats.MessagePublisher
	mailer    email.EmailSender
	sweeper   *Sweeper
	metrics   *metrics.MetricsManager
	log       logger.Logger
	term      time.Duration
}

func NewModerationService(
	repo repository.ListingRepository,
	cache ListingCache,
	publisher nats.MessagePublisher,
	mailer email.EmailSender,
	sweeper *Sweeper,
	m *metrics.MetricsManager,
	log logger.Logger,
	term time.Duration,
) ModerationService {
	return &moderationService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		mailer:    mailer,
		sweeper:   sweeper,
		metrics:   m,
		log:       log,
		term:      term,
	}
}

func (s *moderationService) Queue(ctx context.Context, actor entity.Actor) ([]entity.Listing, error) {
	if !actor.Admin {
		return nil, ErrUnauthorized
	}
	s.sweeper.Sweep(ctx)
	return s.repo.ListByStatus(ctx, entity.StatusPaymentSubmitted)
}

// Approve moves the listing to active and stamps its paid term. The status
// precondition makes a double approval a no-op race-loss rather than a
// double extension.
func (s *moderationService) Approve(ctx context.Context, actor entity.Actor, listingID string) (*entity.Listing, error) {
	listing, err := s.pending(ctx, actor, listingID)
	if err != nil {
		return nil, err
	}

	activation := entity.NewActivation(time.Now().UTC(), s.term)
	err = s.repo.Transition(ctx, repository.TransitionParams{
		ListingID:  listingID,
		From:       entity.StatusPaymentSubmitted,
		To:         entity.StatusActive,
		Version:    listing.Version,
		Activation: &activation,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	listing.Status = entity.StatusActive
	listing.PaidAt = &activation.PaidAt
	listing.ExpiresAt = &activation.ExpiresAt
	listing.Version++

	s.metrics.ListingsActivatedTotal.Inc()
	s.log.Infof("Admin %s approved listing %s, active until %s", actor.UserID, listingID, activation.ExpiresAt.Format(time.RFC3339))

	s.finish(ctx, listing, natsSubjectListingApproved,
		"Your listing has been approved",
		fmt.Sprintf("Your listing %q is now live and will stay active until %s.", listing.Title, activation.ExpiresAt.Format("January 2, 2006")))
	return listing, nil
}

// Reject sends the listing back to draft so the owner can fix it and
// resubmit. Paid timestamps are untouched.
func (s *moderationService) Reject(ctx context.Context, actor entity.Actor, listingID string) (*entity.Listing, error) {
	listing, err := s.pending(ctx, actor, listingID)
	if err != nil {
		return nil, err
	}

	err = s.repo.Transition(ctx, repository.TransitionParams{
		ListingID: listingID,
		From:      entity.StatusPaymentSubmitted,
		To:        entity.StatusDraft,
		Version:   listing.Version,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	listing.Status = entity.StatusDraft
	listing.Version++

	s.metrics.ListingsRejectedTotal.Inc()
	s.log.Infof("Admin %s rejected listing %s back to draft", actor.UserID, listingID)

	s.finish(ctx, listing, natsSubjectListingRejected,
		"Your listing needs changes",
		fmt.Sprintf("Your listing %q was not approved. Please review it in your dashboard and submit it again.", listing.Title))
	return listing, nil
}

func (s *moderationService) pending(ctx context.Context, actor entity.Actor, listingID string) (*entity.Listing, error) {
	if !actor.Admin {
		return nil, ErrUnauthorized
	}
	listing, err := s.repo.GetByID(ctx, listingID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if listing.Status != entity.StatusPaymentSubmitted {
		return nil, ErrInvalidTransition
	}
	return listing, nil
}

func (s *moderationService) finish(ctx context.Context, listing *entity.Listing, subject, mailSubject, mailBody string) {
	if err := s.cache.Invalidate(ctx, listing.ID); err != nil {
		s.log.Warnf("Failed to invalidate listing cache for %s: %v", listing.ID, err)
	}

	if err := s.publisher.Publish(ctx, subject, listingEvent{
		ListingID:  listing.ID,
		UserID:     listing.UserID,
		Status:     string(listing.Status),
		OccurredAt: time.Now().UTC(),
	}); err != nil {
		s.log.Warnf("Failed to publish %s event for listing %s: %v", subject, listing.ID, err)
	}

	if listing.ContactEmail == "" {
		return
	}
	if err := s.mailer.Send(ctx, []string{listing.ContactEmail}, mailSubject, mailBody); err != nil {
		s.log.Warnf("Failed to send moderation email for listing %s to %s: %v", listing.ID, listing.ContactEmail, err)
	}
}
