package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leahpeker/vedgyproject/internal/adapter/nats"
	"github.com/leahpeker/vedgyproject/internal/domain/entity"
	"github.com/leahpeker/vedgyproject/internal/platform/logger"
	"github.com/leahpeker/vedgyproject/internal/platform/metrics"
	"github.com/leahpeker/vedgyproject/internal/repository"
)

const (
	natsSubjectListingActivated = "listing.activated"

	webhookEventCompleted = "transaction.completed"
)

// WebhookEvent is the payment provider's notification payload. CustomData
// carries what we attached when the checkout was created.
type WebhookEvent struct {
	EventType     string `json:"event_type"`
	TransactionID string `json:"transaction_id"`
	CustomerEmail string `json:"customer_email"`
	CustomData    struct {
		ListingID string `json:"listing_id"`
		Renewal   bool   `json:"renewal"`
	} `json:"custom_data"`
}

type PaymentService interface {
	HandleWebhook(ctx context.Context, event WebhookEvent) error
}

type paymentService struct {
	listings     repository.ListingRepository
	transactions repository.PaymentTransactionRepository
	cache        ListingCache
	publisher    nats.MessagePublisher
	metrics      *metrics.MetricsManager
	log          logger.Logger
	term         time.Duration
}

func NewPaymentService(
	listings repository.ListingRepository,
	transactions repository.PaymentTransactionRepository,
	cache ListingCache,
	publisher nats.MessagePublisher,
	m *metrics.MetricsManager,
	log logger.Logger,
	term time.Duration,
) PaymentService {
	return &paymentService{
		listings:     listings,
		transactions: transactions,
		cache:        cache,
		publisher:    publisher,
		metrics:      m,
		log:          log,
		term:         term,
	}
}

// HandleWebhook activates or extends the listing named by a completed
// payment. The transaction is recorded before any state changes; a replay
// of an already recorded transaction is acknowledged without acting, and a
// failed activation removes the record so the provider's retry can run the
// whole flow again.
func (s *paymentService) HandleWebhook(ctx context.Context, event WebhookEvent) error {
	if event.EventType != webhookEventCompleted {
		s.log.Debugf("Ignoring webhook event type %q for transaction %s", event.EventType, event.TransactionID)
		return nil
	}
	if event.TransactionID == "" || event.CustomData.ListingID == "" {
		return fmt.Errorf("webhook event missing transaction ID or listing ID")
	}

	tx := repository.PaymentTransaction{
		TransactionID: event.TransactionID,
		ListingID:     event.CustomData.ListingID,
		CustomerEmail: event.CustomerEmail,
		Renewal:       event.CustomData.Renewal,
		ProcessedAt:   time.Now().UTC(),
	}
	if err := s.transactions.Record(ctx, tx); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			s.metrics.WebhookReplaysTotal.Inc()
			s.log.Infof("Webhook replay for transaction %s acknowledged without action", event.TransactionID)
			return nil
		}
		return fmt.Errorf("failed to record payment transaction %s: %w", event.TransactionID, err)
	}

	if err := s.activate(ctx, event); err != nil {
		if remErr := s.transactions.Remove(ctx, event.TransactionID); remErr != nil {
			s.log.Errorf("Failed to remove transaction record %s after failed activation, redelivery will be treated as a replay: %v", event.TransactionID, remErr)
		}
		return err
	}
	return nil
}

func (s *paymentService) activate(ctx context.Context, event WebhookEvent) error {
	listingID := event.CustomData.ListingID

	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrListingNotFound
		}
		return err
	}

	now := time.Now().UTC()
	renewal := event.CustomData.Renewal || listing.Status == entity.StatusActive ||
		listing.Status == entity.StatusExpired || listing.Status == entity.StatusDeactivated

	var activation entity.Activation
	if renewal {
		activation = listing.RenewalActivation(now, s.term)
	} else {
		activation = entity.NewActivation(now, s.term)
	}

	// An active listing being renewed keeps its status; the update still
	// runs through the versioned transition so a concurrent writer loses.
	err = s.listings.Transition(ctx, repository.TransitionParams{
		ListingID:  listingID,
		From:       listing.Status,
		To:         entity.StatusActive,
		Version:    listing.Version,
		Activation: &activation,
	})
	if err != nil {
		s.log.Errorf("Failed to activate listing %s for transaction %s: %v", listingID, event.TransactionID, err)
		return mapRepoError(err)
	}

	s.metrics.ListingsActivatedTotal.Inc()
	s.log.Infof("Listing %s activated until %s (transaction %s, renewal=%t)", listingID, activation.ExpiresAt.Format(time.RFC3339), event.TransactionID, renewal)

	if err := s.cache.Invalidate(ctx, listingID); err != nil {
		s.log.Warnf("Failed to invalidate listing cache for %s: %v", listingID, err)
	}
	if err := s.publisher.Publish(ctx, natsSubjectListingActivated, listingEvent{
		ListingID:  listingID,
		UserID:     listing.UserID,
		Status:     string(entity.StatusActive),
		OccurredAt: now,
	}); err != nil {
		s.log.Warnf("Failed to publish %s event for listing %s: %v", natsSubjectListingActivated, listingID, err)
	}
	return nil
}
