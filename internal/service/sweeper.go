package service

import (
	"context"
	"time"

	"github.com/leahpeker/vedgyproject/internal/adapter/nats"
	"github.com/leahpeker/vedgyproject/internal/platform/logger"
	"github.com/leahpeker/vedgyproject/internal/platform/metrics"
	"github.com/leahpeker/vedgyproject/internal/repository"
)

const natsSubjectListingExpired = "listing.expired"

type expiredEvent struct {
	ExpiredCount int64     `json:"expired_count"`
	SweptAt      time.Time `json:"swept_at"`
}

// Sweeper opportunistically expires overdue active listings. It runs inline
// before listing reads instead of on a scheduler, so no caller observes a
// stale active listing past its term. Failures are logged and left for the
// next invocation; the sweep is housekeeping, not user-facing work.
type Sweeper struct {
	repo      repository.ListingRepository
	publisher nats.MessagePublisher
	metrics   *metrics.MetricsManager
	log       logger.Logger
}

func NewSweeper(
	repo repository.ListingRepository,
	publisher nats.MessagePublisher,
	m *metrics.MetricsManager,
	log logger.Logger,
) *Sweeper {
	return &Sweeper{
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		log:       log,
	}
}

func (s *Sweeper) Sweep(ctx context.Context) {
	now := time.Now().UTC()
	count, err := s.repo.ExpireOverdue(ctx, now)
	if err != nil {
		s.log.Errorf("Expiration sweep failed, will retry on next invocation: %v", err)
		return
	}
	if count == 0 {
		return
	}

	s.log.Infof("Expiration sweep transitioned %d listing(s) to expired", count)
	s.metrics.ListingsExpiredTotal.Add(float64(count))

	if err := s.publisher.Publish(ctx, natsSubjectListingExpired, expiredEvent{ExpiredCount: count, SweptAt: now}); err != nil {
		s.log.Warnf("Failed to publish %s event: %v", natsSubjectListingExpired, err)
	}
}
