package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/leahpeker/vedgyproject/internal/domain/entity"
	"github.com/leahpeker/vedgyproject/internal/platform/logger"
	"github.com/leahpeker/vedgyproject/internal/platform/metrics"
	"github.com/leahpeker/vedgyproject/internal/repository"
)

type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) Create(ctx context.Context, listing *entity.Listing) (string, error) {
	args := m.Called(ctx, listing)
	return args.String(0), args.Error(1)
}

func (m *MockListingRepository) GetByID(ctx context.Context, listingID string) (*entity.Listing, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Listing), args.Error(1)
}

func (m *MockListingRepository) UpdateDetails(ctx context.Context, params repository.UpdateDetailsParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockListingRepository) Transition(ctx context.Context, params repository.TransitionParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockListingRepository) Delete(ctx context.Context, listingID string, allowed []entity.ListingStatus) (*entity.Listing, error) {
	args := m.Called(ctx, listingID, allowed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Listing), args.Error(1)
}

func (m *MockListingRepository) AddPhoto(ctx context.Context, params repository.AddPhotoParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockListingRepository) RemovePhoto(ctx context.Context, listingID, photoID string) error {
	args := m.Called(ctx, listingID, photoID)
	return args.Error(0)
}

func (m *MockListingRepository) ListByUser(ctx context.Context, userID string) ([]entity.Listing, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Listing), args.Error(1)
}

func (m *MockListingRepository) ListByStatus(ctx context.Context, status entity.ListingStatus) ([]entity.Listing, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Listing), args.Error(1)
}

func (m *MockListingRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockPaymentTransactionRepository struct {
	mock.Mock
}

func (m *MockPaymentTransactionRepository) Record(ctx context.Context, tx repository.PaymentTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockPaymentTransactionRepository) Remove(ctx context.Context, transactionID string) error {
	args := m.Called(ctx, transactionID)
	return args.Error(0)
}

type MockListingCache struct {
	mock.Mock
}

func (m *MockListingCache) Get(ctx context.Context, listingID string) (*entity.Listing, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Listing), args.Error(1)
}

func (m *MockListingCache) Set(ctx context.Context, listing *entity.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockListingCache) Invalidate(ctx context.Context, listingID string) error {
	args := m.Called(ctx, listingID)
	return args.Error(0)
}

type MockPhotoStore struct {
	mock.Mock
}

func (m *MockPhotoStore) Store(ctx context.Context, data []byte) (string, error) {
	args := m.Called(ctx, data)
	return args.String(0), args.Error(1)
}

func (m *MockPhotoStore) URLFor(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockPhotoStore) Delete(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, subject string, message interface{}) error {
	args := m.Called(ctx, subject, message)
	return args.Error(0)
}

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, to []string, subject, bodyText string) error {
	args := m.Called(ctx, to, subject, bodyText)
	return args.Error(0)
}

type NoOpLogger struct{}

func (l *NoOpLogger) Debug(args ...interface{})                   {}
func (l *NoOpLogger) Debugf(template string, args ...interface{}) {}
func (l *NoOpLogger) Info(args ...interface{})                    {}
func (l *NoOpLogger) Infof(template string, args ...interface{})  {}
func (l *NoOpLogger) Warn(args ...interface{})                    {}
func (l *NoOpLogger) Warnf(template string, args ...interface{})  {}
func (l *NoOpLogger) Error(args ...interface{})                   {}
func (l *NoOpLogger) Errorf(template string, args ...interface{}) {}
func (l *NoOpLogger) Fatal(args ...interface{})                   {}
func (l *NoOpLogger) Fatalf(template string, args ...interface{}) {}
func (l *NoOpLogger) With(args ...interface{}) logger.Logger      { return l }

func NewNoOpLogger() logger.Logger {
	return &NoOpLogger{}
}

func newTestMetrics() *metrics.MetricsManager {
	return metrics.NewMetricsManager("listing_service_test")
}
