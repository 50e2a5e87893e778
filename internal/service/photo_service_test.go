package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/leahpeker/vedgyproject/internal/domain/entity"
	"github.com/leahpeker/vedgyproject/internal/repository"
)

const (
	testMaxPhotos     = 10
	testMaxPhotoBytes = int64(1024)
)

func newPhotoService(repo *MockListingRepository, store *MockPhotoStore, cache *MockListingCache) PhotoService {
	return NewPhotoService(repo, store, cache, newTestMetrics(), NewNoOpLogger(), testMaxPhotos, testMaxPhotoBytes)
}

func TestPhotoService_AddPhotos_FirstPhotoClaimsPrimary(t *testing.T) {
	mockRepo := new(MockListingRepository)
	mockStore := new(MockPhotoStore)
	mockCache := new(MockListingCache)
	svc := newPhotoService(mockRepo, mockStore, mockCache)

	draft := testListing("listing1", "user1", entity.StatusDraft)
	mockRepo.On("GetByID", mock.Anything, "listing1").Return(draft, nil).Once()
	mockStore.On("Store", mock.Anything, mock.Anything).Return("photos/a.jpg", nil).Once()
	mockRepo.On("AddPhoto", mock.Anything, mock.MatchedBy(func(p repository.AddPhotoParams) bool {
		return p.ListingID == "listing1" && p.Photo.IsPrimary && p.RequireEmpty
	})).Return(nil).Once()
	mockCache.On("Invalidate", mock.Anything, "listing1").Return(nil).Once()

	results, err := svc.AddPhotos(context.Background(), entity.Actor{UserID: "user1"}, "listing1", []PhotoUpload{
		{Data: []byte("jpegdata"), FilenameHint: "room.jpg"},
	})

	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
	assert.True(t, results[0].Photo.IsPrimary)
	assert.Equal(t, "photos/a.jpg", results[0].Photo.Filename)
	mockRepo.AssertExpectations(t)
	mockStore.AssertExpectations(t)
}

func TestPhotoService_AddPhotos_SecondPhotoNotPrimary(t *testing.T) {
	mockRepo := new(MockListingRepository)
	mockStore := new(MockPhotoStore)
	mockCache := new(MockListingCache)
	svc := newPhotoService(mockRepo, mockStore, mockCache)

	draft := testListing("listing1", "user1", entity.StatusDraft)
	draft.Photos = []entity.Photo{{ID: "p1", Filename: "photos/a.jpg", IsPrimary: true}}

	mockRepo.On("GetByID", mock.Anything, "listing1").Return(draft, nil).Once()
	mockStore.On("Store", mock.Anything, mock.Anything).Return("photos/b.jpg", nil).Once()
	mockRepo.On("AddPhoto", mock.Anything, mock.MatchedBy(func(p repository.AddPhotoParams) bool {
		return !p.Photo.IsPrimary && !p.RequireEmpty && p.MaxPhotos == testMaxPhotos
	})).Return(nil).Once()
	mockCache.On("Invalidate", mock.Anything, "listing1").Return(nil).Once()

	results, err := svc.AddPhotos(context.Background(), entity.Actor{UserID: "user1"}, "listing1", []PhotoUpload{
		{Data: []byte("jpegdata"), FilenameHint: "kitchen.jpg"},
	})

	assert.NoError(t, err)
	assert.False(t, results[0].Photo.IsPrimary)
	mockRepo.AssertExpectations(t)
}

func TestPhotoService_AddPhotos_PrimaryRaceFallsBack(t *testing.T) {
	mockRepo := new(MockListingRepository)
	mockStore := new(MockPhotoStore)
	mockCache := new(MockListingCache)
	svc := newPhotoService(mockRepo, mockStore, mockCache)

	draft := testListing("listing1", "user1", entity.StatusDraft)
	mockRepo.On("GetByID", mock.Anything, "listing1").Return(draft, nil).Once()
	mockStore.On("Store", mock.Anything, mock.Anything).Return("photos/a.jpg", nil).Once()
	mockRepo.On("AddPhoto", mock.Anything, mock.MatchedBy(func(p repository.AddPhotoParams) bool {
		return p.RequireEmpty
	})).Return(repository.ErrUpdateFailed).Once()
	mockRepo.On("AddPhoto", mock.Anything, mock.MatchedBy(func(p repository.AddPhotoParams) bool {
		return !p.RequireEmpty && !p.Photo.IsPrimary
	})).Return(nil).Once()
	mockCache.On("Invalidate", mock.Anything, "listing1").Return(nil).Once()

	results, err := svc.AddPhotos(context.Background(), entity.Actor{UserID: "user1"}, "listing1", []PhotoUpload{
		{Data: []byte("jpegdata"), FilenameHint: "room.jpg"},
	})

	assert.NoError(t, err)
	assert.NoError(t, results[0].Err)
	assert.False(t, results[0].Photo.IsPrimary)
	mockRepo.AssertExpectations(t)
}

func TestPhotoService_AddPhotos_RejectsOversize(t *testing.T) {
	mockRepo := new(MockListingRepository)
	mockStore := new(MockPhotoStore)
	mockCache := new(MockListingCache)
	svc := newPhotoService(mockRepo, mockStore, mockCache)

	draft := testListing("listing1", "user1", entity.StatusDraft)
	mockRepo.On("GetByID", mock.Anything, "listing1").Return(draft, nil).Once()
	mockCache.On("Invalidate", mock.Anything, "listing1").Return(nil).Once()

	oversize := bytes.Repeat([]byte("x"), int(testMaxPhotoBytes)+1)
	results, err := svc.AddPhotos(context.Background(), entity.Actor{UserID: "user1"}, "listing1", []PhotoUpload{
		{Data: oversize, FilenameHint: "huge.jpg"},
	})

	assert.NoError(t, err)
	assert.ErrorIs(t, results[0].Err, ErrPhotoTooLarge)
	mockStore.AssertNotCalled(t, "Store")
	mockRepo.AssertNotCalled(t, "AddPhoto")
}

func TestPhotoService_AddPhotos_RejectsBeyondLimit(t *testing.T) {
	mockRepo := new(MockListingRepository)
	mockStore := new(MockPhotoStore)
	mockCache := new(MockListingCache)
	svc := newPhotoService(mockRepo, mockStore, mockCache)

	draft := testListing("listing1", "user1", entity.StatusDraft)
	for i := 0; i < testMaxPhotos; i++ {
		draft.Photos = append(draft.Photos, entity.Photo{ID: "p", IsPrimary: i == 0})
	}

	mockRepo.On("GetByID", mock.Anything, "listing1").Return(draft, nil).Once()
	mockCache.On("Invalidate", mock.Anything, "listing1").Return(nil).Once()

	results, err := svc.AddPhotos(context.Background(), entity.Actor{UserID: "user1"}, "listing1", []PhotoUpload{
		{Data: []byte("jpegdata"), FilenameHint: "eleventh.jpg"},
	})

	assert.NoError(t, err)
	assert.ErrorIs(t, results[0].Err, ErrTooManyPhotos)
	mockStore.AssertNotCalled(t, "Store")
}

func TestPhotoService_AddPhotos_BatchMixedOutcomes(t *testing.T) {
	mockRepo := new(MockListingRepository)
	mockStore := new(MockPhotoStore)
	mockCache := new(MockListingCache)
	svc := newPhotoService(mockRepo, mockStore, mockCache)

	draft := testListing("listing1", "user1", entity.StatusDraft)
	for i := 0; i < testMaxPhotos-1; i++ {
		draft.Photos = append(draft.Photos, entity.Photo{ID: "p", IsPrimary: i == 0})
	}

	mockRepo.On("GetByID", mock.Anything, "listing1").Return(draft, nil).Once()
	mockStore.On("Store", mock.Anything, mock.Anything).Return("photos/last.jpg", nil).Once()
	mockRepo.On("AddPhoto", mock.Anything, mock.Anything).Return(nil).Once()
	mockCache.On("Invalidate", mock.Anything, "listing1").Return(nil).Once()

	results, err := svc.AddPhotos(context.Background(), entity.Actor{UserID: "user1"}, "listing1", []PhotoUpload{
		{Data: []byte("jpegdata"), FilenameHint: "tenth.jpg"},
		{Data: []byte("jpegdata"), FilenameHint: "eleventh.jpg"},
	})

	assert.NoError(t, err)
	assert.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, ErrTooManyPhotos)
	mockRepo.AssertExpectations(t)
	mockStore.AssertExpectations(t)
}

func TestPhotoService_AddPhotos_CleansUpBlobOnRecordFailure(t *testing.T) {
	mockRepo := new(MockListingRepository)
	mockStore := new(MockPhotoStore)
	mockCache := new(MockListingCache)
	svc := newPhotoService(mockRepo, mockStore, mockCache)

	draft := testListing("listing1", "user1", entity.StatusDraft)
	draft.Photos = []entity.Photo{{ID: "p1", IsPrimary: true}}

	mockRepo.On("GetByID", mock.Anything, "listing1").Return(draft, nil).Twice()
	mockStore.On("Store", mock.Anything, mock.Anything).Return("photos/b.jpg", nil).Once()
	mockRepo.On("AddPhoto", mock.Anything, mock.Anything).Return(repository.ErrUpdateFailed).Once()
	mockStore.On("Delete", mock.Anything, "photos/b.jpg").Return(true, nil).Once()
	mockCache.On("Invalidate", mock.Anything, "listing1").Return(nil).Once()

	results, err := svc.AddPhotos(context.Background(), entity.Actor{UserID: "user1"}, "listing1", []PhotoUpload{
		{Data: []byte("jpegdata"), FilenameHint: "room.jpg"},
	})

	assert.NoError(t, err)
	assert.ErrorIs(t, results[0].Err, ErrTooManyPhotos)
	mockStore.AssertExpectations(t)
}

func TestPhotoService_AddPhotos_ListingLeavesDraftMidBatch(t *testing.T) {
	mockRepo := new(MockListingRepository)
	mockStore := new(MockPhotoStore)
	mockCache := new(MockListingCache)
	svc := newPhotoService(mockRepo, mockStore, mockCache)

	draft := testListing("listing1", "user1", entity.StatusDraft)
	draft.Photos = []entity.Photo{{ID: "p1", IsPrimary: true}}
	submitted := testListing("listing1", "user1", entity.StatusPaymentSubmitted)

	mockRepo.On("GetByID", mock.Anything, "listing1").Return(draft, nil).Once()
	mockStore.On("Store", mock.Anything, mock.Anything).Return("photos/b.jpg", nil).Once()
	mockRepo.On("AddPhoto", mock.Anything, mock.Anything).Return(repository.ErrUpdateFailed).Once()
	mockStore.On("Delete", mock.Anything, "photos/b.jpg").Return(true, nil).Once()
	mockRepo.On("GetByID", mock.Anything, "listing1").Return(submitted, nil).Once()
	mockCache.On("Invalidate", mock.Anything, "listing1").Return(nil).Once()

	results, err := svc.AddPhotos(context.Background(), entity.Actor{UserID: "user1"}, "listing1", []PhotoUpload{
		{Data: []byte("jpegdata"), FilenameHint: "room.jpg"},
	})

	assert.NoError(t, err)
	assert.ErrorIs(t, results[0].Err, ErrInvalidTransition)
	assert.NotErrorIs(t, results[0].Err, ErrTooManyPhotos)
	mockRepo.AssertExpectations(t)
}

func TestPhotoService_AddPhotos_Fail_NotDraft(t *testing.T) {
	mockRepo := new(MockListingRepository)
	svc := newPhotoService(mockRepo, new(MockPhotoStore), new(MockListingCache))

	mockRepo.On("GetByID", mock.Anything, "listing1").Return(testListing("listing1", "user1", entity.StatusActive), nil).Once()

	results, err := svc.AddPhotos(context.Background(), entity.Actor{UserID: "user1"}, "listing1", []PhotoUpload{
		{Data: []byte("jpegdata")},
	})

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Nil(t, results)
}

func TestPhotoService_DeletePhoto_StorageFailureDoesNotBlock(t *testing.T) {
	mockRepo := new(MockListingRepository)
	mockStore := new(MockPhotoStore)
	mockCache := new(MockListingCache)
	svc := newPhotoService(mockRepo, mockStore, mockCache)

	draft := testListing("listing1", "user1", entity.StatusDraft)
	draft.Photos = []entity.Photo{{ID: "p1", Filename: "photos/a.jpg", IsPrimary: true}}

	mockRepo.On("GetByID", mock.Anything, "listing1").Return(draft, nil).Once()
	mockStore.On("Delete", mock.Anything, "photos/a.jpg").Return(false, assert.AnError).Once()
	mockRepo.On("RemovePhoto", mock.Anything, "listing1", "p1").Return(nil).Once()
	mockCache.On("Invalidate", mock.Anything, "listing1").Return(nil).Once()

	err := svc.DeletePhoto(context.Background(), entity.Actor{UserID: "user1"}, "listing1", "p1")

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockStore.AssertExpectations(t)
}

func TestPhotoService_DeletePhoto_Fail_UnknownPhoto(t *testing.T) {
	mockRepo := new(MockListingRepository)
	svc := newPhotoService(mockRepo, new(MockPhotoStore), new(MockListingCache))

	mockRepo.On("GetByID", mock.Anything, "listing1").Return(testListing("listing1", "user1", entity.StatusDraft), nil).Once()

	err := svc.DeletePhoto(context.Background(), entity.Actor{UserID: "user1"}, "listing1", "ghost")

	assert.ErrorIs(t, err, ErrPhotoNotFound)
	mockRepo.AssertNotCalled(t, "RemovePhoto")
}
