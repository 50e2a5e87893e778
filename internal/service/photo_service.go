package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/leahpeker/vedgyproject/internal/domain/entity"
	"github.com/leahpeker/vedgyproject/internal/platform/logger"
	"github.com/leahpeker/vedgyproject/internal/platform/metrics"
	"github.com/leahpeker/vedgyproject/internal/repository"
)

// PhotoUpload is one candidate image in a batch. FilenameHint is the name
// the uploader gave the file; it is only used for logging and error
// reporting, the stored key is generated.
type PhotoUpload struct {
	Data         []byte
	FilenameHint string
}

// PhotoResult reports the outcome for one upload in a batch. A batch never
// fails as a whole: each photo is accepted or rejected on its own.
type PhotoResult struct {
	FilenameHint string
	Photo        *entity.Photo
	Err          error
}

type PhotoService interface {
	AddPhotos(ctx context.Context, actor entity.Actor, listingID string, uploads []PhotoUpload) ([]PhotoResult, error)
	DeletePhoto(ctx context.Context, actor entity.Actor, listingID, photoID string) error
}

type photoService struct {
	repo          repository.ListingRepository
	store         PhotoStore
	cache         ListingCache
	metrics       *metrics.MetricsManager
	log           logger.Logger
	maxPhotos     int
	maxPhotoBytes int64
}

func NewPhotoService(
	repo repository.ListingRepository,
	store PhotoStore,
	cache ListingCache,
	m *metrics.MetricsManager,
	log logger.Logger,
	maxPhotos int,
	maxPhotoBytes int64,
) PhotoService {
	return &photoService{
		repo:          repo,
		store:         store,
		cache:         cache,
		metrics:       m,
		log:           log,
		maxPhotos:     maxPhotos,
		maxPhotoBytes: maxPhotoBytes,
	}
}

func (s *photoService) AddPhotos(ctx context.Context, actor entity.Actor, listingID string, uploads []PhotoUpload) ([]PhotoResult, error) {
	listing, err := s.repo.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if !listing.IsOwnedBy(actor.UserID) {
		return nil, ErrUnauthorized
	}
	if !listing.IsEditable() {
		return nil, ErrInvalidTransition
	}

	results := make([]PhotoResult, 0, len(uploads))
	count := len(listing.Photos)
	hasPrimary := listing.PrimaryPhoto() != nil

	for _, upload := range uploads {
		result := PhotoResult{FilenameHint: upload.FilenameHint}

		switch {
		case count >= s.maxPhotos:
			result.Err = ErrTooManyPhotos
		case int64(len(upload.Data)) > s.maxPhotoBytes:
			result.Err = ErrPhotoTooLarge
		default:
			photo, err := s.addOne(ctx, listingID, upload, !hasPrimary)
			if err != nil {
				result.Err = err
			} else {
				result.Photo = photo
				count++
				if photo.IsPrimary {
					hasPrimary = true
				}
			}
		}

		if result.Err != nil {
			s.metrics.PhotoUploadFailuresTotal.Inc()
			s.log.Warnf("Photo upload %q to listing %s rejected: %v", upload.FilenameHint, listingID, result.Err)
		} else {
			s.metrics.PhotoUploadsTotal.Inc()
		}
		results = append(results, result)
	}

	s.invalidate(ctx, listingID)
	return results, nil
}

// addOne stores the blob first and only then records it, so a crash between
// the two leaves an orphan blob rather than a record with no blob behind it.
func (s *photoService) addOne(ctx context.Context, listingID string, upload PhotoUpload, claimPrimary bool) (*entity.Photo, error) {
	key, err := s.store.Store(ctx, upload.Data)
	if err != nil {
		return nil, err
	}

	photo := entity.Photo{
		ID:        uuid.NewString(),
		Filename:  key,
		IsPrimary: claimPrimary,
		CreatedAt: time.Now().UTC(),
	}

	err = s.repo.AddPhoto(ctx, repository.AddPhotoParams{
		ListingID:    listingID,
		Photo:        photo,
		RequireEmpty: claimPrimary,
		MaxPhotos:    s.maxPhotos,
	})
	if err != nil && claimPrimary && errors.Is(err, repository.ErrUpdateFailed) {
		// A concurrent upload claimed the primary slot. Retry without it.
		photo.IsPrimary = false
		err = s.repo.AddPhoto(ctx, repository.AddPhotoParams{
			ListingID: listingID,
			Photo:     photo,
			MaxPhotos: s.maxPhotos,
		})
	}
	if err != nil {
		if removed, delErr := s.store.Delete(ctx, key); delErr != nil {
			s.log.Warnf("Failed to clean up stored blob %s after rejected photo record: %v", key, delErr)
		} else if removed {
			s.log.Debugf("Cleaned up stored blob %s after rejected photo record", key)
		}
		if errors.Is(err, repository.ErrUpdateFailed) {
			return nil, s.diagnoseAddMiss(ctx, listingID)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return &photo, nil
}

// diagnoseAddMiss tells the two causes of a missed AddPhoto filter apart:
// the collection is full, or the listing left draft while the batch ran.
func (s *photoService) diagnoseAddMiss(ctx context.Context, listingID string) error {
	listing, err := s.repo.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrListingNotFound
		}
		return err
	}
	if !listing.IsEditable() {
		return ErrInvalidTransition
	}
	return ErrTooManyPhotos
}

func (s *photoService) DeletePhoto(ctx context.Context, actor entity.Actor, listingID, photoID string) error {
	listing, err := s.repo.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrListingNotFound
		}
		return err
	}
	if !listing.IsOwnedBy(actor.UserID) {
		return ErrUnauthorized
	}
	if !listing.IsEditable() {
		return ErrInvalidTransition
	}

	photo := listing.FindPhoto(photoID)
	if photo == nil {
		return ErrPhotoNotFound
	}

	// Storage deletion failure does not block removing the record. An orphan
	// blob is recoverable; a record pointing at a gone blob is not.
	if _, err := s.store.Delete(ctx, photo.Filename); err != nil {
		s.log.Warnf("Failed to delete photo blob %s for listing %s, removing record anyway: %v", photo.Filename, listingID, err)
	}

	if err := s.repo.RemovePhoto(ctx, listingID, photoID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPhotoNotFound
		}
		return err
	}

	s.invalidate(ctx, listingID)
	return nil
}

func (s *photoService) invalidate(ctx context.Context, listingID string) {
	if err := s.cache.Invalidate(ctx, listingID); err != nil {
		s.log.Warnf("Failed to invalidate listing cache for %s: %v", listingID, err)
	}
}
