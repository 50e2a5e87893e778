package repository

import (
	"context"
	"time"

	"github.com/leahpeker/vedgyproject/internal/domain/entity"
)

// TransitionParams describes one status edge applied as a single atomic
// update: the status and version preconditions and the effect are checked
// and applied together, so a concurrent caller loses the race instead of
// applying the effect twice.
type TransitionParams struct {
	ListingID string
	From      entity.ListingStatus
	To        entity.ListingStatus
	Version   int
	// Activation is set only for edges into ACTIVE; it stamps paid_at and
	// expires_at alongside the status change.
	Activation *entity.Activation
}

type UpdateDetailsParams struct {
	ListingID string
	Version   int
	Details   entity.ListingDetails
}

type AddPhotoParams struct {
	ListingID string
	Photo     entity.Photo
	// RequireEmpty constrains the update to an empty collection, which is how
	// the first stored photo claims the primary flag without a second writer
	// claiming it too.
	RequireEmpty bool
	MaxPhotos    int
}

type ListingRepository interface {
	Create(ctx context.Context, listing *entity.Listing) (string, error)
	GetByID(ctx context.Context, listingID string) (*entity.Listing, error)
	UpdateDetails(ctx context.Context, params UpdateDetailsParams) error
	Transition(ctx context.Context, params TransitionParams) error
	Delete(ctx context.Context, listingID string, allowed []entity.ListingStatus) (*entity.Listing, error)
	AddPhoto(ctx context.Context, params AddPhotoParams) error
	RemovePhoto(ctx context.Context, listingID, photoID string) error
	ListByUser(ctx context.Context, userID string) ([]entity.Listing, error)
	ListByStatus(ctx context.Context, status entity.ListingStatus) ([]entity.Listing, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}
