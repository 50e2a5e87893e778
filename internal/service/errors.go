package service

import (
	"errors"

	"github.com/leahpeker/vedgyproject/internal/repository"
)

var (
	ErrListingNotFound = errors.New("listing not found")
	// ErrUnauthorized means the actor does not own the listing (or lacks the
	// admin capability). It is deliberately distinct from
	// ErrInvalidTransition so callers can tell a permission failure from a
	// race-loss.
	ErrUnauthorized      = errors.New("user not authorized to perform this action")
	ErrInvalidTransition = errors.New("listing status does not permit this operation")
	ErrPhotoTooLarge     = errors.New("photo exceeds the maximum allowed size")
	ErrTooManyPhotos     = errors.New("listing already has the maximum number of photos")
	ErrPhotoNotFound     = errors.New("photo not found")
)

// mapRepoError folds a lost CAS into ErrInvalidTransition: the precondition
// held when the listing was read, so a miss means a concurrent writer got
// there first.
func mapRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrListingNotFound
	case errors.Is(err, repository.ErrOptimisticLock),
		errors.Is(err, repository.ErrUpdateFailed),
		errors.Is(err, repository.ErrDeleteFailed):
		return ErrInvalidTransition
	default:
		return err
	}
}
