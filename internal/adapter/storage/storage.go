package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/leahpeker/vedgyproject/internal/platform/logger"
)

// ErrStorageUnavailable classifies a transient backend failure. The chain
// falls through to the next backend only on this error; anything else is
// terminal and propagates.
var ErrStorageUnavailable = errors.New("storage backend unavailable")

// Backend persists an image blob under a key the service generated.
type Backend interface {
	Put(ctx context.Context, key string, data []byte) error
	URLFor(key string) string
	Remove(ctx context.Context, key string) (bool, error)
}

// PhotoStorage normalizes an image once, generates its key, and walks the
// backend chain. URLs resolve against the preferred backend, matching where
// new uploads land.
type PhotoStorage struct {
	backends []Backend
	log      logger.Logger
}

func NewPhotoStorage(log logger.Logger, primary Backend, fallbacks ...Backend) *PhotoStorage {
	return &PhotoStorage{
		backends: append([]Backend{primary}, fallbacks...),
		log:      log,
	}
}

func (s *PhotoStorage) Store(ctx context.Context, data []byte) (string, error) {
	normalized, err := NormalizeImage(data)
	if err != nil {
		return "", fmt.Errorf("failed to normalize image: %w", err)
	}

	key := "photos/" + uuid.New().String() + ".jpg"

	var lastErr error
	for _, b := range s.backends {
		err := b.Put(ctx, key, normalized)
		if err == nil {
			return key, nil
		}
		if !errors.Is(err, ErrStorageUnavailable) {
			return "", err
		}
		s.log.Warnf("Storage backend unavailable for key %s, trying next backend: %v", key, err)
		lastErr = err
	}
	return "", lastErr
}

func (s *PhotoStorage) URLFor(key string) string {
	return s.backends[0].URLFor(key)
}

// Delete is best-effort across the chain: the blob may live in whichever
// backend accepted it at upload time.
func (s *PhotoStorage) Delete(ctx context.Context, key string) (bool, error) {
	var lastErr error
	for _, b := range s.backends {
		found, err := b.Remove(ctx, key)
		if err != nil {
			s.log.Warnf("Failed to delete key %s from storage backend: %v", key, err)
			lastErr = err
			continue
		}
		if found {
			return true, nil
		}
	}
	return false, lastErr
}
