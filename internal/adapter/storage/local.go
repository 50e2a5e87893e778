package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leahpeker/vedgyproject/internal/app/config"
)

type LocalBackend struct {
	dir     string
	baseURL string
}

func NewLocalBackend(cfg config.LocalStorageConfig) (*LocalBackend, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create local storage dir %s: %w", cfg.Dir, err)
	}
	return &LocalBackend{
		dir:     cfg.Dir,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

func (b *LocalBackend) Put(ctx context.Context, key string, data []byte) error {
	path := filepath.Join(b.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: failed to create dir for %s: %v", ErrStorageUnavailable, key, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: failed to write %s: %v", ErrStorageUnavailable, key, err)
	}
	return nil
}

func (b *LocalBackend) URLFor(key string) string {
	return b.baseURL + "/" + key
}

func (b *LocalBackend) Remove(ctx context.Context, key string) (bool, error) {
	path := filepath.Join(b.dir, filepath.FromSlash(key))
	err := os.Remove(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to remove local file %s: %w", key, err)
	}
	return true, nil
}
