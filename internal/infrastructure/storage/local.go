// Package storage provides the file storage backends for pictures and avatars
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/alchemorsel/recipes/internal/infrastructure/config"
	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LocalStorage stores objects on the local filesystem. The first key segment
// selects the root directory: "pictures" or "avatars".
type LocalStorage struct {
	roots  map[string]string
	logger *zap.Logger
}

var _ outbound.StorageService = (*LocalStorage)(nil)

// NewLocalStorage creates the storage roots if they do not exist
func NewLocalStorage(cfg config.StorageConfig, logger *zap.Logger) (*LocalStorage, error) {
	roots := map[string]string{
		"pictures": cfg.PictureDir,
		"avatars":  cfg.AvatarDir,
	}
	for name, dir := range roots {
		if dir == "" {
			return nil, fmt.Errorf("storage directory for %s is not configured", name)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", name, err)
		}
	}

	return &LocalStorage{roots: roots, logger: logger.Named("local-storage")}, nil
}

// Put writes r to key atomically through a temporary file
func (s *LocalStorage) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	target, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	tmp := filepath.Join(filepath.Dir(target), ".upload-"+uuid.New().String())
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", key, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to store %s: %w", key, err)
	}

	s.logger.Debug("Object stored", zap.String("key", key), zap.String("content_type", contentType))
	return nil
}

// Open opens the object stored under key
func (s *LocalStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	target, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, outbound.ErrObjectNotFound
		}
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, outbound.ErrObjectNotFound
	}
	return f, nil
}

// Delete removes the object stored under key. Missing objects are ignored.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	target, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *LocalStorage) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)[1:]
	if clean == "" || clean != strings.TrimPrefix(key, "/") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}

	root, rest, ok := strings.Cut(clean, "/")
	if !ok || rest == "" {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	dir, ok := s.roots[root]
	if !ok {
		return "", fmt.Errorf("unknown storage area %q", root)
	}
	return filepath.Join(dir, filepath.FromSlash(rest)), nil
}
