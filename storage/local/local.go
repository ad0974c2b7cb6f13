// Package local archives objects as files under a base directory.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"github.com/kbukum/minutes/logger"
	"github.com/kbukum/minutes/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderLocal, func(cfg storage.Config, _ *logger.Logger) (storage.Storage, error) {
		return NewStorage(cfg.BasePath)
	})
}

type Storage struct {
	root string
}

var _ storage.Storage = (*Storage)(nil)

// NewStorage creates dir if needed.
func NewStorage(dir string) (*Storage, error) {
	if dir == "" {
		return nil, errors.New("local: base_path is required")
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("local: resolve %s: %w", dir, err)
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("local: create %s: %w", root, err)
	}
	return &Storage{root: root}, nil
}

func (s *Storage) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(storage.Key("", key)))
}

// Upload writes to a temporary file in the target directory and renames
// it over the key, so a reader never sees half a page.
func (s *Storage) Upload(_ context.Context, key string, r io.Reader) error {
	dst := s.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("local: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("local: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, err = io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("local: write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("local: commit %s: %w", key, err)
	}
	return nil
}

func (s *Storage) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(s.path(key))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	}
	return false, fmt.Errorf("local: %w", err)
}

// URL is a file:// URL.
func (s *Storage) URL(_ context.Context, key string) (string, error) {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(s.path(key))}).String(), nil
}
