package filestorage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrPathExists is returned by Upload when the target path is already
	// occupied. Blob paths are write-once; callers treat this as fatal.
	ErrPathExists = errors.New("file storage path already exists")
	// ErrNotFound is returned by Download for an unknown path.
	ErrNotFound = errors.New("file not found")
)

// FileStorage is the blob-store collaborator. Upload must fail, not silently
// overwrite, when the path already exists.
type FileStorage interface {
	Upload(ctx context.Context, path string, data []byte) error
	Download(ctx context.Context, path string) ([]byte, error)
}

type localFileStorage struct {
	root string
}

// NewLocalStorage returns a FileStorage backed by a local directory tree.
// It is the default adapter; deployments swap in a real blob-store client.
func NewLocalStorage(root string) FileStorage {
	return &localFileStorage{root: root}
}

func (s *localFileStorage) Upload(ctx context.Context, path string, data []byte) error {
	full := filepath.Join(s.root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}
	// O_EXCL enforces the write-once contract.
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrPathExists, path)
		}
		return fmt.Errorf("open storage file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write storage file: %w", err)
	}
	return nil
}

func (s *localFileStorage) Download(ctx context.Context, path string) ([]byte, error) {
	full := filepath.Join(s.root, filepath.FromSlash(path))
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read storage file: %w", err)
	}
	return data, nil
}
