package lookup

import (
	"context"
	"os"
	"path/filepath"
)

// ObjectStore abstracts the minimal object-store operations the fetcher
// needs: a health check and a single-object download.
type ObjectStore interface {
	Ping(ctx context.Context) error
	GetObject(ctx context.Context, container, key string) ([]byte, error)
}

// LocalStore serves objects from disk. It backs file:// endpoints so
// harvests can run against locally staged mapping files, and it mimics
// the remote store in tests.
type LocalStore struct {
	root string
}

// NewLocalStore creates a local object store rooted at dir.
func NewLocalStore(root string) *LocalStore {
	if root == "" {
		root = filepath.Join(os.TempDir(), "arthub-store")
	}
	_ = os.MkdirAll(root, 0o755)
	return &LocalStore{root: root}
}

func (s *LocalStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.MkdirAll(s.root, 0o755)
}

func (s *LocalStore) GetObject(ctx context.Context, container, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if container == "" {
		return nil, wrapError(CodeFetchFailed, false, os.ErrNotExist)
	}
	fullPath := filepath.Join(s.containerPath(container), filepath.FromSlash(key))
	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, wrapError(CodeFetchFailed, false, err)
		}
		return nil, wrapError(CodeFetchFailed, true, err)
	}
	return data, nil
}

// PutObject stages an object on disk. Not part of ObjectStore; the
// fetcher only reads, but tests and local tooling need to seed files.
func (s *LocalStore) PutObject(ctx context.Context, container, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if container == "" {
		return wrapError(CodeFetchFailed, false, os.ErrNotExist)
	}
	fullPath := filepath.Join(s.containerPath(container), filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return wrapError(CodeFetchFailed, false, err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return wrapError(CodeFetchFailed, true, err)
	}
	return nil
}

func (s *LocalStore) containerPath(container string) string {
	return filepath.Join(s.root, sanitizePath(container))
}
