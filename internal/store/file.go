package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"morphire/internal/identity"
)

type fileBackend struct {
	dir string
}

// OpenFile returns a store keeping one morphire-<key>.json per identity in dir.
func OpenFile(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("documents dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create documents dir: %w", err)
	}
	return newStore(BackendFile, &fileBackend{dir: dir}, opts), nil
}

func (b *fileBackend) path(key identity.StorageKey) string {
	return filepath.Join(b.dir, key.FileName())
}

func (b *fileBackend) read(ctx context.Context, key identity.StorageKey) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	body, err := os.ReadFile(b.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

// write replaces the document via temp file, fsync, and rename so a reader
// never sees a partial file.
func (b *fileBackend) write(ctx context.Context, key identity.StorageKey, rec record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(b.dir, ".morphire-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(rec.Body); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpPath, b.path(key)); err != nil {
		cleanup()
		return err
	}
	return nil
}

func (b *fileBackend) close() error { return nil }
