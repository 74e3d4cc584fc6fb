package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const objectsDir = "objects"

var contentIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{8,128}$`)

// LocalCAS stores deliverable bytes in a local tree keyed by content id.
type LocalCAS struct {
	root string
}

// NewLocalCAS creates a local store rooted at root.
func NewLocalCAS(root string) (*LocalCAS, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("local cas root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	for _, dir := range []string{abs, filepath.Join(abs, objectsDir), filepath.Join(abs, "tmp")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &LocalCAS{root: abs}, nil
}

// Put streams r into the store under contentID. Existing objects are kept
// as-is since content ids are immutable.
func (c *LocalCAS) Put(ctx context.Context, contentID string, r io.Reader) (PutResult, error) {
	var zero PutResult
	if c == nil {
		return zero, fmt.Errorf("blob store is not configured")
	}
	if r == nil {
		return zero, fmt.Errorf("reader is required")
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	dst, err := c.pathFor(contentID)
	if err != nil {
		return zero, err
	}

	tmp, err := os.CreateTemp(filepath.Join(c.root, "tmp"), "put-*")
	if err != nil {
		return zero, err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), r)
	if err != nil {
		cleanup()
		return zero, err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return zero, err
	}
	result := PutResult{ContentID: contentID, SHA256: hex.EncodeToString(h.Sum(nil)), SizeBytes: n, Path: dst}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		cleanup()
		return zero, err
	}
	if _, err := os.Stat(dst); err == nil {
		_ = os.Remove(tmpPath)
		return result, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		cleanup()
		return zero, err
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		if _, statErr := os.Stat(dst); statErr == nil {
			_ = os.Remove(tmpPath)
			return result, nil
		}
		cleanup()
		return zero, err
	}
	return result, nil
}

// Open returns a reader for the object stored under contentID.
func (c *LocalCAS) Open(ctx context.Context, contentID string) (io.ReadCloser, error) {
	if c == nil {
		return nil, fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := c.pathFor(contentID)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

func (c *LocalCAS) Has(ctx context.Context, contentID string) (bool, error) {
	if c == nil {
		return false, fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path, err := c.pathFor(contentID)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// pathFor fans objects out by the last two characters of the id, which
// are uniformly distributed for both simulated and provider CIDs.
func (c *LocalCAS) pathFor(contentID string) (string, error) {
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return "", fmt.Errorf("content id is required")
	}
	if !contentIDPattern.MatchString(contentID) {
		return "", fmt.Errorf("invalid content id")
	}
	shard := contentID[len(contentID)-2:]
	return filepath.Join(c.root, objectsDir, shard, contentID), nil
}

var _ BlobStore = (*LocalCAS)(nil)
