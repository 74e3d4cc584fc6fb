package blobstore

import (
	"context"
	"io"
)

// PutResult describes one persisted deliverable payload.
type PutResult struct {
	ContentID string
	SHA256    string
	SizeBytes int64
	Path      string
}

// BlobStore keeps deliverable bytes addressed by their content identifier.
type BlobStore interface {
	Put(ctx context.Context, contentID string, r io.Reader) (PutResult, error)
	Open(ctx context.Context, contentID string) (io.ReadCloser, error)
	Has(ctx context.Context, contentID string) (bool, error)
}
