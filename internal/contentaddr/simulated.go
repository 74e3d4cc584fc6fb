package contentaddr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"morphire/internal/blobstore"
)

// Simulated derives ids locally. When a blob store is attached, payloads are
// also kept so they can be reopened by id.
type Simulated struct {
	blobs  blobstore.BlobStore
	logger *slog.Logger
}

func NewSimulated(blobs blobstore.BlobStore, logger *slog.Logger) *Simulated {
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulated{blobs: blobs, logger: logger}
}

func (s *Simulated) Store(ctx context.Context, data []byte, filename string) (string, error) {
	id := SimulatedCID(data)
	s.keep(ctx, id, data, filename)
	return id, nil
}

// Open returns the kept payload for id.
func (s *Simulated) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	if s.blobs == nil {
		return nil, fmt.Errorf("payload storage is not configured")
	}
	return s.blobs.Open(ctx, id)
}

// keep is best effort: the id is valid whether or not the bytes were kept.
func (s *Simulated) keep(ctx context.Context, id string, data []byte, filename string) {
	if s.blobs == nil {
		return
	}
	if ok, err := s.blobs.Has(ctx, id); err == nil && ok {
		return
	}
	if _, err := s.blobs.Put(ctx, id, bytes.NewReader(data)); err != nil {
		s.logger.Warn("keep deliverable payload", "cid", id, "filename", filename, "error", err)
	}
}
