// Package store persists identity documents.
//
// A Store pairs a byte-level backend (SQLite or one JSON file per key) with
// per-key session locking. Every document is addressed by the identity's
// derived StorageKey; the identity string itself never becomes a key or
// file name.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"morphire/internal/identity"
	"morphire/internal/models"
)

const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"

	sqliteFileName = "morphire.db"
	documentsDir   = "documents"
)

// backend moves encoded documents in and out of durable storage.
type backend interface {
	read(ctx context.Context, key identity.StorageKey) ([]byte, bool, error)
	write(ctx context.Context, key identity.StorageKey, rec record) error
	close() error
}

type record struct {
	OwnerIdentity string
	Body          []byte
	CreatedAt     string
	UpdatedAt     string
}

// Store is the DocumentStore shared by both backends.
type Store struct {
	name    string
	backend backend
	locks   *keyLocks
	clock   models.Clock
	logger  *slog.Logger
}

type Option func(*Store)

func WithClock(clock models.Clock) Option {
	return func(s *Store) { s.clock = clock }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// Open returns the store for the named backend rooted at dataDir. An empty
// name selects SQLite.
func Open(name, dataDir string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(dataDir) == "" {
		return nil, fmt.Errorf("data dir is required")
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendSQLite:
		return OpenSQLite(SQLitePath(dataDir), opts...)
	case BackendFile:
		return OpenFile(filepath.Join(dataDir, documentsDir), opts...)
	default:
		return nil, fmt.Errorf("unknown storage backend %q (expected %s or %s)", name, BackendSQLite, BackendFile)
	}
}

func newStore(name string, b backend, opts []Option) *Store {
	s := &Store{name: name, backend: b, locks: newKeyLocks(), logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend names the active backend.
func (s *Store) Backend() string { return s.name }

// Load returns the persisted document for identity, or a fresh default
// document when none exists yet.
func (s *Store) Load(ctx context.Context, id string) (*models.Document, error) {
	if err := identity.Validate(id); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	return s.load(ctx, id, identity.DeriveKey(id))
}

// Save stamps lastUpdated and writes doc atomically.
func (s *Store) Save(ctx context.Context, doc *models.Document, id string) error {
	if err := identity.Validate(id); err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("document is required")
	}
	id = strings.TrimSpace(id)
	key := identity.DeriveKey(id)
	release := s.locks.acquire(key)
	defer release()
	return s.save(ctx, doc, id, key)
}

// Update runs fn against the identity's document while holding the key's
// lock. The document is saved only when fn returns nil.
func (s *Store) Update(ctx context.Context, id string, fn func(*models.Document) error) (*models.Document, error) {
	if err := identity.Validate(id); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	key := identity.DeriveKey(id)
	release := s.locks.acquire(key)
	defer release()

	doc, err := s.load(ctx, id, key)
	if err != nil {
		return nil, err
	}
	if err := fn(doc); err != nil {
		return nil, err
	}
	if err := s.save(ctx, doc, id, key); err != nil {
		return nil, err
	}
	return doc, nil
}

// Close releases the backend.
func (s *Store) Close() error {
	if s == nil || s.backend == nil {
		return nil
	}
	return s.backend.close()
}

func (s *Store) load(ctx context.Context, id string, key identity.StorageKey) (*models.Document, error) {
	body, ok, err := s.backend.read(ctx, key)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Key: key, Err: err}
	}
	if !ok {
		s.logger.Debug("new document", "key", key, "identity", identity.Short(id))
		return models.NewDocument(id, s.clock.Now()), nil
	}

	var doc models.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &PersistenceError{Op: "decode", Key: key, Err: err}
	}
	doc.Normalize()
	return &doc, nil
}

func (s *Store) save(ctx context.Context, doc *models.Document, id string, key identity.StorageKey) error {
	now := s.clock.Now()
	doc.Meta.LastUpdated = now
	if doc.Meta.OwnerIdentity == "" {
		doc.Meta.OwnerIdentity = id
	}
	if doc.Meta.CreatedAt.IsZero() {
		doc.Meta.CreatedAt = now
	}
	doc.Normalize()

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &PersistenceError{Op: "encode", Key: key, Err: err}
	}
	rec := record{
		OwnerIdentity: id,
		Body:          body,
		CreatedAt:     formatTime(doc.Meta.CreatedAt),
		UpdatedAt:     formatTime(now),
	}
	if err := s.backend.write(ctx, key, rec); err != nil {
		return &PersistenceError{Op: "save", Key: key, Err: err}
	}
	return nil
}
