package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"morphire/internal/identity"
)

const (
	busyTimeoutMS   = 5000
	maxOpenConns    = 1
	maxIdleConns    = 1
	connMaxLifetime = 5 * time.Minute
)

type sqliteBackend struct {
	db *sql.DB
}

// OpenSQLite opens the SQLite database at path and applies pending
// migrations.
func OpenSQLite(path string, opts ...Option) (*Store, error) {
	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := configureDB(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return newStore(BackendSQLite, &sqliteBackend{db: db}, opts), nil
}

func (b *sqliteBackend) read(ctx context.Context, key identity.StorageKey) ([]byte, bool, error) {
	var body string
	err := b.db.QueryRowContext(ctx, "SELECT body FROM documents WHERE storage_key = ?", key.String()).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(body), true, nil
}

func (b *sqliteBackend) write(ctx context.Context, key identity.StorageKey, rec record) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO documents (storage_key, owner_identity, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(storage_key) DO UPDATE SET
			owner_identity = excluded.owner_identity,
			body = excluded.body,
			updated_at = excluded.updated_at
	`, key.String(), rec.OwnerIdentity, string(rec.Body), rec.CreatedAt, rec.UpdatedAt)
	return err
}

func (b *sqliteBackend) close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func configureDB(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		fmt.Sprintf("PRAGMA busy_timeout = %d;", busyTimeoutMS),
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	// Tune connection pool for local usage.
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	return nil
}

func sqliteDSN(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("db path is required")
	}
	u := url.URL{Scheme: "file", Path: path}
	return u.String(), nil
}

// OpenRawDB opens the database without migrating, for inspection.
func OpenRawDB(path string) (*sql.DB, error) {
	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, err
	}
	return sql.Open("sqlite", dsn)
}

// SQLitePath is where Open places the SQLite database under dataDir.
func SQLitePath(dataDir string) string {
	return filepath.Join(dataDir, sqliteFileName)
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}
