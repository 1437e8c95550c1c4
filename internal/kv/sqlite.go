package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/coursefinder/internal/shared"
)

// SQLiteStore implements [Store] on the kv_entries table.
type SQLiteStore struct {
	db      *sql.DB
	timeout time.Duration
	owned   bool
}

// NewSQLiteStore wraps an already migrated database. Close does not close db.
func NewSQLiteStore(db *sql.DB, timeout time.Duration) *SQLiteStore {
	return &SQLiteStore{db: db, timeout: timeout}
}

// OpenSQLite opens the database at cfg.Path, applies pending migrations and returns a store that owns the connection.
func OpenSQLite(ctx context.Context, cfg shared.StorageConfig) (*SQLiteStore, error) {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, err
	}
	if path != ":memory:" {
		shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)
	}

	if err := shared.RunMigrationsContext(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db, timeout: cfg.Timeout.Duration, owned: true}, nil
}

// DB exposes the underlying connection (used by the setup command).
func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv_entries WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: get %s: %v", shared.ErrStorageFailure, key, err)
	}
	return value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("%w: set %s: %v", shared.ErrStorageFailure, key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	return s.MultiDelete(ctx, key)
}

// MultiDelete removes all keys in a single statement.
func (s *SQLiteStore) MultiDelete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	query := fmt.Sprintf("DELETE FROM kv_entries WHERE key IN (%s)", placeholders)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: delete %v: %v", shared.ErrStorageFailure, keys, err)
	}
	return nil
}

// Close closes the database when the store opened it.
func (s *SQLiteStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
