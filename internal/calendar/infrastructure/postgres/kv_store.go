package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const defaultKVTable = "calendar_kv"

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// KVStore is a Postgres implementation of the calendar key-value store.
type KVStore struct {
	db    DBTX
	table string
}

// NewKVStore constructs a store.
func NewKVStore(db DBTX, opts ...KVOption) *KVStore {
	store := &KVStore{db: db, table: defaultKVTable}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// KVOption configures the store.
type KVOption func(*KVStore)

// WithKVTable overrides the default table name.
func WithKVTable(table string) KVOption {
	return func(store *KVStore) {
		if table != "" {
			store.table = table
		}
	}
}

// Table returns the backing table name.
func (s *KVStore) Table() string { return s.table }

// EnsureSchema creates the backing table if missing.
func (s *KVStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("kv store: nil db")
	}
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`, s.table)
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Get loads the value for key.
func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, errors.New("kv store: nil db")
	}
	if key == "" {
		return "", false, errors.New("kv store: empty key")
	}

	query := fmt.Sprintf(`
SELECT value
FROM %s
WHERE key = $1
LIMIT 1`, s.table)

	var value string
	if err := s.db.QueryRowContext(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// Set upserts value under key.
func (s *KVStore) Set(ctx context.Context, key, value string) error {
	if s == nil || s.db == nil {
		return errors.New("kv store: nil db")
	}
	if key == "" {
		return errors.New("kv store: empty key")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (key, value)
VALUES ($1, $2)
ON CONFLICT (key)
DO UPDATE SET
	value = EXCLUDED.value,
	updated_at = NOW()`, s.table)

	_, err := s.db.ExecContext(ctx, query, key, value)
	return err
}

// Delete removes key.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if s == nil || s.db == nil {
		return errors.New("kv store: nil db")
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, s.table)
	_, err := s.db.ExecContext(ctx, query, key)
	return err
}
