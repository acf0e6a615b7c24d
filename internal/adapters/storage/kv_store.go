package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kaiz-lifeos/kaiz/internal/ports"
)

// kvStore implements ports.KeyValueStore using SQLite.
type kvStore struct {
	db *sql.DB
}

// newKVStore creates a new key-value store.
func newKVStore(db *sql.DB) ports.KeyValueStore {
	return &kvStore{db: db}
}

// Get returns the value stored under key.
func (s *kvStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return []byte(value), nil
}

const upsertQuery = `
	INSERT INTO kv (key, value, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
`

// updateAttempts bounds retries when another process wins the write lock
// between our read and our write.
const updateAttempts = 5

// Set overwrites the value stored under key.
func (s *kvStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertQuery, key, string(value), time.Now()); err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

// Update reads key, applies fn and writes the result in one transaction.
// The transaction is retried when SQLite reports the database busy, which
// happens when another connection committed after our read.
func (s *kvStore) Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	var err error
	for attempt := 0; attempt < updateAttempts; attempt++ {
		err = s.update(ctx, key, fn)
		if !isBusyError(err) {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 20 * time.Millisecond):
		}
	}
	if err != nil {
		return fmt.Errorf("failed to update key %q: %w", key, err)
	}
	return nil
}

func (s *kvStore) update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var current []byte
	var value string
	err = tx.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return err
	default:
		current = []byte(value)
	}

	next, err := fn(current)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, upsertQuery, key, string(next), time.Now()); err != nil {
		return err
	}
	return tx.Commit()
}
