// Package kv is the durable key-value storage the catalog snapshot lives in.
package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Storage is a string key-value store. Set must not return before the value
// is durable.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// SQLite stores entries in the kv table of an application database.
type SQLite struct {
	DB *sql.DB
}

// NewSQLite returns a Storage backed by db. The kv table must already exist.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{DB: db}
}

// Get returns the value stored under key. ok is false if the key is absent.
func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.DB.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading key %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *SQLite) Set(ctx context.Context, key, value string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("writing key %q: %w", key, err)
	}
	return nil
}
