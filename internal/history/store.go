// Package history persists the connection history and user settings the
// engine consumes: which receivers were used, when, and whether lost links
// reconnect automatically. The engine sees it only through its
// SettingsProvider interface.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

const (
	busyTimeout = 5 * time.Second

	settingAutoReconnect = "auto_reconnect"
)

// Entry is one remembered receiver, deduplicated by address.
type Entry struct {
	Address         string
	LastConnectedAt time.Time
}

// NotFoundError indicates a requested record does not exist.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

// IsNotFound returns true when err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

// Store provides access to the history database.
type Store struct {
	db *sql.DB
}

// Open initialises the store at the given file path, creating the schema on
// first use.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history: database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("history: create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open sqlite store: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout.Milliseconds()),
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("history: apply %s: %w", pragma, err)
		}
	}
	return nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	schema := `
        CREATE TABLE IF NOT EXISTS connection_history (
            address TEXT PRIMARY KEY,
            last_connected_at TIMESTAMP NOT NULL
        );
        CREATE TABLE IF NOT EXISTS settings (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL,
            updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("history: ensure schema: %w", err)
	}
	return nil
}

// RecordConnection upserts the history entry for address with the given
// connect time.
func (s *Store) RecordConnection(ctx context.Context, address string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO connection_history (address, last_connected_at)
        VALUES (?, ?)
        ON CONFLICT(address) DO UPDATE SET
            last_connected_at = excluded.last_connected_at`,
		address, at.UTC())
	if err != nil {
		return fmt.Errorf("history: record connection %q: %w", address, err)
	}
	return nil
}

// Recent returns history entries, most recently connected first. A limit of
// zero or less returns everything.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT address, last_connected_at FROM connection_history
              ORDER BY last_connected_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: list connections: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Address, &e.LastConnectedAt); err != nil {
			return nil, fmt.Errorf("history: scan connection row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate connection rows: %w", err)
	}
	return entries, nil
}

// Last returns the most recently used receiver address.
func (s *Store) Last(ctx context.Context) (Entry, error) {
	entries, err := s.Recent(ctx, 1)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, NotFoundError{Entity: "connection history entry"}
	}
	return entries[0], nil
}

// Forget removes one address from the history.
func (s *Store) Forget(ctx context.Context, address string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM connection_history WHERE address = ?`, address)
	if err != nil {
		return fmt.Errorf("history: forget %q: %w", address, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return NotFoundError{Entity: "connection history entry", Key: address}
	}
	return nil
}

// AutoReconnect returns the persisted auto-reconnect preference, defaulting
// to true when unset.
func (s *Store) AutoReconnect(ctx context.Context) (bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, settingAutoReconnect).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("history: load auto-reconnect: %w", err)
	}

	enabled, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("history: parse auto-reconnect %q: %w", value, err)
	}
	return enabled, nil
}

// SetAutoReconnect persists the auto-reconnect preference.
func (s *Store) SetAutoReconnect(ctx context.Context, enabled bool) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO settings (key, value, updated_at)
        VALUES (?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(key) DO UPDATE SET
            value = excluded.value,
            updated_at = CURRENT_TIMESTAMP`,
		settingAutoReconnect, strconv.FormatBool(enabled))
	if err != nil {
		return fmt.Errorf("history: save auto-reconnect: %w", err)
	}
	return nil
}
