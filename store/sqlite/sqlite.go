/*
Package sqlite provides a SQLite-backed implementation of pharmacy.KVStore.

PURPOSE:
  Durable storage for the ledger's collections. Each collection is one
  row in a key-value table; the value is the JSON array of records.

KEY TABLES:
  kv: key TEXT PRIMARY KEY, value BLOB, updated_at TEXT

ATOMIC BATCHES:
  PutBatch upserts every entry inside one database transaction. A sale
  touches three collections; either all three rows change or none do.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.
  The ledger already serializes writers, so contention is low.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Readers don't block the writer
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/pharmacy.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger, report := pharmacy.Open(ctx, pharmacy.NewPersister(store, ""), opts)

SEE ALSO:
  - pharmacy/persist.go: Encodes collections into this store
  - pharmacy/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/pharmacy-ledger/pharmacy"
)

var _ pharmacy.KVStore = (*Store)(nil)

// Store implements pharmacy.KVStore using SQLite.
type Store struct {
	db *sqlx.DB
	mu sync.RWMutex
}

// Entry is one stored row.
type Entry struct {
	Key       string `db:"key"`
	Size      int    `db:"size"`
	UpdatedAt string `db:"updated_at"`
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value []byte
	err := s.db.GetContext(ctx, &value, `SELECT value FROM kv WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return value, true, nil
}

// PutBatch upserts all entries in one transaction.
func (s *Store) PutBatch(ctx context.Context, entries map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	query := `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	for key, value := range entries {
		if _, err := tx.ExecContext(ctx, query, key, value, now); err != nil {
			return fmt.Errorf("failed to write %q: %w", key, err)
		}
	}

	return tx.Commit()
}

// Entries lists stored keys with their sizes, ordered by key.
func (s *Store) Entries(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []Entry
	err := s.db.SelectContext(ctx, &entries,
		`SELECT key, length(value) AS size, updated_at FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

// Set writes one raw value outside of a ledger commit.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.PutBatch(ctx, map[string][]byte{key: value})
}

// Reset clears all data (for testing).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM kv`)
	return err
}
