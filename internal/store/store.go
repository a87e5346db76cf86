// Package store is the local durable state of the app: the queue of
// unsynced records, the device identifier and the cached remote total.
// Everything lives in a single keyed-blob SQLite table.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/openforest/stemsync/internal/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS app_state (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    updated_at TEXT NOT NULL -- RFC3339
);
`

const (
	keyCapturedData = "captured_data"
	keyDeviceID     = "device_id"
	keyRemoteTotal  = "remote_total"
)

// Store manages the persistent app state using SQLite.
type Store struct {
	db     *sqlx.DB
	dbPath string

	// serializes read-modify-write cycles on the captured_data blob
	mu sync.Mutex
}

// New creates a Store backed by an SQLite database at dbPath.
func New(dbPath string) *Store {
	return &Store{
		dbPath: dbPath,
	}
}

// Open the store and the underlying database.
func (s *Store) Open() error {
	if s.db != nil {
		return fmt.Errorf("store already open")
	}

	sqldb, err := db.NewSqliteDb(db.WithPath(s.dbPath), db.WithMaxOpenConns(1))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	if _, err := sqldb.Exec(schema); err != nil {
		sqldb.Close()
		return fmt.Errorf("initialize store schema: %w", err)
	}

	s.db = sqldb
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return ErrNotOpen
	}
	if err := s.db.Close(); err != nil {
		slog.Error("failed to close store database", "error", err)
		return err
	}
	s.db = nil
	return nil
}

// getRaw reads the blob stored under key. Returns (nil, false, nil) when the
// key does not exist.
func (s *Store) getRaw(key string) ([]byte, bool, error) {
	if s.db == nil {
		return nil, false, ErrNotOpen
	}
	var value []byte
	err := s.db.Get(&value, "SELECT value FROM app_state WHERE key = ?", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, persistErr("read "+key, err)
	}
	return value, true, nil
}

// setRaw writes the blob stored under key.
func (s *Store) setRaw(key string, value []byte) error {
	if s.db == nil {
		return ErrNotOpen
	}
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO app_state (key, value, updated_at) VALUES (?, ?, ?)",
		key, value, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return persistErr("write "+key, err)
	}
	return nil
}

// deleteRaw removes key. Deleting a missing key is a no-op.
func (s *Store) deleteRaw(key string) error {
	if s.db == nil {
		return ErrNotOpen
	}
	if _, err := s.db.Exec("DELETE FROM app_state WHERE key = ?", key); err != nil {
		return persistErr("delete "+key, err)
	}
	return nil
}

func (s *Store) getJSON(key string, out any) (bool, error) {
	raw, ok, err := s.getRaw(key)
	if err != nil || !ok {
		return ok, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, persistErr("decode "+key, err)
	}
	return true, nil
}

func (s *Store) setJSON(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return persistErr("encode "+key, err)
	}
	return s.setRaw(key, raw)
}
