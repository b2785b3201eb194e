// Package token persists the admin bearer token in a single storage slot and
// broadcasts every change to registered watchers. The slot is the only
// persisted application state; last writer wins.
package token

import (
	"database/sql"
	"errors"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

type Store struct {
	db *sqlx.DB

	mu       sync.Mutex
	watchers []func()
}

// Open opens (or creates) the token database and ensures its schema.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// Single writer; also keeps a :memory: DSN on one real database.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS auth_token(
		  slot INTEGER PRIMARY KEY CHECK (slot = 1),
		  token TEXT NOT NULL,
		  updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Get returns the stored token, or "" when the slot is empty.
func (s *Store) Get() (string, error) {
	var tok string
	err := s.db.Get(&tok, `SELECT token FROM auth_token WHERE slot = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return tok, err
}

// Set overwrites the slot with the given token and notifies watchers.
func (s *Store) Set(tok string) error {
	_, err := s.db.Exec(`
		INSERT INTO auth_token(slot, token, updated_at)
		VALUES(1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(slot) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at
	`, tok)
	if err != nil {
		return err
	}
	s.notify()
	return nil
}

// Clear empties the slot and notifies watchers. Clearing an already empty
// slot is a no-op and does not notify.
func (s *Store) Clear() error {
	res, err := s.db.Exec(`DELETE FROM auth_token WHERE slot = 1`)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.notify()
	}
	return nil
}

// Watch registers fn to run after every slot change. This is the explicit
// replacement for the browser storage event: other session observers in the
// process re-verify when it fires.
func (s *Store) Watch(fn func()) {
	s.mu.Lock()
	s.watchers = append(s.watchers, fn)
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.Lock()
	ws := make([]func(), len(s.watchers))
	copy(ws, s.watchers)
	s.mu.Unlock()
	for _, fn := range ws {
		fn()
	}
}
