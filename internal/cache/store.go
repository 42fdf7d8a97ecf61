// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache keeps remote API response bodies in a SQLite database so
// repeated runs over the same input do not repeat their requests.
package cache

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/award-matcher/pkg/types"
)

// Store is a key/value response cache backed by SQLite.
type Store struct {
	db  *sql.DB
	ttl time.Duration

	// now is replaced in tests.
	now func() time.Time
}

// Open opens or creates the cache database at cfg.Path.
func Open(cfg types.CacheConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, eris.New("cache path is empty")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "creating cache directory %s", dir)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL")
	if err != nil {
		return nil, eris.Wrap(err, "opening cache database")
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, ttl: cfg.TTL, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "creating cache schema")
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS responses (
			key TEXT PRIMARY KEY,
			body BLOB NOT NULL,
			stored_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_stored_at ON responses(stored_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return eris.Wrap(err, "executing schema statement")
		}
	}
	return nil
}

// Get returns the cached body for key. Expired entries are misses.
// Read errors are logged and reported as misses.
func (s *Store) Get(key string) ([]byte, bool) {
	var body []byte
	var storedAt int64
	err := s.db.QueryRow(`SELECT body, stored_at FROM responses WHERE key = ?`, key).Scan(&body, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		zap.L().Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if s.expired(storedAt) {
		return nil, false
	}
	return body, true
}

// Put stores body under key, replacing any earlier entry.
func (s *Store) Put(key string, body []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO responses (key, body, stored_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, stored_at = excluded.stored_at`,
		key, body, s.now().Unix(),
	)
	if err != nil {
		return eris.Wrapf(err, "caching %s", key)
	}
	return nil
}

// Prune deletes expired entries and returns how many were removed. With
// no TTL nothing expires.
func (s *Store) Prune() (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.ttl).Unix()
	res, err := s.db.Exec(`DELETE FROM responses WHERE stored_at < ?`, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "pruning cache")
	}
	return res.RowsAffected()
}

// Len returns the number of stored entries, expired ones included.
func (s *Store) Len() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM responses`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "counting cache entries")
	}
	return n, nil
}

func (s *Store) expired(storedAt int64) bool {
	if s.ttl <= 0 {
		return false
	}
	return s.now().Sub(time.Unix(storedAt, 0)) > s.ttl
}
