package cache

import (
	"database/sql"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/teranos/chronicle/am"
	"github.com/teranos/chronicle/db"
	"github.com/teranos/chronicle/errors"
)

const (
	sqliteSelect = "SELECT value FROM query_cache WHERE query_key = ?"
	sqliteExists = "SELECT EXISTS(SELECT 1 FROM query_cache WHERE query_key = ?)"
	sqliteCount  = "SELECT COUNT(*) FROM query_cache"
	sqliteUpsert = "INSERT INTO query_cache (query_key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP) " +
		"ON CONFLICT(query_key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP"
	sqliteDelete = "DELETE FROM query_cache"
)

// SQLite is a Store over the query_cache table. Writes are buffered and
// committed in one transaction by Flush.
type SQLite struct {
	mu      sync.Mutex
	conn    *sql.DB
	owned   bool
	pending map[string][]byte
	logger  *zap.SugaredLogger
}

// OpenSQLite opens (creating and migrating) the database file at path
func OpenSQLite(path string, logger *zap.SugaredLogger) (*SQLite, error) {
	if path == "" {
		return nil, errors.NewConfigurationError("sqlite cache needs a file path")
	}
	if err := os.MkdirAll(filepath.Dir(path), am.DefaultDirPermissions); err != nil {
		return nil, errors.Wrapf(err, "failed to create %s", filepath.Dir(path))
	}
	conn, err := db.OpenWithMigrations(path, logger)
	if err != nil {
		return nil, err
	}
	s := NewSQLite(conn, logger)
	s.owned = true
	return s, nil
}

// NewSQLite wraps an already migrated connection; Close leaves it open
func NewSQLite(conn *sql.DB, logger *zap.SugaredLogger) *SQLite {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SQLite{
		conn:    conn,
		pending: make(map[string][]byte),
		logger:  logger,
	}
}

func (s *SQLite) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.pending[key]; ok {
		return v, true
	}

	var v []byte
	err := s.conn.QueryRow(sqliteSelect, key).Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, false
	case err != nil:
		s.logger.Warnw("Cache read failed", "error", err)
		return nil, false
	}
	return v, true
}

func (s *SQLite) Put(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[key] = value
}

// Flush upserts the buffered writes in one transaction. On failure nothing
// is committed and the writes stay buffered.
func (s *SQLite) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}

	keys := make([]string, 0, len(s.pending))
	for k := range s.pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tx, err := s.conn.Begin()
	if err != nil {
		return errors.Wrap(err, "begin cache flush")
	}
	stmt, err := tx.Prepare(sqliteUpsert)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "prepare cache upsert")
	}
	defer stmt.Close()

	for _, k := range keys {
		if _, err := stmt.Exec(k, s.pending[k]); err != nil {
			tx.Rollback()
			return errors.Wrap(err, "write cache entry")
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit cache flush")
	}

	s.logger.Debugw("Cache flushed", "count", len(keys))
	s.pending = make(map[string][]byte)
	return nil
}

func (s *SQLite) Close() error {
	if !s.owned {
		return nil
	}
	return s.conn.Close()
}

// Len counts persisted entries plus buffered ones not yet persisted
func (s *SQLite) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	if err := s.conn.QueryRow(sqliteCount).Scan(&n); err != nil {
		s.logger.Warnw("Cache count failed", "error", err)
	}
	for k := range s.pending {
		var exists bool
		if err := s.conn.QueryRow(sqliteExists, k).Scan(&exists); err == nil && !exists {
			n++
		}
	}
	return n
}

func (s *SQLite) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = make(map[string][]byte)
	if _, err := s.conn.Exec(sqliteDelete); err != nil {
		return errors.Wrap(err, "clear cache")
	}
	return nil
}
