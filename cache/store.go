// Package cache keeps query results between runs.
//
// A Store persists raw JSON values keyed by the canonical query text. Cache
// adds the per-run memo and the skip flag on top of a Store.
package cache

import (
	"go.uber.org/zap"

	"github.com/teranos/chronicle/am"
	"github.com/teranos/chronicle/errors"
)

// Store is a key/value persistence backend. Put buffers in memory; Flush
// persists every buffered write at once.
type Store interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte)
	Flush() error
	Close() error
	Len() int
	// Clear removes every persisted entry
	Clear() error
}

// OpenBackend opens the named backend, failing on any error
func OpenBackend(backend, path string, logger *zap.SugaredLogger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	var (
		store Store
		err   error
	)
	switch backend {
	case am.CacheBackendJSON, "":
		store, err = asStore(OpenJSON(path, logger))
	case am.CacheBackendSQLite:
		store, err = asStore(OpenSQLite(path, logger))
	case am.CacheBackendBadger:
		store, err = asStore(OpenBadger(path, logger))
	case am.CacheBackendMemory:
		store = NewMemory()
	default:
		err = errors.WithHint(
			errors.NewConfigurationError("unknown cache backend %q", backend),
			"use one of json, sqlite, badger, memory")
	}
	if err != nil {
		return nil, err
	}
	logger.Debugw("Cache opened", "cache_backend", backend, "file", path)
	return store, nil
}

// asStore drops the typed nil a failed constructor returns
func asStore[S Store](s S, err error) (Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Open opens the named backend. The cache is advisory: a backend that cannot
// be opened is logged and replaced by an empty in-memory store. Only an
// unknown backend name is an error.
func Open(backend, path string, logger *zap.SugaredLogger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	store, err := OpenBackend(backend, path, logger)
	if err == nil {
		return store, nil
	}
	if errors.IsConfigurationError(err) {
		return nil, err
	}
	logger.Warnw("Cache unavailable, continuing without it",
		"cache_backend", backend,
		"file", path,
		"error", err)
	return NewMemory(), nil
}
