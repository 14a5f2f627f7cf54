package cache

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/teranos/chronicle/errors"
	"github.com/teranos/chronicle/logger"
)

// Source says where a result came from
type Source string

const (
	// SourceNetwork results were produced by running the query
	SourceNetwork Source = "network"
	// SourceStore results were read from the persisted cache
	SourceStore Source = "cache"
	// SourceMemo results were already produced earlier in this run
	SourceMemo Source = "memo"
)

// Stats counts lookups by source
type Stats struct {
	Network int
	Store   int
	Memo    int
	// Invalid counts persisted entries that failed to decode
	Invalid int
}

// Cache maps canonical query text to its decoded result. Within one run a
// query is executed at most once, even when the persisted cache is skipped.
type Cache struct {
	mu      sync.Mutex
	store   Store
	memo    map[string][]byte
	skip    bool
	stats   Stats
	flushed bool
	logger  *zap.SugaredLogger
}

// New wraps a store. With skip set every lookup bypasses the store, but
// results are still written so the cache is refreshed.
func New(store Store, skip bool, log *zap.SugaredLogger) *Cache {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Cache{
		store:  store,
		memo:   make(map[string][]byte),
		skip:   skip,
		logger: logger.AddDBSymbol(log),
	}
}

// Fetch returns the result for key, running run only when neither this run
// nor (unless skipped) the store has it. skip bypasses the store for this
// lookup only.
func Fetch[T any](ctx context.Context, c *Cache, key string, skip bool, run func(context.Context) (T, error)) (T, Source, error) {
	var zero T

	if v, src, ok := c.lookup(key, skip); ok {
		var out T
		err := json.Unmarshal(v, &out)
		if err == nil {
			c.count(src)
			return out, src, nil
		}
		if src == SourceMemo {
			return zero, src, errors.Wrap(err, "decode memoized result")
		}
		c.invalid(key, err)
	}

	out, err := run(ctx)
	if err != nil {
		return zero, SourceNetwork, err
	}
	data, err := json.Marshal(out)
	if err != nil {
		return zero, SourceNetwork, errors.Wrap(err, "encode result for cache")
	}

	c.mu.Lock()
	c.memo[key] = data
	c.store.Put(key, data)
	c.stats.Network++
	c.mu.Unlock()

	return out, SourceNetwork, nil
}

func (c *Cache) lookup(key string, skip bool) ([]byte, Source, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.memo[key]; ok {
		return v, SourceMemo, true
	}
	if c.skip || skip {
		return nil, "", false
	}
	if v, ok := c.store.Get(key); ok {
		c.memo[key] = v
		return v, SourceStore, true
	}
	return nil, "", false
}

func (c *Cache) count(src Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch src {
	case SourceMemo:
		c.stats.Memo++
	case SourceStore:
		c.stats.Store++
	}
}

func (c *Cache) invalid(key string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.memo, key)
	c.stats.Invalid++
	c.logger.Warnw("Ignoring undecodable cache entry", "error", err)
}

// Stats returns lookup counts so far
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Skip reports whether the store is bypassed for every lookup
func (c *Cache) Skip() bool {
	return c.skip
}

// Len returns the number of entries in the underlying store
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Len()
}

// Flush persists the store. Only the first call writes; later calls are no-ops.
func (c *Cache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.flushed {
		return nil
	}
	c.flushed = true
	if err := c.store.Flush(); err != nil {
		return errors.Wrap(err, "failed to persist cache")
	}
	c.logger.Debugw("Cache persisted", "count", c.store.Len())
	return nil
}

// Close releases the store
func (c *Cache) Close() error {
	return c.store.Close()
}
