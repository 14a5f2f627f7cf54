package cache

import (
	"sync"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/teranos/chronicle/errors"
)

// Badger is a Store in a badger key/value directory. Writes are buffered and
// applied in one write batch by Flush.
type Badger struct {
	mu      sync.Mutex
	kv      *badger.DB
	pending map[string][]byte
	logger  *zap.SugaredLogger
}

// OpenBadger opens the badger directory at path; an empty path keeps the
// data in memory only
func OpenBadger(path string, logger *zap.SugaredLogger) (*Badger, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	opts := badger.DefaultOptions(path).WithLogger(badgerLogger{logger})
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	kv, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open badger cache %s", path)
	}
	return &Badger{kv: kv, pending: make(map[string][]byte), logger: logger}, nil
}

func (b *Badger) Get(key string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if v, ok := b.pending[key]; ok {
		return v, true
	}

	var v []byte
	err := b.kv.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		v, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			b.logger.Warnw("Cache read failed", "error", err)
		}
		return nil, false
	}
	return v, true
}

func (b *Badger) Put(key string, value []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[key] = value
}

func (b *Badger) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return nil
	}

	wb := b.kv.NewWriteBatch()
	defer wb.Cancel()
	for k, v := range b.pending {
		if err := wb.Set([]byte(k), v); err != nil {
			return errors.Wrap(err, "write cache entry")
		}
	}
	if err := wb.Flush(); err != nil {
		return errors.Wrap(err, "flush badger batch")
	}

	b.logger.Debugw("Cache flushed", "count", len(b.pending))
	b.pending = make(map[string][]byte)
	return nil
}

func (b *Badger) Close() error {
	return b.kv.Close()
}

func (b *Badger) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	seen := make(map[string]bool)
	_ = b.kv.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
			if _, ok := b.pending[string(it.Item().Key())]; ok {
				seen[string(it.Item().Key())] = true
			}
		}
		return nil
	})
	return n + len(b.pending) - len(seen)
}

func (b *Badger) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = make(map[string][]byte)
	if err := b.kv.DropAll(); err != nil {
		return errors.Wrap(err, "clear cache")
	}
	return nil
}

// badgerLogger routes badger's logging into zap. Badger's info output is
// routine compaction chatter, so it goes to debug.
type badgerLogger struct {
	l *zap.SugaredLogger
}

func (b badgerLogger) Errorf(format string, args ...interface{})   { b.l.Errorf(format, args...) }
func (b badgerLogger) Warningf(format string, args ...interface{}) { b.l.Warnf(format, args...) }
func (b badgerLogger) Infof(format string, args ...interface{})    { b.l.Debugf(format, args...) }
func (b badgerLogger) Debugf(format string, args ...interface{})   { b.l.Debugf(format, args...) }
