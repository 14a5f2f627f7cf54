package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/teranos/chronicle/am"
	"github.com/teranos/chronicle/errors"
)

// JSONFile is a Store kept as one JSON object mapping query text to result,
// read whole on open and written whole on Flush
type JSONFile struct {
	mu     sync.Mutex
	path   string
	values map[string]json.RawMessage
	dirty  bool
	logger *zap.SugaredLogger
}

// OpenJSON loads the cache file at path. A missing file starts empty; an
// unreadable or corrupt one starts empty with a warning.
func OpenJSON(path string, logger *zap.SugaredLogger) (*JSONFile, error) {
	if path == "" {
		return nil, errors.NewConfigurationError("json cache needs a file path")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	f := &JSONFile{
		path:   path,
		values: make(map[string]json.RawMessage),
		logger: logger,
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		logger.Debugw("No cache file yet", "file", path)
	case err != nil:
		logger.Warnw("Cache file unreadable, starting empty", "file", path, "error", err)
	default:
		if err := json.Unmarshal(data, &f.values); err != nil {
			logger.Warnw("Cache file corrupt, starting empty", "file", path, "error", err)
			f.values = make(map[string]json.RawMessage)
		} else {
			logger.Debugw("Cache file loaded", "file", path, "count", len(f.values))
		}
	}
	return f, nil
}

func (f *JSONFile) Get(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok
}

// Put stores value, which must be valid JSON; anything else is ignored
func (f *JSONFile) Put(key string, value []byte) {
	if !json.Valid(value) {
		f.logger.Warnw("Refusing non-JSON cache value", "size", len(value))
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = json.RawMessage(value)
	f.dirty = true
}

// Flush rewrites the file when anything changed
func (f *JSONFile) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.dirty {
		return nil
	}

	data, err := json.Marshal(f.values)
	if err != nil {
		return errors.Wrap(err, "failed to encode cache")
	}
	if err := writeFileAtomic(f.path, data); err != nil {
		return err
	}
	f.dirty = false
	f.logger.Debugw("Cache file written", "file", f.path, "count", len(f.values), "size", len(data))
	return nil
}

func (f *JSONFile) Close() error { return nil }

func (f *JSONFile) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.values)
}

// Clear empties the cache and removes the file
func (f *JSONFile) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = make(map[string]json.RawMessage)
	f.dirty = false
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to remove %s", f.path)
	}
	return nil
}

// writeFileAtomic writes through a temp file in the same directory so a
// crash never leaves a half-written cache behind
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, am.DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to write %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", tmp.Name())
	}
	if err := os.Chmod(tmp.Name(), am.DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to set permissions")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "failed to replace %s", path)
	}
	return nil
}
