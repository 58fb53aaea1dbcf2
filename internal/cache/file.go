// ABOUTME: File-per-key cache store rooted in one directory
// ABOUTME: Directory is created lazily; writes are atomic via temp file + rename
package cache

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/harper/biorag/internal/logging"
)

const fileExt = ".json"

// FileStore keeps one file per key under dir
type FileStore struct {
	dir    string
	logger *log.Logger
}

// NewFileStore returns a store rooted at dir. Nothing is touched on disk yet.
func NewFileStore(dir string, logger *log.Logger) *FileStore {
	return &FileStore{
		dir:    dir,
		logger: logging.OrNop(logger).With("component", "cache"),
	}
}

// Dir returns the cache directory
func (f *FileStore) Dir() string {
	return f.dir
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, key+fileExt)
}

// Get reads the value for key
func (f *FileStore) Get(key string) ([]byte, bool) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			f.logger.Warn("cache read failed", "key", key, "err", err)
		}
		return nil, false
	}
	return data, true
}

// Set writes value for key, overwriting any previous value
func (f *FileStore) Set(key string, value []byte) {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		f.logger.Warn("cache directory unavailable", "dir", f.dir, "err", err)
		return
	}

	tmp, err := os.CreateTemp(f.dir, key+".*.tmp")
	if err != nil {
		f.logger.Warn("cache write failed", "key", key, "err", err)
		return
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		f.logger.Warn("cache write failed", "key", key, "err", err)
		return
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		f.logger.Warn("cache write failed", "key", key, "err", err)
		return
	}
	if err := os.Rename(tmpName, f.path(key)); err != nil {
		_ = os.Remove(tmpName)
		f.logger.Warn("cache write failed", "key", key, "err", err)
		return
	}
	f.logger.Debug("cached item", "key", key)
}

// Remove deletes the value for key if present
func (f *FileStore) Remove(key string) {
	if err := os.Remove(f.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		f.logger.Warn("cache remove failed", "key", key, "err", err)
	}
}

// Clear deletes every cached item, leaving unrelated files alone
func (f *FileStore) Clear() {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			f.logger.Warn("cache clear failed", "dir", f.dir, "err", err)
		}
		return
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}
		if err := os.Remove(filepath.Join(f.dir, entry.Name())); err != nil {
			f.logger.Warn("cache remove failed", "file", entry.Name(), "err", err)
			continue
		}
		removed++
	}
	f.logger.Info("cleared cache", "items", removed)
}
