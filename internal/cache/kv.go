// ABOUTME: Cache store on top of a key/value database such as Charm KV
// ABOUTME: Same best-effort contract as FileStore, entries live under a key prefix
package cache

import (
	"errors"

	"github.com/charmbracelet/log"

	"github.com/harper/biorag/internal/charm"
	"github.com/harper/biorag/internal/logging"
)

// KV is the subset of the Charm client the cache needs
type KV interface {
	Set(key string, value []byte) error
	Get(key string) ([]byte, error)
	Delete(key string) error
	ListKeys(prefix string) ([]string, error)
}

// KVStore adapts a KV database to Store
type KVStore struct {
	db     KV
	logger *log.Logger
}

// NewKVStore wraps db
func NewKVStore(db KV, logger *log.Logger) *KVStore {
	return &KVStore{
		db:     db,
		logger: logging.OrNop(logger).With("component", "cache", "backend", "kv"),
	}
}

func (s *KVStore) Get(key string) ([]byte, bool) {
	data, err := s.db.Get(charm.CacheKey(key))
	if errors.Is(err, charm.ErrNotFound) {
		s.logger.Debug("cache miss", "key", key)
		return nil, false
	}
	if err != nil {
		s.logger.Warn("cache read failed", "key", key, "err", err)
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	return data, true
}

func (s *KVStore) Set(key string, value []byte) {
	if err := s.db.Set(charm.CacheKey(key), value); err != nil {
		s.logger.Warn("cache write failed", "key", key, "err", err)
	}
}

func (s *KVStore) Remove(key string) {
	if err := s.db.Delete(charm.CacheKey(key)); err != nil {
		s.logger.Warn("cache remove failed", "key", key, "err", err)
	}
}

func (s *KVStore) Clear() {
	keys, err := s.db.ListKeys(charm.CachePrefix)
	if err != nil {
		s.logger.Warn("cache clear failed", "err", err)
		return
	}
	for _, k := range keys {
		if err := s.db.Delete(k); err != nil {
			s.logger.Warn("cache remove failed", "key", k, "err", err)
		}
	}
	s.logger.Info("cleared cache", "items", len(keys))
}
