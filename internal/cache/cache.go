// ABOUTME: Best-effort key/value cache contract for embeddings and answers
// ABOUTME: Keys are SHA-256 digests; I/O failures degrade to misses, never errors
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Store is a persistent key/value cache.
// Implementations log I/O failures and report them as a miss or no-op.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Remove(key string)
	Clear()
}

// Key derives a cache key for text within a namespace
func Key(namespace, text string) string {
	h := sha256.New()
	h.Write([]byte(namespace))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// GetJSON decodes the cached value for key into dest.
// An undecodable value counts as a miss.
func GetJSON(s Store, key string, dest any) bool {
	data, ok := s.Get(key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

// SetJSON encodes value and stores it under key
func SetJSON(s Store, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	s.Set(key, data)
}
