// ABOUTME: Tests for cache keys and the file, memory, and KV stores
// ABOUTME: Covers round-trips, misses, overwrite, remove, clear, and I/O failure handling
package cache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/biorag/internal/charm"
)

func TestKey_DeterministicAndNamespaced(t *testing.T) {
	a := Key("answer", "what is CRISPR?")
	b := Key("answer", "what is CRISPR?")
	c := Key("embedding:text-embedding-3-small", "what is CRISPR?")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c, "namespaces must not share a slot")
	assert.Len(t, a, 64, "full SHA-256 hex digest")
}

func TestKey_NamespaceBoundary(t *testing.T) {
	// "ab"+"c" and "a"+"bc" must not collide
	assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
}

func storesUnderTest(t *testing.T) map[string]Store {
	return map[string]Store{
		"file":   NewFileStore(filepath.Join(t.TempDir(), "cache"), nil),
		"memory": NewMemory(),
		"kv":     NewKVStore(newFakeKV(), nil),
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for name, s := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			_, ok := s.Get("missing")
			assert.False(t, ok, "unset key must be absent")

			s.Set("k", []byte("v1"))
			got, ok := s.Get("k")
			require.True(t, ok)
			assert.Equal(t, []byte("v1"), got)

			s.Set("k", []byte("v2"))
			got, ok = s.Get("k")
			require.True(t, ok)
			assert.Equal(t, []byte("v2"), got, "set overwrites unconditionally")

			s.Remove("k")
			_, ok = s.Get("k")
			assert.False(t, ok)

			// removing a missing key is a no-op
			s.Remove("k")
		})
	}
}

func TestStore_Clear(t *testing.T) {
	for name, s := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			s.Set("a", []byte("1"))
			s.Set("b", []byte("2"))
			s.Clear()

			_, okA := s.Get("a")
			_, okB := s.Get("b")
			assert.False(t, okA)
			assert.False(t, okB)
		})
	}
}

func TestJSONHelpers(t *testing.T) {
	s := NewMemory()
	vec := []float64{0.25, -1.5, 3}

	SetJSON(s, "vec", vec)

	var got []float64
	require.True(t, GetJSON(s, "vec", &got))
	assert.Equal(t, vec, got)

	var answer string
	assert.False(t, GetJSON(s, "nope", &answer))

	s.Set("garbage", []byte("{not json"))
	assert.False(t, GetJSON(s, "garbage", &answer), "undecodable values count as misses")
}

func TestFileStore_LazyDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "lazy")
	s := NewFileStore(dir, nil)

	_, ok := s.Get("x")
	assert.False(t, ok)
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "directory must not exist before first set")

	s.Set("x", []byte("y"))
	_, err = os.Stat(filepath.Join(dir, "x.json"))
	assert.NoError(t, err)
}

func TestFileStore_ClearKeepsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir, nil)
	s.Set("k", []byte("v"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0644))

	s.Clear()

	_, err := os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, err)
	_, ok := s.Get("k")
	assert.False(t, ok)
}

func TestFileStore_WriteFailureIsSwallowed(t *testing.T) {
	// A regular file where the cache directory should be makes every write fail
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	s := NewFileStore(blocker, nil)
	assert.NotPanics(t, func() { s.Set("k", []byte("v")) })

	_, ok := s.Get("k")
	assert.False(t, ok)
	assert.NotPanics(t, s.Clear)
}

func TestKVStore_UsesPrefix(t *testing.T) {
	db := newFakeKV()
	s := NewKVStore(db, nil)
	db.data["unrelated"] = []byte("keep")

	s.Set("k", []byte("v"))
	_, ok := db.data["cache:k"]
	assert.True(t, ok)

	s.Clear()
	assert.Contains(t, db.data, "unrelated")
	assert.NotContains(t, db.data, "cache:k")
}

func TestKVStore_BackendErrorsAreSwallowed(t *testing.T) {
	db := newFakeKV()
	db.fail = true
	s := NewKVStore(db, nil)

	assert.NotPanics(t, func() {
		s.Set("k", []byte("v"))
		s.Remove("k")
		s.Clear()
	})
	_, ok := s.Get("k")
	assert.False(t, ok)
}

func TestKVStore_ReadFailureLogsWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.InfoLevel})
	db := newFakeKV()
	s := NewKVStore(db, logger)

	_, ok := s.Get("missing")
	assert.False(t, ok)
	assert.Empty(t, buf.String(), "a plain miss is not a warning")

	db.fail = true
	_, ok = s.Get("k")
	assert.False(t, ok)
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "cache read failed")
}

type fakeKV struct {
	data map[string][]byte
	fail bool
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string][]byte)}
}

var errFakeKV = errors.New("kv unavailable")

func (f *fakeKV) Set(key string, value []byte) error {
	if f.fail {
		return errFakeKV
	}
	f.data[key] = append([]byte(nil), value...)
	return nil
}

func (f *fakeKV) Get(key string) ([]byte, error) {
	if f.fail {
		return nil, errFakeKV
	}
	v, ok := f.data[key]
	if !ok {
		return nil, charm.ErrNotFound
	}
	return v, nil
}

func (f *fakeKV) Delete(key string) error {
	if f.fail {
		return errFakeKV
	}
	delete(f.data, key)
	return nil
}

func (f *fakeKV) ListKeys(prefix string) ([]string, error) {
	if f.fail {
		return nil, errFakeKV
	}
	var keys []string
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
