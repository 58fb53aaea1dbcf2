// ABOUTME: Tests for snapshot backups using real snapshot files in temp directories
// ABOUTME: A fixed clock makes backup names predictable
package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/biorag/internal/corpus"
	"github.com/harper/biorag/internal/models"
)

func saveSnapshot(t *testing.T, path string, chunks ...string) {
	t.Helper()
	c := corpus.New()
	entries := make([]corpus.Entry, len(chunks))
	for i, ch := range chunks {
		entries[i] = corpus.Entry{Chunk: ch, Embedding: []float64{1, float64(i)}}
	}
	require.NoError(t, c.Append(entries))
	require.NoError(t, corpus.NewSnapshot(c, models.Settings{
		EmbeddingModel:  "text-embedding-3-small",
		GenerationModel: "gpt-4o-mini",
		ChunkSize:       500,
		TopK:            3,
	}).Save(path))
}

func newManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	snap := filepath.Join(dir, "bio_rag.json")
	m := NewManager(snap, filepath.Join(dir, "backups"), nil)
	clock := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	m.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return m, snap
}

func TestStats(t *testing.T) {
	m, snap := newManager(t)
	saveSnapshot(t, snap, "a", "b")

	stats, err := m.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Chunks)
	assert.Equal(t, 2, stats.Embeddings)
	assert.Equal(t, "gpt-4o-mini", stats.GenerationModel)
	assert.False(t, stats.LastUpdated.IsZero())
	assert.Positive(t, stats.Size)
}

func TestStats_MissingSnapshot(t *testing.T) {
	m, _ := newManager(t)
	_, err := m.Stats()
	assert.Error(t, err)
}

func TestCreateAndList(t *testing.T) {
	m, snap := newManager(t)
	saveSnapshot(t, snap, "a")

	first, err := m.Create()
	require.NoError(t, err)
	assert.Equal(t, "bio_rag.json.20260301_093001.bak", filepath.Base(first))

	second, err := m.Create()
	require.NoError(t, err)

	// unrelated files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(m.backupDir, "other.json.20260101_000000.bak"), nil, 0644))

	backups, err := m.List()
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, second, backups[0].Path, "newest first")
	assert.Equal(t, first, backups[1].Path)
}

func TestCreate_SameSecond(t *testing.T) {
	m, snap := newManager(t)
	saveSnapshot(t, snap, "a")
	m.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }

	first, err := m.Create()
	require.NoError(t, err)
	second, err := m.Create()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, "bio_rag.json.20260301_093000_1.bak", filepath.Base(second))

	backups, err := m.List()
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, second, backups[0].Path)
}

func TestList_NoBackupDir(t *testing.T) {
	m, _ := newManager(t)
	backups, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestCreate_MissingSnapshot(t *testing.T) {
	m, _ := newManager(t)
	_, err := m.Create()
	assert.Error(t, err)
}

func TestRestore_BacksUpCurrentFirst(t *testing.T) {
	m, snap := newManager(t)
	saveSnapshot(t, snap, "old")
	old, err := m.Create()
	require.NoError(t, err)

	saveSnapshot(t, snap, "new", "newer")

	safety, err := m.Restore(filepath.Base(old))
	require.NoError(t, err)
	require.NotEmpty(t, safety)

	restored, err := corpus.LoadSnapshot(snap)
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, restored.Chunks)

	kept, err := corpus.LoadSnapshot(safety)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "newer"}, kept.Chunks)
}

func TestRestore_InvalidBackupLeavesSnapshot(t *testing.T) {
	m, snap := newManager(t)
	saveSnapshot(t, snap, "keep")

	bad := filepath.Join(t.TempDir(), "bad.bak")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0644))

	_, err := m.Restore(bad)
	assert.Error(t, err)

	current, err := corpus.LoadSnapshot(snap)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, current.Chunks)
}

func TestRestore_Missing(t *testing.T) {
	m, _ := newManager(t)
	_, err := m.Restore("nope.bak")
	assert.Error(t, err)
}
