// ABOUTME: Snapshot persistence for a corpus and its settings as one JSON file
// ABOUTME: Saves atomically; loading rejects snapshots whose arrays disagree in length
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/harper/biorag/internal/models"
)

// SnapshotVersion is bumped when the file layout changes
const SnapshotVersion = 1

// Snapshot is the persisted state of an engine
type Snapshot struct {
	Version    int               `json:"version"`
	SavedAt    time.Time         `json:"saved_at"`
	Settings   models.Settings   `json:"settings"`
	Chunks     []string          `json:"chunks"`
	Embeddings [][]float64       `json:"embeddings"`
	Metadata   []models.Metadata `json:"metadata"`
}

// NewSnapshot captures c and settings
func NewSnapshot(c *Corpus, settings models.Settings) *Snapshot {
	return &Snapshot{
		Version:    SnapshotVersion,
		SavedAt:    time.Now().UTC(),
		Settings:   settings,
		Chunks:     c.chunks,
		Embeddings: c.embeddings,
		Metadata:   c.metadata,
	}
}

// Corpus rebuilds the corpus held in the snapshot
func (s *Snapshot) Corpus() (*Corpus, error) {
	return FromArrays(s.Chunks, s.Embeddings, s.Metadata)
}

// Save writes the snapshot to path, replacing any existing file atomically
func (s *Snapshot) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating snapshot directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	enc := json.NewEncoder(tmp)
	if err := enc.Encode(s); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing snapshot %s: %w", path, err)
	}
	return nil
}

// LoadSnapshot reads and validates the snapshot at path
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	var s Snapshot
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", path, err)
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot %s has version %d, want %d", path, s.Version, SnapshotVersion)
	}
	if len(s.Chunks) != len(s.Embeddings) || len(s.Chunks) != len(s.Metadata) {
		return nil, &models.CorpusInconsistencyError{
			Chunks:     len(s.Chunks),
			Embeddings: len(s.Embeddings),
			Metadata:   len(s.Metadata),
		}
	}
	return &s, nil
}
