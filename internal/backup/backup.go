// ABOUTME: Snapshot management: statistics, timestamped backups, listing and restore
// ABOUTME: Backups are byte copies named <snapshot>.<YYYYMMDD_HHMMSS>.bak
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/biorag/internal/corpus"
	"github.com/harper/biorag/internal/logging"
)

// TimestampLayout is the backup file name timestamp
const TimestampLayout = "20060102_150405"

// Stats describes a saved snapshot
type Stats struct {
	Chunks          int       `json:"chunks"`
	Embeddings      int       `json:"embeddings"`
	GenerationModel string    `json:"generation_model"`
	EmbeddingModel  string    `json:"embedding_model"`
	SavedAt         time.Time `json:"saved_at"`
	LastUpdated     time.Time `json:"last_updated"`
	Size            int64     `json:"size"`
}

// Backup is one backup file
type Backup struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Manager creates and restores backups of one snapshot file
type Manager struct {
	snapshot  string
	backupDir string
	logger    *log.Logger
	now       func() time.Time
}

// NewManager manages snapshot; an empty backupDir keeps backups beside it
func NewManager(snapshot, backupDir string, logger *log.Logger) *Manager {
	if backupDir == "" {
		backupDir = filepath.Dir(snapshot)
	}
	return &Manager{
		snapshot:  snapshot,
		backupDir: backupDir,
		logger:    logging.OrNop(logger).With("component", "backup"),
		now:       time.Now,
	}
}

// Stats loads the snapshot and summarizes it
func (m *Manager) Stats() (*Stats, error) {
	info, err := os.Stat(m.snapshot)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", m.snapshot, err)
	}
	snap, err := corpus.LoadSnapshot(m.snapshot)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Chunks:          len(snap.Chunks),
		Embeddings:      len(snap.Embeddings),
		GenerationModel: snap.Settings.GenerationModel,
		EmbeddingModel:  snap.Settings.EmbeddingModel,
		SavedAt:         snap.SavedAt,
		LastUpdated:     info.ModTime(),
		Size:            info.Size(),
	}, nil
}

// Create copies the snapshot into the backup directory and returns the backup path
func (m *Manager) Create() (string, error) {
	if _, err := os.Stat(m.snapshot); err != nil {
		return "", fmt.Errorf("snapshot %s: %w", m.snapshot, err)
	}
	if err := os.MkdirAll(m.backupDir, 0755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	stamp := fmt.Sprintf("%s.%s", filepath.Base(m.snapshot), m.now().Format(TimestampLayout))
	dest := filepath.Join(m.backupDir, stamp+".bak")
	// Two backups in the same second get a counter, which still sorts newest first
	for n := 1; fileExists(dest); n++ {
		dest = filepath.Join(m.backupDir, fmt.Sprintf("%s_%d.bak", stamp, n))
	}
	if err := copyFile(m.snapshot, dest); err != nil {
		return "", fmt.Errorf("creating backup: %w", err)
	}
	m.logger.Info("backup created", "path", dest)
	return dest, nil
}

// List returns the snapshot's backups, newest first
func (m *Manager) List() ([]Backup, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing backups: %w", err)
	}

	prefix := filepath.Base(m.snapshot) + "."
	var backups []Backup
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) || !strings.HasSuffix(e.Name(), ".bak") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Backup{
			Name:    e.Name(),
			Path:    filepath.Join(m.backupDir, e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	// Timestamps sort lexically
	sort.Slice(backups, func(i, j int) bool { return backups[i].Name > backups[j].Name })
	return backups, nil
}

// Restore replaces the snapshot with file after backing up the current snapshot.
// A bare file name is looked up in the backup directory. It returns the path of
// the safety backup, or "" when there was no snapshot to back up.
func (m *Manager) Restore(file string) (string, error) {
	if !strings.ContainsRune(file, filepath.Separator) {
		if _, err := os.Stat(file); err != nil {
			file = filepath.Join(m.backupDir, file)
		}
	}
	if _, err := os.Stat(file); err != nil {
		return "", fmt.Errorf("backup file %s: %w", file, err)
	}
	if _, err := corpus.LoadSnapshot(file); err != nil {
		return "", fmt.Errorf("backup %s is not a valid snapshot: %w", file, err)
	}

	safety := ""
	if _, err := os.Stat(m.snapshot); err == nil {
		safety, err = m.Create()
		if err != nil {
			return "", err
		}
	}

	if err := copyFile(file, m.snapshot); err != nil {
		return safety, fmt.Errorf("restoring backup: %w", err)
	}
	m.logger.Info("backup restored", "from", file, "safety_backup", safety)
	return safety, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// copyFile copies src to dst through a temp file in dst's directory
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, dst)
}
