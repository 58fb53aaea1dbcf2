// ABOUTME: Document sources that turn files on disk into raw text plus metadata
// ABOUTME: Handles PDFs, plain text and markdown, and source code files
package docsource

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/harper/biorag/internal/models"
)

// Document types recorded under the "type" metadata key
const (
	TypePDF  = "pdf"
	TypeText = "text"
	TypeCode = "code"
)

var textExts = map[string]bool{".txt": true, ".md": true, ".markdown": true}

var codeLanguages = map[string]string{
	".py":  "python",
	".r":   "r",
	".go":  "go",
	".sh":  "shell",
	".pl":  "perl",
	".jl":  "julia",
	".nf":  "nextflow",
	".smk": "snakemake",
}

// Supported reports whether path has an extension a source can read
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".pdf" || textExts[ext] || codeLanguages[ext] != ""
}

// FindFiles returns every supported file under root, sorted.
// A root that is itself a file is returned as the only match when supported.
func FindFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", root, err)
	}
	if !info.IsDir() {
		if Supported(root) {
			return []string{root}, nil
		}
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if Supported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// Load extracts the document at path, choosing the reader by extension
func Load(path string) (models.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".pdf":
		return LoadPDF(path)
	case textExts[ext]:
		return loadPlain(path, models.Metadata{"type": TypeText})
	case codeLanguages[ext] != "":
		return loadPlain(path, models.Metadata{"type": TypeCode, "language": codeLanguages[ext]})
	}
	return models.Document{}, fmt.Errorf("unsupported file type %q: %s", ext, path)
}

// LoadPDF extracts the plain text of every page of a PDF
func LoadPDF(path string) (models.Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	var sb strings.Builder
	pages := r.NumPage()
	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return models.Document{}, fmt.Errorf("reading page %d of %s: %w", i, path, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	return models.Document{
		Text: sb.String(),
		Metadata: models.Metadata{
			"filename": filepath.Base(path),
			"filepath": path,
			"type":     TypePDF,
			"pages":    pages,
		},
	}, nil
}

func loadPlain(path string, meta models.Metadata) (models.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return models.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	meta["filename"] = filepath.Base(path)
	meta["filepath"] = path
	return models.Document{Text: string(data), Metadata: meta}, nil
}
