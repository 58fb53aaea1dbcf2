// ABOUTME: Corpus holds chunks, embeddings, and metadata as parallel append-only slices
// ABOUTME: Appends are all-or-nothing batches; embedding dimension is fixed by the first entry
package corpus

import (
	"fmt"

	"github.com/harper/biorag/internal/models"
)

// Entry is one logical document fragment
type Entry struct {
	Chunk     string
	Embedding []float64
	Metadata  models.Metadata
}

// Corpus is the in-memory document store.
// It is not safe for concurrent use; hosts serving parallel requests must serialize access.
type Corpus struct {
	chunks     []string
	embeddings [][]float64
	metadata   []models.Metadata
}

// New returns an empty corpus
func New() *Corpus {
	return &Corpus{}
}

// FromArrays builds a corpus from parallel slices, validating their lengths
func FromArrays(chunks []string, embeddings [][]float64, metadata []models.Metadata) (*Corpus, error) {
	c := &Corpus{chunks: chunks, embeddings: embeddings, metadata: metadata}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	for i := range c.metadata {
		if c.metadata[i] == nil {
			c.metadata[i] = models.Metadata{}
		}
	}
	return c, nil
}

// Len returns the number of entries
func (c *Corpus) Len() int {
	return len(c.chunks)
}

// Dimension returns the embedding dimension, or 0 for an empty corpus
func (c *Corpus) Dimension() int {
	if len(c.embeddings) == 0 {
		return 0
	}
	return len(c.embeddings[0])
}

// Validate checks the parallel-slice invariant
func (c *Corpus) Validate() error {
	if len(c.chunks) != len(c.embeddings) || len(c.chunks) != len(c.metadata) {
		return &models.CorpusInconsistencyError{
			Chunks:     len(c.chunks),
			Embeddings: len(c.embeddings),
			Metadata:   len(c.metadata),
		}
	}
	return nil
}

// Append adds entries in order. Either every entry is appended or none is.
func (c *Corpus) Append(entries []Entry) error {
	dim := c.Dimension()
	for i, e := range entries {
		if len(e.Embedding) == 0 {
			return fmt.Errorf("entry %d: empty embedding", i)
		}
		if dim == 0 {
			dim = len(e.Embedding)
		}
		if len(e.Embedding) != dim {
			return fmt.Errorf("entry %d: got %d, want %d: %w", i, len(e.Embedding), dim, models.ErrDimensionMismatch)
		}
	}

	for _, e := range entries {
		c.chunks = append(c.chunks, e.Chunk)
		c.embeddings = append(c.embeddings, e.Embedding)
		c.metadata = append(c.metadata, e.Metadata.Clone())
	}
	return nil
}

// Chunk returns the text at index i
func (c *Corpus) Chunk(i int) string {
	return c.chunks[i]
}

// Metadata returns the metadata at index i
func (c *Corpus) Metadata(i int) models.Metadata {
	return c.metadata[i]
}

// Embeddings returns the embedding slice for ranking. Callers must not modify it.
func (c *Corpus) Embeddings() [][]float64 {
	return c.embeddings
}

// Resolve turns ranked indices into search results
func (c *Corpus) Resolve(ranked []models.ScoredIndex) []models.SearchResult {
	results := make([]models.SearchResult, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, models.SearchResult{
			Index:    r.Index,
			Score:    r.Score,
			Text:     c.chunks[r.Index],
			Metadata: c.metadata[r.Index],
		})
	}
	return results
}

// Sources counts distinct values of a metadata key, e.g. "filename"
func (c *Corpus) Sources(key string) int {
	seen := make(map[string]struct{})
	for _, m := range c.metadata {
		if v := m.String(key); v != "" {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}
