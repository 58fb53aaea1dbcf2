// ABOUTME: Chunker splits document text into fixed-size token windows for embedding
// ABOUTME: Encodes, windows, and decodes; the trailing partial window is kept
package chunker

import (
	"github.com/harper/biorag/internal/models"
)

// Encoding converts between text and model tokens
type Encoding interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// Chunker handles token-bounded text chunking
type Chunker struct {
	enc  Encoding
	size int
}

// New creates a Chunker emitting windows of size tokens
func New(enc Encoding, size int) (*Chunker, error) {
	if enc == nil {
		return nil, &models.ConfigurationError{Field: "tokenizer", Reason: "encoding is required"}
	}
	if size <= 0 {
		return nil, &models.ConfigurationError{Field: "rag.chunk_size", Reason: "must be positive"}
	}
	return &Chunker{enc: enc, size: size}, nil
}

// Size returns the window size in tokens
func (c *Chunker) Size() int {
	return c.size
}

// Chunk splits text into chunks of at most Size tokens, in document order
func (c *Chunker) Chunk(text string) []string {
	if text == "" {
		return nil
	}

	windows := Windows(c.enc.Encode(text), c.size)
	chunks := make([]string, 0, len(windows))
	for _, w := range windows {
		chunks = append(chunks, c.enc.Decode(w))
	}
	return chunks
}

// Windows cuts tokens into consecutive slices of size; the last may be shorter
func Windows(tokens []int, size int) [][]int {
	if len(tokens) == 0 || size <= 0 {
		return nil
	}

	windows := make([][]int, 0, (len(tokens)+size-1)/size)
	for start := 0; start < len(tokens); start += size {
		end := start + size
		if end > len(tokens) {
			end = len(tokens)
		}
		windows = append(windows, tokens[start:end:end])
	}
	return windows
}
