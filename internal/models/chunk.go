// ABOUTME: Document, metadata, and search result types for the corpus
// ABOUTME: A corpus entry is one chunk with its embedding and metadata
package models

// Metadata is an open mapping attached 1:1 to a chunk
type Metadata map[string]any

// Clone returns a shallow copy, or an empty map when m is nil
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// String returns the value under key if it is a string
func (m Metadata) String(key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// Document is raw text produced by a document source, before chunking
type Document struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// ScoredIndex is one ranked position in the corpus
type ScoredIndex struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// SearchResult is a ranked chunk resolved against the corpus
type SearchResult struct {
	Index    int      `json:"index"`
	Score    float64  `json:"score"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}
