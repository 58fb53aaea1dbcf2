// ABOUTME: Persistent engine settings saved alongside the corpus
// ABOUTME: Transient resources (clients, cache handles) are never part of it
package models

// Settings is the configuration that travels with a corpus snapshot
type Settings struct {
	EmbeddingModel  string `json:"embedding_model"`
	GenerationModel string `json:"generation_model"`
	ChunkSize       int    `json:"chunk_size"`
	TopK            int    `json:"top_k"`
	CacheEmbeddings bool   `json:"cache_embeddings"`
}

// DefaultTopK is the ranking depth when none is configured
const DefaultTopK = 3

// Validate checks settings for values the engine cannot run with
func (s Settings) Validate() error {
	switch {
	case s.EmbeddingModel == "":
		return &ConfigurationError{Field: "openai.embedding_model", Reason: "must not be empty"}
	case s.GenerationModel == "":
		return &ConfigurationError{Field: "openai.model", Reason: "must not be empty"}
	case s.ChunkSize <= 0:
		return &ConfigurationError{Field: "rag.chunk_size", Reason: "must be positive"}
	case s.TopK <= 0:
		return &ConfigurationError{Field: "rag.top_k", Reason: "must be positive"}
	}
	return nil
}
