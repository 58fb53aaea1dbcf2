// ABOUTME: Error taxonomy shared by the retrieval engine and its shims
// ABOUTME: Backend exhaustion, configuration, and corpus consistency failures
package models

import (
	"errors"
	"fmt"
)

// Backend operations that can exhaust their retry budget
const (
	OpEmbedding  = "embedding"
	OpGeneration = "generation"
)

// ErrDimensionMismatch is returned when an embedding's length differs from the corpus dimension
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// ErrEmptyCorpus is returned when a question is asked before any document was added
var ErrEmptyCorpus = errors.New("corpus is empty, add documents before querying")

// TransientBackendError reports an embedding or generation call that failed on every attempt
type TransientBackendError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *TransientBackendError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *TransientBackendError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports missing or malformed configuration
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// CorpusInconsistencyError reports parallel arrays of different lengths
type CorpusInconsistencyError struct {
	Chunks     int
	Embeddings int
	Metadata   int
}

func (e *CorpusInconsistencyError) Error() string {
	return fmt.Sprintf("corpus arrays out of sync: %d chunks, %d embeddings, %d metadata",
		e.Chunks, e.Embeddings, e.Metadata)
}

// IsTransient reports whether err came from an exhausted backend call
func IsTransient(err error) bool {
	var te *TransientBackendError
	return errors.As(err, &te)
}
