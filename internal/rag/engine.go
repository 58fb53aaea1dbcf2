// ABOUTME: Engine composes chunker, embedding provider, ranker, corpus and cache
// ABOUTME: into the end-to-end add-document and answer-query operations
package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/biorag/internal/cache"
	"github.com/harper/biorag/internal/chunker"
	"github.com/harper/biorag/internal/corpus"
	"github.com/harper/biorag/internal/embedding"
	"github.com/harper/biorag/internal/logging"
	"github.com/harper/biorag/internal/models"
	"github.com/harper/biorag/internal/rank"
	"github.com/harper/biorag/internal/util"
)

// SystemPrompt is the fixed role string sent with every generation call
const SystemPrompt = "You are a helpful assistant that answers questions based on the provided context."

const promptTemplate = `Based on the following context, please answer the question.

Context:
%s

Question: %s

Answer:`

// Generator produces a completion for a system and user prompt
type Generator interface {
	Complete(ctx context.Context, model, system, user string) (string, error)
}

// Resources are the process-bound collaborators of an Engine.
// They are never persisted and are re-acquired from configuration on Load.
type Resources struct {
	Embedder  embedding.Backend
	Generator Generator
	// Cache may be nil, which disables both the embedding and answer caches
	Cache cache.Store
	// Encoding defaults to the tiktoken encoding of the generation model
	Encoding chunker.Encoding
	Retry    util.RetryPolicy
	Logger   *log.Logger
}

// Engine is a retrieval-augmented question answering session over one corpus.
// It is not safe for concurrent use.
type Engine struct {
	settings models.Settings
	res      Resources
	corpus   *corpus.Corpus
	chunker  *chunker.Chunker
	embedder *embedding.Provider
	logger   *log.Logger
}

// IngestResult reports the outcome of adding one document
type IngestResult struct {
	Source string
	Chunks int
	Err    error
}

// Stats summarizes an engine's corpus and settings
type Stats struct {
	Chunks          int    `json:"chunks"`
	Embeddings      int    `json:"embeddings"`
	Sources         int    `json:"sources"`
	Dimension       int    `json:"dimension"`
	EmbeddingModel  string `json:"embedding_model"`
	GenerationModel string `json:"generation_model"`
	ChunkSize       int    `json:"chunk_size"`
	TopK            int    `json:"top_k"`
}

// New creates an engine with an empty corpus
func New(settings models.Settings, res Resources) (*Engine, error) {
	return build(settings, res, corpus.New())
}

// Load rebuilds an engine from the snapshot at path.
// The snapshot's models, chunk size and top_k are kept; caching preference and
// all resources come from the caller's fresh configuration.
func Load(path string, settings models.Settings, res Resources) (*Engine, error) {
	snap, err := corpus.LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	c, err := snap.Corpus()
	if err != nil {
		return nil, err
	}

	logger := logging.OrNop(res.Logger)
	if settings.EmbeddingModel != "" && settings.EmbeddingModel != snap.Settings.EmbeddingModel {
		logger.Warn("configured embedding model differs from snapshot, keeping snapshot model",
			"configured", settings.EmbeddingModel, "snapshot", snap.Settings.EmbeddingModel)
	}

	merged := snap.Settings
	merged.CacheEmbeddings = settings.CacheEmbeddings
	e, err := build(merged, res, c)
	if err != nil {
		return nil, err
	}
	e.logger.Info("loaded snapshot", "path", path, "chunks", c.Len(), "saved_at", snap.SavedAt)
	return e, nil
}

func build(settings models.Settings, res Resources, c *corpus.Corpus) (*Engine, error) {
	if settings.TopK == 0 {
		settings.TopK = models.DefaultTopK
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if res.Embedder == nil {
		return nil, &models.ConfigurationError{Field: "embedding backend", Reason: "is required"}
	}
	if res.Generator == nil {
		return nil, &models.ConfigurationError{Field: "generation backend", Reason: "is required"}
	}
	if res.Retry.MaxAttempts == 0 {
		res.Retry = util.DefaultRetryPolicy()
	}

	logger := logging.OrNop(res.Logger).With("component", "rag")

	enc := res.Encoding
	if enc == nil {
		tk, err := chunker.NewTiktoken(settings.GenerationModel, res.Logger)
		if err != nil {
			return nil, err
		}
		enc = tk
	}
	ch, err := chunker.New(enc, settings.ChunkSize)
	if err != nil {
		return nil, err
	}

	emb, err := embedding.NewProvider(res.Embedder, res.Cache, embedding.Config{
		Model:        settings.EmbeddingModel,
		CacheEnabled: settings.CacheEmbeddings,
		Retry:        res.Retry,
	}, res.Logger)
	if err != nil {
		return nil, err
	}

	logger.Info("initialized engine", "top_k", settings.TopK, "chunk_size", settings.ChunkSize, "chunks", c.Len())
	return &Engine{
		settings: settings,
		res:      res,
		corpus:   c,
		chunker:  ch,
		embedder: emb,
		logger:   logger,
	}, nil
}

// Settings returns the engine's persistent settings
func (e *Engine) Settings() models.Settings {
	return e.settings
}

// Len returns the number of chunks in the corpus
func (e *Engine) Len() int {
	return e.corpus.Len()
}

// AddDocument chunks and embeds text, then appends every chunk to the corpus.
// When any chunk fails to embed, the corpus is left unchanged.
// It returns the number of chunks added.
func (e *Engine) AddDocument(ctx context.Context, text string, metadata models.Metadata) (int, error) {
	chunks := e.chunker.Chunk(text)
	entries := make([]corpus.Entry, 0, len(chunks))
	for i, chunk := range chunks {
		vec, err := e.embedder.Embed(ctx, chunk, true)
		if err != nil {
			e.logger.Error("failed to add document", "chunk", i, "of", len(chunks), "err", err)
			return 0, fmt.Errorf("embedding chunk %d of %d: %w", i+1, len(chunks), err)
		}
		entries = append(entries, corpus.Entry{Chunk: chunk, Embedding: vec, Metadata: metadata})
	}

	if err := e.corpus.Append(entries); err != nil {
		return 0, err
	}
	e.logger.Info("added document", "chunks", len(chunks), "source", metadata.String("filename"))
	return len(chunks), nil
}

// AddDocuments adds each document in turn, continuing past failures
func (e *Engine) AddDocuments(ctx context.Context, docs []models.Document) []IngestResult {
	results := make([]IngestResult, 0, len(docs))
	for _, d := range docs {
		n, err := e.AddDocument(ctx, d.Text, d.Metadata)
		results = append(results, IngestResult{
			Source: d.Metadata.String("filename"),
			Chunks: n,
			Err:    err,
		})
	}
	return results
}

// Search returns the k corpus chunks most similar to question.
// k <= 0 uses the configured top_k.
func (e *Engine) Search(ctx context.Context, question string, k int) ([]models.SearchResult, error) {
	if k <= 0 {
		k = e.settings.TopK
	}
	if e.corpus.Len() == 0 {
		return []models.SearchResult{}, nil
	}
	vec, err := e.embedder.Embed(ctx, question, true)
	if err != nil {
		return nil, err
	}
	if d := e.corpus.Dimension(); len(vec) != d {
		return nil, fmt.Errorf("query embedding has %d dimensions, corpus has %d: %w", len(vec), d, models.ErrDimensionMismatch)
	}
	ranked := rank.TopK(vec, e.corpus.Embeddings(), k)
	return e.corpus.Resolve(ranked), nil
}

// AnswerCacheKey returns the cache key holding the answer to question
func AnswerCacheKey(question string) string {
	return cache.Key("answer", question)
}

// Query answers question from the corpus. Successful answers are cached
// under the raw question and served without any backend call thereafter.
// An empty corpus fails with models.ErrEmptyCorpus and nothing is cached.
func (e *Engine) Query(ctx context.Context, question string) (string, error) {
	key := AnswerCacheKey(question)
	if e.res.Cache != nil {
		var cached string
		if cache.GetJSON(e.res.Cache, key, &cached) {
			e.logger.Info("using cached answer", "question", question)
			return cached, nil
		}
	}

	if e.corpus.Len() == 0 {
		e.logger.Error("error processing query", "err", models.ErrEmptyCorpus)
		return "", models.ErrEmptyCorpus
	}

	results, err := e.Search(ctx, question, e.settings.TopK)
	if err != nil {
		e.logger.Error("error processing query", "err", err)
		return "", err
	}

	answer, err := e.Generate(ctx, SystemPrompt, BuildPrompt(question, results))
	if err != nil {
		e.logger.Error("error processing query", "err", err)
		return "", err
	}

	if e.res.Cache != nil {
		cache.SetJSON(e.res.Cache, key, answer)
	}
	return answer, nil
}

// Answer is Query with the result folded into a tagged value
func (e *Engine) Answer(ctx context.Context, question string) models.Answer {
	text, err := e.Query(ctx, question)
	if err != nil {
		return models.Failure(err)
	}
	return models.Success(text)
}

// Generate calls the generation backend with the engine's model and retry policy
func (e *Engine) Generate(ctx context.Context, system, user string) (string, error) {
	policy := e.res.Retry
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		e.logger.Warn("generation attempt failed, retrying", "attempt", attempt, "delay", delay, "err", err)
	}

	var text string
	attempts, err := util.Retry(ctx, policy, func(ctx context.Context, _ int) error {
		out, err := e.res.Generator.Complete(ctx, e.settings.GenerationModel, system, user)
		if err != nil {
			return err
		}
		text = out
		return nil
	})
	if err != nil {
		return "", &models.TransientBackendError{Op: models.OpGeneration, Attempts: attempts, Err: err}
	}
	return text, nil
}

// BuildPrompt assembles the user prompt from ranked chunks, in ranked order
func BuildPrompt(question string, results []models.SearchResult) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}
	return fmt.Sprintf(promptTemplate, strings.Join(texts, "\n\n"), question)
}

// Save persists the corpus and settings to path
func (e *Engine) Save(path string) error {
	if err := e.corpus.Validate(); err != nil {
		return err
	}
	if err := corpus.NewSnapshot(e.corpus, e.settings).Save(path); err != nil {
		return err
	}
	e.logger.Info("saved snapshot", "path", path, "chunks", e.corpus.Len())
	return nil
}

// Stats summarizes the engine
func (e *Engine) Stats() Stats {
	return Stats{
		Chunks:          e.corpus.Len(),
		Embeddings:      len(e.corpus.Embeddings()),
		Sources:         e.corpus.Sources("filename"),
		Dimension:       e.corpus.Dimension(),
		EmbeddingModel:  e.settings.EmbeddingModel,
		GenerationModel: e.settings.GenerationModel,
		ChunkSize:       e.settings.ChunkSize,
		TopK:            e.settings.TopK,
	}
}
