// ABOUTME: Embedding provider wrapping an external embedding backend with cache and retry
// ABOUTME: Cache hits skip the backend; exhausted retries surface a TransientBackendError
package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/biorag/internal/cache"
	"github.com/harper/biorag/internal/logging"
	"github.com/harper/biorag/internal/models"
	"github.com/harper/biorag/internal/util"
)

// Backend produces one embedding per call
type Backend interface {
	EmbedOne(ctx context.Context, text, model string) ([]float64, error)
}

// Config configures a Provider
type Config struct {
	Model        string
	CacheEnabled bool
	Retry        util.RetryPolicy
}

// Provider is the cache-aware, retrying embedding adapter
type Provider struct {
	backend Backend
	cache   cache.Store
	cfg     Config
	logger  *log.Logger
}

// NewProvider creates a Provider. store may be nil when caching is disabled.
func NewProvider(backend Backend, store cache.Store, cfg Config, logger *log.Logger) (*Provider, error) {
	if backend == nil {
		return nil, fmt.Errorf("embedding backend is required")
	}
	if cfg.Model == "" {
		return nil, &models.ConfigurationError{Field: "openai.embedding_model", Reason: "must not be empty"}
	}
	if store == nil {
		cfg.CacheEnabled = false
	}

	p := &Provider{
		backend: backend,
		cache:   store,
		cfg:     cfg,
		logger:  logging.OrNop(logger).With("component", "embedding"),
	}
	if p.cfg.Retry.OnRetry == nil {
		p.cfg.Retry.OnRetry = func(attempt int, err error, delay time.Duration) {
			p.logger.Warn("embedding attempt failed, retrying", "attempt", attempt, "delay", delay, "err", err)
		}
	}
	return p, nil
}

// Model returns the embedding model name
func (p *Provider) Model() string {
	return p.cfg.Model
}

// CacheKey returns the cache key for text's embedding
func (p *Provider) CacheKey(text string) string {
	return cache.Key("embedding:"+p.cfg.Model, text)
}

// Embed returns the embedding for text, consulting the cache when useCache is set
func (p *Provider) Embed(ctx context.Context, text string, useCache bool) ([]float64, error) {
	caching := useCache && p.cfg.CacheEnabled
	key := ""
	if caching {
		key = p.CacheKey(text)
		var cached []float64
		if cache.GetJSON(p.cache, key, &cached) && len(cached) > 0 {
			p.logger.Debug("using cached embedding", "text", preview(text))
			return cached, nil
		}
	}

	var vector []float64
	attempts, err := util.Retry(ctx, p.cfg.Retry, func(ctx context.Context, attempt int) error {
		v, err := p.backend.EmbedOne(ctx, text, p.cfg.Model)
		if err != nil {
			return err
		}
		if len(v) == 0 {
			return fmt.Errorf("empty embedding returned")
		}
		vector = v
		return nil
	})
	if err != nil {
		p.logger.Error("failed to get embedding", "attempts", attempts, "err", err)
		return nil, &models.TransientBackendError{Op: models.OpEmbedding, Attempts: attempts, Err: err}
	}

	if caching {
		cache.SetJSON(p.cache, key, vector)
	}
	return vector, nil
}

// preview shortens text for log lines
func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= 50 {
		return text
	}
	return string(runes[:50]) + "..."
}
