// ABOUTME: Shared command setup: configuration, logging, cache backend and engine
// ABOUTME: Every command that touches the corpus goes through openApp
package commands

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/harper/biorag/internal/cache"
	"github.com/harper/biorag/internal/charm"
	"github.com/harper/biorag/internal/chunker"
	"github.com/harper/biorag/internal/config"
	"github.com/harper/biorag/internal/embedding"
	"github.com/harper/biorag/internal/llm"
	"github.com/harper/biorag/internal/logging"
	"github.com/harper/biorag/internal/rag"
)

// backends are the external services an engine talks to
type backends struct {
	Embedder  embedding.Backend
	Generator rag.Generator
	// Encoding overrides the tokenizer; nil selects it from the generation model
	Encoding chunker.Encoding
}

// newBackends connects to OpenAI. Tests replace it with fakes.
var newBackends = func(cfg *config.Config) (backends, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return backends{}, err
	}
	client, err := llm.NewOpenAIClientWithConfig(llm.ClientConfig{
		APIKey:            cfg.OpenAI.APIKey,
		BaseURL:           cfg.OpenAI.BaseURL,
		Timeout:           cfg.OpenAI.Timeout,
		RequestsPerSecond: cfg.OpenAI.RequestsPerSecond,
	})
	if err != nil {
		return backends{}, fmt.Errorf("creating OpenAI client: %w", err)
	}
	return backends{Embedder: client, Generator: client}, nil
}

// app holds everything a command needs for one run
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	cache   cache.Store
	engine  *rag.Engine
	closers []func() error
}

// loadConfig reads .env and the config file, and applies the log flags
func loadConfig() (*config.Config, error) {
	// Load .env file if it exists (for API keys)
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	switch {
	case verbose:
		cfg.Log.Level = "debug"
	case quiet:
		cfg.Log.Level = "error"
	}
	return cfg, nil
}

// openBase loads configuration, logging and the cache without touching any backend.
// A nil logOut sends logs to the log file in the configured logs directory.
func openBase(logOut io.Writer) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	if logOut == nil {
		f, err := logging.OpenFile(cfg.Paths.Logs)
		if err != nil {
			return nil, err
		}
		logOut = f
		a.closers = append(a.closers, f.Close)
	}
	a.logger, err = logging.New(cfg.Log, logOut)
	if err != nil {
		a.Close()
		return nil, err
	}
	if cfg.File != "" {
		a.logger.Debug("loaded config", "file", cfg.File)
	}

	store, closer, err := openCache(cfg, a.logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.cache = store
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	return a, nil
}

// openApp is openBase plus an engine, loaded from the snapshot when one exists
func openApp(logOut io.Writer) (*app, error) {
	a, err := openBase(logOut)
	if err != nil {
		return nil, err
	}
	if err := a.cfg.EnsureDirs(); err != nil {
		a.Close()
		return nil, err
	}

	b, err := newBackends(a.cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	res := rag.Resources{
		Embedder:  b.Embedder,
		Generator: b.Generator,
		Cache:     a.cache,
		Encoding:  b.Encoding,
		Retry:     a.cfg.RetryPolicy(),
		Logger:    a.logger,
	}

	if a.cfg.SnapshotExists() {
		a.engine, err = rag.Load(a.cfg.Paths.Snapshot, a.cfg.Settings(), res)
	} else {
		a.engine, err = rag.New(a.cfg.Settings(), res)
	}
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("initializing engine: %w", err)
	}
	return a, nil
}

// openCache selects the cache backend named in the config
func openCache(cfg *config.Config, logger *log.Logger) (cache.Store, func() error, error) {
	switch cfg.RAG.CacheBackend {
	case config.CacheMemory:
		return cache.NewMemory(), nil, nil
	case config.CacheCharm:
		client, err := charm.NewClient(cfg.Charm)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to Charm: %w", err)
		}
		return cache.NewKVStore(client, logger), client.Close, nil
	default:
		return cache.NewFileStore(cfg.Paths.Cache, logger), nil, nil
	}
}

// save writes the corpus snapshot
func (a *app) save() error {
	return a.engine.Save(a.cfg.Paths.Snapshot)
}

// Close releases the cache backend
func (a *app) Close() {
	// closers run in reverse so the log file closes last
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.logger != nil {
			a.logger.Warn("close failed", "err", err)
		}
	}
	a.closers = nil
}

