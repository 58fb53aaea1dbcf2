// ABOUTME: Centralized configuration for the biorag retrieval engine
// ABOUTME: Loads config.yaml (searched upward from the working directory), then environment overrides
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/harper/biorag/internal/charm"
	"github.com/harper/biorag/internal/logging"
	"github.com/harper/biorag/internal/models"
	"github.com/harper/biorag/internal/util"
)

// DefaultFile is the config file name searched for when none is given
const DefaultFile = "config.yaml"

// Cache backends
const (
	CacheFile   = "file"
	CacheCharm  = "charm"
	CacheMemory = "memory"
)

// Config holds all configuration for biorag
type Config struct {
	OpenAI OpenAIConfig   `yaml:"openai"`
	RAG    RAGConfig      `yaml:"rag"`
	Retry  RetryConfig    `yaml:"retry"`
	Paths  PathsConfig    `yaml:"paths"`
	Log    logging.Config `yaml:"log"`
	Charm  charm.Config   `yaml:"charm"`

	// File is the config file that was loaded, empty when running on defaults
	File string `yaml:"-"`
}

// OpenAIConfig configures the embedding and generation backends
type OpenAIConfig struct {
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url"`
	Model             string        `yaml:"model"`
	EmbeddingModel    string        `yaml:"embedding_model"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// RAGConfig configures chunking, ranking and caching
type RAGConfig struct {
	ChunkSize       int    `yaml:"chunk_size"`
	TopK            int    `yaml:"top_k"`
	CacheEmbeddings bool   `yaml:"cache_embeddings"`
	CacheBackend    string `yaml:"cache_backend"`
}

// RetryConfig bounds backend retries
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

// PathsConfig holds storage locations
type PathsConfig struct {
	Papers     string `yaml:"papers"`
	Code       string `yaml:"code"`
	Embeddings string `yaml:"embeddings"`
	Cache      string `yaml:"cache"`
	Logs       string `yaml:"logs"`
	Snapshot   string `yaml:"snapshot"`
	Backups    string `yaml:"backups"`
}

// DataRoot returns the default directory for all biorag data
func DataRoot() string {
	return filepath.Join(xdg.DataHome, "biorag")
}

// Default returns the configuration used when no file or environment sets a value
func Default() *Config {
	root := DataRoot()
	return &Config{
		OpenAI: OpenAIConfig{
			Model:             "gpt-4o-mini",
			EmbeddingModel:    "text-embedding-3-small",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 5,
		},
		RAG: RAGConfig{
			ChunkSize:       500,
			TopK:            models.DefaultTopK,
			CacheEmbeddings: true,
			CacheBackend:    CacheFile,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
		},
		Paths: PathsConfig{
			Papers:     filepath.Join(root, "papers"),
			Code:       filepath.Join(root, "code"),
			Embeddings: filepath.Join(root, "embeddings"),
			Cache:      filepath.Join(root, "cache"),
			Logs:       filepath.Join(root, "logs"),
			Snapshot:   filepath.Join(root, "embeddings", "bio_rag.json"),
			Backups:    filepath.Join(root, "embeddings", "backups"),
		},
		Log: logging.Config{
			Level:  "info",
			Format: "text",
		},
		Charm: charm.DefaultConfig(),
	}
}

// Load reads configuration from path, then applies environment overrides.
// An empty path searches for config.yaml from the working directory upward
// and falls back to defaults when none is found.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := resolve(path)
	if err != nil {
		return nil, err
	}
	if file != "" {
		if err := cfg.readFile(file); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

// resolve finds the config file to read. Only an explicitly named file must exist.
func resolve(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file %s: %w", path, err)
		}
		return path, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", nil
	}
	return FindUpward(wd, DefaultFile), nil
}

// FindUpward looks for name in dir and each of its parents, returning "" when absent
func FindUpward(dir, name string) string {
	for {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func (c *Config) readFile(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", file, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", file, err)
	}
	c.File = file

	// Relative paths are relative to the config file
	base := filepath.Dir(file)
	for _, p := range []*string{
		&c.Paths.Papers, &c.Paths.Code, &c.Paths.Embeddings, &c.Paths.Cache,
		&c.Paths.Logs, &c.Paths.Snapshot, &c.Paths.Backups,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	c.OpenAI.APIKey = getEnv("OPENAI_API_KEY", c.OpenAI.APIKey)
	c.OpenAI.BaseURL = getEnv("OPENAI_BASE_URL", c.OpenAI.BaseURL)
	c.OpenAI.Model = getEnv("BIORAG_CHAT_MODEL", c.OpenAI.Model)
	c.OpenAI.EmbeddingModel = getEnv("BIORAG_EMBEDDING_MODEL", c.OpenAI.EmbeddingModel)
	c.OpenAI.Timeout = getEnvDuration("OPENAI_TIMEOUT", c.OpenAI.Timeout)
	c.OpenAI.RequestsPerSecond = getEnvFloat("OPENAI_REQUESTS_PER_SECOND", c.OpenAI.RequestsPerSecond)

	c.RAG.ChunkSize = getEnvInt("BIORAG_CHUNK_SIZE", c.RAG.ChunkSize)
	c.RAG.TopK = getEnvInt("BIORAG_TOP_K", c.RAG.TopK)
	c.RAG.CacheEmbeddings = getEnvBool("BIORAG_CACHE_EMBEDDINGS", c.RAG.CacheEmbeddings)
	c.RAG.CacheBackend = getEnv("BIORAG_CACHE_BACKEND", c.RAG.CacheBackend)

	c.Retry.MaxAttempts = getEnvInt("OPENAI_MAX_RETRIES", c.Retry.MaxAttempts)
	c.Retry.BaseDelay = getEnvDuration("OPENAI_RETRY_DELAY", c.Retry.BaseDelay)

	c.Paths.Snapshot = getEnv("BIORAG_SNAPSHOT", c.Paths.Snapshot)
	c.Paths.Cache = getEnv("BIORAG_CACHE_DIR", c.Paths.Cache)

	c.Log.Level = getEnv("BIORAG_LOG_LEVEL", c.Log.Level)

	c.Charm.Host = getEnv("CHARM_HOST", c.Charm.Host)
	c.Charm.DBName = getEnv("CHARM_DB", c.Charm.DBName)
	c.Charm.AutoSync = getEnvBool("CHARM_AUTO_SYNC", c.Charm.AutoSync)
}

// Validate rejects values the engine cannot run with
func (c *Config) Validate() error {
	if c.RAG.ChunkSize <= 0 {
		return &models.ConfigurationError{Field: "rag.chunk_size", Reason: fmt.Sprintf("must be positive, got %d", c.RAG.ChunkSize)}
	}
	if c.RAG.TopK <= 0 {
		return &models.ConfigurationError{Field: "rag.top_k", Reason: fmt.Sprintf("must be positive, got %d", c.RAG.TopK)}
	}
	switch c.RAG.CacheBackend {
	case CacheFile, CacheCharm, CacheMemory:
	default:
		return &models.ConfigurationError{Field: "rag.cache_backend", Reason: fmt.Sprintf("unknown backend %q", c.RAG.CacheBackend)}
	}
	if c.Retry.MaxAttempts < 1 || c.Retry.MaxAttempts > 10 {
		return &models.ConfigurationError{Field: "retry.max_attempts", Reason: fmt.Sprintf("must be 1-10, got %d", c.Retry.MaxAttempts)}
	}
	if c.Retry.BaseDelay < 0 {
		return &models.ConfigurationError{Field: "retry.base_delay", Reason: "must not be negative"}
	}
	if c.OpenAI.Model == "" {
		return &models.ConfigurationError{Field: "openai.model", Reason: "must not be empty"}
	}
	if c.OpenAI.EmbeddingModel == "" {
		return &models.ConfigurationError{Field: "openai.embedding_model", Reason: "must not be empty"}
	}
	if c.Paths.Snapshot == "" {
		return &models.ConfigurationError{Field: "paths.snapshot", Reason: "must not be empty"}
	}
	return nil
}

// RequireAPIKey fails when no OpenAI credentials are configured
func (c *Config) RequireAPIKey() error {
	if c.OpenAI.APIKey == "" {
		return &models.ConfigurationError{Field: "openai.api_key", Reason: "not set (use OPENAI_API_KEY or config.yaml)"}
	}
	return nil
}

// Settings returns the persistent engine settings
func (c *Config) Settings() models.Settings {
	return models.Settings{
		EmbeddingModel:  c.OpenAI.EmbeddingModel,
		GenerationModel: c.OpenAI.Model,
		ChunkSize:       c.RAG.ChunkSize,
		TopK:            c.RAG.TopK,
		CacheEmbeddings: c.RAG.CacheEmbeddings,
	}
}

// RetryPolicy returns the backend retry policy
func (c *Config) RetryPolicy() util.RetryPolicy {
	return util.RetryPolicy{
		MaxAttempts: c.Retry.MaxAttempts,
		BaseDelay:   c.Retry.BaseDelay,
	}
}

// EnsureDirs creates every configured storage directory
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{
		c.Paths.Papers, c.Paths.Code, c.Paths.Embeddings, c.Paths.Cache,
		c.Paths.Logs, c.Paths.Backups, filepath.Dir(c.Paths.Snapshot),
	} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// SnapshotExists reports whether a saved corpus is present
func (c *Config) SnapshotExists() bool {
	_, err := os.Stat(c.Paths.Snapshot)
	return err == nil
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
