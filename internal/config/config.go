// Package config loads docchat settings from YAML and DOCCHAT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// EmbedderConfig selects and configures the embedding model.
type EmbedderConfig struct {
	Provider  string `yaml:"provider"` // gemini, openai or hash
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
	BaseURL   string `yaml:"base_url,omitempty"`
}

// LLMConfig selects and configures the language model.
type LLMConfig struct {
	Provider  string `yaml:"provider"` // gemini, openai or anthropic
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
	BaseURL   string `yaml:"base_url,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant server.
type QdrantConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// VectorStoreConfig selects where chunk vectors live.
type VectorStoreConfig struct {
	Type   string       `yaml:"type"` // memory or qdrant
	Qdrant QdrantConfig `yaml:"qdrant"`
}

// Config is the root application configuration.
type Config struct {
	ChunkSize         int               `yaml:"chunk_size"`
	ChunkOverlap      int               `yaml:"chunk_overlap"`
	TopK              int               `yaml:"top_k"`
	FetchK            int               `yaml:"fetch_k"`
	MMRLambda         float64           `yaml:"mmr_lambda"`
	RetrievalMode     string            `yaml:"retrieval_mode"` // mmr or similarity
	HistoryWindow     int               `yaml:"history_window"`
	Temperature       float64           `yaml:"temperature"`
	GenerationTimeout time.Duration     `yaml:"generation_timeout"`
	MaxContextTokens  int               `yaml:"max_context_tokens"`
	Embedder          EmbedderConfig    `yaml:"embedder"`
	LLM               LLMConfig         `yaml:"llm"`
	VectorStore       VectorStoreConfig `yaml:"vector_store"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		ChunkSize:         1000,
		ChunkOverlap:      200,
		TopK:              5,
		FetchK:            20,
		MMRLambda:         0.5,
		RetrievalMode:     "mmr",
		HistoryWindow:     6,
		Temperature:       0.7,
		GenerationTimeout: 5 * time.Minute,
		MaxContextTokens:  16000,
		Embedder: EmbedderConfig{
			Provider:  "gemini",
			Model:     "gemini-embedding-001",
			Dimension: 768,
			BatchSize: 100,
		},
		LLM: LLMConfig{
			Provider:  "gemini",
			Model:     "gemini-2.5-flash",
			MaxTokens: 1024,
		},
		VectorStore: VectorStoreConfig{
			Type:   "memory",
			Qdrant: QdrantConfig{Host: "localhost", Port: 6334},
		},
	}
}

// Load reads a config file over the defaults, then applies environment
// overrides. An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault tries ./docchat.yaml first, then ~/.config/docchat/config.yaml.
// It returns the path used, or "" when neither exists.
func LoadDefault() (*Config, string, error) {
	candidates := []string{"docchat.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "docchat", "config.yaml"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			cfg, err := Load(path)
			return cfg, path, err
		}
	}
	cfg, err := Load("")
	return cfg, "", err
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.ChunkSize > 0, "chunk_size must be positive, got %d", c.ChunkSize)
	check(c.ChunkOverlap >= 0 && c.ChunkOverlap < c.ChunkSize,
		"chunk_overlap must be in [0, chunk_size), got %d", c.ChunkOverlap)
	check(c.TopK > 0, "top_k must be positive, got %d", c.TopK)
	check(c.MMRLambda >= 0 && c.MMRLambda <= 1, "mmr_lambda must be in [0, 1], got %v", c.MMRLambda)
	check(c.RetrievalMode == "mmr" || c.RetrievalMode == "similarity",
		"retrieval_mode must be mmr or similarity, got %q", c.RetrievalMode)
	check(c.HistoryWindow >= 0, "history_window must not be negative, got %d", c.HistoryWindow)
	check(c.Temperature >= 0 && c.Temperature <= 2, "temperature must be in [0, 2], got %v", c.Temperature)
	check(c.GenerationTimeout > 0, "generation_timeout must be positive, got %s", c.GenerationTimeout)
	check(oneOf(c.Embedder.Provider, "gemini", "openai", "hash"),
		"embedder.provider must be gemini, openai or hash, got %q", c.Embedder.Provider)
	check(c.Embedder.Dimension > 0, "embedder.dimension must be positive, got %d", c.Embedder.Dimension)
	check(oneOf(c.LLM.Provider, "gemini", "openai", "anthropic"),
		"llm.provider must be gemini, openai or anthropic, got %q", c.LLM.Provider)
	check(oneOf(c.VectorStore.Type, "memory", "qdrant"),
		"vector_store.type must be memory or qdrant, got %q", c.VectorStore.Type)
	if c.VectorStore.Type == "qdrant" {
		check(c.VectorStore.Qdrant.Host != "", "vector_store.qdrant.host is required")
		check(c.VectorStore.Qdrant.Port > 0, "vector_store.qdrant.port must be positive, got %d", c.VectorStore.Qdrant.Port)
	}

	return errors.Join(errs...)
}

func (c *Config) applyEnv() error {
	var err error
	c.ChunkSize = getEnvInt("DOCCHAT_CHUNK_SIZE", c.ChunkSize)
	c.ChunkOverlap = getEnvInt("DOCCHAT_CHUNK_OVERLAP", c.ChunkOverlap)
	c.TopK = getEnvInt("DOCCHAT_TOP_K", c.TopK)
	c.FetchK = getEnvInt("DOCCHAT_FETCH_K", c.FetchK)
	c.RetrievalMode = getEnv("DOCCHAT_RETRIEVAL_MODE", c.RetrievalMode)
	c.HistoryWindow = getEnvInt("DOCCHAT_HISTORY_WINDOW", c.HistoryWindow)
	c.MaxContextTokens = getEnvInt("DOCCHAT_MAX_CONTEXT_TOKENS", c.MaxContextTokens)

	if c.MMRLambda, err = getEnvFloat("DOCCHAT_MMR_LAMBDA", c.MMRLambda); err != nil {
		return err
	}
	if c.Temperature, err = getEnvFloat("DOCCHAT_TEMPERATURE", c.Temperature); err != nil {
		return err
	}
	if v := os.Getenv("DOCCHAT_GENERATION_TIMEOUT"); v != "" {
		d, perr := time.ParseDuration(v)
		if perr != nil {
			return fmt.Errorf("DOCCHAT_GENERATION_TIMEOUT: %w", perr)
		}
		c.GenerationTimeout = d
	}

	c.Embedder.Provider = getEnv("DOCCHAT_EMBEDDER_PROVIDER", c.Embedder.Provider)
	c.Embedder.Model = getEnv("DOCCHAT_EMBEDDER_MODEL", c.Embedder.Model)
	c.Embedder.Dimension = getEnvInt("DOCCHAT_EMBEDDER_DIMENSION", c.Embedder.Dimension)
	c.Embedder.BatchSize = getEnvInt("DOCCHAT_EMBEDDER_BATCH_SIZE", c.Embedder.BatchSize)
	c.LLM.Provider = getEnv("DOCCHAT_LLM_PROVIDER", c.LLM.Provider)
	c.LLM.Model = getEnv("DOCCHAT_LLM_MODEL", c.LLM.Model)
	c.LLM.MaxTokens = getEnvInt("DOCCHAT_LLM_MAX_TOKENS", c.LLM.MaxTokens)
	c.VectorStore.Type = getEnv("DOCCHAT_VECTOR_STORE", c.VectorStore.Type)
	c.VectorStore.Qdrant.Host = getEnv("QDRANT_HOST", c.VectorStore.Qdrant.Host)
	c.VectorStore.Qdrant.Port = getEnvInt("QDRANT_PORT", c.VectorStore.Qdrant.Port)
	return nil
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}
