package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docchat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
chunk_size: 500
chunk_overlap: 50
top_k: 3
retrieval_mode: similarity
temperature: 0
generation_timeout: 30s
embedder:
  provider: openai
  model: text-embedding-3-small
  dimension: 1536
vector_store:
  type: qdrant
  qdrant:
    host: qdrant.internal
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, 50, cfg.ChunkOverlap)
	assert.Equal(t, 3, cfg.TopK)
	assert.Equal(t, "similarity", cfg.RetrievalMode)
	assert.Zero(t, cfg.Temperature, "explicit zero temperature is kept")
	assert.Equal(t, 30*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, "openai", cfg.Embedder.Provider)
	assert.Equal(t, 1536, cfg.Embedder.Dimension)
	assert.Equal(t, 100, cfg.Embedder.BatchSize, "unset fields keep defaults")
	assert.Equal(t, "qdrant.internal", cfg.VectorStore.Qdrant.Host)
	assert.Equal(t, 6334, cfg.VectorStore.Qdrant.Port)
	assert.Equal(t, 6, cfg.HistoryWindow)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "top_k: 3\n")
	t.Setenv("DOCCHAT_TOP_K", "8")
	t.Setenv("DOCCHAT_MMR_LAMBDA", "0.25")
	t.Setenv("DOCCHAT_LLM_PROVIDER", "anthropic")
	t.Setenv("DOCCHAT_GENERATION_TIMEOUT", "90s")
	t.Setenv("QDRANT_PORT", "7000")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.TopK)
	assert.InDelta(t, 0.25, cfg.MMRLambda, 1e-9)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, 90*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, 7000, cfg.VectorStore.Qdrant.Port)
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("DOCCHAT_TEMPERATURE", "warm")

	_, err := Load("")
	assert.ErrorContains(t, err, "DOCCHAT_TEMPERATURE")
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "chunk_size: [1, 2\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }, "chunk_size"},
		{"overlap too large", func(c *Config) { c.ChunkOverlap = c.ChunkSize }, "chunk_overlap"},
		{"zero top_k", func(c *Config) { c.TopK = 0 }, "top_k"},
		{"lambda above one", func(c *Config) { c.MMRLambda = 1.5 }, "mmr_lambda"},
		{"unknown mode", func(c *Config) { c.RetrievalMode = "hybrid" }, "retrieval_mode"},
		{"unknown embedder", func(c *Config) { c.Embedder.Provider = "cohere" }, "embedder.provider"},
		{"unknown llm", func(c *Config) { c.LLM.Provider = "llama" }, "llm.provider"},
		{"unknown store", func(c *Config) { c.VectorStore.Type = "redis" }, "vector_store.type"},
		{"qdrant without host", func(c *Config) {
			c.VectorStore.Type = "qdrant"
			c.VectorStore.Qdrant.Host = ""
		}, "qdrant.host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
