// Package app wires configuration into a ready-to-use document session.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bull/docchat/internal/chat"
	"github.com/bull/docchat/internal/chunker"
	"github.com/bull/docchat/internal/config"
	"github.com/bull/docchat/internal/embedding"
	"github.com/bull/docchat/internal/extract"
	"github.com/bull/docchat/internal/ingest"
	"github.com/bull/docchat/internal/llm"
	"github.com/bull/docchat/internal/provider"
	"github.com/bull/docchat/internal/retriever"
	"github.com/bull/docchat/internal/session"
	"github.com/bull/docchat/internal/source"
	"github.com/bull/docchat/internal/storage"
)

// App bundles the session with the components needed to feed it documents.
type App struct {
	Config   *config.Config
	Session  *session.Session
	Resolver *source.Resolver
	backend  storage.Backend
	logger   *slog.Logger
}

// New validates cfg and builds every component. Missing API keys are logged
// and surface later as authentication failures.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	for _, envVar := range MissingCredentials(cfg) {
		logger.Warn("API key not set; requests will fail until it is configured", "env", envVar)
	}

	embedder, err := NewEmbedder(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	model, err := NewModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create language model: %w", err)
	}
	backend, err := NewBackend(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create vector backend: %w", err)
	}

	gh, err := source.NewClient(provider.APIKey("", "GITHUB_TOKEN"))
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("create GitHub client: %w", err)
	}

	splitter := chunker.New(chunker.WithChunkSize(cfg.ChunkSize), chunker.WithOverlap(cfg.ChunkOverlap))
	pipeline := ingest.NewPipeline(extract.DefaultRegistry(), splitter, embedder, backend, logger)

	sess := session.New(pipeline, model, session.Config{
		Retrieval: retriever.Options{
			TopK:   cfg.TopK,
			Mode:   retriever.Mode(cfg.RetrievalMode),
			FetchK: cfg.FetchK,
			Lambda: cfg.MMRLambda,
		},
		EngineOptions: []chat.Option{
			chat.WithHistoryWindow(cfg.HistoryWindow),
			chat.WithGenerationTimeout(cfg.GenerationTimeout),
			chat.WithContextTokens(cfg.MaxContextTokens),
		},
		Logger: logger,
	})

	logger.Info("Initialized docchat",
		"embedder", embedder.Model(),
		"llm", model.Name(),
		"vector_store", backend.Name(),
	)

	return &App{
		Config:   cfg,
		Session:  sess,
		Resolver: source.NewResolver(gh, logger),
		backend:  backend,
		logger:   logger,
	}, nil
}

// Ingest resolves ref to a local file, ingests it and removes any download.
// The returned info names ref rather than the temporary path.
func (a *App) Ingest(ctx context.Context, ref string) (*ingest.Info, error) {
	path, cleanup, err := a.Resolver.Resolve(ctx, ref)
	defer cleanup()
	if err != nil {
		return nil, err
	}

	info, err := a.Session.Ingest(ctx, path)
	if err != nil {
		return nil, err
	}
	info.FilePath = ref
	return info, nil
}

// Backend returns the vector backend, for health checks.
func (a *App) Backend() storage.Backend { return a.backend }

// Close releases the session and the vector backend.
func (a *App) Close() error {
	err := a.Session.Close()
	if cerr := a.backend.Close(); err == nil {
		err = cerr
	}
	return err
}

// NewEmbedder builds the configured embedding model.
func NewEmbedder(ctx context.Context, cfg *config.Config) (embedding.Embedder, error) {
	switch cfg.Embedder.Provider {
	case "hash":
		return embedding.NewHashEmbedder(cfg.Embedder.Dimension), nil
	case "openai":
		client := embedding.NewClient(embedding.ClientConfig{BaseURL: cfg.Embedder.BaseURL})
		return embedding.NewOpenAIEmbedder(client, cfg.Embedder.Model, cfg.Embedder.Dimension, cfg.Embedder.BatchSize), nil
	case "gemini":
		e, err := embedding.NewGeminiEmbedder(ctx, embedding.GeminiConfig{
			BaseURL:   cfg.Embedder.BaseURL,
			Model:     cfg.Embedder.Model,
			Dimension: cfg.Embedder.Dimension,
			BatchSize: cfg.Embedder.BatchSize,
		})
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("%w: unknown embedder provider %q", config.ErrInvalid, cfg.Embedder.Provider)
	}
}

// NewModel builds the configured language model.
func NewModel(ctx context.Context, cfg *config.Config) (llm.Model, error) {
	llmCfg := llm.Config{
		Model:       cfg.LLM.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		BaseURL:     cfg.LLM.BaseURL,
	}

	switch cfg.LLM.Provider {
	case "gemini":
		m, err := llm.NewGemini(ctx, llmCfg)
		if err != nil {
			return nil, err
		}
		return m, nil
	case "anthropic":
		return llm.NewAnthropic(llmCfg), nil
	case "openai":
		client := embedding.NewClient(embedding.ClientConfig{BaseURL: cfg.LLM.BaseURL})
		if !client.HasKey() {
			return llm.NewOpenAI(nil, llmCfg), nil
		}
		return llm.NewOpenAI(client.Client(), llmCfg), nil
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", config.ErrInvalid, cfg.LLM.Provider)
	}
}

// NewBackend connects the configured vector store.
func NewBackend(ctx context.Context, cfg *config.Config) (storage.Backend, error) {
	switch cfg.VectorStore.Type {
	case "memory":
		return storage.NewMemoryBackend(), nil
	case "qdrant":
		b, err := storage.NewQdrantBackend(ctx, cfg.VectorStore.Qdrant.Host, cfg.VectorStore.Qdrant.Port)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: unknown vector store %q", config.ErrInvalid, cfg.VectorStore.Type)
	}
}

// MissingCredentials lists the environment variables that must be set for
// the configured providers but are not.
func MissingCredentials(cfg *config.Config) []string {
	need := map[string][]string{
		"gemini":    {"GOOGLE_API_KEY", "GEMINI_API_KEY"},
		"openai":    {"OPENAI_API_KEY"},
		"anthropic": {"ANTHROPIC_API_KEY"},
	}

	var missing []string
	seen := map[string]bool{}
	for _, p := range []string{cfg.Embedder.Provider, cfg.LLM.Provider} {
		vars, ok := need[p]
		if !ok || seen[p] {
			continue
		}
		seen[p] = true
		if provider.APIKey("", vars...) == "" {
			missing = append(missing, vars[0])
		}
	}
	return missing
}
