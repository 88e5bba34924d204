package embedding

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/bull/docchat/internal/provider"
)

const (
	// DefaultGeminiModel is the Gemini embedding model.
	DefaultGeminiModel = "gemini-embedding-001"

	// DefaultGeminiDimension is the requested output dimensionality.
	DefaultGeminiDimension = 768

	// geminiMaxBatch is the batch limit of the embedContent endpoint.
	geminiMaxBatch = 100
)

// GeminiEmbedder generates embeddings with the Gemini API.
type GeminiEmbedder struct {
	client    *genai.Client
	model     string
	dimension int
	batchSize int
}

// GeminiConfig configures a GeminiEmbedder. Empty fields select the defaults;
// APIKey falls back to GOOGLE_API_KEY and GEMINI_API_KEY.
type GeminiConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Dimension int
	BatchSize int
}

// NewGeminiEmbedder creates an embedder. Without an API key the embedder is
// still returned; Embed then fails with provider.ErrMissingAPIKey.
func NewGeminiEmbedder(ctx context.Context, cfg GeminiConfig) (*GeminiEmbedder, error) {
	e := &GeminiEmbedder{
		model:     cfg.Model,
		dimension: cfg.Dimension,
		batchSize: cfg.BatchSize,
	}
	if e.model == "" {
		e.model = DefaultGeminiModel
	}
	if e.dimension <= 0 {
		e.dimension = DefaultGeminiDimension
	}
	if e.batchSize <= 0 || e.batchSize > geminiMaxBatch {
		e.batchSize = geminiMaxBatch
	}

	apiKey := provider.APIKey(cfg.APIKey, "GOOGLE_API_KEY", "GEMINI_API_KEY")
	if apiKey == "" {
		return e, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	e.client = client
	return e, nil
}

// Dimension returns the vector length.
func (e *GeminiEmbedder) Dimension() int { return e.dimension }

// Model returns the embedding model name.
func (e *GeminiEmbedder) Model() string { return e.model }

// Embed generates unit-length embeddings for the given texts in batches.
func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e.client == nil {
		return nil, provider.MissingKey("GOOGLE_API_KEY")
	}

	dim := int32(e.dimension)
	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))

		contents := make([]*genai.Content, 0, end-i)
		for _, text := range texts[i:end] {
			contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
		}

		resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
			OutputDimensionality: &dim,
		})
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", i, end, classifyGemini(err))
		}
		if len(resp.Embeddings) != end-i {
			return nil, errCount(end-i, len(resp.Embeddings))
		}

		for _, emb := range resp.Embeddings {
			if emb == nil || len(emb.Values) != e.dimension {
				return nil, fmt.Errorf("%w: embedding has wrong dimension", ErrBadResponse)
			}
			// Reduced-dimension Gemini vectors are not unit length.
			all = append(all, normalize(append([]float32(nil), emb.Values...)))
		}
	}

	return all, nil
}

func classifyGemini(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return provider.FromStatus(apiErr.Code, err)
	}
	return err
}
