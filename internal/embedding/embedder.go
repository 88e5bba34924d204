package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"

	"github.com/bull/docchat/internal/provider"
)

const (
	// DefaultOpenAIModel is the OpenAI model used for generating embeddings.
	DefaultOpenAIModel = "text-embedding-3-small"

	// DefaultOpenAIDimension is the native vector dimension of text-embedding-3-small.
	DefaultOpenAIDimension = 1536

	// DefaultBatchSize balances requests-per-minute vs tokens-per-minute rate limits.
	// OpenAI supports up to 2048 texts per batch, but smaller batches reduce TPM pressure.
	DefaultBatchSize = 500
)

// OpenAIEmbedder generates embeddings with the OpenAI embeddings API.
// It batches requests and implements exponential backoff on rate limit errors.
type OpenAIEmbedder struct {
	client    *Client
	model     string
	dimension int
	batchSize int
}

// NewOpenAIEmbedder creates an embedder. Zero values select the defaults.
func NewOpenAIEmbedder(client *Client, model string, dimension, batchSize int) *OpenAIEmbedder {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if dimension <= 0 {
		dimension = DefaultOpenAIDimension
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &OpenAIEmbedder{
		client:    client,
		model:     model,
		dimension: dimension,
		batchSize: batchSize,
	}
}

// Dimension returns the vector length.
func (e *OpenAIEmbedder) Dimension() int { return e.dimension }

// Model returns the embedding model name.
func (e *OpenAIEmbedder) Model() string { return e.model }

// Embed generates embeddings for the given texts in batches.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if !e.client.HasKey() {
		return nil, provider.MissingKey("OPENAI_API_KEY")
	}

	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))

		embeddings, err := e.embedBatchWithRetry(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		all = append(all, embeddings...)
	}

	return all, nil
}

// embedBatchWithRetry generates embeddings for a single batch.
// Retries with exponential backoff on rate limit errors (HTTP 429).
// Other errors are treated as permanent and fail immediately.
func (e *OpenAIEmbedder) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var embeddings [][]float32

	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model: openai.EmbeddingModel(e.model),
	}
	// Only the text-embedding-3 family accepts a reduced dimension.
	if strings.HasPrefix(e.model, "text-embedding-3") {
		params.Dimensions = openai.Int(int64(e.dimension))
	}

	operation := func() error {
		resp, err := e.client.client.Embeddings.New(ctx, params)
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(classify(err))
		}

		if len(resp.Data) != len(texts) {
			return backoff.Permanent(errCount(len(texts), len(resp.Data)))
		}

		embeddings = make([][]float32, len(resp.Data))
		for _, data := range resp.Data {
			if data.Index < 0 || int(data.Index) >= len(texts) {
				return backoff.Permanent(fmt.Errorf("%w: index %d out of range", ErrBadResponse, data.Index))
			}
			vec := toFloat32(data.Embedding)
			if len(vec) != e.dimension {
				return backoff.Permanent(fmt.Errorf("%w: got %d dimensions, expected %d",
					ErrBadResponse, len(vec), e.dimension))
			}
			embeddings[data.Index] = vec
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	return embeddings, err
}

// isRateLimitError checks if the error is a rate limit error (HTTP 429).
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// classify maps OpenAI credential failures onto provider.ErrUnauthorized.
func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return provider.FromStatus(apiErr.StatusCode, err)
	}
	return err
}

// toFloat32 converts []float64 to []float32.
// OpenAI API returns float64, but storage uses float32 for memory efficiency.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
