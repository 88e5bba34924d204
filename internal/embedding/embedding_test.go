package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/docchat/internal/provider"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestHashEmbedder_DeterministicUnitVectors(t *testing.T) {
	e := NewHashEmbedder(0)
	require.Equal(t, DefaultHashDimension, e.Dimension())
	assert.Equal(t, "hash-384", e.Model())

	vectors, err := e.Embed(context.Background(), []string{"Solar panels convert sunlight", "Solar panels convert sunlight"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)

	assert.Equal(t, vectors[0], vectors[1])
	assert.Len(t, vectors[0], DefaultHashDimension)
	assert.InDelta(t, 1.0, cosine(vectors[0], vectors[0]), 1e-6)
}

func TestHashEmbedder_RelatedTextsScoreHigher(t *testing.T) {
	e := NewHashEmbedder(512)
	ctx := context.Background()

	query, err := EmbedOne(ctx, e, "How do solar panels produce electricity?")
	require.NoError(t, err)

	vectors, err := e.Embed(ctx, []string{
		"Solar panels produce electricity from sunlight using photovoltaic cells.",
		"The recipe calls for flour, butter and two eggs.",
	})
	require.NoError(t, err)

	assert.Greater(t, cosine(query, vectors[0]), cosine(query, vectors[1]))
}

func TestHashEmbedder_StopwordsOnly(t *testing.T) {
	vectors, err := NewHashEmbedder(16).Embed(context.Background(), []string{"the and of", ""})
	require.NoError(t, err)

	for _, v := range vectors {
		assert.Len(t, v, 16)
		for _, x := range v {
			assert.Zero(t, x)
		}
	}
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

func newEmbeddingServer(t *testing.T, dim int, calls *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/embeddings"), r.URL.Path)
		atomic.AddInt32(calls, 1)

		var req embeddingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		// Answer in reverse order to check the index mapping.
		data := make([]map[string]any, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			vec := make([]float64, dim)
			vec[0] = float64(len(req.Input[i]))
			data = append(data, map[string]any{"object": "embedding", "index": i, "embedding": vec})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]any{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
}

func TestOpenAIEmbedder_BatchesAndOrders(t *testing.T) {
	var calls int32
	srv := newEmbeddingServer(t, 3, &calls)
	defer srv.Close()

	client := NewClient(ClientConfig{APIKey: "test-key", BaseURL: srv.URL})
	e := NewOpenAIEmbedder(client, "test-embedding", 3, 2)

	vectors, err := e.Embed(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	require.Len(t, vectors, 3)
	assert.Equal(t, float32(1), vectors[0][0])
	assert.Equal(t, float32(2), vectors[1][0])
	assert.Equal(t, float32(3), vectors[2][0])
}

func TestOpenAIEmbedder_DimensionMismatch(t *testing.T) {
	var calls int32
	srv := newEmbeddingServer(t, 4, &calls)
	defer srv.Close()

	e := NewOpenAIEmbedder(NewClient(ClientConfig{APIKey: "test-key", BaseURL: srv.URL}), "test-embedding", 3, 0)

	_, err := e.Embed(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestOpenAIEmbedder_Unauthorized(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(NewClient(ClientConfig{APIKey: "bad-key", BaseURL: srv.URL}), "", 0, 0)

	_, err := e.Embed(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, provider.ErrUnauthorized)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "auth failures must not be retried")
}

func TestOpenAIEmbedder_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	client := NewClient(ClientConfig{})
	assert.False(t, client.HasKey())

	e := NewOpenAIEmbedder(client, "", 0, 0)
	assert.Equal(t, DefaultOpenAIModel, e.Model())
	assert.Equal(t, DefaultOpenAIDimension, e.Dimension())

	_, err := e.Embed(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, provider.ErrMissingAPIKey)
}

func TestGeminiEmbedder_MissingKey(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	e, err := NewGeminiEmbedder(context.Background(), GeminiConfig{})
	require.NoError(t, err)
	assert.Equal(t, DefaultGeminiDimension, e.Dimension())
	assert.Equal(t, DefaultGeminiModel, e.Model())

	_, err = e.Embed(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, provider.ErrMissingAPIKey)
}

func TestNormalize(t *testing.T) {
	v := normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	zero := normalize([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)
}
