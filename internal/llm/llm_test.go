package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/docchat/internal/provider"
)

func jsonHandler(t *testing.T, status int, body any, gotPath *string, gotBody *map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if gotPath != nil {
			*gotPath = r.URL.Path
		}
		if gotBody != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(gotBody))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
}

func newOpenAIClient(url string) *openai.Client {
	c := openai.NewClient(option.WithAPIKey("test-key"), option.WithBaseURL(url), option.WithMaxRetries(0))
	return &c
}

func chatCompletion(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
}

func TestOpenAI_Generate(t *testing.T) {
	var path string
	var body map[string]any
	srv := httptest.NewServer(jsonHandler(t, http.StatusOK, chatCompletion("  The document covers solar power. "), &path, &body))
	defer srv.Close()

	m := NewOpenAI(newOpenAIClient(srv.URL), Config{Temperature: 0.7})
	answer, err := m.Generate(context.Background(), "What is it about?")
	require.NoError(t, err)

	assert.Equal(t, "The document covers solar power.", answer)
	assert.True(t, strings.HasSuffix(path, "/chat/completions"))
	assert.Equal(t, string(DefaultOpenAIModel), body["model"])
	assert.InDelta(t, 0.7, body["temperature"], 1e-9)
	assert.Equal(t, "openai/gpt-4o-mini", m.Name())
}

func TestOpenAI_EmptyAnswer(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, http.StatusOK, chatCompletion("   "), nil, nil))
	defer srv.Close()

	_, err := NewOpenAI(newOpenAIClient(srv.URL), Config{}).Generate(context.Background(), "q")
	assert.ErrorIs(t, err, provider.ErrEmptyResponse)
}

func TestOpenAI_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, http.StatusUnauthorized,
		map[string]any{"error": map[string]any{"message": "Incorrect API key provided", "type": "invalid_request_error"}}, nil, nil))
	defer srv.Close()

	_, err := NewOpenAI(newOpenAIClient(srv.URL), Config{}).Generate(context.Background(), "q")
	assert.ErrorIs(t, err, provider.ErrUnauthorized)
}

func TestOpenAI_MissingKey(t *testing.T) {
	_, err := NewOpenAI(nil, Config{}).Generate(context.Background(), "q")
	assert.ErrorIs(t, err, provider.ErrMissingAPIKey)
}

func TestAnthropic_Generate(t *testing.T) {
	var path string
	var body map[string]any
	srv := httptest.NewServer(jsonHandler(t, http.StatusOK, map[string]any{
		"id":            "msg_1",
		"type":          "message",
		"role":          "assistant",
		"model":         DefaultAnthropicModel,
		"stop_reason":   "end_turn",
		"stop_sequence": nil,
		"content":       []map[string]any{{"type": "text", "text": "Grounded answer."}},
		"usage":         map[string]any{"input_tokens": 3, "output_tokens": 2},
	}, &path, &body))
	defer srv.Close()

	m := NewAnthropic(Config{APIKey: "test-key", BaseURL: srv.URL, MaxTokens: 256})
	answer, err := m.Generate(context.Background(), "question")
	require.NoError(t, err)

	assert.Equal(t, "Grounded answer.", answer)
	assert.True(t, strings.HasSuffix(path, "/v1/messages"), path)
	assert.Equal(t, float64(256), body["max_tokens"])
}

func TestAnthropic_MissingKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := NewAnthropic(Config{}).Generate(context.Background(), "q")
	assert.ErrorIs(t, err, provider.ErrMissingAPIKey)
}

func TestAnthropic_Forbidden(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, http.StatusForbidden, map[string]any{
		"type":  "error",
		"error": map[string]any{"type": "permission_error", "message": "denied"},
	}, nil, nil))
	defer srv.Close()

	_, err := NewAnthropic(Config{APIKey: "k", BaseURL: srv.URL}).Generate(context.Background(), "q")
	assert.ErrorIs(t, err, provider.ErrUnauthorized)
}

func TestGemini_Generate(t *testing.T) {
	var path string
	srv := httptest.NewServer(jsonHandler(t, http.StatusOK, map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{"role": "model", "parts": []map[string]any{{"text": "From Gemini."}}},
		}},
	}, &path, nil))
	defer srv.Close()

	m, err := NewGemini(context.Background(), Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	answer, err := m.Generate(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, "From Gemini.", answer)
	assert.Contains(t, path, DefaultGeminiModel+":generateContent")
}

func TestGemini_MissingKey(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	m, err := NewGemini(context.Background(), Config{})
	require.NoError(t, err)

	_, err = m.Generate(context.Background(), "q")
	assert.ErrorIs(t, err, provider.ErrMissingAPIKey)
}

// TestTruncate verifies truncation works correctly for very long content.
func TestTruncate(t *testing.T) {
	longContent := strings.Repeat("This is a test content. ", 4000)

	truncated := Truncate(longContent, 1000)

	assert.Len(t, truncated, 4000)
	assert.True(t, strings.HasPrefix(longContent, truncated))
}

// TestTruncate_Short verifies short content is not truncated.
func TestTruncate_Short(t *testing.T) {
	short := strings.Repeat("Short. ", 140)
	assert.Equal(t, short, Truncate(short, 1000))
	assert.Equal(t, short, Truncate(short, 0))
}

// TestTruncate_RuneBoundary verifies multi-byte characters are not split.
func TestTruncate_RuneBoundary(t *testing.T) {
	content := "ab" + strings.Repeat("é", 10)

	truncated := Truncate(content, 1)

	assert.Equal(t, "ab", truncated[:2])
	assert.LessOrEqual(t, len(truncated), 4)
	assert.True(t, strings.HasPrefix(content, truncated))
	for _, r := range truncated {
		assert.NotEqual(t, '�', r)
	}
}
