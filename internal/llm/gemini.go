package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/bull/docchat/internal/provider"
)

// DefaultGeminiModel is the Gemini model used when none is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini generates answers with the Gemini API.
type Gemini struct {
	client *genai.Client
	cfg    Config
}

// NewGemini creates a Gemini-backed model. The key falls back to
// GOOGLE_API_KEY and GEMINI_API_KEY; without one, Generate fails with
// provider.ErrMissingAPIKey.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	m := &Gemini{cfg: cfg.withDefaults(DefaultGeminiModel)}

	apiKey := provider.APIKey(cfg.APIKey, "GOOGLE_API_KEY", "GEMINI_API_KEY")
	if apiKey == "" {
		return m, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	m.client = client
	return m, nil
}

// Name returns the model identifier.
func (m *Gemini) Name() string { return "gemini/" + m.cfg.Model }

// Generate sends the prompt as a single user turn.
func (m *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if m.client == nil {
		return "", provider.MissingKey("GOOGLE_API_KEY")
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.cfg.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(m.cfg.Temperature)),
		MaxOutputTokens: int32(m.cfg.MaxTokens),
	})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			err = provider.FromStatus(apiErr.Code, err)
		}
		return "", fmt.Errorf("generate content failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", provider.ErrEmptyResponse
	}
	return text, nil
}
