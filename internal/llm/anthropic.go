package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/bull/docchat/internal/provider"
)

// DefaultAnthropicModel is the Claude model used when none is configured.
const DefaultAnthropicModel = string(anthropic.ModelClaudeSonnet4_5)

// Anthropic generates answers with the Messages API.
type Anthropic struct {
	client *anthropic.Client
	cfg    Config
}

// NewAnthropic creates a Claude-backed model. The key falls back to
// ANTHROPIC_API_KEY; without one, Generate fails with provider.ErrMissingAPIKey.
func NewAnthropic(cfg Config) *Anthropic {
	m := &Anthropic{cfg: cfg.withDefaults(DefaultAnthropicModel)}

	apiKey := provider.APIKey(cfg.APIKey, "ANTHROPIC_API_KEY")
	if apiKey == "" {
		return m
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)
	m.client = &client
	return m
}

// Name returns the model identifier.
func (m *Anthropic) Name() string { return "anthropic/" + m.cfg.Model }

// Generate sends the prompt as a single user message and joins the text blocks of the reply.
func (m *Anthropic) Generate(ctx context.Context, prompt string) (string, error) {
	if m.client == nil {
		return "", provider.MissingKey("ANTHROPIC_API_KEY")
	}

	msg, err := m.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(m.cfg.Model),
		MaxTokens: int64(m.cfg.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(m.cfg.Temperature),
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			err = provider.FromStatus(apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("messages request failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", provider.ErrEmptyResponse
	}
	return text, nil
}
