package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/bull/docchat/internal/provider"
)

// DefaultOpenAIModel is the chat model used when none is configured.
const DefaultOpenAIModel = openai.ChatModelGPT4oMini

// OpenAI generates answers with the Chat Completions API.
type OpenAI struct {
	client *openai.Client
	cfg    Config
}

// NewOpenAI creates an OpenAI-backed model. A nil client means no API key
// was configured; Generate then fails with provider.ErrMissingAPIKey.
func NewOpenAI(client *openai.Client, cfg Config) *OpenAI {
	return &OpenAI{client: client, cfg: cfg.withDefaults(DefaultOpenAIModel)}
}

// Name returns the model identifier.
func (m *OpenAI) Name() string { return "openai/" + m.cfg.Model }

// Generate sends the prompt as a single user message.
func (m *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	if m.client == nil {
		return "", provider.MissingKey("OPENAI_API_KEY")
	}

	resp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:               m.cfg.Model,
		Temperature:         openai.Float(m.cfg.Temperature),
		MaxCompletionTokens: openai.Int(int64(m.cfg.MaxTokens)),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			err = provider.FromStatus(apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", provider.ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", provider.ErrEmptyResponse
	}
	return text, nil
}
