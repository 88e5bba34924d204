// Package llm wraps the chat models used to compose answers.
package llm

import (
	"context"
	"log/slog"
)

const (
	// DefaultTemperature matches a conversational, slightly creative tone.
	DefaultTemperature = 0.7

	// DefaultMaxTokens caps the length of a generated answer.
	DefaultMaxTokens = 1024
)

// Model turns a prompt into a completion.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Config holds generation settings shared by every provider.
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
	APIKey      string
	BaseURL     string
}

func (c Config) withDefaults(model string) Config {
	if c.Model == "" {
		c.Model = model
	}
	if c.Temperature < 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	return c
}

// Truncate cuts content to roughly maxTokens tokens.
// Uses rough estimate of 4 characters per token.
func Truncate(content string, maxTokens int) string {
	if maxTokens <= 0 {
		return content
	}

	// Rough estimate: 1 token ≈ 4 characters
	maxChars := maxTokens * 4
	if len(content) <= maxChars {
		return content
	}

	// Back up to a rune boundary.
	cut := maxChars
	for cut > 0 && !isRuneStart(content[cut]) {
		cut--
	}

	slog.Warn("truncating content",
		"from_chars", len(content),
		"to_chars", cut,
		"estimated_tokens", maxTokens)

	return content[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
