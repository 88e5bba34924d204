package embedding

import (
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/bull/docchat/internal/provider"
)

// Client wraps the OpenAI client shared by embedding and chat generation.
type Client struct {
	client *openai.Client
	hasKey bool
}

// ClientConfig overrides the OpenAI connection settings. Empty fields fall
// back to OPENAI_API_KEY and the default endpoint.
type ClientConfig struct {
	APIKey  string
	BaseURL string
}

// NewClient creates an OpenAI client. A missing key is not an error here;
// requests made through the client fail with provider.ErrMissingAPIKey.
func NewClient(cfg ClientConfig) *Client {
	apiKey := provider.APIKey(cfg.APIKey, "OPENAI_API_KEY")

	// Retries are handled by our own backoff on rate limits.
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := openai.NewClient(opts...)
	return &Client{client: &client, hasKey: apiKey != ""}
}

// Client returns the underlying OpenAI client for use in other packages (e.g., chat generation).
func (c *Client) Client() *openai.Client {
	return c.client
}

// HasKey reports whether an API key was found.
func (c *Client) HasKey() bool {
	return c.hasKey
}
