// Package main provides the docchat CLI for chatting with a document.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/docchat/internal/app"
	"github.com/bull/docchat/internal/config"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "Chat with a document",
	Long: `Ask questions about a PDF, text, Word or markdown document.

Documents are split into overlapping chunks, embedded, and searched for the
passages relevant to each question; a language model answers from those
passages and the recent conversation.

Documents are local paths or github://owner/repo/path[@ref].

Environment variables:
  GOOGLE_API_KEY     Gemini API key (default provider)
  OPENAI_API_KEY     OpenAI API key (when embedder or llm provider is openai)
  ANTHROPIC_API_KEY  Anthropic API key (when llm provider is anthropic)
  GITHUB_TOKEN       GitHub token for higher rate limits (optional)
  DOCCHAT_*          Override any config setting, e.g. DOCCHAT_TOP_K=8`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./docchat.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(ingestCmd, askCmd, chatCmd, serveCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads --config, or the default locations when it is unset.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	cfg, _, err := config.LoadDefault()
	return cfg, err
}

// newApp loads the configuration and builds the application.
func newApp(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("Failed to load config: %w", err)
	}
	a, err := app.New(ctx, cfg, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("Failed to initialize: %w", err)
	}
	return a, nil
}
