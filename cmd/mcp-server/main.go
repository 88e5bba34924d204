// Package main provides the MCP server entry point for docchat.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/bull/docchat/internal/app"
	"github.com/bull/docchat/internal/config"
	mcpserver "github.com/bull/docchat/internal/mcp"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// MCP stdio owns stdout; logs go to stderr
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	port := getEnv("PORT", "8080")

	cfg, err := config.Load(getEnv("DOCCHAT_CONFIG", "docchat.yaml"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	a, err := app.New(ctx, cfg, slog.Default())
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}
	defer a.Close()

	// Optionally preload a document so clients can ask right away
	if ref := os.Getenv("DOCCHAT_DOCUMENT"); ref != "" {
		info, err := a.Ingest(ctx, ref)
		if err != nil {
			log.Fatalf("failed to ingest %s: %v", ref, err)
		}
		log.Printf("Loaded %s: %d pages, %d chunks", ref, info.Pages, info.Chunks)
	}

	server := mcpserver.NewServer(&mcpserver.Config{
		Ingester: a,
		Session:  a.Session,
	})

	mux := mcpserver.NewMux(server, mcpserver.NewHealthHandler(a.Backend(), a.Session))

	// Check if running in server mode (HTTP) or stdio mode (local development)
	serverMode := getEnv("SERVER_MODE", "false") == "true"
	addr := "0.0.0.0:" + port

	if serverMode {
		log.Printf("Starting HTTP server on %s (MCP at /mcp, health at /health)", addr)
		if err := mcpserver.ListenAndServe(ctx, addr, mux); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
		return
	}

	// Stdio mode also serves the health endpoint for local testing
	go func() {
		log.Printf("Starting health server on %s", addr)
		if err := mcpserver.ListenAndServe(ctx, addr, mux); err != nil {
			log.Printf("Health server error: %v", err)
		}
	}()

	log.Println("Starting docchat MCP server (stdio mode)...")
	if err := server.Run(ctx); err != nil {
		log.Printf("server error: %v", err)
		a.Close()
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
