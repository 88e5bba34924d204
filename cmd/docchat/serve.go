package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	mcpserver "github.com/bull/docchat/internal/mcp"
)

var (
	serveAddr  string
	serveStdio bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the document session over MCP",
	Long: `Starts an MCP server exposing ingest_document, ask_question,
document_status, chat_history and reset_conversation.

By default MCP is served over Streamable HTTP at /mcp with a health check at
/health. With --stdio, MCP runs over stdin/stdout instead.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "HTTP listen address")
	serveCmd.Flags().BoolVar(&serveStdio, "stdio", false, "serve MCP over stdin/stdout")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	server := mcpserver.NewServer(&mcpserver.Config{
		Ingester: a,
		Session:  a.Session,
	})

	if serveStdio {
		slog.Info("Starting docchat MCP server (stdio mode)")
		return server.Run(ctx)
	}

	mux := mcpserver.NewMux(server, mcpserver.NewHealthHandler(a.Backend(), a.Session))
	fmt.Fprintf(cmd.OutOrStdout(), "Serving MCP at http://%s/mcp (health at /health)\n", serveAddr)
	return mcpserver.ListenAndServe(ctx, serveAddr, mux)
}
