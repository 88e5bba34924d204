package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/docchat/internal/ingest"
	"github.com/bull/docchat/internal/session"
)

// Ingester loads a document reference into the session.
type Ingester interface {
	Ingest(ctx context.Context, ref string) (*ingest.Info, error)
}

// IngestFunc adapts a function to Ingester.
type IngestFunc func(ctx context.Context, ref string) (*ingest.Info, error)

// Ingest calls f.
func (f IngestFunc) Ingest(ctx context.Context, ref string) (*ingest.Info, error) {
	return f(ctx, ref)
}

// Server wraps the MCP server with dependencies.
type Server struct {
	server  *mcp.Server
	session *session.Session
}

// Config holds server dependencies.
type Config struct {
	Ingester Ingester
	Session  *session.Session
	Version  string
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	version := cfg.Version
	if version == "" {
		version = "v0.1.0"
	}
	impl := &mcp.Implementation{
		Name:    "docchat",
		Version: version,
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ingest_document",
		Description: "Load a document (.pdf, .txt, .docx, .doc, .md) from a local path or github://owner/repo/path[@ref]. Replaces the active document and starts a new conversation.",
	}, makeIngestHandler(cfg.Ingester))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_question",
		Description: "Ask a question about the active document. Answers are grounded in retrieved passages and remember the recent conversation.",
	}, makeAskHandler(cfg.Session))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "document_status",
		Description: "Describe the active document: page and chunk counts, vector storage, models and conversation length.",
	}, makeStatusHandler(cfg.Session))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "chat_history",
		Description: "Return the conversation about the active document, oldest first.",
	}, makeHistoryHandler(cfg.Session))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reset_conversation",
		Description: "Forget the conversation but keep the active document.",
	}, makeResetHandler(cfg.Session))

	return &Server{
		server:  server,
		session: cfg.Session,
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
