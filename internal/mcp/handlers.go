package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/docchat/internal/chat"
	"github.com/bull/docchat/internal/index"
	"github.com/bull/docchat/internal/session"
)

// defaultSourcePreview bounds each source preview returned by ask_question.
const defaultSourcePreview = 200

// makeIngestHandler creates the ingest_document tool handler.
// A failed ingestion leaves the previous document active.
func makeIngestHandler(ingester Ingester) func(
	context.Context, *mcp.CallToolRequest, IngestDocumentInput,
) (*mcp.CallToolResult, IngestDocumentOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input IngestDocumentInput) (
		*mcp.CallToolResult, IngestDocumentOutput, error,
	) {
		if input.Ref == "" {
			return nil, IngestDocumentOutput{}, errors.New("ref is required")
		}

		info, err := ingester.Ingest(ctx, input.Ref)
		if err != nil {
			return nil, IngestDocumentOutput{}, fmt.Errorf("failed to ingest %s: %w", input.Ref, err)
		}

		return nil, IngestDocumentOutput{
			Ref:        info.FilePath,
			Pages:      info.Pages,
			Chunks:     info.Chunks,
			Storage:    info.Storage,
			Dimension:  info.Dimension,
			Model:      info.Model,
			DurationMS: info.Duration.Milliseconds(),
			Message: fmt.Sprintf("Document processed: %d pages split into %d chunks. Ask me anything about it!",
				info.Pages, info.Chunks),
		}, nil
	}
}

// makeAskHandler creates the ask_question tool handler.
// Answer failures are reported with the same user-facing message the CLI prints.
func makeAskHandler(sess *session.Session) func(
	context.Context, *mcp.CallToolRequest, AskQuestionInput,
) (*mcp.CallToolResult, AskQuestionOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskQuestionInput) (
		*mcp.CallToolResult, AskQuestionOutput, error,
	) {
		if input.Question == "" {
			return nil, AskQuestionOutput{}, errors.New("question is required")
		}
		preview := input.SourcePreviewChars
		if preview <= 0 {
			preview = defaultSourcePreview
		}

		ans, err := sess.Ask(ctx, input.Question)
		if errors.Is(err, index.ErrNotReady) {
			return nil, AskQuestionOutput{}, errors.New("no document loaded: call ingest_document first")
		}
		if err != nil {
			return nil, AskQuestionOutput{}, errors.New(chat.FailureMessage(err))
		}

		sources := chat.FormatSectionedSources(ans.Sources, ans.Sections, preview)
		if sources == nil {
			sources = []string{} // Ensure non-nil for JSON marshaling
		}

		return nil, AskQuestionOutput{
			Answer:   ans.Text,
			Sources:  sources,
			Greeting: ans.Greeting,
			Fallback: ans.Fallback,
		}, nil
	}
}

// makeStatusHandler creates the document_status tool handler.
func makeStatusHandler(sess *session.Session) func(
	context.Context, *mcp.CallToolRequest, DocumentStatusInput,
) (*mcp.CallToolResult, DocumentStatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input DocumentStatusInput) (
		*mcp.CallToolResult, DocumentStatusOutput, error,
	) {
		out := DocumentStatusOutput{
			LLM:          sess.ModelName(),
			HistoryTurns: len(sess.History()),
		}

		info := sess.Info()
		if info == nil {
			out.Message = "No document loaded. Call ingest_document to start."
			return nil, out, nil
		}

		out.Ready = true
		out.Ref = info.FilePath
		out.Pages = info.Pages
		out.Chunks = info.Chunks
		out.Storage = info.Storage
		out.Dimension = info.Dimension
		out.Model = info.Model
		return nil, out, nil
	}
}

// makeHistoryHandler creates the chat_history tool handler.
func makeHistoryHandler(sess *session.Session) func(
	context.Context, *mcp.CallToolRequest, ChatHistoryInput,
) (*mcp.CallToolResult, ChatHistoryOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ChatHistoryInput) (
		*mcp.CallToolResult, ChatHistoryOutput, error,
	) {
		history := sess.History()
		if input.Limit > 0 && len(history) > input.Limit {
			history = history[len(history)-input.Limit:]
		}

		turns := make([]ChatTurn, len(history))
		for i, turn := range history {
			turns[i] = ChatTurn{Role: string(turn.Role), Text: turn.Text}
		}
		return nil, ChatHistoryOutput{Turns: turns, Count: len(turns)}, nil
	}
}

// makeResetHandler creates the reset_conversation tool handler.
func makeResetHandler(sess *session.Session) func(
	context.Context, *mcp.CallToolRequest, ResetConversationInput,
) (*mcp.CallToolResult, ResetConversationOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ResetConversationInput) (
		*mcp.CallToolResult, ResetConversationOutput, error,
	) {
		cleared := len(sess.History())
		sess.ClearHistory()
		return nil, ResetConversationOutput{
			Cleared: cleared,
			Message: "Conversation cleared. The document is still loaded.",
		}, nil
	}
}
