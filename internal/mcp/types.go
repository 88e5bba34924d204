// Package mcp exposes the document chat session as MCP tools.
package mcp

// IngestDocumentInput defines the input parameters for the ingest_document tool.
type IngestDocumentInput struct {
	// Ref is a local file path or github://owner/repo/path[@ref].
	Ref string `json:"ref" jsonschema:"local path or github://owner/repo/path[@ref] of a .pdf, .txt, .docx, .doc or .md document"`
}

// IngestDocumentOutput summarises the ingested document.
type IngestDocumentOutput struct {
	Ref        string `json:"ref"`
	Pages      int    `json:"pages"`
	Chunks     int    `json:"chunks"`
	Storage    string `json:"storage"`
	Dimension  int    `json:"dimension"`
	Model      string `json:"embedding_model"`
	DurationMS int64  `json:"duration_ms"`
	// Message is the welcome summary shown to the user.
	Message string `json:"message"`
}

// AskQuestionInput defines the input parameters for the ask_question tool.
type AskQuestionInput struct {
	Question string `json:"question" jsonschema:"the question to ask about the ingested document"`
	// SourcePreviewChars limits each returned source preview; 0 selects the default.
	SourcePreviewChars int `json:"source_preview_chars,omitempty" jsonschema:"maximum characters per source preview (default 200)"`
}

// AskQuestionOutput contains the answer and the passages it was based on.
type AskQuestionOutput struct {
	Answer   string   `json:"answer"`
	Sources  []string `json:"sources"`
	Greeting bool     `json:"greeting"`
	// Fallback is set when the document had nothing relevant.
	Fallback bool `json:"fallback"`
}

// DocumentStatusInput takes no parameters.
type DocumentStatusInput struct{}

// DocumentStatusOutput describes the active document.
type DocumentStatusOutput struct {
	Ready        bool   `json:"ready"`
	Ref          string `json:"ref,omitempty"`
	Pages        int    `json:"pages"`
	Chunks       int    `json:"chunks"`
	Storage      string `json:"storage,omitempty"`
	Dimension    int    `json:"dimension"`
	Model        string `json:"embedding_model,omitempty"`
	LLM          string `json:"llm"`
	HistoryTurns int    `json:"history_turns"`
	Message      string `json:"message,omitempty"`
}

// ChatHistoryInput defines the input parameters for the chat_history tool.
type ChatHistoryInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"return only the most recent turns (0 returns all)"`
}

// ChatTurn is one message of the conversation.
type ChatTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// ChatHistoryOutput contains the conversation so far.
type ChatHistoryOutput struct {
	Turns []ChatTurn `json:"turns"`
	Count int        `json:"count"`
}

// ResetConversationInput takes no parameters.
type ResetConversationInput struct{}

// ResetConversationOutput reports how many turns were forgotten.
type ResetConversationOutput struct {
	Cleared int    `json:"cleared"`
	Message string `json:"message"`
}
