// Package session holds the active document and its conversation.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bull/docchat/internal/chat"
	"github.com/bull/docchat/internal/index"
	"github.com/bull/docchat/internal/ingest"
	"github.com/bull/docchat/internal/llm"
	"github.com/bull/docchat/internal/retriever"
)

// ErrIndexNotReady is returned by Ask before any document has been ingested.
// It matches index.ErrNotReady.
var ErrIndexNotReady = fmt.Errorf("%w: no document has been ingested", index.ErrNotReady)

// Config configures a Session.
type Config struct {
	Retrieval     retriever.Options
	EngineOptions []chat.Option
	Logger        *slog.Logger
}

// Session owns one active document index and the engine answering over it.
// A new ingestion replaces both atomically; a failed one leaves them as they were.
type Session struct {
	pipeline *ingest.Pipeline
	model    llm.Model
	cfg      Config
	logger   *slog.Logger

	ingestMu sync.Mutex // serialises Ingest
	askMu    sync.Mutex // serialises Ask and the swap

	mu     sync.RWMutex
	index  *index.Index
	engine *chat.Engine
	info   *ingest.Info
}

// New creates an empty session.
func New(pipeline *ingest.Pipeline, model llm.Model, cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		pipeline: pipeline,
		model:    model,
		cfg:      cfg,
		logger:   logger,
	}
}

// Ingest processes the document at path and makes it the active document.
// The conversation starts afresh with the new document.
func (s *Session) Ingest(ctx context.Context, path string) (*ingest.Info, error) {
	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	ix, info, err := s.pipeline.Process(ctx, path)
	if err != nil {
		return nil, err
	}

	r, err := retriever.New(ix, s.pipeline.Embedder(), s.cfg.Retrieval)
	if err != nil {
		ix.Close()
		return nil, fmt.Errorf("create retriever: %w", err)
	}

	opts := append([]chat.Option{chat.WithLogger(s.logger)}, s.cfg.EngineOptions...)
	engine := chat.NewEngine(r, s.model, opts...)

	s.askMu.Lock()
	s.mu.Lock()
	old := s.index
	s.index, s.engine, s.info = ix, engine, info
	s.mu.Unlock()
	s.askMu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			s.logger.Warn("Failed to close previous index", "error", err)
		}
	}
	return info, nil
}

// Ask answers a question about the active document.
func (s *Session) Ask(ctx context.Context, question string) (*chat.Answer, error) {
	s.askMu.Lock()
	defer s.askMu.Unlock()

	engine := s.activeEngine()
	if engine == nil {
		return nil, ErrIndexNotReady
	}
	return engine.Answer(ctx, question)
}

// Ready reports whether a document has been ingested.
func (s *Session) Ready() bool {
	return s.activeEngine() != nil
}

// Info describes the active document, or nil when none.
func (s *Session) Info() *ingest.Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.info == nil {
		return nil
	}
	info := *s.info
	return &info
}

// Index returns the active index, or nil when none.
func (s *Session) Index() *index.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// History returns the conversation with the active document.
func (s *Session) History() []chat.Turn {
	if engine := s.activeEngine(); engine != nil {
		return engine.History()
	}
	return nil
}

// ClearHistory forgets the conversation and keeps the document.
func (s *Session) ClearHistory() {
	if engine := s.activeEngine(); engine != nil {
		engine.ClearHistory()
	}
}

// ModelName names the language model answering questions.
func (s *Session) ModelName() string {
	return s.model.Name()
}

// Close releases the active index.
func (s *Session) Close() error {
	s.askMu.Lock()
	defer s.askMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.index != nil {
		err = s.index.Close()
	}
	s.index, s.engine, s.info = nil, nil, nil
	return err
}

func (s *Session) activeEngine() *chat.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}
