// Package chat answers questions about the active document.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bull/docchat/internal/llm"
	"github.com/bull/docchat/internal/provider"
	"github.com/bull/docchat/internal/retriever"
)

const (
	// DefaultHistoryWindow is how many recent turns are shown to the model.
	DefaultHistoryWindow = 6

	// DefaultGenerationTimeout bounds a single language model call.
	DefaultGenerationTimeout = 5 * time.Minute

	// DefaultContextTokens bounds the document context placed in a prompt.
	DefaultContextTokens = 16000
)

// Retriever finds the chunks relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]retriever.Result, error)
}

// Answer is the reply to one question.
type Answer struct {
	Text     string
	Sources  []string // Unique retrieved chunk texts, best first
	Sections []string // Section heading of each source, empty when unknown
	Greeting bool     // The question was classified as small talk
	Fallback bool     // The model found nothing and the text was replaced
}

// Engine runs the retrieve, prompt, generate and post-process loop for one document.
type Engine struct {
	retriever     Retriever
	model         llm.Model
	history       HistoryStore
	window        int
	timeout       time.Duration
	contextTokens int
	isGreeting    func(string) bool
	logger        *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithHistoryStore replaces the in-memory history.
func WithHistoryStore(h HistoryStore) Option {
	return func(e *Engine) { e.history = h }
}

// WithHistoryWindow sets how many recent turns are included in prompts.
func WithHistoryWindow(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.window = n
		}
	}
}

// WithGenerationTimeout bounds each language model call.
func WithGenerationTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithContextTokens bounds the size of the document context in prompts.
func WithContextTokens(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.contextTokens = n
		}
	}
}

// WithGreetingDetector overrides the small-talk classifier.
func WithGreetingDetector(fn func(string) bool) Option {
	return func(e *Engine) {
		if fn != nil {
			e.isGreeting = fn
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an engine over a retriever and a language model.
func NewEngine(r Retriever, m llm.Model, opts ...Option) *Engine {
	e := &Engine{
		retriever:     r,
		model:         m,
		history:       NewMemoryHistory(),
		window:        DefaultHistoryWindow,
		timeout:       DefaultGenerationTimeout,
		contextTokens: DefaultContextTokens,
		isGreeting:    IsGreeting,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Answer responds to a question using the document and recent conversation.
// Failures return a *Error and leave the history untouched.
func (e *Engine) Answer(ctx context.Context, question string) (*Answer, error) {
	start := time.Now()

	// Step 1: classify small talk and steer it toward the document
	greeting := e.isGreeting(question)
	query := question
	if greeting {
		query = strings.TrimSpace(question) + greetingSuffix
	}

	// Step 2: retrieve
	results, err := e.retriever.Retrieve(ctx, query)
	if err != nil {
		e.logger.Error("retrieval failed", "error", err)
		return nil, newError(StageRetrieval, err)
	}
	sources, sections := uniqueTexts(results)

	// Step 3: assemble the prompt
	docContext := llm.Truncate(strings.Join(sources, "\n\n"), e.contextTokens)
	prompt := buildPrompt(docContext, e.history.Recent(e.window), query)

	// Step 4: generate
	raw, err := e.generate(ctx, prompt)
	if err != nil {
		e.logger.Error("generation failed", "model", e.model.Name(), "error", err)
		return nil, newError(StageGeneration, err)
	}

	// Step 5: post-process
	text, fallback := soften(raw, greeting)

	e.history.Append(
		Turn{Role: RoleUser, Text: question},
		Turn{Role: RoleAssistant, Text: text},
	)

	e.logger.Debug("answered question",
		"greeting", greeting,
		"sources", len(sources),
		"fallback", fallback,
		"duration", time.Since(start))

	return &Answer{
		Text:     text,
		Sources:  sources,
		Sections: sections,
		Greeting: greeting,
		Fallback: fallback,
	}, nil
}

func (e *Engine) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	text, err := e.model.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("language model timed out after %s: %w", e.timeout, err)
		}
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", provider.ErrEmptyResponse
	}
	return text, nil
}

// History returns the full conversation log.
func (e *Engine) History() []Turn {
	return e.history.All()
}

// ClearHistory forgets the conversation but keeps the document.
func (e *Engine) ClearHistory() {
	e.history.Reset()
}

func uniqueTexts(results []retriever.Result) (texts, sections []string) {
	seen := make(map[string]struct{}, len(results))
	texts = make([]string, 0, len(results))
	sections = make([]string, 0, len(results))
	for _, r := range results {
		if _, dup := seen[r.Chunk.Text]; dup {
			continue
		}
		seen[r.Chunk.Text] = struct{}{}
		texts = append(texts, r.Chunk.Text)
		sections = append(sections, r.Chunk.Section)
	}
	return texts, sections
}
