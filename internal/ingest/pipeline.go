// Package ingest turns a document file into a searchable index.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bull/docchat/internal/chunker"
	"github.com/bull/docchat/internal/embedding"
	"github.com/bull/docchat/internal/extract"
	"github.com/bull/docchat/internal/index"
	"github.com/bull/docchat/internal/storage"
)

// ErrEmptyDocument is returned when extraction yields no non-blank text.
var ErrEmptyDocument = errors.New("document contains no extractable text")

// Info summarises one ingestion.
type Info struct {
	Pages     int
	Chunks    int
	FilePath  string
	Storage   string // Where the vectors live, e.g. "in-memory" or "qdrant://host:port/collection"
	Dimension int
	Model     string
	Duration  time.Duration
	Stats     Stats
}

// Pipeline orchestrates extraction, chunking, embedding and index build.
type Pipeline struct {
	registry *extract.Registry
	splitter *chunker.Splitter
	embedder embedding.Embedder
	backend  storage.Backend
	logger   *slog.Logger
}

// NewPipeline creates a new ingestion pipeline with the given components.
func NewPipeline(
	registry *extract.Registry,
	splitter *chunker.Splitter,
	embedder embedding.Embedder,
	backend storage.Backend,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = extract.DefaultRegistry()
	}
	if splitter == nil {
		splitter = chunker.New()
	}
	return &Pipeline{
		registry: registry,
		splitter: splitter,
		embedder: embedder,
		backend:  backend,
		logger:   logger,
	}
}

// Embedder returns the embedding model used for chunks.
func (p *Pipeline) Embedder() embedding.Embedder { return p.embedder }

// SupportedExtensions lists the file extensions the pipeline accepts.
func (p *Pipeline) SupportedExtensions() []string { return p.registry.Extensions() }

// Process ingests the file at path and returns a new index. The caller owns
// the index and must Close it. Nothing is returned on failure.
func (p *Pipeline) Process(ctx context.Context, path string) (*index.Index, *Info, error) {
	start := time.Now()
	p.logger.Info("Starting ingestion", "path", path)

	// 1. Extract pages
	pages, err := p.registry.Extract(ctx, path)
	if errors.Is(err, extract.ErrUnsupportedFormat) {
		return nil, nil, fmt.Errorf("extract: %w (supported: %s)", err, strings.Join(p.SupportedExtensions(), ", "))
	}
	if err != nil {
		return nil, nil, fmt.Errorf("extract: %w", err)
	}
	p.logger.Debug("Extracted document", "path", path, "pages", len(pages))

	// 2. Chunk pages
	segments := p.splitter.Split(pages)
	if len(segments) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrEmptyDocument, path)
	}
	p.logger.Debug("Chunked document", "path", path, "chunks", len(segments))

	chunks := make([]*storage.Chunk, len(segments))
	for i, seg := range segments {
		chunks[i] = &storage.Chunk{
			ID:         uuid.New().String(),
			Index:      i,
			Text:       seg.Text,
			SourcePage: seg.Page,
			Section:    seg.Section,
			Start:      seg.Start,
			End:        seg.End,
		}
	}

	// 3. Embed and load the vector store
	ix, err := index.Build(ctx, chunks, len(pages), p.embedder, p.backend)
	if err != nil {
		return nil, nil, fmt.Errorf("build index: %w", err)
	}

	info := &Info{
		Pages:     len(pages),
		Chunks:    len(chunks),
		FilePath:  path,
		Storage:   ix.Location(),
		Dimension: ix.Dimension(),
		Model:     ix.Model(),
		Duration:  time.Since(start),
		Stats:     ComputeStats(chunks),
	}

	p.logger.Info("Ingestion complete",
		"path", path,
		"pages", info.Pages,
		"chunks", info.Chunks,
		"storage", info.Storage,
		"duration", info.Duration,
	)

	return ix, info, nil
}
