// Package index builds and queries the searchable chunk index of one document.
package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/bull/docchat/internal/embedding"
	"github.com/bull/docchat/internal/storage"
)

// ErrNotReady is returned when querying an index that was never built or is closed.
var ErrNotReady = errors.New("index not initialized")

// Index holds the chunks of one document, their vectors, and the vector store
// that answers similarity queries. It is read-only once built.
type Index struct {
	mu        sync.RWMutex
	chunks    []*storage.Chunk
	byID      map[string]*storage.Chunk
	pageCount int
	dimension int
	model     string
	store     storage.VectorStore
	closed    bool
}

// Build embeds every chunk and loads the vectors into a fresh store from backend.
// On failure the partially built store is closed and no index is returned.
func Build(ctx context.Context, chunks []*storage.Chunk, pageCount int, embedder embedding.Embedder, backend storage.Backend) (*Index, error) {
	dim := embedder.Dimension()

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	byID := make(map[string]*storage.Chunk, len(chunks))
	for i, chunk := range chunks {
		if len(vectors[i]) != dim {
			return nil, fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				storage.ErrDimensionMismatch, i, len(vectors[i]), dim)
		}
		chunk.Embedding = vectors[i]
		byID[chunk.ID] = chunk
	}

	store, err := backend.NewStore(ctx, dim)
	if err != nil {
		return nil, fmt.Errorf("create vector store: %w", err)
	}
	if err := store.UpsertChunks(ctx, chunks); err != nil {
		store.Close()
		return nil, fmt.Errorf("load vector store: %w", err)
	}

	return &Index{
		chunks:    chunks,
		byID:      byID,
		pageCount: pageCount,
		dimension: dim,
		model:     embedder.Model(),
		store:     store,
	}, nil
}

// Query returns the k chunks most similar to vector, ordered by score
// descending with ties broken by chunk order.
func (ix *Index) Query(ctx context.Context, vector []float32, k int) ([]storage.ScoredChunk, error) {
	if ix == nil {
		return nil, ErrNotReady
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.closed {
		return nil, ErrNotReady
	}
	if len(vector) != ix.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			storage.ErrDimensionMismatch, len(vector), ix.dimension)
	}
	if k <= 0 || len(ix.chunks) == 0 {
		return nil, nil
	}

	hits, err := ix.store.SearchChunksWithScores(ctx, vector, min(k, len(ix.chunks)))
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	results := make([]storage.ScoredChunk, 0, len(hits))
	for _, hit := range hits {
		// Resolve to our own chunk so callers always see the embedding.
		chunk, ok := ix.byID[hit.Chunk.ID]
		if !ok {
			continue
		}
		results = append(results, storage.ScoredChunk{Chunk: chunk, Score: hit.Score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Index < results[j].Chunk.Index
	})

	return results, nil
}

// Vector returns the stored embedding of a chunk.
func (ix *Index) Vector(id string) ([]float32, bool) {
	if ix == nil {
		return nil, false
	}
	chunk, ok := ix.byID[id]
	if !ok {
		return nil, false
	}
	return chunk.Embedding, true
}

// Chunks returns the chunks in document order.
func (ix *Index) Chunks() []*storage.Chunk {
	if ix == nil {
		return nil
	}
	return append([]*storage.Chunk(nil), ix.chunks...)
}

// ChunkCount returns the number of indexed chunks.
func (ix *Index) ChunkCount() int {
	if ix == nil {
		return 0
	}
	return len(ix.chunks)
}

// PageCount returns the number of pages of the source document.
func (ix *Index) PageCount() int {
	if ix == nil {
		return 0
	}
	return ix.pageCount
}

// Dimension returns the vector length shared by every chunk.
func (ix *Index) Dimension() int {
	if ix == nil {
		return 0
	}
	return ix.dimension
}

// Model returns the name of the embedding model used at build time.
func (ix *Index) Model() string {
	if ix == nil {
		return ""
	}
	return ix.model
}

// Location describes where the vectors are stored.
func (ix *Index) Location() string {
	if ix == nil {
		return ""
	}
	return ix.store.Location()
}

// Close releases the vector store. Queries afterwards fail with ErrNotReady.
func (ix *Index) Close() error {
	if ix == nil {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return nil
	}
	ix.closed = true
	return ix.store.Close()
}
