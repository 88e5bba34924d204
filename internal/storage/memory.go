package storage

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryBackend keeps vectors in process memory.
type MemoryBackend struct{}

// NewMemoryBackend creates an in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// NewStore returns an empty in-memory store for vectors of the given dimension.
func (b *MemoryBackend) NewStore(_ context.Context, dimension int) (VectorStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension %d", ErrDimensionMismatch, dimension)
	}
	return &MemoryStore{dimension: dimension}, nil
}

// Health always succeeds.
func (b *MemoryBackend) Health(context.Context) error { return nil }

// Name identifies the backend.
func (b *MemoryBackend) Name() string { return "memory" }

// Close is a no-op.
func (b *MemoryBackend) Close() error { return nil }

// MemoryStore is a brute-force cosine similarity store.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	chunks    []*Chunk
	norms     []float64
	closed    bool
}

// UpsertChunks appends chunks, replacing any with an existing ID.
func (s *MemoryStore) UpsertChunks(_ context.Context, chunks []*Chunk) error {
	for i, chunk := range chunks {
		if len(chunk.Embedding) != s.dimension {
			return fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(chunk.Embedding), s.dimension)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	positions := make(map[string]int, len(s.chunks))
	for i, c := range s.chunks {
		positions[c.ID] = i
	}
	for _, chunk := range chunks {
		norm := vectorNorm(chunk.Embedding)
		if pos, ok := positions[chunk.ID]; ok {
			s.chunks[pos] = chunk
			s.norms[pos] = norm
			continue
		}
		positions[chunk.ID] = len(s.chunks)
		s.chunks = append(s.chunks, chunk)
		s.norms = append(s.norms, norm)
	}
	return nil
}

// SearchChunksWithScores scores every stored chunk against the query.
func (s *MemoryStore) SearchChunksWithScores(_ context.Context, embedding []float32, limit int) ([]*ScoredChunk, error) {
	if len(embedding) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(embedding), s.dimension)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	queryNorm := vectorNorm(embedding)
	scored := make([]*ScoredChunk, len(s.chunks))
	for i, chunk := range s.chunks {
		score := 0.0
		if queryNorm > 0 && s.norms[i] > 0 {
			score = dot(embedding, chunk.Embedding) / (queryNorm * s.norms[i])
		}
		scored[i] = &ScoredChunk{Chunk: chunk, Score: score}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.Index < scored[j].Chunk.Index
	})

	if limit >= 0 && limit < len(scored) {
		scored = scored[:limit]
	}
	return scored, nil
}

// Len returns the number of stored chunks.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Location identifies the store for status output.
func (s *MemoryStore) Location() string { return "in-memory" }

// Close drops all stored vectors.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
	s.norms = nil
	s.closed = true
	return nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func vectorNorm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}
