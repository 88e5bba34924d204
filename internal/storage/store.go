// Package storage holds the vector stores backing a document index.
package storage

import "context"

// VectorStore holds the embedded chunks of exactly one document.
type VectorStore interface {
	// UpsertChunks stores chunks with their embeddings.
	UpsertChunks(ctx context.Context, chunks []*Chunk) error

	// SearchChunksWithScores returns up to limit chunks ordered by score
	// descending, ties broken by chunk index.
	SearchChunksWithScores(ctx context.Context, embedding []float32, limit int) ([]*ScoredChunk, error)

	// Location describes where the vectors live, for status output.
	Location() string

	// Close releases the store. Stores built on a server drop their data.
	Close() error
}

// Backend creates a fresh VectorStore for each ingested document.
type Backend interface {
	NewStore(ctx context.Context, dimension int) (VectorStore, error)
	Health(ctx context.Context) error
	Name() string
	Close() error
}
