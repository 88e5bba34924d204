package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

const (
	// CollectionPrefix names the per-document collections created by the backend.
	CollectionPrefix = "docchat-"

	// vectorName is the named vector holding chunk embeddings.
	vectorName = "content"

	upsertBatchSize = 100
)

// QdrantBackend wraps the Qdrant client with connection management and health checks.
// Every document gets its own collection, dropped when its store is closed.
type QdrantBackend struct {
	client *qdrant.Client
	host   string
	port   int
}

// NewQdrantBackend creates a Qdrant client with health validation.
// It retries the health check on startup and fails fast if Qdrant stays unreachable.
func NewQdrantBackend(ctx context.Context, host string, port int) (*QdrantBackend, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	b := &QdrantBackend{
		client: client,
		host:   host,
		port:   port,
	}

	if err := retry(ctx, func() error { return b.Health(ctx) }); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrQdrantUnreachable, err)
	}

	return b, nil
}

// Health performs a single health check against Qdrant.
func (b *QdrantBackend) Health(ctx context.Context) error {
	result, err := b.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}

	return nil
}

// Name identifies the backend.
func (b *QdrantBackend) Name() string { return "qdrant" }

// NewStore creates a new collection sized for the given dimension.
func (b *QdrantBackend) NewStore(ctx context.Context, dimension int) (VectorStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension %d", ErrDimensionMismatch, dimension)
	}

	name := CollectionPrefix + uuid.New().String()
	err := b.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			vectorName: {
				Size:     uint64(dimension),
				Distance: qdrant.Distance_Cosine,
			},
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	return &QdrantStore{
		client:     b.client,
		collection: name,
		dimension:  dimension,
		location:   fmt.Sprintf("qdrant://%s:%d/%s", b.host, b.port, name),
	}, nil
}

// Close closes the Qdrant client connection.
func (b *QdrantBackend) Close() error {
	if b.client != nil {
		return b.client.Close()
	}
	return nil
}

// QdrantStore is one document's collection.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	dimension  int
	location   string
}

// Collection returns the collection name.
func (s *QdrantStore) Collection() string { return s.collection }

// Location identifies the collection for status output.
func (s *QdrantStore) Location() string { return s.location }

// UpsertChunks stores chunks with embeddings, batched in groups of 100.
func (s *QdrantStore) UpsertChunks(ctx context.Context, chunks []*Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for i, chunk := range chunks {
		if len(chunk.Embedding) != s.dimension {
			return fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(chunk.Embedding), s.dimension)
		}
	}

	for i := 0; i < len(chunks); i += upsertBatchSize {
		end := min(i+upsertBatchSize, len(chunks))

		batch := chunks[i:end]
		points := make([]*qdrant.PointStruct, len(batch))
		for j, chunk := range batch {
			points[j] = &qdrant.PointStruct{
				Id: qdrant.NewIDUUID(chunk.ID),
				Vectors: qdrant.NewVectorsMap(map[string]*qdrant.Vector{
					vectorName: qdrant.NewVector(chunk.Embedding...),
				}),
				Payload: qdrant.NewValueMap(map[string]any{
					"chunk_index": chunk.Index,
					"content":     chunk.Text,
					"page":        chunk.SourcePage,
					"section":     chunk.Section,
					"start":       chunk.Start,
					"end":         chunk.End,
				}),
			}
		}

		err := retry(ctx, func() error {
			_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
				CollectionName: s.collection,
				Points:         points,
				Wait:           qdrant.PtrOf(true),
			})
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to upsert batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// SearchChunksWithScores performs vector similarity search on the collection.
func (s *QdrantStore) SearchChunksWithScores(ctx context.Context, embedding []float32, limit int) ([]*ScoredChunk, error) {
	if len(embedding) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(embedding), s.dimension)
	}
	if limit <= 0 {
		return nil, nil
	}

	using := vectorName
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(embedding...),
		Using:          &using,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}

	scored := make([]*ScoredChunk, 0, len(results))
	for _, result := range results {
		payload := result.Payload
		scored = append(scored, &ScoredChunk{
			Chunk: &Chunk{
				ID:         result.Id.GetUuid(),
				Index:      int(payload["chunk_index"].GetIntegerValue()),
				Text:       payload["content"].GetStringValue(),
				SourcePage: int(payload["page"].GetIntegerValue()),
				Section:    payload["section"].GetStringValue(),
				Start:      int(payload["start"].GetIntegerValue()),
				End:        int(payload["end"].GetIntegerValue()),
			},
			Score: float64(result.Score),
		})
	}

	return scored, nil
}

// Close drops the collection.
func (s *QdrantStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", s.collection, err)
	}
	return nil
}

// retry runs op with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(op, backoff.WithContext(b, ctx))
}
