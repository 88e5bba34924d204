package index

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/docchat/internal/embedding"
	"github.com/bull/docchat/internal/storage"
)

func makeChunks(texts ...string) []*storage.Chunk {
	chunks := make([]*storage.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &storage.Chunk{ID: fmt.Sprintf("c%d", i), Index: i, Text: text, End: len(text)}
	}
	return chunks
}

type failingEmbedder struct{ embedding.Embedder }

func (failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("embedding service down")
}

type shortEmbedder struct{ *embedding.HashEmbedder }

func (e shortEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, e.Dimension()-1)
	}
	return out, nil
}

func TestBuild_DimensionInvariant(t *testing.T) {
	e := embedding.NewHashEmbedder(64)
	chunks := makeChunks("solar energy basics", "wind turbines", "battery storage")

	ix, err := Build(context.Background(), chunks, 2, e, storage.NewMemoryBackend())
	require.NoError(t, err)
	defer ix.Close()

	assert.Equal(t, 3, ix.ChunkCount())
	assert.Equal(t, 2, ix.PageCount())
	assert.Equal(t, 64, ix.Dimension())
	assert.Equal(t, "hash-64", ix.Model())
	assert.Equal(t, "in-memory", ix.Location())

	for _, chunk := range ix.Chunks() {
		vec, ok := ix.Vector(chunk.ID)
		require.True(t, ok)
		assert.Len(t, vec, ix.Dimension())
	}
}

func TestQuery_RanksAndBreaksTies(t *testing.T) {
	e := embedding.NewHashEmbedder(128)
	chunks := makeChunks("apples and oranges", "solar panels on roofs", "solar panels on roofs", "bread recipes")

	ix, err := Build(context.Background(), chunks, 1, e, storage.NewMemoryBackend())
	require.NoError(t, err)

	q, err := embedding.EmbedOne(context.Background(), e, "solar panels")
	require.NoError(t, err)

	results, err := ix.Query(context.Background(), q, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 1, results[0].Chunk.Index)
	assert.Equal(t, 2, results[1].Chunk.Index)
	assert.Equal(t, results[0].Score, results[1].Score)
	assert.GreaterOrEqual(t, results[1].Score, results[2].Score)
}

func TestQuery_KLargerThanIndex(t *testing.T) {
	e := embedding.NewHashEmbedder(32)
	ix, err := Build(context.Background(), makeChunks("one", "two"), 1, e, storage.NewMemoryBackend())
	require.NoError(t, err)

	q, _ := embedding.EmbedOne(context.Background(), e, "one")
	results, err := ix.Query(context.Background(), q, 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestQuery_NotReady(t *testing.T) {
	var ix *Index
	_, err := ix.Query(context.Background(), []float32{1}, 1)
	assert.ErrorIs(t, err, ErrNotReady)

	e := embedding.NewHashEmbedder(8)
	built, err := Build(context.Background(), makeChunks("text"), 1, e, storage.NewMemoryBackend())
	require.NoError(t, err)
	require.NoError(t, built.Close())

	_, err = built.Query(context.Background(), make([]float32, 8), 1)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestQuery_DimensionMismatch(t *testing.T) {
	e := embedding.NewHashEmbedder(8)
	ix, err := Build(context.Background(), makeChunks("text"), 1, e, storage.NewMemoryBackend())
	require.NoError(t, err)

	_, err = ix.Query(context.Background(), make([]float32, 4), 1)
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
}

func TestBuild_Failures(t *testing.T) {
	chunks := makeChunks("text")

	_, err := Build(context.Background(), chunks, 1, failingEmbedder{embedding.NewHashEmbedder(8)}, storage.NewMemoryBackend())
	assert.ErrorContains(t, err, "embedding service down")

	_, err = Build(context.Background(), chunks, 1, shortEmbedder{embedding.NewHashEmbedder(8)}, storage.NewMemoryBackend())
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
}
