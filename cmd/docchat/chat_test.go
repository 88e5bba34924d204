package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/docchat/internal/chunker"
	"github.com/bull/docchat/internal/embedding"
	"github.com/bull/docchat/internal/extract"
	"github.com/bull/docchat/internal/ingest"
	"github.com/bull/docchat/internal/retriever"
	"github.com/bull/docchat/internal/session"
	"github.com/bull/docchat/internal/storage"
)

type cannedModel struct{}

func (cannedModel) Generate(context.Context, string) (string, error) {
	return "Solar power comes from the sun.", nil
}

func (cannedModel) Name() string { return "canned" }

func newLoadedSession(t *testing.T) *session.Session {
	t.Helper()
	pipeline := ingest.NewPipeline(extract.DefaultRegistry(), chunker.New(), embedding.NewHashEmbedder(32), storage.NewMemoryBackend(), nil)
	sess := session.New(pipeline, cannedModel{}, session.Config{Retrieval: retriever.Options{Mode: retriever.ModeSimilarity}})
	t.Cleanup(func() { sess.Close() })

	path := filepath.Join(t.TempDir(), "energy.txt")
	require.NoError(t, os.WriteFile(path, []byte("Solar power is energy from the sun."), 0o644))
	_, err := sess.Ingest(context.Background(), path)
	require.NoError(t, err)
	return sess
}

func TestChatLoop(t *testing.T) {
	sess := newLoadedSession(t)
	in := strings.NewReader("What is solar power?\n\n/history\n/clear\n/history\n/quit\nignored\n")
	var out bytes.Buffer

	require.NoError(t, chatLoop(context.Background(), in, &out, sess, true))

	text := out.String()
	assert.Contains(t, text, "Solar power comes from the sun.")
	assert.Contains(t, text, "Source 1: Solar power is energy from the sun.")
	assert.Contains(t, text, "Human: What is solar power?")
	assert.Contains(t, text, "AI: Solar power comes from the sun.")
	assert.Contains(t, text, "Conversation cleared.")
	assert.Contains(t, text, "No conversation yet.")
	assert.Empty(t, sess.History())
}

func TestChatLoop_EOF(t *testing.T) {
	sess := newLoadedSession(t)
	var out bytes.Buffer

	require.NoError(t, chatLoop(context.Background(), strings.NewReader("hello"), &out, sess, false))
	assert.Len(t, sess.History(), 2)
	assert.NotContains(t, out.String(), "Sources:")
}
