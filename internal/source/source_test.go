package source

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-github/v81/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGitHubRef(t *testing.T) {
	tests := []struct {
		in   string
		want GitHubRef
	}{
		{"github://acme/docs/guide.pdf", GitHubRef{Owner: "acme", Repo: "docs", Path: "guide.pdf"}},
		{"github://acme/docs/manuals/setup.md@v1.2.0", GitHubRef{Owner: "acme", Repo: "docs", Path: "manuals/setup.md", Ref: "v1.2.0"}},
		{"github://acme/docs/a/b/c.txt@main", GitHubRef{Owner: "acme", Repo: "docs", Path: "a/b/c.txt", Ref: "main"}},
	}
	for _, tt := range tests {
		got, err := ParseGitHubRef(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.in, got.String())
	}
}

func TestParseGitHubRef_Invalid(t *testing.T) {
	for _, in := range []string{
		"acme/docs/guide.pdf",
		"github://acme/docs",
		"github://acme//guide.pdf",
		"github://acme/docs/",
		"github://acme/docs/guide.pdf@",
	} {
		_, err := ParseGitHubRef(in)
		assert.ErrorIs(t, err, ErrInvalidRef, in)
	}
}

func TestResolve_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	got, cleanup, err := NewResolver(nil, nil).Resolve(context.Background(), path)
	require.NoError(t, err)
	cleanup()

	assert.Equal(t, path, got)
	assert.FileExists(t, path, "cleanup must not remove local documents")
}

func TestResolve_LocalMissing(t *testing.T) {
	_, cleanup, err := NewResolver(nil, nil).Resolve(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	cleanup()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolve_LocalDirectory(t *testing.T) {
	_, _, err := NewResolver(nil, nil).Resolve(context.Background(), t.TempDir())
	assert.ErrorContains(t, err, "directory")
}

func TestResolve_GitHubDisabled(t *testing.T) {
	_, _, err := NewResolver(nil, nil).Resolve(context.Background(), "github://acme/docs/guide.md")
	assert.ErrorContains(t, err, "disabled")
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gh := github.NewClient(nil)
	base, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	gh.BaseURL = base
	return &Client{Client: gh}
}

func TestResolve_GitHubDownloadsToTempFile(t *testing.T) {
	const body = "# Setup\n\nRun the installer.\n"
	var gotRef string

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/docs/contents/manuals/setup.md" {
			http.NotFound(w, r)
			return
		}
		gotRef = r.URL.Query().Get("ref")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"type":     "file",
			"name":     "setup.md",
			"path":     "manuals/setup.md",
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte(body)),
		})
	}))

	path, cleanup, err := NewResolver(client, nil).Resolve(context.Background(), "github://acme/docs/manuals/setup.md@v2")
	require.NoError(t, err)

	assert.Equal(t, "v2", gotRef)
	assert.Equal(t, "setup.md", filepath.Base(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, body, string(data))

	cleanup()
	assert.NoFileExists(t, path)
}

func TestResolve_GitHubNotFound(t *testing.T) {
	client := newTestClient(t, http.NotFoundHandler())

	_, cleanup, err := NewResolver(client, nil).Resolve(context.Background(), "github://acme/docs/missing.md")
	cleanup()
	assert.ErrorContains(t, err, "failed to get content")
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("github://acme/docs/a.md"))
	assert.False(t, IsRemote("/tmp/a.md"))
	assert.False(t, IsRemote("a.md"))
}
