// Package source resolves document references to local files.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when a local document does not exist.
var ErrNotFound = errors.New("document not found")

// Resolver turns a document reference into a readable local path. References
// are local file paths or github://owner/repo/path[@ref].
type Resolver struct {
	github *Client
	logger *slog.Logger
}

// NewResolver creates a resolver. A nil client disables github:// references.
func NewResolver(gh *Client, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{github: gh, logger: logger}
}

// IsRemote reports whether ref names a document that must be downloaded.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, Scheme)
}

// Resolve returns a local path for ref and a cleanup function the caller must
// run once the file is no longer needed. Downloads go to a temporary directory
// that cleanup removes.
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, func(), error) {
	noop := func() {}

	if !IsRemote(ref) {
		info, err := os.Stat(ref)
		if errors.Is(err, os.ErrNotExist) {
			return "", noop, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		if err != nil {
			return "", noop, err
		}
		if info.IsDir() {
			return "", noop, fmt.Errorf("%s is a directory, not a document", ref)
		}
		return ref, noop, nil
	}

	gh, err := ParseGitHubRef(ref)
	if err != nil {
		return "", noop, err
	}
	if r.github == nil {
		return "", noop, fmt.Errorf("github references are disabled: %s", ref)
	}

	content, err := r.github.Fetch(ctx, gh)
	if err != nil {
		return "", noop, err
	}

	// Keep the original file name so the extension selects the extractor.
	dir, err := os.MkdirTemp("", "docchat-")
	if err != nil {
		return "", noop, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			r.logger.Warn("Failed to remove temp dir", "dir", dir, "error", err)
		}
	}

	local := filepath.Join(dir, path.Base(gh.Path))
	if err := os.WriteFile(local, content, 0o600); err != nil {
		cleanup()
		return "", noop, fmt.Errorf("write temp file: %w", err)
	}

	r.logger.Debug("Downloaded document", "ref", gh.String(), "path", local, "size", len(content))
	return local, cleanup, nil
}
