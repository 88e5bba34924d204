package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/go-github/v81/github"
)

// Scheme prefixes document references served from GitHub.
const Scheme = "github://"

// ErrInvalidRef is returned for a malformed github:// reference.
var ErrInvalidRef = errors.New("invalid github reference")

// GitHubRef names one file in a repository: github://owner/repo/path[@ref].
type GitHubRef struct {
	Owner string
	Repo  string
	Path  string
	Ref   string // Branch, tag or commit; empty means the default branch
}

// String renders the reference in its github:// form.
func (r GitHubRef) String() string {
	s := fmt.Sprintf("%s%s/%s/%s", Scheme, r.Owner, r.Repo, r.Path)
	if r.Ref != "" {
		s += "@" + r.Ref
	}
	return s
}

// ParseGitHubRef parses a github://owner/repo/path[@ref] reference.
func ParseGitHubRef(s string) (GitHubRef, error) {
	rest, ok := strings.CutPrefix(s, Scheme)
	if !ok {
		return GitHubRef{}, fmt.Errorf("%w: %q lacks %s prefix", ErrInvalidRef, s, Scheme)
	}

	var ref string
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest, ref = rest[:at], rest[at+1:]
		if ref == "" {
			return GitHubRef{}, fmt.Errorf("%w: %q has an empty ref", ErrInvalidRef, s)
		}
	}

	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || strings.Trim(parts[2], "/") == "" {
		return GitHubRef{}, fmt.Errorf("%w: %q must be %sowner/repo/path", ErrInvalidRef, s, Scheme)
	}

	return GitHubRef{
		Owner: parts[0],
		Repo:  parts[1],
		Path:  strings.Trim(parts[2], "/"),
		Ref:   ref,
	}, nil
}

// Fetch downloads the file named by ref.
func (c *Client) Fetch(ctx context.Context, ref GitHubRef) ([]byte, error) {
	opts := &github.RepositoryContentGetOptions{Ref: ref.Ref}

	fileContent, _, _, err := c.Repositories.GetContents(ctx, ref.Owner, ref.Repo, ref.Path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get content of %s: %w", ref, err)
	}
	if fileContent == nil {
		return nil, fmt.Errorf("%s is a directory, not a file", ref)
	}

	// Files over 1 MB come back without inline content.
	if fileContent.GetEncoding() == "none" {
		rc, _, err := c.Repositories.DownloadContents(ctx, ref.Owner, ref.Repo, ref.Path, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", ref, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to decode content of %s: %w", ref, err)
	}
	return []byte(content), nil
}
