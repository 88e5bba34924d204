// Package extract turns document files into ordered page text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnsupportedFormat is returned when no extractor handles a file extension.
var ErrUnsupportedFormat = errors.New("unsupported file type")

// Page is the text of one page (or page-like section) of a document.
type Page struct {
	Index int    // 0-based position in the document
	Title string // Optional section heading, set by structured formats
	Text  string
}

// Extractor reads a file and returns its pages in document order.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]Page, error)
}

// Registry maps lower-case file extensions (with leading dot) to extractors.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Extractor)}
}

// DefaultRegistry returns a registry with every built-in extractor registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewPDFExtractor(), ".pdf")
	r.Register(NewPlainTextExtractor(), ".txt")
	// .doc is routed to the OOXML reader; legacy binary files fail there with a parse error.
	r.Register(NewDocxExtractor(), ".docx", ".doc")
	r.Register(NewMarkdownExtractor(), ".md", ".markdown")
	return r
}

// Register associates an extractor with one or more extensions.
func (r *Registry) Register(e Extractor, exts ...string) {
	for _, ext := range exts {
		r.byExt[normalizeExt(ext)] = e
	}
}

// ForPath selects the extractor for a file path by its extension.
func (r *Registry) ForPath(path string) (Extractor, error) {
	ext := normalizeExt(filepath.Ext(path))
	e, ok := r.byExt[ext]
	if !ok {
		if ext == "" {
			ext = "(none)"
		}
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	return e, nil
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract selects an extractor for path and runs it.
func (r *Registry) Extract(ctx context.Context, path string) ([]Page, error) {
	e, err := r.ForPath(path)
	if err != nil {
		return nil, err
	}
	return e.Extract(ctx, path)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
