package extract

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// PlainTextExtractor reads UTF-8 text files. A form feed starts a new page.
type PlainTextExtractor struct{}

// NewPlainTextExtractor creates a plain text extractor.
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

// Extract reads the file and splits it into pages on form feeds.
func (e *PlainTextExtractor) Extract(ctx context.Context, path string) ([]Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text file: %w", err)
	}
	if !utf8.Valid(data) {
		data = []byte(strings.ToValidUTF8(string(data), "�"))
	}

	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	parts := strings.Split(content, "\f")

	pages := make([]Page, len(parts))
	for i, part := range parts {
		pages[i] = Page{Index: i, Text: part}
	}
	return pages, nil
}
