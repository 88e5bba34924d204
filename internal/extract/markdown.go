package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// MarkdownExtractor treats each H1/H2 section of a markdown file as a page.
// Page titles carry the heading hierarchy, e.g. "Guide > Installation".
type MarkdownExtractor struct {
	md goldmark.Markdown
}

// NewMarkdownExtractor creates a markdown extractor with auto heading IDs enabled.
func NewMarkdownExtractor() *MarkdownExtractor {
	return &MarkdownExtractor{
		md: goldmark.New(goldmark.WithParserOptions(parser.WithAutoHeadingID())),
	}
}

// Extract reads the file and splits it into sections.
func (e *MarkdownExtractor) Extract(ctx context.Context, path string) ([]Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read markdown file: %w", err)
	}
	return e.Sections(bytes.ReplaceAll(source, []byte("\r\n"), []byte("\n")))
}

// Sections splits markdown source at H1 and H2 boundaries. Text before the
// first heading becomes an untitled section. Blank sections are dropped.
func (e *MarkdownExtractor) Sections(source []byte) ([]Page, error) {
	doc := e.md.Parser().Parse(text.NewReader(source))

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(2),
		toc.Compact(true),
	)
	if err != nil {
		return nil, fmt.Errorf("inspect TOC: %w", err)
	}

	titles := make(map[string]string)
	collectTitles(tree.Items, nil, titles)

	type boundary struct {
		offset int
		title  string
	}
	bounds := []boundary{{offset: 0}}

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != ast.KindHeading {
			return ast.WalkContinue, nil
		}
		heading := n.(*ast.Heading)
		if heading.Level > 2 || heading.Lines().Len() == 0 {
			return ast.WalkSkipChildren, nil
		}

		seg := heading.Lines().At(0)
		title := string(seg.Value(source))
		if id, ok := heading.AttributeString("id"); ok {
			if path, found := titles[string(id.([]byte))]; found {
				title = path
			}
		}

		bounds = append(bounds, boundary{
			offset: lineStart(source, seg.Start),
			title:  strings.TrimSpace(title),
		})
		return ast.WalkSkipChildren, nil
	})

	var pages []Page
	for i, b := range bounds {
		end := len(source)
		if i+1 < len(bounds) {
			end = bounds[i+1].offset
		}
		if b.offset >= end {
			continue
		}

		section := strings.TrimSpace(string(source[b.offset:end]))
		if section == "" {
			continue
		}
		pages = append(pages, Page{Index: len(pages), Title: b.title, Text: section})
	}

	return pages, nil
}

// collectTitles records the heading hierarchy for every TOC item by ID.
func collectTitles(items toc.Items, ancestors []string, out map[string]string) {
	for _, item := range items {
		path := append(append([]string(nil), ancestors...), string(item.Title))
		if len(item.ID) > 0 {
			out[string(item.ID)] = strings.Join(path, " > ")
		}
		collectTitles(item.Items, path, out)
	}
}

// lineStart backs up from a heading's text segment to the start of its line,
// so the "#" markers belong to the heading's own section.
func lineStart(source []byte, pos int) int {
	if pos > len(source) {
		pos = len(source)
	}
	if i := bytes.LastIndexByte(source[:pos], '\n'); i >= 0 {
		return i + 1
	}
	return 0
}
