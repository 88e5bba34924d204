package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBodyPart = "word/document.xml"

// DocxExtractor reads Office Open XML word processing documents.
// Explicit page breaks split the output into pages.
type DocxExtractor struct{}

// NewDocxExtractor creates a DOCX extractor.
func NewDocxExtractor() *DocxExtractor {
	return &DocxExtractor{}
}

// Extract opens the archive and walks word/document.xml.
func (e *DocxExtractor) Extract(ctx context.Context, path string) ([]Page, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	for _, file := range zr.File {
		if file.Name != docxBodyPart {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", docxBodyPart, err)
		}
		defer rc.Close()

		texts, err := parseDocumentXML(ctx, rc)
		if err != nil {
			return nil, err
		}

		pages := make([]Page, len(texts))
		for i, text := range texts {
			pages[i] = Page{Index: i, Text: text}
		}
		return pages, nil
	}

	return nil, fmt.Errorf("open docx: %s not found", docxBodyPart)
}

// parseDocumentXML streams the document body. Paragraphs are separated by a
// blank line so the chunker sees paragraph boundaries.
func parseDocumentXML(ctx context.Context, r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		pages     []string
		page      strings.Builder
		paragraph strings.Builder
		inText    bool
	)

	flushParagraph := func() {
		p := strings.TrimSpace(paragraph.String())
		paragraph.Reset()
		if p == "" {
			return
		}
		if page.Len() > 0 {
			page.WriteString("\n\n")
		}
		page.WriteString(p)
	}
	flushPage := func() {
		flushParagraph()
		pages = append(pages, page.String())
		page.Reset()
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", docxBodyPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				paragraph.WriteByte('\t')
			case "br", "cr":
				if attr(t, "type") == "page" {
					flushPage()
				} else {
					paragraph.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flushParagraph()
			}
		case xml.CharData:
			if inText {
				paragraph.Write(t)
			}
		}
	}

	flushPage()
	return pages, nil
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
