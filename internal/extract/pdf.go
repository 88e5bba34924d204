package extract

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor reads the plain text layer of PDF files, one page at a time.
type PDFExtractor struct{}

// NewPDFExtractor creates a PDF extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract returns one Page per PDF page. Pages without a text layer are kept
// with empty text so page numbering matches the source file.
func (e *PDFExtractor) Extract(ctx context.Context, path string) (pages []Page, err error) {
	// The pdf reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("parse pdf %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := r.NumPage()
	pages = make([]Page, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, Page{Index: i - 1})
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("read pdf page %d: %w", i, err)
		}
		pages = append(pages, Page{Index: i - 1, Text: text})
	}

	return pages, nil
}
