// Package chunker splits page text into overlapping, size-bounded segments.
package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bull/docchat/internal/extract"
)

const (
	// DefaultChunkSize is the maximum segment length in characters.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is how many characters adjacent segments may share.
	DefaultChunkOverlap = 200
)

// DefaultSeparators are tried in order: paragraph, sentence end, line, word.
// When none applies the text is cut at the size limit.
var DefaultSeparators = []string{"\n\n", ". ", "? ", "! ", "\n", " "}

// Segment is a piece of one page. Text equals the page text between the
// byte offsets Start and End. Section is the page title, if any.
type Segment struct {
	Text    string
	Page    int
	Section string
	Start   int
	End     int
}

// Splitter performs recursive separator splitting with overlap.
type Splitter struct {
	size       int
	overlap    int
	separators []string
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithChunkSize sets the maximum segment size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.size = size
		}
	}
}

// WithOverlap sets the overlap between adjacent segments in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// WithSeparators replaces the separator cascade.
func WithSeparators(seps ...string) Option {
	return func(s *Splitter) {
		s.separators = seps
	}
}

// New creates a Splitter. An overlap that is not smaller than the chunk size
// is reduced to a quarter of the chunk size.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		size:       DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: DefaultSeparators,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.overlap >= s.size {
		s.overlap = s.size / 4
	}
	return s
}

// ChunkSize returns the configured maximum segment size.
func (s *Splitter) ChunkSize() int { return s.size }

// Overlap returns the configured overlap.
func (s *Splitter) Overlap() int { return s.overlap }

// Split segments every page in order. Blank pages contribute nothing.
func (s *Splitter) Split(pages []extract.Page) []Segment {
	var out []Segment
	for _, page := range pages {
		for _, sp := range s.SplitText(page.Text) {
			out = append(out, Segment{
				Text:    page.Text[sp.Start:sp.End],
				Page:    page.Index,
				Section: page.Title,
				Start:   sp.Start,
				End:     sp.End,
			})
		}
	}
	return out
}

// Span is a half-open byte range [Start, End) within a page's text.
type Span struct {
	Start, End int
}

// SplitText returns the trimmed, non-empty segment spans of text.
func (s *Splitter) SplitText(text string) []Span {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	pieces := s.split(text, Span{0, len(text)}, s.separators)
	merged := s.merge(text, pieces)

	out := make([]Span, 0, len(merged))
	for _, sp := range merged {
		if sp = trimSpan(text, sp); sp.Start < sp.End {
			out = append(out, sp)
		}
	}
	return out
}

// split breaks a span into contiguous pieces no longer than the chunk size.
func (s *Splitter) split(text string, sp Span, seps []string) []Span {
	if runeLen(text, sp) <= s.size {
		return []Span{sp}
	}

	for i, sep := range seps {
		if sep == "" || !strings.Contains(text[sp.Start:sp.End], sep) {
			continue
		}

		var out []Span
		for _, piece := range splitKeep(text, sp, sep) {
			if runeLen(text, piece) <= s.size {
				out = append(out, piece)
				continue
			}
			out = append(out, s.split(text, piece, seps[i+1:])...)
		}
		return out
	}

	return s.hardCut(text, sp)
}

// splitKeep splits at every occurrence of sep, leaving the separator at the
// end of the preceding piece.
func splitKeep(text string, sp Span, sep string) []Span {
	var out []Span
	start := sp.Start
	for start < sp.End {
		idx := strings.Index(text[start:sp.End], sep)
		if idx < 0 {
			out = append(out, Span{start, sp.End})
			break
		}
		end := start + idx + len(sep)
		out = append(out, Span{start, end})
		start = end
	}
	return out
}

// hardCut slices a span into runs of at most size runes.
func (s *Splitter) hardCut(text string, sp Span) []Span {
	var out []Span
	start := sp.Start
	for start < sp.End {
		end := start
		for n := 0; n < s.size && end < sp.End; n++ {
			_, w := utf8.DecodeRuneInString(text[end:sp.End])
			end += w
		}
		out = append(out, Span{start, end})
		start = end
	}
	return out
}

// merge packs consecutive pieces into segments of at most size runes,
// carrying up to overlap runes of trailing pieces into the next segment.
func (s *Splitter) merge(text string, pieces []Span) []Span {
	var (
		out     []Span
		current []Span
		total   int
	)

	for _, piece := range pieces {
		n := runeLen(text, piece)
		if total+n > s.size && len(current) > 0 {
			out = append(out, Span{current[0].Start, current[len(current)-1].End})
			for len(current) > 0 && (total > s.overlap || total+n > s.size) {
				total -= runeLen(text, current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
	}

	if len(current) > 0 {
		out = append(out, Span{current[0].Start, current[len(current)-1].End})
	}
	return out
}

func trimSpan(text string, sp Span) Span {
	for sp.Start < sp.End {
		r, w := utf8.DecodeRuneInString(text[sp.Start:sp.End])
		if !unicode.IsSpace(r) {
			break
		}
		sp.Start += w
	}
	for sp.End > sp.Start {
		r, w := utf8.DecodeLastRuneInString(text[sp.Start:sp.End])
		if !unicode.IsSpace(r) {
			break
		}
		sp.End -= w
	}
	return sp
}

func runeLen(text string, sp Span) int {
	return utf8.RuneCountInString(text[sp.Start:sp.End])
}
