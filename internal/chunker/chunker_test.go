package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/docchat/internal/extract"
)

func repeatTo(s string, n int) string {
	return strings.Repeat(s, n/len(s)+1)[:n]
}

func TestSplit_ThreeLongPages(t *testing.T) {
	sentence := "The quick brown fox jumps over the lazy dog. "
	pages := []extract.Page{
		{Index: 0, Text: repeatTo(sentence, 2400)},
		{Index: 1, Text: repeatTo(sentence, 2400)},
		{Index: 2, Text: repeatTo(sentence, 2400)},
	}

	segments := New().Split(pages)

	perPage := map[int]int{}
	for i, seg := range segments {
		perPage[seg.Page]++
		assert.LessOrEqual(t, utf8.RuneCountInString(seg.Text), DefaultChunkSize, "segment %d too long", i)
		assert.Equal(t, pages[seg.Page].Text[seg.Start:seg.End], seg.Text, "segment %d span mismatch", i)
		assert.NotEmpty(t, strings.TrimSpace(seg.Text))
	}

	for page := 0; page < 3; page++ {
		assert.GreaterOrEqual(t, perPage[page], 3, "page %d", page)
	}

	// Pages appear in order and adjacent segments of one page overlap.
	for i := 1; i < len(segments); i++ {
		prev, cur := segments[i-1], segments[i]
		require.GreaterOrEqual(t, cur.Page, prev.Page)
		if cur.Page == prev.Page {
			assert.Less(t, cur.Start, prev.End, "segments %d and %d should overlap", i-1, i)
			assert.Greater(t, cur.Start, prev.Start)
		}
	}
}

func TestSplit_ShortPageSingleSegment(t *testing.T) {
	pages := []extract.Page{{Index: 4, Text: "  A short page of text.\n"}}

	segments := New().Split(pages)

	require.Len(t, segments, 1)
	assert.Equal(t, "A short page of text.", segments[0].Text)
	assert.Equal(t, 4, segments[0].Page)
	assert.Equal(t, 2, segments[0].Start)
}

func TestSplit_CarriesPageTitle(t *testing.T) {
	pages := []extract.Page{
		{Index: 0, Text: "Untitled preamble."},
		{Index: 1, Title: "Guide > Install", Text: repeatTo("Run the installer now. ", 250)},
	}

	segments := New(WithChunkSize(100), WithOverlap(20)).Split(pages)

	require.Greater(t, len(segments), 2)
	assert.Empty(t, segments[0].Section)
	for _, seg := range segments[1:] {
		assert.Equal(t, "Guide > Install", seg.Section)
	}
}

func TestSplit_BlankPages(t *testing.T) {
	pages := []extract.Page{{Index: 0, Text: ""}, {Index: 1, Text: " \n\t\n "}}

	assert.Empty(t, New().Split(pages))
}

func TestSplit_PrefersParagraphBoundaries(t *testing.T) {
	first := repeatTo("a", 599) + "."
	second := repeatTo("b", 599) + "."
	text := first + "\n\n" + second

	spans := New().SplitText(text)

	require.Len(t, spans, 2)
	assert.Equal(t, first, text[spans[0].Start:spans[0].End])
	assert.Equal(t, second, text[spans[1].Start:spans[1].End])
}

func TestSplit_HardCutWithoutSeparators(t *testing.T) {
	text := strings.Repeat("x", 2500)

	spans := New().SplitText(text)

	require.Len(t, spans, 3)
	assert.Equal(t, 1000, spans[0].End-spans[0].Start)
	assert.Equal(t, 1000, spans[1].End-spans[1].Start)
	assert.Equal(t, 500, spans[2].End-spans[2].Start)
}

func TestSplit_MultibyteRunes(t *testing.T) {
	text := strings.Repeat("é", 1500)

	spans := New(WithChunkSize(400), WithOverlap(50)).SplitText(text)

	require.NotEmpty(t, spans)
	for _, sp := range spans {
		piece := text[sp.Start:sp.End]
		assert.True(t, utf8.ValidString(piece))
		assert.LessOrEqual(t, utf8.RuneCountInString(piece), 400)
	}
}

func TestNew_Options(t *testing.T) {
	s := New(WithChunkSize(100), WithOverlap(100))
	assert.Equal(t, 100, s.ChunkSize())
	assert.Equal(t, 25, s.Overlap())

	s = New(WithChunkSize(0), WithOverlap(-1))
	assert.Equal(t, DefaultChunkSize, s.ChunkSize())
	assert.Equal(t, DefaultChunkOverlap, s.Overlap())
}

func TestSplit_CustomSeparators(t *testing.T) {
	text := "one|two|three"

	spans := New(WithChunkSize(5), WithOverlap(0), WithSeparators("|")).SplitText(text)

	var got []string
	for _, sp := range spans {
		got = append(got, text[sp.Start:sp.End])
	}
	assert.Equal(t, []string{"one|", "two|", "three"}, got)
}
