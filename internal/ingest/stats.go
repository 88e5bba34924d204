package ingest

import (
	"unicode/utf8"

	"github.com/bull/docchat/internal/storage"
)

// Stats describes the size distribution of a document's chunks in characters.
type Stats struct {
	TotalChars int
	AvgChars   float64
	MinChars   int
	MaxChars   int
	PerPage    map[int]int // Chunk count keyed by 0-based page
}

// ComputeStats summarises chunks. An empty slice yields zero values.
func ComputeStats(chunks []*storage.Chunk) Stats {
	stats := Stats{PerPage: make(map[int]int)}
	if len(chunks) == 0 {
		return stats
	}

	stats.MinChars = -1
	for _, c := range chunks {
		n := utf8.RuneCountInString(c.Text)
		stats.TotalChars += n
		if stats.MinChars < 0 || n < stats.MinChars {
			stats.MinChars = n
		}
		stats.MaxChars = max(stats.MaxChars, n)
		stats.PerPage[c.SourcePage]++
	}
	stats.AvgChars = float64(stats.TotalChars) / float64(len(chunks))
	return stats
}
