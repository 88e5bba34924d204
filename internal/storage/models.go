package storage

// Chunk is one retrievable passage of the active document.
type Chunk struct {
	ID         string    // UUID
	Index      int       // Position in document (0, 1, 2...)
	Text       string    // Exact passage text
	SourcePage int       // 0-based page the passage was cut from
	Section    string    // Heading path of the page, empty for unstructured formats
	Start      int       // Byte offset of Text within the page
	End        int       // Byte offset one past the end of Text
	Embedding  []float32 // Set at upsert time; not returned by searches
}

// ScoredChunk pairs a chunk with its similarity to a query.
type ScoredChunk struct {
	Chunk *Chunk
	Score float64 // Cosine similarity, higher is closer
}
