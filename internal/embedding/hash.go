package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// DefaultHashDimension is the vector length of the local hashing embedder.
const DefaultHashDimension = 384

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// HashEmbedder is a local, deterministic bag-of-words embedder using the
// hashing trick. It needs no network access or credentials.
type HashEmbedder struct {
	dimension int
	stopwords map[string]struct{}
}

// NewHashEmbedder creates a hashing embedder. A non-positive dimension selects
// DefaultHashDimension.
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = DefaultHashDimension
	}
	return &HashEmbedder{
		dimension: dimension,
		stopwords: defaultStopwords(),
	}
}

// Dimension returns the vector length.
func (e *HashEmbedder) Dimension() int { return e.dimension }

// Model returns a name that encodes the dimension.
func (e *HashEmbedder) Model() string { return fmt.Sprintf("hash-%d", e.dimension) }

// Embed returns one unit-length vector per text. Texts without any content
// words map to the zero vector.
func (e *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *HashEmbedder) embed(text string) []float32 {
	counts := make(map[string]int)
	for _, tok := range e.tokenize(text) {
		counts[tok]++
	}

	vec := make([]float32, e.dimension)
	for tok, n := range counts {
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()

		idx := int(sum % uint64(e.dimension))
		weight := float32(1 + math.Log(float64(n)))
		// The top bit picks the sign so colliding tokens tend to cancel.
		if sum>>63 == 1 {
			weight = -weight
		}
		vec[idx] += weight
	}
	return normalize(vec)
}

func (e *HashEmbedder) tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := e.stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at",
		"by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that",
		"these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so",
		"such", "into", "about", "between", "through", "during", "before", "after", "above", "below",
		"out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
		"what", "you", "me", "tell", "do", "does", "i",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
