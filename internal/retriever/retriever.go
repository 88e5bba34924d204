// Package retriever selects the chunks used to answer a question.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/bull/docchat/internal/embedding"
	"github.com/bull/docchat/internal/index"
	"github.com/bull/docchat/internal/storage"
)

// Mode selects the ranking strategy.
type Mode string

const (
	// ModeSimilarity returns the plain top-k by similarity.
	ModeSimilarity Mode = "similarity"

	// ModeMMR re-ranks candidates by maximal marginal relevance.
	ModeMMR Mode = "mmr"
)

const (
	DefaultTopK   = 5
	DefaultFetchK = 20
	DefaultLambda = 0.5
)

var (
	ErrUnknownMode      = errors.New("unknown retrieval mode")
	ErrEmbedderMismatch = errors.New("query embedder does not match index")
)

// Options configures retrieval. Zero values select the defaults.
type Options struct {
	TopK   int
	Mode   Mode
	FetchK int     // MMR candidate pool size
	Lambda float64 // MMR relevance weight in [0, 1]
}

// Result is one retrieved chunk.
type Result struct {
	Chunk *storage.Chunk
	Score float64
}

// Retriever answers queries against one index.
type Retriever struct {
	index    *index.Index
	embedder embedding.Embedder
	opts     Options
}

// New creates a retriever. The embedder must be the one the index was built with.
func New(ix *index.Index, embedder embedding.Embedder, opts Options) (*Retriever, error) {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.Mode == "" {
		opts.Mode = ModeMMR
	}
	if opts.FetchK <= 0 {
		opts.FetchK = DefaultFetchK
	}
	if opts.FetchK < opts.TopK {
		opts.FetchK = opts.TopK
	}
	if opts.Lambda < 0 || opts.Lambda > 1 {
		return nil, fmt.Errorf("mmr lambda %v outside [0, 1]", opts.Lambda)
	}
	if opts.Lambda == 0 && opts.Mode == ModeMMR {
		opts.Lambda = DefaultLambda
	}
	if opts.Mode != ModeSimilarity && opts.Mode != ModeMMR {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, opts.Mode)
	}

	if ix != nil && (ix.Dimension() != embedder.Dimension() || ix.Model() != embedder.Model()) {
		return nil, fmt.Errorf("%w: index %s/%d, embedder %s/%d", ErrEmbedderMismatch,
			ix.Model(), ix.Dimension(), embedder.Model(), embedder.Dimension())
	}

	return &Retriever{index: ix, embedder: embedder, opts: opts}, nil
}

// Options returns the effective options.
func (r *Retriever) Options() Options { return r.opts }

// Retrieve returns at most TopK chunks for query, unique by text, best first.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]Result, error) {
	if r.index == nil {
		return nil, index.ErrNotReady
	}

	qvec, err := embedding.EmbedOne(ctx, r.embedder, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// Over-fetch so duplicates removed below do not shrink the result.
	candidates, err := r.index.Query(ctx, qvec, r.opts.FetchK)
	if err != nil {
		return nil, err
	}
	candidates = dedupe(candidates)

	if r.opts.Mode == ModeMMR {
		return r.mmr(candidates), nil
	}

	out := make([]Result, 0, min(r.opts.TopK, len(candidates)))
	for _, c := range candidates {
		if len(out) == r.opts.TopK {
			break
		}
		out = append(out, Result{Chunk: c.Chunk, Score: c.Score})
	}
	return out, nil
}

// mmr greedily picks the candidate maximising
// lambda*relevance - (1-lambda)*max similarity to anything already picked.
// Candidates arrive sorted by relevance, so ties keep the more relevant one.
func (r *Retriever) mmr(candidates []storage.ScoredChunk) []Result {
	k := min(r.opts.TopK, len(candidates))
	lambda := r.opts.Lambda

	selected := make([]Result, 0, k)
	used := make([]bool, len(candidates))
	// maxSim[i] is candidate i's highest similarity to the selected set.
	maxSim := make([]float64, len(candidates))

	for len(selected) < k {
		best, bestScore := -1, math.Inf(-1)
		for i, c := range candidates {
			if used[i] {
				continue
			}
			score := lambda * c.Score
			if len(selected) > 0 {
				score -= (1 - lambda) * maxSim[i]
			}
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		if best < 0 {
			break
		}

		used[best] = true
		picked := candidates[best]
		selected = append(selected, Result{Chunk: picked.Chunk, Score: picked.Score})

		for i, c := range candidates {
			if used[i] {
				continue
			}
			sim := cosine(picked.Chunk.Embedding, c.Chunk.Embedding)
			if len(selected) == 1 || sim > maxSim[i] {
				maxSim[i] = sim
			}
		}
	}

	return selected
}

// dedupe drops chunks whose text repeats an earlier, better-ranked chunk.
func dedupe(in []storage.ScoredChunk) []storage.ScoredChunk {
	seen := make(map[string]struct{}, len(in))
	out := in[:0:0]
	for _, c := range in {
		if _, dup := seen[c.Chunk.Text]; dup {
			continue
		}
		seen[c.Chunk.Text] = struct{}{}
		out = append(out, c)
	}
	return out
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
