// Package hashing implements a deterministic, vocabulary-free embedder based on
// the hashing trick. Vectors depend only on the text and the dimension, so a
// persisted index stays queryable across processes without extra state.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/Ayutada/bluesky-analyzer/internal/tokenize"
)

// DefaultDimension is used when the configured dimension is zero.
const DefaultDimension = 512

// Embedder maps token counts into a fixed number of signed hash buckets.
type Embedder struct {
	dimension int
	tokenizer *tokenize.Tokenizer
}

// NewEmbedder creates a hashing embedder of the given dimension.
func NewEmbedder(dimension int) (*Embedder, error) {
	if dimension == 0 {
		dimension = DefaultDimension
	}
	if dimension < 0 {
		return nil, fmt.Errorf("hashing embedder: invalid dimension %d", dimension)
	}
	return &Embedder{dimension: dimension, tokenizer: tokenize.New()}, nil
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "hashing" }

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// EmbedStrings embeds each text independently.
func (e *Embedder) EmbedStrings(ctx context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.Embed(text)
	}
	return out, nil
}

// Embed computes the L2-normalized hashed term-frequency vector for text.
// Text without any terms maps to the zero vector.
func (e *Embedder) Embed(text string) []float64 {
	vec := make([]float64, e.dimension)
	tokens := e.tokenizer.Tokens(text)
	if len(tokens) == 0 {
		return vec
	}
	for _, tok := range tokens {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum64()
		idx := int(sum % uint64(e.dimension))
		// top bit picks the sign so colliding terms tend to cancel
		if sum>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}
	// L2 normalize
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

var _ embedding.Embedder = (*Embedder)(nil)
