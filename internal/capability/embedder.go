package capability

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/Ayutada/bluesky-analyzer/internal/domain"
)

// Embedder adapts an eino embedder to domain.Embedder.
type Embedder struct {
	inner     embedding.Embedder
	guard     *Guard
	batchSize int
}

// NewEmbedder wraps inner. batchSize ≤ 0 sends all texts in one call.
func NewEmbedder(inner embedding.Embedder, guard *Guard, batchSize int) *Embedder {
	if guard == nil {
		guard = NewGuard(GuardConfig{})
	}
	return &Embedder{inner: inner, guard: guard, batchSize: batchSize}
}

// EmbedQuery embeds a single text.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	vecs, err := e.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedDocuments embeds texts in batches, preserving order.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	size := e.batchSize
	if size <= 0 {
		size = len(texts)
	}
	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		vecs, err := e.embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	if err := sameDimension(out); err != nil {
		return nil, &domain.EmbeddingFailure{Err: err}
	}
	return out, nil
}

func (e *Embedder) embed(ctx context.Context, texts []string) ([][]float64, error) {
	vecs, err := Run(ctx, e.guard, func(ctx context.Context) ([][]float64, error) {
		return e.inner.EmbedStrings(ctx, texts)
	})
	if err != nil {
		return nil, &domain.EmbeddingFailure{Err: err}
	}
	if len(vecs) != len(texts) {
		return nil, &domain.EmbeddingFailure{Err: fmt.Errorf("expected %d vectors, got %d", len(texts), len(vecs))}
	}
	for i, v := range vecs {
		if len(v) == 0 {
			return nil, &domain.EmbeddingFailure{Err: fmt.Errorf("empty vector at position %d", i)}
		}
	}
	return vecs, nil
}

func sameDimension(vecs [][]float64) error {
	for i, v := range vecs {
		if len(v) != len(vecs[0]) {
			return fmt.Errorf("%w: vector %d has %d values, want %d", domain.ErrDimensionMismatch, i, len(v), len(vecs[0]))
		}
	}
	return nil
}

var _ domain.Embedder = (*Embedder)(nil)
