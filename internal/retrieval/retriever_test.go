package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ayutada/bluesky-analyzer/internal/capability"
	"github.com/Ayutada/bluesky-analyzer/internal/capability/capabilitytest"
	"github.com/Ayutada/bluesky-analyzer/internal/domain"
	"github.com/Ayutada/bluesky-analyzer/internal/vectorstore/memory"
)

func buildIndex(t *testing.T) *memory.Index {
	t.Helper()
	chunks := []domain.Chunk{
		{ID: "a:0", Language: "en", Text: "ENFJ"},
		{ID: "b:0", Language: "en", Text: "INTJ"},
		{ID: "c:0", Language: "en", Text: "ISTP"},
	}
	ix, err := memory.Build("en", chunks, [][]float64{{1, 0}, {0, 1}, {0.7, 0.7}})
	require.NoError(t, err)
	return ix
}

func TestRetrieve(t *testing.T) {
	ctx := context.Background()
	ix := buildIndex(t)
	fake := &capabilitytest.Embedder{Vectors: map[string][]float64{"What is ENFJ like?": {1, 0.1}}}
	embedder := capability.NewEmbedder(fake, nil, 0)

	t.Run("Top-k in relevance order", func(t *testing.T) {
		q := domain.Query{Text: "What is ENFJ like?", Language: "en"}
		rc, err := Retrieve(ctx, q, ix, embedder, 2)
		require.NoError(t, err)
		assert.Equal(t, q, rc.Query)
		assert.Equal(t, []string{"ENFJ", "ISTP"}, rc.Texts())
	})

	t.Run("Embedding failure propagates", func(t *testing.T) {
		failing := capability.NewEmbedder(&capabilitytest.Embedder{Err: capabilitytest.ErrScripted}, nil, 0)
		_, err := Retrieve(ctx, domain.Query{Text: "x", Language: "en"}, ix, failing, 2)
		var failure *domain.EmbeddingFailure
		assert.ErrorAs(t, err, &failure)
	})

	t.Run("Nil index", func(t *testing.T) {
		_, err := Retrieve(ctx, domain.Query{Text: "x", Language: "en"}, nil, embedder, 2)
		assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
	})

	t.Run("Index of another language", func(t *testing.T) {
		_, err := Retrieve(ctx, domain.Query{Text: "x", Language: "cn"}, ix, embedder, 2)
		assert.ErrorIs(t, err, domain.ErrLanguageMismatch)
	})

	t.Run("Empty index gives empty context", func(t *testing.T) {
		empty, err := memory.Build("en", nil, nil)
		require.NoError(t, err)
		rc, err := Retrieve(ctx, domain.Query{Text: "x", Language: "en"}, empty, embedder, 4)
		require.NoError(t, err)
		assert.Empty(t, rc.Results)
	})
}
