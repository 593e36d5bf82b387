// Package retrieval fetches the chunks most relevant to a query.
package retrieval

import (
	"context"
	"fmt"

	"github.com/Ayutada/bluesky-analyzer/internal/domain"
	"github.com/Ayutada/bluesky-analyzer/internal/vectorstore"
)

// Retrieve embeds the query text and searches index for the top k chunks.
// Embedding failures are returned unchanged so callers can match
// *domain.EmbeddingFailure.
func Retrieve(ctx context.Context, query domain.Query, index vectorstore.Searcher, embedder domain.Embedder, k int) (domain.RetrievedContext, error) {
	rc := domain.RetrievedContext{Query: query}
	if index == nil {
		return rc, fmt.Errorf("%w: %s", domain.ErrIndexUnavailable, query.Language)
	}
	if index.Language() != query.Language {
		return rc, fmt.Errorf("%w: query is %q, index is %q", domain.ErrLanguageMismatch, query.Language, index.Language())
	}
	vec, err := embedder.EmbedQuery(ctx, query.Text)
	if err != nil {
		return rc, err
	}
	results, err := index.Query(vec, k)
	if err != nil {
		return rc, fmt.Errorf("search %s index: %w", query.Language, err)
	}
	rc.Results = results
	return rc, nil
}
