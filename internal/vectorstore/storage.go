// Package vectorstore defines the read side of a per-language vector index.
package vectorstore

import "github.com/Ayutada/bluesky-analyzer/internal/domain"

// Metric names the similarity function used by every index in this module.
const Metric = "cosine"

// Searcher is an immutable, language-scoped similarity index.
type Searcher interface {
	Language() domain.Language
	Len() int
	Dimension() int
	Query(vector []float64, k int) ([]domain.SearchResult, error)
}
