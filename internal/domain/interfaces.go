package domain

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// Language is a short corpus language code such as "cn", "en" or "jp".
type Language string

// Document represents a single reference text loaded from the corpus.
type Document struct {
	ID          string
	Language    Language
	SourceLabel string
	RawText     string
}

// Chunk is a contiguous window of a document's text used for indexing.
// StartOffset and Length are measured in runes of the parent RawText.
type Chunk struct {
	ID               string
	ParentDocumentID string
	Language         Language
	SourceLabel      string
	Text             string
	SequenceIndex    int
	StartOffset      int
	Length           int
}

// End returns the rune offset just past the chunk.
func (c Chunk) End() int { return c.StartOffset + c.Length }

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Query is a single incoming question.
type Query struct {
	Text     string
	Language Language
}

// RetrievedContext holds chunks for one query, most relevant first.
type RetrievedContext struct {
	Query   Query
	Results []SearchResult
}

// Texts returns the chunk texts in relevance order.
func (rc RetrievedContext) Texts() []string {
	out := make([]string, 0, len(rc.Results))
	for _, r := range rc.Results {
		out = append(out, r.Chunk.Text)
	}
	return out
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Embedder maps text to fixed-length vectors.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error)
}

// Generator produces text from a composed prompt.
type Generator interface {
	Generate(ctx context.Context, messages []*schema.Message, temperature float32) (string, error)
}
