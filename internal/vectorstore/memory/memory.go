package memory

import (
	"fmt"
	"math"
	"sort"

	"github.com/Ayutada/bluesky-analyzer/internal/domain"
	"github.com/Ayutada/bluesky-analyzer/internal/vectorstore"
)

// Entry pairs a chunk with its embedding.
type Entry struct {
	Chunk  domain.Chunk
	Vector []float64
}

// Index is an in-memory vector index using brute-force cosine similarity.
// It is never mutated after Build, so concurrent queries need no locking.
type Index struct {
	language  domain.Language
	dimension int
	entries   []Entry
	norms     []float64
}

// Build constructs an index for one language. Every chunk must belong to that
// language and every vector must share one dimension.
func Build(language domain.Language, chunks []domain.Chunk, vectors [][]float64) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}
	ix := &Index{
		language: language,
		entries:  make([]Entry, len(chunks)),
		norms:    make([]float64, len(chunks)),
	}
	for i, ch := range chunks {
		if ch.Language != language {
			return nil, fmt.Errorf("%w: chunk %s is %q, index is %q", domain.ErrLanguageMismatch, ch.ID, ch.Language, language)
		}
		v := vectors[i]
		if i == 0 {
			ix.dimension = len(v)
		}
		if len(v) == 0 || len(v) != ix.dimension {
			return nil, fmt.Errorf("%w: vector %d has %d values, want %d", domain.ErrDimensionMismatch, i, len(v), ix.dimension)
		}
		vec := append([]float64(nil), v...)
		ix.entries[i] = Entry{Chunk: ch, Vector: vec}
		ix.norms[i] = norm(vec)
	}
	return ix, nil
}

// Language returns the language every chunk in the index belongs to.
func (ix *Index) Language() domain.Language { return ix.language }

// Len returns the number of indexed chunks.
func (ix *Index) Len() int { return len(ix.entries) }

// Dimension returns the vector length, or 0 for an empty index.
func (ix *Index) Dimension() int { return ix.dimension }

// Entries returns the indexed pairs in insertion order. Callers must not modify them.
func (ix *Index) Entries() []Entry { return ix.entries }

// Query returns up to k chunks ordered by descending cosine similarity; equal
// scores keep insertion order.
func (ix *Index) Query(vector []float64, k int) ([]domain.SearchResult, error) {
	if k <= 0 || len(ix.entries) == 0 {
		return []domain.SearchResult{}, nil
	}
	if len(vector) != ix.dimension {
		return nil, fmt.Errorf("%w: query has %d values, index has %d", domain.ErrDimensionMismatch, len(vector), ix.dimension)
	}
	qn := norm(vector)
	scores := make([]float64, len(ix.entries))
	for i, e := range ix.entries {
		scores[i] = cosine(e.Vector, vector, ix.norms[i], qn)
	}
	idxs := argsortDesc(scores)
	k = min(k, len(idxs))
	results := make([]domain.SearchResult, 0, k)
	for _, j := range idxs[:k] {
		results = append(results, domain.SearchResult{Chunk: ix.entries[j].Chunk, Score: scores[j]})
	}
	return results, nil
}

func cosine(a, b []float64, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	return dot(a, b) / (na * nb)
}

func norm(v []float64) float64 {
	return math.Sqrt(dot(v, v))
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func argsortDesc(vals []float64) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(i, j int) bool { return vals[idxs[i]] > vals[idxs[j]] })
	return idxs
}

var _ vectorstore.Searcher = (*Index)(nil)
