package chunker

import (
	"fmt"
	"iter"
	"strconv"

	"github.com/Ayutada/bluesky-analyzer/internal/domain"
)

// Default window settings in runes.
const (
	DefaultWindowSize = 1000
	DefaultOverlap    = 200
)

// WindowChunker splits text into fixed-size character windows with overlap.
// Sizes are counted in runes so multibyte scripts are never cut mid-character.
type WindowChunker struct {
	windowSize int
	overlap    int
}

// NewWindowChunker validates the window configuration.
func NewWindowChunker(windowSize, overlap int) (*WindowChunker, error) {
	if windowSize <= 0 {
		return nil, fmt.Errorf("%w: window size must be positive, got %d", domain.ErrInvalidConfig, windowSize)
	}
	if overlap < 0 || overlap >= windowSize {
		return nil, fmt.Errorf("%w: overlap must be in [0, %d), got %d", domain.ErrInvalidConfig, windowSize, overlap)
	}
	return &WindowChunker{windowSize: windowSize, overlap: overlap}, nil
}

// WindowSize returns the configured window size in runes.
func (c *WindowChunker) WindowSize() int { return c.windowSize }

// Overlap returns the configured overlap in runes.
func (c *WindowChunker) Overlap() int { return c.overlap }

// Chunks returns a lazy sequence over the document's windows. Ranging over it
// again restarts from the first window.
func (c *WindowChunker) Chunks(document domain.Document) iter.Seq[domain.Chunk] {
	return func(yield func(domain.Chunk) bool) {
		runes := []rune(document.RawText)
		total := len(runes)
		if total == 0 {
			return
		}
		step := c.windowSize - c.overlap
		for start, idx := 0, 0; ; start, idx = start+step, idx+1 {
			end := start + c.windowSize
			last := total-start <= c.windowSize
			if last {
				end = total
			}
			chunk := domain.Chunk{
				ID:               document.ID + ":" + strconv.Itoa(idx),
				ParentDocumentID: document.ID,
				Language:         document.Language,
				SourceLabel:      document.SourceLabel,
				Text:             string(runes[start:end]),
				SequenceIndex:    idx,
				StartOffset:      start,
				Length:           end - start,
			}
			if !yield(chunk) || last {
				return
			}
		}
	}
}

// Chunk collects every window of the document.
func (c *WindowChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for ch := range c.Chunks(document) {
		chunks = append(chunks, ch)
	}
	return chunks, nil
}

var _ domain.Chunker = (*WindowChunker)(nil)
