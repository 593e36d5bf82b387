package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Ayutada/bluesky-analyzer/internal/corpus"
	"github.com/Ayutada/bluesky-analyzer/internal/domain"
	"github.com/Ayutada/bluesky-analyzer/internal/summarizer"
	"github.com/Ayutada/bluesky-analyzer/internal/vectorstore"
	"github.com/Ayutada/bluesky-analyzer/internal/vectorstore/memory"
	"github.com/Ayutada/bluesky-analyzer/internal/vectorstore/sqlite"
	"github.com/Ayutada/bluesky-analyzer/internal/zlog"
)

// IndexSource tells where an index came from.
type IndexSource string

const (
	SourceLoaded IndexSource = "loaded"
	SourceBuilt  IndexSource = "built"
)

// IndexReport describes the outcome for one language. Index is nil when Err is set.
type IndexReport struct {
	Language  domain.Language
	Index     *memory.Index
	Source    IndexSource
	Path      string
	Documents int
	Chunks    int
	Digest    string
	Duration  time.Duration
	Err       error
}

// IndexerConfig wires an Indexer.
type IndexerConfig struct {
	CorpusRoot      string
	IndexDir        string
	Chunker         domain.Chunker
	Embedder        domain.Embedder
	DigestSentences int
}

// Indexer builds, persists and reloads per-language indexes. Indexing is a
// blocking batch step run before queries are served.
type Indexer struct {
	cfg        IndexerConfig
	summarizer *summarizer.FrequencySummarizer
}

// NewIndexer creates an indexer.
func NewIndexer(cfg IndexerConfig) *Indexer {
	return &Indexer{cfg: cfg, summarizer: summarizer.NewFrequencySummarizer()}
}

// IndexPath returns the persisted index file for lang.
func (x *Indexer) IndexPath(lang domain.Language) string {
	return filepath.Join(x.cfg.IndexDir, string(lang)+".db")
}

// Ensure loads each language's persisted index, building and persisting it
// when it is missing or corrupt. A failing language is reported and skipped.
func (x *Indexer) Ensure(ctx context.Context, langs []domain.Language) []IndexReport {
	reports := make([]IndexReport, 0, len(langs))
	for _, lang := range langs {
		start := time.Now()
		path := x.IndexPath(lang)
		ix, err := sqlite.Load(ctx, path)
		if err == nil && ix.Language() != lang {
			err = &domain.IndexNotFoundError{Location: path, Err: fmt.Errorf("%w: file holds %q", domain.ErrLanguageMismatch, ix.Language())}
		}
		if err == nil {
			rep := IndexReport{
				Language: lang,
				Index:    ix,
				Source:   SourceLoaded,
				Path:     path,
				Chunks:   ix.Len(),
				Digest:   x.digest(documentsFromIndex(ix)),
				Duration: time.Since(start),
			}
			rep.Documents = countDocuments(ix)
			zlog.Info("index loaded", zap.String("language", string(lang)), zap.String("path", path), zap.Int("chunks", rep.Chunks))
			reports = append(reports, rep)
			continue
		}
		if !errors.Is(err, domain.ErrIndexNotFound) {
			reports = append(reports, x.failed(lang, path, err))
			continue
		}
		zlog.Info("index unavailable, rebuilding", zap.String("language", string(lang)), zap.Error(err))
		reports = append(reports, x.Build(ctx, lang))
	}
	return reports
}

// Rebuild builds and persists every language from the corpus, ignoring
// persisted indexes.
func (x *Indexer) Rebuild(ctx context.Context, langs []domain.Language) []IndexReport {
	reports := make([]IndexReport, 0, len(langs))
	for _, lang := range langs {
		reports = append(reports, x.Build(ctx, lang))
	}
	return reports
}

// Build ingests, chunks and embeds one language's corpus, then persists the index.
func (x *Indexer) Build(ctx context.Context, lang domain.Language) IndexReport {
	start := time.Now()
	path := x.IndexPath(lang)

	docs, err := corpus.Load(x.cfg.CorpusRoot, lang)
	if err != nil {
		return x.failed(lang, path, err)
	}

	var chunks []domain.Chunk
	for _, d := range docs {
		cs, err := x.cfg.Chunker.Chunk(d)
		if err != nil {
			return x.failed(lang, path, fmt.Errorf("chunk %s: %w", d.ID, err))
		}
		chunks = append(chunks, cs...)
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embedStart := time.Now()
	vectors, err := x.cfg.Embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return x.failed(lang, path, err)
	}
	embedMs := time.Since(embedStart).Milliseconds()

	ix, err := memory.Build(lang, chunks, vectors)
	if err != nil {
		return x.failed(lang, path, err)
	}
	if err := sqlite.Save(ctx, path, ix); err != nil {
		return x.failed(lang, path, err)
	}

	rep := IndexReport{
		Language:  lang,
		Index:     ix,
		Source:    SourceBuilt,
		Path:      path,
		Documents: len(docs),
		Chunks:    len(chunks),
		Digest:    x.digest(docs),
		Duration:  time.Since(start),
	}
	zlog.Info("index built",
		zap.String("language", string(lang)),
		zap.String("path", path),
		zap.Int("documents", rep.Documents),
		zap.Int("chunks", rep.Chunks),
		zap.Int64("embed_ms", embedMs),
		zap.Int64("ms", rep.Duration.Milliseconds()))
	return rep
}

func (x *Indexer) failed(lang domain.Language, path string, err error) IndexReport {
	zlog.Error("index failed", zap.String("language", string(lang)), zap.String("path", path), zap.Error(err))
	return IndexReport{Language: lang, Path: path, Err: err}
}

func (x *Indexer) digest(docs []domain.Document) string {
	texts := make([]string, 0, len(docs))
	for _, d := range docs {
		texts = append(texts, d.RawText)
	}
	return x.summarizer.Summarize(strings.Join(texts, "\n"), x.cfg.DigestSentences)
}

// Searchers collects the usable indexes from reports.
func Searchers(reports []IndexReport) map[domain.Language]vectorstore.Searcher {
	out := make(map[domain.Language]vectorstore.Searcher, len(reports))
	for _, r := range reports {
		if r.Err == nil && r.Index != nil {
			out[r.Language] = r.Index
		}
	}
	return out
}

// documentsFromIndex stitches each document's chunks back into its text.
func documentsFromIndex(ix *memory.Index) []domain.Document {
	byDoc := make(map[string][]domain.Chunk)
	var order []string
	for _, e := range ix.Entries() {
		id := e.Chunk.ParentDocumentID
		if _, ok := byDoc[id]; !ok {
			order = append(order, id)
		}
		byDoc[id] = append(byDoc[id], e.Chunk)
	}
	docs := make([]domain.Document, 0, len(order))
	for _, id := range order {
		chunks := byDoc[id]
		sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].SequenceIndex < chunks[j].SequenceIndex })
		var b strings.Builder
		covered := 0
		for _, c := range chunks {
			runes := []rune(c.Text)
			skip := min(max(covered-c.StartOffset, 0), len(runes))
			b.WriteString(string(runes[skip:]))
			covered = max(covered, c.End())
		}
		docs = append(docs, domain.Document{ID: id, Language: ix.Language(), SourceLabel: chunks[0].SourceLabel, RawText: b.String()})
	}
	return docs
}

func countDocuments(ix *memory.Index) int {
	seen := make(map[string]struct{})
	for _, e := range ix.Entries() {
		seen[e.Chunk.ParentDocumentID] = struct{}{}
	}
	return len(seen)
}
