package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ayutada/bluesky-analyzer/internal/capability"
	"github.com/Ayutada/bluesky-analyzer/internal/capability/capabilitytest"
	"github.com/Ayutada/bluesky-analyzer/internal/chunker"
	"github.com/Ayutada/bluesky-analyzer/internal/domain"
)

func TestIndexer_Ensure(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	dir := t.TempDir()
	writeDoc(t, filepath.Join(root, "en", "enfj.md"), enfjText)
	writeDoc(t, filepath.Join(root, "en", "intj.md"), "# Source: https://example.com/intj\nINTJ types plan ahead. They value competence.")
	en := []domain.Language{"en"}

	t.Run("Builds and persists when no index exists", func(t *testing.T) {
		ix := newIndexer(t, root, dir, 1000, 200)
		reports := ix.Ensure(ctx, en)
		require.Len(t, reports, 1)
		rep := reports[0]
		require.NoError(t, rep.Err)
		assert.Equal(t, SourceBuilt, rep.Source)
		assert.Equal(t, 2, rep.Documents)
		assert.Equal(t, 2, rep.Chunks)
		assert.NotEmpty(t, rep.Digest)
		assert.FileExists(t, ix.IndexPath("en"))
	})

	t.Run("Loads the persisted index on the next start", func(t *testing.T) {
		ix := newIndexer(t, root, dir, 1000, 200)
		rep := ix.Ensure(ctx, en)[0]
		require.NoError(t, rep.Err)
		assert.Equal(t, SourceLoaded, rep.Source)
		assert.Equal(t, 2, rep.Documents)
		assert.Equal(t, 2, rep.Chunks)
		assert.NotEmpty(t, rep.Digest)
	})

	t.Run("Rebuild ignores the persisted index", func(t *testing.T) {
		ix := newIndexer(t, root, dir, 1000, 200)
		rep := ix.Rebuild(ctx, en)[0]
		require.NoError(t, rep.Err)
		assert.Equal(t, SourceBuilt, rep.Source)
	})

	t.Run("Corrupt index is rebuilt", func(t *testing.T) {
		ix := newIndexer(t, root, dir, 1000, 200)
		require.NoError(t, os.WriteFile(ix.IndexPath("en"), []byte("not a database"), 0o644))
		rep := ix.Ensure(ctx, en)[0]
		require.NoError(t, rep.Err)
		assert.Equal(t, SourceBuilt, rep.Source)
		assert.Equal(t, 2, rep.Chunks)
	})

	t.Run("Missing corpus skips only that language", func(t *testing.T) {
		ix := newIndexer(t, root, t.TempDir(), 1000, 200)
		reports := ix.Ensure(ctx, []domain.Language{"en", "jp"})
		require.Len(t, reports, 2)
		assert.NoError(t, reports[0].Err)
		assert.ErrorIs(t, reports[1].Err, domain.ErrIngestion)
		assert.Nil(t, reports[1].Index)

		searchers := Searchers(reports)
		assert.Contains(t, searchers, domain.Language("en"))
		assert.NotContains(t, searchers, domain.Language("jp"))
	})

	t.Run("Embedding failure leaves no index behind", func(t *testing.T) {
		ch, err := chunker.NewWindowChunker(1000, 200)
		require.NoError(t, err)
		out := t.TempDir()
		failing := capability.NewEmbedder(&capabilitytest.Embedder{Err: capabilitytest.ErrScripted}, capability.NewGuard(capability.GuardConfig{}), 8)
		ix := NewIndexer(IndexerConfig{CorpusRoot: root, IndexDir: out, Chunker: ch, Embedder: failing})
		rep := ix.Build(ctx, "en")
		assert.ErrorIs(t, rep.Err, domain.ErrEmbedding)
		assert.NoFileExists(t, ix.IndexPath("en"))
	})
}

func TestDocumentsFromIndex(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	long := strings.Repeat("Extraverts recharge with people. ", 5)
	writeDoc(t, filepath.Join(root, "en", "e.md"), long)
	writeDoc(t, filepath.Join(root, "en", "i.md"), "Introverts recharge alone.")

	ix := newIndexer(t, root, t.TempDir(), 20, 6)
	rep := ix.Build(ctx, "en")
	require.NoError(t, rep.Err)
	require.Greater(t, rep.Chunks, 2)

	docs := documentsFromIndex(rep.Index)
	require.Len(t, docs, 2)
	texts := []string{docs[0].RawText, docs[1].RawText}
	assert.ElementsMatch(t, []string{long, "Introverts recharge alone."}, texts)
	assert.Equal(t, 2, countDocuments(rep.Index))
}
