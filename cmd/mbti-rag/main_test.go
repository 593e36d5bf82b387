package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ayutada/bluesky-analyzer/internal/config"
	"github.com/Ayutada/bluesky-analyzer/internal/domain"
	"github.com/Ayutada/bluesky-analyzer/internal/prompt"
	"github.com/Ayutada/bluesky-analyzer/internal/service"
)

func TestAnalyzeInput(t *testing.T) {
	t.Cleanup(func() { analyzeFile = "" })

	t.Run("Arguments are joined", func(t *testing.T) {
		analyzeFile = ""
		got, err := analyzeInput(&cobra.Command{}, []string{"I", "plan", "ahead."})
		require.NoError(t, err)
		assert.Equal(t, "I plan ahead.", got)
	})

	t.Run("File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "posts.txt")
		require.NoError(t, os.WriteFile(path, []byte("posts"), 0o644))
		analyzeFile = path
		got, err := analyzeInput(&cobra.Command{}, nil)
		require.NoError(t, err)
		assert.Equal(t, "posts", got)
	})

	t.Run("Stdin", func(t *testing.T) {
		analyzeFile = "-"
		cmd := &cobra.Command{}
		cmd.SetIn(strings.NewReader("from stdin"))
		got, err := analyzeInput(cmd, nil)
		require.NoError(t, err)
		assert.Equal(t, "from stdin", got)
	})

	t.Run("Nothing given", func(t *testing.T) {
		analyzeFile = ""
		_, err := analyzeInput(&cobra.Command{}, nil)
		assert.Error(t, err)
	})
}

func TestLanguagesAndDigests(t *testing.T) {
	conf := config.Default()
	assert.Equal(t, []domain.Language{"cn", "en", "jp"}, languages(conf))

	got := digests([]service.IndexReport{
		{Language: "en", Digest: "ENFJ digest."},
		{Language: "jp", Err: errors.New("missing")},
	})
	assert.Equal(t, map[domain.Language]string{"en": "ENFJ digest."}, got)
}

func TestRunIndex(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "en"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "en", "enfj.md"), []byte("ENFJ is a warm type."), 0o644))

	conf := config.Default()
	conf.Corpus.Root = root
	conf.Index.Dir = t.TempDir()
	conf.Languages.Supported = []string{"en"}
	conf.Languages.Default = "en"
	cfg = conf
	t.Cleanup(func() { cfg = nil; indexLangs = nil; indexRebuild = false })

	var out strings.Builder
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(&out)
	require.NoError(t, runIndex(cmd, nil))
	assert.Contains(t, out.String(), "en: built 1 documents, 1 chunks")
	assert.FileExists(t, filepath.Join(conf.Index.Dir, "en.db"))

	out.Reset()
	require.NoError(t, runIndex(cmd, nil))
	assert.Contains(t, out.String(), "en: loaded 1 documents, 1 chunks")

	indexLangs = []string{"jp"}
	out.Reset()
	assert.Error(t, runIndex(cmd, nil))
}

func TestBootstrapWithoutIndexes(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "en"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "en", "enfj.md"), []byte("ENFJ is a warm type."), 0o644))

	conf := config.Default()
	conf.Corpus.Root = root
	conf.Index.Dir = filepath.Join(t.TempDir(), "index")

	a, err := bootstrap(context.Background(), conf, false)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.indexer)
	assert.Empty(t, a.reports)
	assert.NoDirExists(t, conf.Index.Dir)
	assert.Equal(t, []domain.Language{"cn", "en", "jp"}, a.svc.Router().Languages())
	assert.Equal(t, prompt.CannotAnswerEN, a.svc.Reply(context.Background(), "What is ENFJ like?", "en"))
}
