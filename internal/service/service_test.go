package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rediscache "github.com/Ayutada/bluesky-analyzer/internal/cache/redis"
	"github.com/Ayutada/bluesky-analyzer/internal/capability"
	"github.com/Ayutada/bluesky-analyzer/internal/capability/capabilitytest"
	"github.com/Ayutada/bluesky-analyzer/internal/chunker"
	"github.com/Ayutada/bluesky-analyzer/internal/domain"
	"github.com/Ayutada/bluesky-analyzer/internal/embedding/hashing"
	"github.com/Ayutada/bluesky-analyzer/internal/prompt"
	"github.com/Ayutada/bluesky-analyzer/internal/router"
)

var enfjText = strings.Repeat("ENFJ is a warm, people-oriented type. ", 30)[:900]

const cnText = "主人公型的人是天生的领导者，充满激情与魅力。"

func writeDoc(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func hashingEmbedder(t *testing.T) *capability.Embedder {
	t.Helper()
	h, err := hashing.NewEmbedder(256)
	require.NoError(t, err)
	return capability.NewEmbedder(h, capability.NewGuard(capability.GuardConfig{}), 8)
}

func newIndexer(t *testing.T, root, dir string, window, overlap int) *Indexer {
	t.Helper()
	ch, err := chunker.NewWindowChunker(window, overlap)
	require.NoError(t, err)
	return NewIndexer(IndexerConfig{
		CorpusRoot:      root,
		IndexDir:        dir,
		Chunker:         ch,
		Embedder:        hashingEmbedder(t),
		DigestSentences: 2,
	})
}

type fixture struct {
	svc     *Service
	model   *capabilitytest.ChatModel
	reports []IndexReport
}

func setup(t *testing.T, model *capabilitytest.ChatModel, cache ProfileCache) fixture {
	t.Helper()
	root := t.TempDir()
	writeDoc(t, filepath.Join(root, "en", "enfj.md"), enfjText)
	writeDoc(t, filepath.Join(root, "cn", "enfj.md"), cnText)

	ix := newIndexer(t, root, t.TempDir(), 1000, 200)
	langs := []domain.Language{"cn", "en", "jp"}
	reports := ix.Ensure(context.Background(), langs)

	r, err := router.New(router.Config{
		Supported: langs,
		Default:   "en",
		Prompts:   prompt.Builtin(),
		Rules:     domain.ValidationRules{DescriptionMaxRunes: domain.DefaultDescriptionMaxRunes},
		Indexes:   Searchers(reports),
	})
	require.NoError(t, err)

	gen := capability.NewGenerator(model, capability.NewGuard(capability.GuardConfig{}))
	svc, err := New(context.Background(), r, hashingEmbedder(t), gen, Options{Cache: cache})
	require.NoError(t, err)
	return fixture{svc: svc, model: model, reports: reports}
}

func userMessage(t *testing.T, m *capabilitytest.ChatModel) string {
	t.Helper()
	in := m.LastInput()
	require.NotEmpty(t, in)
	return in[len(in)-1].Content
}

func TestNew_CompilesAnswerGraph(t *testing.T) {
	r, err := router.New(router.Config{Supported: []domain.Language{"en"}, Prompts: prompt.Builtin()})
	require.NoError(t, err)
	gen := capability.NewGenerator(&capabilitytest.ChatModel{Replies: []string{"x"}}, nil)

	svc, err := New(context.Background(), r, hashingEmbedder(t), gen, Options{})
	require.NoError(t, err)
	require.NotNil(t, svc.qa)
	assert.Equal(t, DefaultTopK, svc.topK)

	res, err := svc.Ask(context.Background(), "What is ENFJ like?", "en")
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
	require.NotNil(t, res)
	assert.Equal(t, domain.Language("en"), res.Language)
	assert.NotEmpty(t, res.QueryID)
}

func TestService_Answer(t *testing.T) {
	ctx := context.Background()

	t.Run("Single short document answers from its only chunk", func(t *testing.T) {
		model := &capabilitytest.ChatModel{Replies: []string{"ENFJs are warm and outgoing."}}
		f := setup(t, model, nil)

		res, err := f.svc.Ask(ctx, "What is ENFJ like?", "en")
		require.NoError(t, err)
		assert.Equal(t, "ENFJs are warm and outgoing.", res.Answer)
		assert.NotEmpty(t, res.QueryID)
		require.Len(t, res.Context.Results, 1)
		assert.Equal(t, enfjText, res.Context.Results[0].Chunk.Text)
		assert.Contains(t, userMessage(t, model), enfjText)
		assert.Contains(t, userMessage(t, model), "What is ENFJ like?")
	})

	t.Run("Answer text is returned verbatim", func(t *testing.T) {
		reply := "  I don't know.\n"
		f := setup(t, &capabilitytest.ChatModel{Replies: []string{reply}}, nil)
		got, err := f.svc.Answer(ctx, "Who is ENFJ?", "EN")
		require.NoError(t, err)
		assert.Equal(t, reply, got)
	})

	t.Run("Context only comes from the routed language", func(t *testing.T) {
		model := &capabilitytest.ChatModel{Replies: []string{"好的"}}
		f := setup(t, model, nil)
		res, err := f.svc.Ask(ctx, "主人公型是什么样的人？", "cn")
		require.NoError(t, err)
		require.NotEmpty(t, res.Context.Results)
		for _, r := range res.Context.Results {
			assert.Equal(t, domain.Language("cn"), r.Chunk.Language)
		}
		assert.NotContains(t, userMessage(t, model), "ENFJ is a warm")
	})

	t.Run("Temperature is passed through", func(t *testing.T) {
		model := &capabilitytest.ChatModel{Replies: []string{"ok"}}
		f := setup(t, model, nil)
		_, err := f.svc.Answer(ctx, "What is ENFJ like?", "en")
		require.NoError(t, err)
		require.NotNil(t, model.LastTemperature())
		assert.Equal(t, float32(0), *model.LastTemperature())
	})

	failures := []struct {
		name     string
		question string
		lang     string
		model    *capabilitytest.ChatModel
		sentinel error
	}{
		{"Unsupported language", "What is ENFJ like?", "fr", &capabilitytest.ChatModel{Replies: []string{"x"}}, domain.ErrUnsupportedLanguage},
		{"Language without an index", "What is ENFJ like?", "jp", &capabilitytest.ChatModel{Replies: []string{"x"}}, domain.ErrIndexUnavailable},
		{"Blank question", "   ", "en", &capabilitytest.ChatModel{Replies: []string{"x"}}, domain.ErrEmptyInput},
		{"Generation failure", "What is ENFJ like?", "en", &capabilitytest.ChatModel{Err: capabilitytest.ErrScripted}, domain.ErrGeneration},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t, tt.model, nil)
			got, err := f.svc.Answer(ctx, tt.question, tt.lang)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Empty(t, got)
			if tt.sentinel != domain.ErrGeneration {
				assert.Zero(t, tt.model.Calls())
			}
		})
	}

	t.Run("Unsupported language error carries the code", func(t *testing.T) {
		f := setup(t, &capabilitytest.ChatModel{Replies: []string{"x"}}, nil)
		_, err := f.svc.Answer(ctx, "hi", "fr")
		var target *domain.UnsupportedLanguageError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "fr", target.Code)
	})
}

func TestService_Reply(t *testing.T) {
	ctx := context.Background()

	t.Run("Success returns the answer", func(t *testing.T) {
		f := setup(t, &capabilitytest.ChatModel{Replies: []string{"warm"}}, nil)
		assert.Equal(t, "warm", f.svc.Reply(ctx, "What is ENFJ like?", "en"))
	})

	t.Run("Failure becomes the localized message", func(t *testing.T) {
		f := setup(t, &capabilitytest.ChatModel{Err: capabilitytest.ErrScripted}, nil)
		assert.Equal(t, prompt.CannotAnswerEN, f.svc.Reply(ctx, "What is ENFJ like?", "en"))
		assert.Equal(t, prompt.CannotAnswerCN, f.svc.Reply(ctx, "主人公型？", "cn"))
	})

	t.Run("Missing index becomes the localized message", func(t *testing.T) {
		f := setup(t, &capabilitytest.ChatModel{Replies: []string{"x"}}, nil)
		assert.Equal(t, prompt.CannotAnswerJP, f.svc.Reply(ctx, "ENFJとは？", "jp"))
	})

	t.Run("Unsupported language uses the default route", func(t *testing.T) {
		model := &capabilitytest.ChatModel{Replies: []string{"default answer"}}
		f := setup(t, model, nil)
		assert.Equal(t, "default answer", f.svc.Reply(ctx, "What is ENFJ like?", "fr"))
		assert.Contains(t, userMessage(t, model), enfjText)
	})
}

func TestService_Analyze(t *testing.T) {
	ctx := context.Background()
	fenced := "```json\n{\"mbti\": \"INTJ\", \"animal\": \"Owl\", \"description\": \"A strategic planner.\"}\n```"

	t.Run("Fenced JSON is extracted", func(t *testing.T) {
		f := setup(t, &capabilitytest.ChatModel{Replies: []string{fenced}}, nil)
		p := f.svc.Analyze(ctx, "I plan everything years ahead.", "en")
		assert.Equal(t, domain.PersonalityProfile{MBTI: "INTJ", Animal: "Owl", Description: "A strategic planner.", Language: "en"}, p)
	})

	t.Run("Non-JSON output falls back", func(t *testing.T) {
		f := setup(t, &capabilitytest.ChatModel{Replies: []string{"I think you are an INTJ."}}, nil)
		p := f.svc.Analyze(ctx, "some posts", "en")
		assert.Equal(t, domain.Unknown, p.MBTI)
		assert.Equal(t, domain.Unknown, p.Animal)
		assert.Equal(t, prompt.FallbackEN, p.Description)
	})

	t.Run("Unsupported language uses the default", func(t *testing.T) {
		f := setup(t, &capabilitytest.ChatModel{Replies: []string{"nope"}}, nil)
		p := f.svc.Analyze(ctx, "some posts", "fr")
		assert.Equal(t, domain.Language("en"), p.Language)
		assert.Equal(t, prompt.FallbackEN, p.Description)
	})

	t.Run("Successful profiles are cached", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })
		cache := rediscache.NewProfileCache(client, time.Minute)

		model := &capabilitytest.ChatModel{Replies: []string{fenced}}
		f := setup(t, model, cache)
		first := f.svc.Analyze(ctx, "I plan everything.", "en")
		second := f.svc.Analyze(ctx, "I plan everything.", "en")
		assert.Equal(t, first, second)
		assert.Equal(t, 1, model.Calls())
		assert.True(t, mr.Exists(rediscache.Key("en", "I plan everything.")))

		// a different language is a different key
		f.svc.Analyze(ctx, "I plan everything.", "cn")
		assert.Equal(t, 2, model.Calls())
	})

	t.Run("Fallbacks are not cached", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })

		model := &capabilitytest.ChatModel{Replies: []string{"garbage"}}
		f := setup(t, model, rediscache.NewProfileCache(client, time.Minute))
		f.svc.Analyze(ctx, "text", "en")
		f.svc.Analyze(ctx, "text", "en")
		assert.Equal(t, 2, model.Calls())
	})

	t.Run("Unreachable cache is ignored", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
		t.Cleanup(func() { client.Close() })
		mr.Close()

		f := setup(t, &capabilitytest.ChatModel{Replies: []string{fenced}}, rediscache.NewProfileCache(client, time.Minute))
		p := f.svc.Analyze(ctx, "text", "en")
		assert.Equal(t, "INTJ", p.MBTI)
	})
}
