package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	rediscache "github.com/Ayutada/bluesky-analyzer/internal/cache/redis"
	"github.com/Ayutada/bluesky-analyzer/internal/capability"
	"github.com/Ayutada/bluesky-analyzer/internal/chunker"
	"github.com/Ayutada/bluesky-analyzer/internal/config"
	"github.com/Ayutada/bluesky-analyzer/internal/domain"
	"github.com/Ayutada/bluesky-analyzer/internal/embedding"
	"github.com/Ayutada/bluesky-analyzer/internal/llm"
	"github.com/Ayutada/bluesky-analyzer/internal/prompt"
	"github.com/Ayutada/bluesky-analyzer/internal/router"
	"github.com/Ayutada/bluesky-analyzer/internal/service"
	"github.com/Ayutada/bluesky-analyzer/internal/zlog"
)

// app holds the assembled components for one command run.
type app struct {
	indexer  *service.Indexer
	svc      *service.Service
	reports  []service.IndexReport
	closers  []io.Closer
	langs    []domain.Language
	embedder *capability.Embedder
}

func (a *app) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
}

func languages(conf *config.AppConfig) []domain.Language {
	out := make([]domain.Language, 0, len(conf.Languages.Supported))
	for _, l := range conf.Languages.Supported {
		out = append(out, domain.Language(l))
	}
	return out
}

// newIndexer assembles the chunker and guarded embedder.
func newIndexer(ctx context.Context, conf *config.AppConfig, a *app) error {
	emb, meta, err := embedding.NewEmbedderFromConfig(ctx, conf.Embedder)
	if err != nil {
		return fmt.Errorf("embedder: %w", err)
	}
	if c, ok := emb.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
	zlog.Info("embedder ready", zap.String("provider", meta.Provider), zap.String("model", meta.Model), zap.Int("dim", meta.Dim))
	a.embedder = capability.NewEmbedder(emb, capability.GuardFromConfig(conf.Embedder.CapabilityConfig), conf.Embedder.BatchSize)

	ch, err := chunker.NewWindowChunker(conf.Chunker.WindowSize, conf.Chunker.Overlap)
	if err != nil {
		return err
	}
	a.indexer = service.NewIndexer(service.IndexerConfig{
		CorpusRoot:      conf.Corpus.Root,
		IndexDir:        conf.Index.Dir,
		Chunker:         ch,
		Embedder:        a.embedder,
		DigestSentences: conf.Summarizer.MaxSentences,
	})
	a.langs = languages(conf)
	return nil
}

// bootstrap wires the service. With withIndexes every index is loaded or
// built first; without it no embedder is created and Q&A routes have no index,
// which is all profile extraction needs.
func bootstrap(ctx context.Context, conf *config.AppConfig, withIndexes bool) (*app, error) {
	a := &app{langs: languages(conf)}
	var emb domain.Embedder
	if withIndexes {
		if err := newIndexer(ctx, conf, a); err != nil {
			return nil, err
		}
		a.reports = a.indexer.Ensure(ctx, a.langs)
		emb = a.embedder
	}

	cm, meta, err := llm.NewChatModelFromConfig(ctx, conf.ChatModel)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("chat model: %w", err)
	}
	zlog.Info("chat model ready", zap.String("provider", meta.Provider), zap.String("model", meta.Model))
	gen := capability.NewGenerator(cm, capability.GuardFromConfig(conf.ChatModel.CapabilityConfig))

	r, err := router.New(router.Config{
		Supported: a.langs,
		Default:   domain.Language(conf.DefaultLanguage()),
		Prompts:   prompt.Builtin(),
		Rules:     domain.ValidationRules{DescriptionMaxRunes: conf.Extraction.DescriptionMaxRunes},
		Indexes:   service.Searchers(a.reports),
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	opts := service.Options{TopK: conf.Retrieval.TopK, Temperature: conf.Generation.Temperature}
	if conf.Cache.Redis.Addr != "" {
		client, err := rediscache.NewClient(ctx, conf.Cache.Redis)
		if err != nil {
			zlog.Warn("profile cache disabled", zap.String("addr", conf.Cache.Redis.Addr), zap.Error(err))
		} else {
			a.closers = append(a.closers, client)
			opts.Cache = rediscache.NewProfileCache(client, time.Duration(conf.Cache.Redis.TTLSecs)*time.Second)
		}
	}

	a.svc, err = service.New(ctx, r, emb, gen, opts)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func digests(reports []service.IndexReport) map[domain.Language]string {
	out := make(map[domain.Language]string, len(reports))
	for _, r := range reports {
		if r.Err == nil {
			out[r.Language] = r.Digest
		}
	}
	return out
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
