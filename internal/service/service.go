// Package service wires routing, retrieval, generation and profile extraction
// into the operations the CLI and TUI expose.
package service

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"go.uber.org/zap"

	"github.com/Ayutada/bluesky-analyzer/internal/domain"
	"github.com/Ayutada/bluesky-analyzer/internal/extractor"
	"github.com/Ayutada/bluesky-analyzer/internal/router"
	"github.com/Ayutada/bluesky-analyzer/internal/zlog"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 4

// ProfileCache memoizes successful extractions.
type ProfileCache interface {
	Get(ctx context.Context, lang domain.Language, text string) (domain.PersonalityProfile, bool, error)
	Set(ctx context.Context, text string, p domain.PersonalityProfile) error
}

// Options tune a Service. Zero values select defaults.
type Options struct {
	TopK        int
	Temperature float32
	Cache       ProfileCache
}

// Service answers questions and extracts profiles. It is safe for concurrent
// use once constructed.
type Service struct {
	router      *router.Router
	embedder    domain.Embedder
	generator   domain.Generator
	extractor   *extractor.Extractor
	cache       ProfileCache
	topK        int
	temperature float32
	qa          compose.Runnable[*AnswerRequest, *AnswerResult]
}

// New compiles the question answering graph.
func New(ctx context.Context, r *router.Router, embedder domain.Embedder, generator domain.Generator, opts Options) (*Service, error) {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	s := &Service{
		router:      r,
		embedder:    embedder,
		generator:   generator,
		extractor:   extractor.New(generator),
		cache:       opts.Cache,
		topK:        opts.TopK,
		temperature: opts.Temperature,
	}
	qa, err := s.buildQAGraph(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile answer graph: %w", err)
	}
	s.qa = qa
	return s, nil
}

// Router exposes the routing table.
func (s *Service) Router() *router.Router { return s.router }

// Ask runs the question answering graph and returns the full result.
func (s *Service) Ask(ctx context.Context, question, lang string) (*AnswerResult, error) {
	res, err := s.qa.Invoke(ctx, &AnswerRequest{Question: question, Language: lang})
	if err != nil {
		return nil, fmt.Errorf("answer graph: %w", err)
	}
	return res, res.Err
}

// Answer returns the generated answer verbatim. Errors are typed: an
// unsupported language, a missing index, empty input, or an embedding or
// generation failure.
func (s *Service) Answer(ctx context.Context, question, lang string) (string, error) {
	res, err := s.Ask(ctx, question, lang)
	if err != nil {
		return "", err
	}
	return res.Answer, nil
}

// Reply is Answer for end users. Unsupported languages use the default route
// and failures become the localized cannot-answer message.
func (s *Service) Reply(ctx context.Context, question, lang string) string {
	rt, fellBack := s.router.RouteOrDefault(lang)
	if fellBack {
		zlog.Warn("unsupported language, using default", zap.String("requested", lang), zap.String("language", string(rt.Language)))
	}
	answer, err := s.Answer(ctx, question, string(rt.Language))
	if err != nil {
		return rt.Prompts.CannotAnswer
	}
	return answer
}

// Analyze extracts a personality profile. It never fails: any failure yields
// the localized fallback profile. Cache errors are logged and ignored.
func (s *Service) Analyze(ctx context.Context, text, lang string) domain.PersonalityProfile {
	rt, fellBack := s.router.RouteOrDefault(lang)
	if fellBack {
		zlog.Warn("unsupported language, using default", zap.String("requested", lang), zap.String("language", string(rt.Language)))
	}

	if s.cache != nil {
		p, ok, err := s.cache.Get(ctx, rt.Language, text)
		switch {
		case err != nil:
			zlog.Warn("profile cache get failed", zap.Error(err))
		case ok:
			zlog.Debug("profile cache hit", zap.String("language", string(rt.Language)))
			return p
		}
	}

	out := s.extractor.Run(ctx, extractor.Request{
		Text:     text,
		Language: rt.Language,
		Prompts:  rt.Prompts,
		Rules:    rt.Rules,
	})
	if out.State == extractor.Succeeded && s.cache != nil {
		if err := s.cache.Set(ctx, text, out.Profile); err != nil {
			zlog.Warn("profile cache set failed", zap.Error(err))
		}
	}
	return out.Profile
}
