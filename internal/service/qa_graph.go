package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Ayutada/bluesky-analyzer/internal/domain"
	"github.com/Ayutada/bluesky-analyzer/internal/prompt"
	"github.com/Ayutada/bluesky-analyzer/internal/retrieval"
	"github.com/Ayutada/bluesky-analyzer/internal/router"
	"github.com/Ayutada/bluesky-analyzer/internal/zlog"
)

// Graph node names.
const (
	NodeRoute    = "route"
	NodeRetrieve = "retrieve"
	NodeCompose  = "compose"
	NodeGenerate = "generate"
	NodeResult   = "result"
)

// AnswerRequest is the input of the question answering graph.
type AnswerRequest struct {
	Question string
	Language string
}

// AnswerResult is the output of the question answering graph. Err carries the
// typed failure of the first node that failed.
type AnswerResult struct {
	QueryID  string
	Language domain.Language
	Answer   string
	Context  domain.RetrievedContext
	Err      error
}

type qaState struct {
	Req        *AnswerRequest
	QueryID    string
	Start      time.Time
	Route      router.Route
	Context    domain.RetrievedContext
	Messages   []*schema.Message
	Answer     string
	RetrieveMs int64
	GenerateMs int64
	Err        error
}

func (s *Service) buildQAGraph(ctx context.Context) (compose.Runnable[*AnswerRequest, *AnswerResult], error) {
	g := compose.NewGraph[*AnswerRequest, *AnswerResult]()

	nodes := []struct {
		name   string
		lambda *compose.Lambda
	}{
		{NodeRoute, compose.InvokableLambdaWithOption(s.routeNode)},
		{NodeRetrieve, compose.InvokableLambdaWithOption(s.retrieveNode)},
		{NodeCompose, compose.InvokableLambdaWithOption(s.composeNode)},
		{NodeGenerate, compose.InvokableLambdaWithOption(s.generateNode)},
		{NodeResult, compose.InvokableLambdaWithOption(s.resultNode)},
	}
	prev := compose.START
	for _, n := range nodes {
		if err := g.AddLambdaNode(n.name, n.lambda, compose.WithNodeName(n.name)); err != nil {
			return nil, fmt.Errorf("add node %s: %w", n.name, err)
		}
		if err := g.AddEdge(prev, n.name); err != nil {
			return nil, fmt.Errorf("add edge %s -> %s: %w", prev, n.name, err)
		}
		prev = n.name
	}
	if err := g.AddEdge(prev, compose.END); err != nil {
		return nil, fmt.Errorf("add edge %s -> %s: %w", prev, compose.END, err)
	}

	return g.Compile(ctx,
		compose.WithGraphName("MBTIAnswerPipeline"),
		compose.WithNodeTriggerMode(compose.AllPredecessor),
	)
}

func (s *Service) routeNode(_ context.Context, in *AnswerRequest, _ ...any) (*qaState, error) {
	st := &qaState{Req: in, QueryID: uuid.NewString(), Start: time.Now()}
	rt, err := s.router.Route(in.Language)
	if err != nil {
		st.Err = err
		return st, nil
	}
	st.Route = rt
	if strings.TrimSpace(in.Question) == "" {
		st.Err = domain.ErrEmptyInput
	}
	return st, nil
}

func (s *Service) retrieveNode(ctx context.Context, st *qaState, _ ...any) (*qaState, error) {
	if st.Err != nil {
		return st, nil
	}
	start := time.Now()
	q := domain.Query{Text: st.Req.Question, Language: st.Route.Language}
	rc, err := retrieval.Retrieve(ctx, q, st.Route.Index, s.embedder, s.topK)
	st.RetrieveMs = time.Since(start).Milliseconds()
	if err != nil {
		st.Err = err
		return st, nil
	}
	st.Context = rc
	zlog.Info("retrieve done",
		zap.String("query_id", st.QueryID),
		zap.String("language", string(q.Language)),
		zap.Int("hits", len(rc.Results)),
		zap.Int64("ms", st.RetrieveMs))
	return st, nil
}

func (s *Service) composeNode(ctx context.Context, st *qaState, _ ...any) (*qaState, error) {
	if st.Err != nil {
		return st, nil
	}
	msgs, err := prompt.Compose(ctx, st.Route.Prompts.QA, st.Context.Texts(), st.Req.Question)
	if err != nil {
		st.Err = err
		return st, nil
	}
	st.Messages = msgs
	return st, nil
}

func (s *Service) generateNode(ctx context.Context, st *qaState, _ ...any) (*qaState, error) {
	if st.Err != nil {
		return st, nil
	}
	start := time.Now()
	answer, err := s.generator.Generate(ctx, st.Messages, s.temperature)
	st.GenerateMs = time.Since(start).Milliseconds()
	if err != nil {
		st.Err = err
		return st, nil
	}
	st.Answer = answer
	return st, nil
}

func (s *Service) resultNode(_ context.Context, st *qaState, _ ...any) (*AnswerResult, error) {
	res := &AnswerResult{
		QueryID:  st.QueryID,
		Language: st.Route.Language,
		Answer:   st.Answer,
		Context:  st.Context,
		Err:      st.Err,
	}
	fields := []zap.Field{
		zap.String("query_id", st.QueryID),
		zap.String("language", string(st.Route.Language)),
		zap.Int64("retrieve_ms", st.RetrieveMs),
		zap.Int64("generate_ms", st.GenerateMs),
		zap.Int64("ms", time.Since(st.Start).Milliseconds()),
	}
	if st.Err != nil {
		zlog.Warn("answer failed", append(fields, zap.Error(st.Err))...)
		return res, nil
	}
	zlog.Info("answer done", fields...)
	return res, nil
}
