package capability

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/Ayutada/bluesky-analyzer/internal/domain"
)

var errNoMessage = errors.New("chat model returned no message")

// Generator adapts an eino chat model to domain.Generator.
type Generator struct {
	inner model.BaseChatModel
	guard *Guard
}

// NewGenerator wraps inner.
func NewGenerator(inner model.BaseChatModel, guard *Guard) *Generator {
	if guard == nil {
		guard = NewGuard(GuardConfig{})
	}
	return &Generator{inner: inner, guard: guard}
}

// Generate returns the content of the model's reply.
func (g *Generator) Generate(ctx context.Context, messages []*schema.Message, temperature float32) (string, error) {
	resp, err := Run(ctx, g.guard, func(ctx context.Context) (*schema.Message, error) {
		return g.inner.Generate(ctx, messages, model.WithTemperature(temperature))
	})
	if err != nil {
		return "", &domain.GenerationFailure{Err: err}
	}
	if resp == nil {
		return "", &domain.GenerationFailure{Err: errNoMessage}
	}
	return resp.Content, nil
}

var _ domain.Generator = (*Generator)(nil)
