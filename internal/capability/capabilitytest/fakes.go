// Package capabilitytest provides deterministic stand-ins for the embedding
// and chat model capabilities.
package capabilitytest

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ErrScripted is returned by fakes configured to fail.
var ErrScripted = errors.New("scripted failure")

// Embedder returns canned vectors. Texts missing from Vectors fall back to Func,
// then to a constant vector of length Dim.
type Embedder struct {
	Dim     int
	Vectors map[string][]float64
	Func    func(text string) []float64
	Err     error

	mu    sync.Mutex
	calls [][]string
}

// EmbedStrings implements embedding.Embedder.
func (e *Embedder) EmbedStrings(ctx context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	e.mu.Lock()
	e.calls = append(e.calls, append([]string(nil), texts...))
	e.mu.Unlock()
	if e.Err != nil {
		return nil, e.Err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		switch {
		case e.Vectors[t] != nil:
			out[i] = e.Vectors[t]
		case e.Func != nil:
			out[i] = e.Func(t)
		default:
			v := make([]float64, max(e.Dim, 1))
			for j := range v {
				v[j] = 0.1
			}
			out[i] = v
		}
	}
	return out, nil
}

// Calls returns the batches seen so far.
func (e *Embedder) Calls() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]string(nil), e.calls...)
}

// ChatModel replies with Replies in order, repeating the last one.
type ChatModel struct {
	Replies []string
	Err     error
	Block   bool

	mu           sync.Mutex
	calls        int
	inputs       [][]*schema.Message
	temperatures []*float32
}

// Generate implements model.BaseChatModel.
func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	idx := m.calls
	m.calls++
	m.inputs = append(m.inputs, input)
	m.temperatures = append(m.temperatures, model.GetCommonOptions(nil, opts...).Temperature)
	m.mu.Unlock()

	if m.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.Err != nil {
		return nil, m.Err
	}
	reply := ""
	if len(m.Replies) > 0 {
		reply = m.Replies[min(idx, len(m.Replies)-1)]
	}
	return schema.AssistantMessage(reply, nil), nil
}

// Stream implements model.BaseChatModel with a single-chunk stream.
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// Calls returns how many times Generate ran.
func (m *ChatModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastInput returns the messages of the latest call.
func (m *ChatModel) LastInput() []*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.inputs) == 0 {
		return nil
	}
	return m.inputs[len(m.inputs)-1]
}

// LastTemperature returns the temperature option of the latest call, if any.
func (m *ChatModel) LastTemperature() *float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.temperatures) == 0 {
		return nil
	}
	return m.temperatures[len(m.temperatures)-1]
}

var (
	_ embedding.Embedder  = (*Embedder)(nil)
	_ model.BaseChatModel = (*ChatModel)(nil)
)
