// Package embedding builds the configured embedding capability.
package embedding

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	arkEmbed "github.com/cloudwego/eino-ext/components/embedding/ark"
	dashscopeEmbed "github.com/cloudwego/eino-ext/components/embedding/dashscope"
	openaIEmbed "github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino/components/embedding"

	"github.com/Ayutada/bluesky-analyzer/internal/config"
	"github.com/Ayutada/bluesky-analyzer/internal/embedding/hashing"
	"github.com/Ayutada/bluesky-analyzer/internal/embedding/onnx"
)

// EmbedderMeta describes the constructed embedder.
type EmbedderMeta struct {
	Provider string
	Model    string
	Dim      int
}

// NewEmbedderFromConfig constructs the embedder named by conf.Provider.
func NewEmbedderFromConfig(ctx context.Context, conf config.EmbedderConfig) (embedding.Embedder, EmbedderMeta, error) {
	provider := strings.ToLower(strings.TrimSpace(conf.Provider))
	model := strings.TrimSpace(conf.Model)
	dim := conf.Dimensions

	switch provider {
	case "", "hashing":
		em, err := hashing.NewEmbedder(dim)
		if err != nil {
			return nil, EmbedderMeta{}, err
		}
		return em, EmbedderMeta{Provider: "hashing", Model: "hashing", Dim: em.Dimension()}, nil

	case "openai":
		apiKey := strings.TrimSpace(os.Getenv(conf.APIKeyEnv))
		if apiKey == "" || model == "" {
			return nil, EmbedderMeta{}, fmt.Errorf("openai embedding missing apiKey/model (env %s)", conf.APIKeyEnv)
		}
		cfg := &openaIEmbed.EmbeddingConfig{
			APIKey:  apiKey,
			Model:   model,
			BaseURL: strings.TrimSpace(conf.BaseURL),
			Timeout: timeout(conf.TimeoutSecs, 30*time.Second),
		}
		if dim > 0 {
			localDim := dim
			cfg.Dimensions = &localDim
		}
		em, err := openaIEmbed.NewEmbedder(ctx, cfg)
		if err != nil {
			return nil, EmbedderMeta{}, err
		}
		return em, EmbedderMeta{Provider: "openai", Model: model, Dim: dim}, nil

	case "ark":
		apiKey := strings.TrimSpace(os.Getenv(conf.APIKeyEnv))
		if apiKey == "" || model == "" {
			return nil, EmbedderMeta{}, fmt.Errorf("ark embedding missing apiKey/model (env %s)", conf.APIKeyEnv)
		}
		em, err := arkEmbed.NewEmbedder(ctx, &arkEmbed.EmbeddingConfig{
			APIKey:  apiKey,
			Model:   model,
			BaseURL: strings.TrimSpace(conf.BaseURL),
		})
		if err != nil {
			return nil, EmbedderMeta{}, err
		}
		return em, EmbedderMeta{Provider: "ark", Model: model, Dim: dim}, nil

	case "dashscope":
		apiKey := strings.TrimSpace(os.Getenv(conf.APIKeyEnv))
		if apiKey == "" || model == "" {
			return nil, EmbedderMeta{}, fmt.Errorf("dashscope embedding missing apiKey/model (env %s)", conf.APIKeyEnv)
		}
		cfg := &dashscopeEmbed.EmbeddingConfig{
			Model:  model,
			APIKey: apiKey,
		}
		if dim > 0 {
			localDim := dim
			cfg.Dimensions = &localDim
		}
		em, err := dashscopeEmbed.NewEmbedder(ctx, cfg)
		if err != nil {
			return nil, EmbedderMeta{}, err
		}
		return em, EmbedderMeta{Provider: "dashscope", Model: model, Dim: dim}, nil

	case "hugot", "onnx":
		modelPath, err := onnx.PrepareModel(model, conf.ModelDir)
		if err != nil {
			return nil, EmbedderMeta{}, err
		}
		em, err := onnx.NewEmbedder(modelPath)
		if err != nil {
			return nil, EmbedderMeta{}, err
		}
		return em, EmbedderMeta{Provider: "hugot", Model: model, Dim: dim}, nil

	default:
		return nil, EmbedderMeta{}, fmt.Errorf("unknown embedding provider: %s", provider)
	}
}

func timeout(secs int, fallback time.Duration) time.Duration {
	if secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
