// Package llm builds the configured chat model.
package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	arkModel "github.com/cloudwego/eino-ext/components/model/ark"
	openaiModel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/Ayutada/bluesky-analyzer/internal/config"
)

// ChatModelMeta describes the constructed chat model.
type ChatModelMeta struct {
	Provider string
	Model    string
}

// NewChatModelFromConfig constructs the chat model named by conf.Provider.
// Retries are left to the capability guard, so provider-level retries are off.
func NewChatModelFromConfig(ctx context.Context, conf config.ChatModelConfig) (model.BaseChatModel, ChatModelMeta, error) {
	provider := strings.ToLower(strings.TrimSpace(conf.Provider))
	modelName := strings.TrimSpace(conf.Model)

	timeout := 2 * time.Minute
	if conf.TimeoutSecs > 0 {
		timeout = time.Duration(conf.TimeoutSecs) * time.Second
	}

	switch provider {
	case "", "disabled", "none":
		return nil, ChatModelMeta{}, fmt.Errorf("chat model provider not configured")

	case "openai":
		apiKey := strings.TrimSpace(os.Getenv(conf.APIKeyEnv))
		if apiKey == "" || modelName == "" {
			return nil, ChatModelMeta{}, fmt.Errorf("openai chat model missing apiKey/model (env %s)", conf.APIKeyEnv)
		}
		cm, err := openaiModel.NewChatModel(ctx, &openaiModel.ChatModelConfig{
			APIKey:     apiKey,
			Model:      modelName,
			BaseURL:    strings.TrimSpace(conf.BaseURL),
			ByAzure:    conf.ByAzure,
			APIVersion: strings.TrimSpace(conf.APIVersion),
			Timeout:    timeout,
		})
		if err != nil {
			return nil, ChatModelMeta{}, err
		}
		return cm, ChatModelMeta{Provider: "openai", Model: modelName}, nil

	case "ark":
		apiKey := strings.TrimSpace(os.Getenv(conf.APIKeyEnv))
		accessKey := strings.TrimSpace(os.Getenv(conf.AccessKeyEnv))
		secretKey := strings.TrimSpace(os.Getenv(conf.SecretKeyEnv))
		if apiKey == "" && (accessKey == "" || secretKey == "") {
			return nil, ChatModelMeta{}, fmt.Errorf("ark chat model missing apiKey or accessKey/secretKey")
		}
		if modelName == "" {
			return nil, ChatModelMeta{}, fmt.Errorf("ark chat model missing model")
		}
		retryTimes := 0
		cm, err := arkModel.NewChatModel(ctx, &arkModel.ChatModelConfig{
			APIKey:     apiKey,
			AccessKey:  accessKey,
			SecretKey:  secretKey,
			Model:      modelName,
			BaseURL:    strings.TrimSpace(conf.BaseURL),
			Region:     strings.TrimSpace(conf.Region),
			Timeout:    &timeout,
			RetryTimes: &retryTimes,
		})
		if err != nil {
			return nil, ChatModelMeta{}, err
		}
		return cm, ChatModelMeta{Provider: "ark", Model: modelName}, nil

	default:
		return nil, ChatModelMeta{}, fmt.Errorf("unknown chat model provider: %s", provider)
	}
}
