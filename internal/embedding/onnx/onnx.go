// Package onnx runs a sentence-transformer model locally through hugot's pure
// Go backend, so embeddings work without a remote provider.
package onnx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/knights-analytics/hugot"
)

// Embedder wraps a hugot feature-extraction pipeline.
type Embedder struct {
	mu      sync.Mutex
	run     func([]string) ([][]float32, error)
	destroy func() error
}

// PrepareModel downloads modelName into modelDir unless it is already present
// and returns the local model path.
func PrepareModel(modelName, modelDir string) (string, error) {
	modelPath := filepath.Join(modelDir, strings.ReplaceAll(modelName, "/", "_"))
	if _, err := os.Stat(modelPath); err == nil {
		return modelPath, nil
	} else if !os.IsNotExist(err) {
		return "", err
	}
	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create model directory: %w", err)
	}
	downloadOptions := hugot.NewDownloadOptions()
	downloadOptions.OnnxFilePath = "onnx/model.onnx"
	downloadedPath, err := hugot.DownloadModel(modelName, modelDir, downloadOptions)
	if err != nil {
		return "", fmt.Errorf("failed to download model: %w", err)
	}
	return downloadedPath, nil
}

// NewEmbedder loads the model at modelPath into a Go-backend session.
func NewEmbedder(modelPath string) (*Embedder, error) {
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}
	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "mbti-rag-embedder",
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create embedding pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create embedding pipeline: %w", err)
	}
	return &Embedder{
		run: func(texts []string) ([][]float32, error) {
			result, err := pipeline.RunPipeline(texts)
			if err != nil {
				return nil, err
			}
			return result.Embeddings, nil
		},
		destroy: session.Destroy,
	}, nil
}

// EmbedStrings embeds texts in one pipeline run.
func (e *Embedder) EmbedStrings(ctx context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, nil
	}
	// hugot sessions are not safe for concurrent runs
	e.mu.Lock()
	raw, err := e.run(texts)
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(raw) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(raw))
	}
	out := make([][]float64, len(raw))
	for i, v := range raw {
		out[i] = make([]float64, len(v))
		for j, f := range v {
			out[i][j] = float64(f)
		}
	}
	return out, nil
}

// Close releases the hugot session.
func (e *Embedder) Close() error {
	if e.destroy == nil {
		return nil
	}
	return e.destroy()
}

var _ embedding.Embedder = (*Embedder)(nil)
