package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ayutada/bluesky-analyzer/internal/domain"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1000, cfg.Chunker.WindowSize)
	assert.Equal(t, 200, cfg.Chunker.Overlap)
	assert.Equal(t, 4, cfg.Retrieval.TopK)
	assert.Equal(t, float32(0), cfg.Generation.Temperature)
	assert.Equal(t, []string{"cn", "en", "jp"}, cfg.Languages.Supported)
	assert.Equal(t, "cn", cfg.DefaultLanguage())
	assert.Equal(t, "hashing", cfg.Embedder.Provider)
	assert.Equal(t, 512, cfg.Embedder.Dimensions)
	assert.Equal(t, 0, cfg.Embedder.RetryTimes)
	assert.Equal(t, filepath.Join("rag_index", "en.db"), cfg.IndexPath("en"))
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("Missing file returns defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, 1000, cfg.Chunker.WindowSize)
	})

	t.Run("Partial file is completed with defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
languages:
  supported: [en, jp]
  default: jp
chunker:
  window_size: 500
  overlap: 50
embedder:
  provider: openai
`), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 500, cfg.Chunker.WindowSize)
		assert.Equal(t, 50, cfg.Chunker.Overlap)
		assert.Equal(t, "jp", cfg.DefaultLanguage())
		assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.APIKeyEnv)
		assert.Equal(t, "text-embedding-3-small", cfg.Embedder.Model)
		assert.Equal(t, 4, cfg.Retrieval.TopK)
	})

	t.Run("Invalid overlap is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("chunker:\n  window_size: 100\n  overlap: 100\n"), 0o644))
		_, err := Load(path)
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})

	t.Run("Malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("chunker: [oops"), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Retrieval.TopK = 7
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"zero window", func(c *AppConfig) { c.Chunker.WindowSize = 0 }},
		{"negative overlap", func(c *AppConfig) { c.Chunker.Overlap = -1 }},
		{"overlap above window", func(c *AppConfig) { c.Chunker.Overlap = 2000 }},
		{"zero top_k", func(c *AppConfig) { c.Retrieval.TopK = 0 }},
		{"temperature too high", func(c *AppConfig) { c.Generation.Temperature = 2.5 }},
		{"no languages", func(c *AppConfig) { c.Languages.Supported = nil }},
		{"duplicate language", func(c *AppConfig) { c.Languages.Supported = []string{"en", "en"} }},
		{"unsupported default", func(c *AppConfig) { c.Languages.Default = "fr" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), domain.ErrInvalidConfig)
		})
	}
}
