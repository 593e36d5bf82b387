package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Ayutada/bluesky-analyzer/internal/domain"
)

// CapabilityConfig holds the shared knobs for a remote model capability.
type CapabilityConfig struct {
	Provider          string  `yaml:"provider"`
	Model             string  `yaml:"model"`
	BaseURL           string  `yaml:"base_url,omitempty"`
	APIKeyEnv         string  `yaml:"api_key_env,omitempty"`
	TimeoutSecs       int     `yaml:"timeout_secs"`
	RetryTimes        int     `yaml:"retry_times"`
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`
	Burst             int     `yaml:"burst,omitempty"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	CapabilityConfig `yaml:",inline"`
	Dimensions       int    `yaml:"dimensions"`
	BatchSize        int    `yaml:"batch_size"`
	ModelDir         string `yaml:"model_dir,omitempty"`
}

// ChatModelConfig selects and configures the generation capability.
type ChatModelConfig struct {
	CapabilityConfig `yaml:",inline"`
	Region           string `yaml:"region,omitempty"`
	AccessKeyEnv     string `yaml:"access_key_env,omitempty"`
	SecretKeyEnv     string `yaml:"secret_key_env,omitempty"`
	ByAzure          bool   `yaml:"by_azure,omitempty"`
	APIVersion       string `yaml:"api_version,omitempty"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	WindowSize int `yaml:"window_size"`
	Overlap    int `yaml:"overlap"`
}

// RetrievalConfig configures top-k search.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// GenerationConfig configures Q&A generation.
type GenerationConfig struct {
	Temperature float32 `yaml:"temperature"`
}

// ExtractionConfig configures structured profile extraction.
type ExtractionConfig struct {
	DescriptionMaxRunes int `yaml:"description_max_runes"`
}

// LanguagesConfig lists supported corpus languages.
type LanguagesConfig struct {
	Supported []string `yaml:"supported"`
	Default   string   `yaml:"default,omitempty"`
}

// CorpusConfig points at the reference documents.
type CorpusConfig struct {
	Root string `yaml:"root"`
}

// IndexConfig points at the persisted indexes.
type IndexConfig struct {
	Dir string `yaml:"dir"`
}

// RedisConfig enables the profile cache when Addr is set.
type RedisConfig struct {
	Addr        string `yaml:"addr,omitempty"`
	PasswordEnv string `yaml:"password_env,omitempty"`
	DB          int    `yaml:"db"`
	TTLSecs     int    `yaml:"ttl_secs"`
}

// CacheConfig wraps optional caches.
type CacheConfig struct {
	Redis RedisConfig `yaml:"redis"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// SummarizerConfig configures the corpus digest.
type SummarizerConfig struct {
	MaxSentences int `yaml:"max_sentences"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Languages  LanguagesConfig  `yaml:"languages"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Index      IndexConfig      `yaml:"index"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Generation GenerationConfig `yaml:"generation"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	ChatModel  ChatModelConfig  `yaml:"chat_model"`
	Cache      CacheConfig      `yaml:"cache"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Log        LogConfig        `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/mbti-rag/config.yaml.
// If neither exists, it writes defaults to ~/.config/mbti-rag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "mbti-rag", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

// DefaultLanguage returns the configured default or the first supported language.
func (c *AppConfig) DefaultLanguage() string {
	if c.Languages.Default != "" {
		return c.Languages.Default
	}
	if len(c.Languages.Supported) > 0 {
		return c.Languages.Supported[0]
	}
	return ""
}

// IndexPath returns the persisted index file for a language.
func (c *AppConfig) IndexPath(lang string) string {
	return filepath.Join(c.Index.Dir, lang+".db")
}

// Validate rejects out-of-range settings.
func (c *AppConfig) Validate() error {
	if c.Chunker.WindowSize <= 0 {
		return fmt.Errorf("%w: chunker.window_size must be positive", domain.ErrInvalidConfig)
	}
	if c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.WindowSize {
		return fmt.Errorf("%w: chunker.overlap must be in [0, window_size)", domain.ErrInvalidConfig)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: retrieval.top_k must be positive", domain.ErrInvalidConfig)
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return fmt.Errorf("%w: generation.temperature must be in [0, 2]", domain.ErrInvalidConfig)
	}
	if len(c.Languages.Supported) == 0 {
		return fmt.Errorf("%w: languages.supported is empty", domain.ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(c.Languages.Supported))
	for _, l := range c.Languages.Supported {
		if l == "" {
			return fmt.Errorf("%w: empty language code", domain.ErrInvalidConfig)
		}
		if seen[l] {
			return fmt.Errorf("%w: duplicate language %q", domain.ErrInvalidConfig, l)
		}
		seen[l] = true
	}
	if c.Languages.Default != "" && !seen[c.Languages.Default] {
		return fmt.Errorf("%w: default language %q is not supported", domain.ErrInvalidConfig, c.Languages.Default)
	}
	if c.Embedder.Dimensions < 0 {
		return fmt.Errorf("%w: embedder.dimensions must not be negative", domain.ErrInvalidConfig)
	}
	return nil
}

// applyConfigDefaults fills zero values. Temperature and retry count default to zero
// and so need no entry here.
func applyConfigDefaults(cfg *AppConfig) {
	if len(cfg.Languages.Supported) == 0 {
		cfg.Languages.Supported = []string{"cn", "en", "jp"}
	}
	if cfg.Corpus.Root == "" {
		cfg.Corpus.Root = "./rag_docs"
	}
	if cfg.Index.Dir == "" {
		cfg.Index.Dir = "./rag_index"
	}
	if cfg.Chunker.WindowSize == 0 {
		cfg.Chunker.WindowSize = 1000
		if cfg.Chunker.Overlap == 0 {
			cfg.Chunker.Overlap = 200
		}
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 4
	}
	if cfg.Extraction.DescriptionMaxRunes == 0 {
		cfg.Extraction.DescriptionMaxRunes = 2000
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 3
	}
	if cfg.Cache.Redis.TTLSecs == 0 {
		cfg.Cache.Redis.TTLSecs = 1800
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 50
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 3
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = 28
	}

	applyEmbedderDefaults(&cfg.Embedder)
	applyChatModelDefaults(&cfg.ChatModel)
}

func applyEmbedderDefaults(e *EmbedderConfig) {
	if e.Provider == "" {
		e.Provider = "hashing"
	}
	if e.TimeoutSecs == 0 {
		e.TimeoutSecs = 30
	}
	if e.BatchSize == 0 {
		e.BatchSize = 32
	}
	switch e.Provider {
	case "hashing":
		if e.Dimensions == 0 {
			e.Dimensions = 512
		}
	case "openai":
		if e.BaseURL == "" {
			e.BaseURL = "https://api.openai.com/v1"
		}
		if e.APIKeyEnv == "" {
			e.APIKeyEnv = "OPENAI_API_KEY"
		}
		if e.Model == "" {
			e.Model = "text-embedding-3-small"
		}
	case "ark":
		if e.APIKeyEnv == "" {
			e.APIKeyEnv = "ARK_API_KEY"
		}
	case "dashscope":
		if e.APIKeyEnv == "" {
			e.APIKeyEnv = "DASHSCOPE_API_KEY"
		}
		if e.Model == "" {
			e.Model = "text-embedding-v3"
		}
	case "hugot":
		if e.Model == "" {
			e.Model = "sentence-transformers/all-MiniLM-L6-v2"
		}
		if e.ModelDir == "" {
			e.ModelDir = "./models"
		}
	}
}

func applyChatModelDefaults(m *ChatModelConfig) {
	if m.Provider == "" {
		m.Provider = "openai"
	}
	if m.TimeoutSecs == 0 {
		m.TimeoutSecs = 60
	}
	switch m.Provider {
	case "openai":
		if m.APIKeyEnv == "" {
			m.APIKeyEnv = "OPENAI_API_KEY"
		}
		if m.Model == "" {
			m.Model = "gpt-4o-mini"
		}
	case "ark":
		if m.APIKeyEnv == "" {
			m.APIKeyEnv = "ARK_API_KEY"
		}
		if m.AccessKeyEnv == "" {
			m.AccessKeyEnv = "ARK_ACCESS_KEY"
		}
		if m.SecretKeyEnv == "" {
			m.SecretKeyEnv = "ARK_SECRET_KEY"
		}
	}
}
