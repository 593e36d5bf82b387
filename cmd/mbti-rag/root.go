package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Ayutada/bluesky-analyzer/internal/config"
	"github.com/Ayutada/bluesky-analyzer/internal/zlog"
)

var (
	cfgPath string
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "mbti-rag",
	Short: "MBTI knowledge assistant and personality profiler",
	Long: `Answers MBTI questions from a per-language reference corpus and extracts
structured personality profiles from free text.

Without a subcommand an interactive chat session starts.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) { _ = zlog.Sync() },
	RunE:              runChat,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config (default ./config.yaml, then ~/.config/mbti-rag/config.yaml)")
}

func setup(*cobra.Command, []string) error {
	_ = godotenv.Load()

	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	return zlog.Init(zlog.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
}
