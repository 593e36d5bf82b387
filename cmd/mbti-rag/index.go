package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Ayutada/bluesky-analyzer/internal/domain"
	"github.com/Ayutada/bluesky-analyzer/internal/service"
)

var (
	indexRebuild bool
	indexLangs   []string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or load the per-language indexes",
	Long: `Loads each language's persisted index, building it from the corpus when it
is missing or unreadable. With --rebuild every index is rebuilt from scratch.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexRebuild, "rebuild", false, "ignore persisted indexes and rebuild from the corpus")
	indexCmd.Flags().StringSliceVar(&indexLangs, "lang", nil, "languages to index (default: all supported)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a := &app{}
	if err := newIndexer(ctx, cfg, a); err != nil {
		return err
	}
	defer a.Close()

	langs := a.langs
	if len(indexLangs) > 0 {
		langs = langs[:0:0]
		for _, l := range indexLangs {
			langs = append(langs, domain.Language(strings.ToLower(strings.TrimSpace(l))))
		}
	}

	var reports []service.IndexReport
	if indexRebuild {
		reports = a.indexer.Rebuild(ctx, langs)
	} else {
		reports = a.indexer.Ensure(ctx, langs)
	}

	failed := 0
	for _, r := range reports {
		if r.Err != nil {
			failed++
			cmd.Printf("%s %s: %v\n", color.RedString("✗"), r.Language, r.Err)
			continue
		}
		cmd.Printf("%s %s: %s %d documents, %d chunks in %s (%s)\n",
			color.GreenString("✓"), r.Language, r.Source, r.Documents, r.Chunks, r.Duration.Round(time.Millisecond), r.Path)
		if r.Digest != "" {
			cmd.Printf("    %s\n", color.HiBlackString(r.Digest))
		}
	}
	if failed == len(reports) && failed > 0 {
		return fmt.Errorf("no index available")
	}
	return nil
}
