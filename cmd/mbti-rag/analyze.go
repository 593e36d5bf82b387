package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Ayutada/bluesky-analyzer/internal/domain"
)

var (
	analyzeLang string
	analyzeFile string
	analyzeJSON bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [text]",
	Short: "Extract an MBTI personality profile from free text",
	Long: `Infers an MBTI type, a representative animal and a description from the
given text. Text comes from the arguments, or from --file (use - for stdin).`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeLang, "lang", "l", "", "output language (default from config)")
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "read text from a file, - for stdin")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "output the profile as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	text, err := analyzeInput(cmd, args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := bootstrap(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	lang := analyzeLang
	if lang == "" {
		lang = cfg.DefaultLanguage()
	}
	p := a.svc.Analyze(ctx, text, lang)
	if analyzeJSON {
		return outputProfileJSON(cmd, p)
	}
	outputProfile(cmd, p)
	return nil
}

func analyzeInput(cmd *cobra.Command, args []string) (string, error) {
	switch {
	case analyzeFile == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	case analyzeFile != "":
		data, err := os.ReadFile(analyzeFile)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", analyzeFile, err)
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	default:
		return "", errors.New("no text given: pass it as arguments or with --file")
	}
}

func outputProfileJSON(cmd *cobra.Command, p domain.PersonalityProfile) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputProfile(cmd *cobra.Command, p domain.PersonalityProfile) {
	label := color.New(color.Bold).SprintFunc()
	cmd.Printf("%s %s\n", label("MBTI:  "), color.CyanString(p.MBTI))
	cmd.Printf("%s %s\n", label("Animal:"), color.YellowString(p.Animal))
	cmd.Println()
	cmd.Println(p.Description)
}
