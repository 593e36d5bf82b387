package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var askLang string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one MBTI question from the reference corpus",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askLang, "lang", "l", "", "answer language (default from config)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := bootstrap(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	lang := askLang
	if lang == "" {
		lang = cfg.DefaultLanguage()
	}
	cmd.Println(a.svc.Reply(ctx, strings.Join(args, " "), lang))
	return nil
}
