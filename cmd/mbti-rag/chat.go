package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Ayutada/bluesky-analyzer/internal/tui"
)

var chatLang string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive Q&A session",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatLang, "lang", "l", "", "starting language (default from config)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := bootstrap(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	r := a.svc.Router()
	start, fellBack := r.RouteOrDefault(chatLang)
	if chatLang != "" && fellBack {
		fail("unsupported language %q, using %s", chatLang, start.Language)
	}
	m := tui.New(ctx, a.svc, r.Languages(), start.Language, digests(a.reports))
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
