package main

import (
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/framebox/internal/app"
	"github.com/fyrsmithlabs/framebox/internal/tui"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive terminal UI",
	Long: `Open the interactive terminal UI.

Projects are shown as cards. Select one with the arrow keys, then:
  u  upload files        p  preview         e  embed code
  f  list files          d  delete          n  new project
  /  search              r  reload          q  quit

Dragging files from a file manager into the terminal pastes their paths,
which uploads them to the selected project.`,
	Annotations: map[string]string{interactive: "true"},
	Args:        cobra.NoArgs,
	RunE:        runUI,
}

func init() {
	rootCmd.AddCommand(uiCmd)
}

func runUI(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	exec := app.NewExecutor(rt.client, app.WithExecutorLogger(rt.logger))
	m := tui.NewModel(ctx, exec, rt.cfg.Server.URL, rt.cfg.UI.ToastDuration.Duration())
	return tui.Run(ctx, m)
}
