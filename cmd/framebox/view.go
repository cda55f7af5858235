package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/framebox/internal/app"
	"github.com/fyrsmithlabs/framebox/internal/tui"
)

var embedCopy bool

func init() {
	embedCmd.Flags().BoolVarP(&embedCopy, "copy", "c", false, "also copy the code to the clipboard")

	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(embedCmd)
	rootCmd.AddCommand(serverInfoCmd)
	rootCmd.AddCommand(healthCmd)
}

var previewCmd = &cobra.Command{
	Use:   "preview ID_OR_NAME",
	Short: "Fetch a project's entry page",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

var embedCmd = &cobra.Command{
	Use:   "embed ID_OR_NAME",
	Short: "Print the iframe embed code of a project",
	Long: `Print the iframe embed code of a project.

When the server is reached through localhost, the address the server
suggests for other machines is used instead, so the code works when pasted
elsewhere.`,
	Args: cobra.ExactArgs(1),
	RunE: runEmbed,
}

var serverInfoCmd = &cobra.Command{
	Use:   "server-info",
	Short: "Show the address the server advertises",
	Args:  cobra.NoArgs,
	RunE:  runServerInfo,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check framebox server health",
	Long: `Check the health status of the framebox server.

Examples:
  # Check health
  framebox health

  # Check health on a different server
  framebox health --server http://localhost:8080`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func runPreview(cmd *cobra.Command, args []string) error {
	v, err := rt.client.View(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to load preview: %w", err)
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "URL:\t%s\n", v.URL)
	fmt.Fprintf(w, "Status:\t%d\n", v.Status)
	fmt.Fprintf(w, "Type:\t%s\n", v.ContentType)
	fmt.Fprintf(w, "Size:\t%s\n", tui.FormatSize(v.Size))
	if err := w.Flush(); err != nil {
		return err
	}
	if v.Excerpt != "" {
		fmt.Fprintf(out, "\n%s\n", v.Excerpt)
	}
	return nil
}

func runEmbed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := rt.client.GetProject(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get project: %w", err)
	}

	info, err := rt.client.ServerInfo(ctx)
	if err != nil {
		rt.logger.Warn(ctx, "failed to fetch server info", zap.Error(err))
		info = nil
	}
	code := app.EmbedCode(app.EmbedBase(rt.cfg.Server.URL, info), p.Name)
	fmt.Fprintln(cmd.OutOrStdout(), code)

	if embedCopy {
		if err := (app.SystemClipboard{}).WriteAll(code); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), app.MsgCopied)
	}
	return nil
}

func runServerInfo(cmd *cobra.Command, _ []string) error {
	info, err := rt.client.ServerInfo(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get server info: %w", err)
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Host:\t%s\n", info.Host)
	fmt.Fprintf(w, "Port:\t%d\n", info.Port)
	fmt.Fprintf(w, "Local IP:\t%s\n", info.LocalIP)
	fmt.Fprintf(w, "Suggested URL:\t%s\n", info.SuggestedURL)
	return w.Flush()
}

func runHealth(cmd *cobra.Command, _ []string) error {
	h, err := rt.client.Health(cmd.Context())
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Server: %s\nStatus: %s\nUptime: %s\n",
		rt.cfg.Server.URL, h.Status, tui.FormatUptime(h.UptimeDuration()))
	return nil
}
