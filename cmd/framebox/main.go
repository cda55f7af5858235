// Package main implements the framebox CLI: an interactive terminal UI and
// one-shot commands for managing projects on a framebox hosting server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/framebox/internal/config"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var (
	// serverURL overrides server.url from the config file
	serverURL string
	// configPath is the config file to load; empty means the default path
	configPath string
)

// Command annotations.
const (
	// offline marks commands that never talk to the server.
	offline = "offline"
	// interactive marks commands that take over the terminal.
	interactive = "interactive"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "framebox",
	Short: "Manage projects on a framebox hosting server",
	Long: `framebox manages static web projects on a framebox hosting server.

Run without a subcommand to open the interactive terminal UI.

Examples:
  # Open the UI against a local server
  framebox

  # List projects on another server
  framebox projects list --server http://frames.local:8001

  # Upload a built site and keep it in sync
  framebox upload Ab3xYz ./dist --watch`,
	Version:           version,
	SilenceUsage:      true,
	Annotations:       map[string]string{interactive: "true"},
	PersistentPreRunE: setupRuntime,
	RunE:              runUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", config.DefaultServerURL, "framebox server URL")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/framebox/config.yaml)")

	rootCmd.AddCommand(versionCmd)

	cobra.OnFinalize(closeRuntime)
}

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Show version information",
	Annotations: map[string]string{offline: "true"},
	Args:        cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "framebox by Fyrsmith Labs\n")
		fmt.Fprintf(out, "Version:    %s\n", version)
		fmt.Fprintf(out, "Commit:     %s\n", gitCommit)
		fmt.Fprintf(out, "Build Date: %s\n", buildDate)
		return nil
	},
}
