package main

import (
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/framebox/internal/supervisor"
)

var descriptorFormat string

func init() {
	descriptorCmd.Flags().StringVarP(&descriptorFormat, "format", "f", supervisor.FormatJSON, "output format: json or yaml")
	rootCmd.AddCommand(descriptorCmd)
}

var descriptorCmd = &cobra.Command{
	Use:   "descriptor",
	Short: "Print the process-manager descriptor for the server",
	Long: `Print a pm2-compatible descriptor that launches the framebox server.

PORT, HOST and DATA_DIR are taken from the environment when set.

Examples:
  framebox descriptor > ecosystem.config.json
  PORT=9000 framebox descriptor --format yaml`,
	Annotations: map[string]string{offline: "true"},
	Args:        cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out, err := supervisor.Backend(nil).Render(descriptorFormat)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}
