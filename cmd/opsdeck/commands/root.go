// Package commands defines the opsdeck CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "opsdeck",
	Short: "OpsDeck - incident management console with a RAG assistant",
	Long: `OpsDeck is an integrated platform environment console: an incident
management API with automated analysis, allow-listed remediation actions
and a retrieval-augmented chat assistant over operational runbooks.`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the YAML configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(kbCmd)
	rootCmd.AddCommand(versionCmd)
}
