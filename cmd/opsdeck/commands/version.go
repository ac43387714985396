package commands

import (
	"fmt"

	"github.com/opsdeck/opsdeck/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("opsdeck %s (commit %s, built %s)\n",
			version.Version, version.GitCommit, version.BuildDate)
	},
}
