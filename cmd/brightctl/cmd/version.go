package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/brightminds/pkg/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit, and build time of brightctl.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if isJSON() {
			return printJSON(config.GetBuildInfo())
		}
		fmt.Println(config.VersionString("brightctl"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
