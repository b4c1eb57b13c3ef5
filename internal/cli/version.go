package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/chlog/internal/version"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Display version information (v)",
	Long:    "Display version, commit, build date, and Go version information for chlog",
	Args:    argsWithUsage(cobra.NoArgs),
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		if plainOutput(cmd) {
			fmt.Fprintf(out, "chlog %s\n", version.Version)
			for _, info := range version.Details()[1:] {
				fmt.Fprintf(out, "%s: %s\n", info.Label, info.Value)
			}
			return
		}

		label := color.New(color.FgYellow).SprintFunc()
		value := color.New(color.FgWhite, color.Bold).SprintFunc()
		for _, info := range version.Details() {
			fmt.Fprintf(out, "  %s    %s\n", label(fmt.Sprintf("%10s", info.Label)), value(info.Value))
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
