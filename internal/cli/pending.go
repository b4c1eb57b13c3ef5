package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	clierrors "github.com/ariel-frischer/chlog/internal/errors"
	"github.com/ariel-frischer/chlog/internal/render"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List pending changes",
	Long: `List the changes waiting for the next release.

Unreadable files in the pool are skipped with a warning. Pending changes are
only removed by "chlog release", once the release artifact has been written.`,
	Example: `  chlog pending
  chlog pending --output jsonl | jq .message`,
	Args: argsWithUsage(cobra.NoArgs),
	RunE: runPending,
}

func init() {
	pendingCmd.GroupID = GroupChanges
	pendingCmd.Flags().StringP("output", "o", "table", "Output format: table or jsonl")
	rootCmd.AddCommand(pendingCmd)
}

func runPending(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("output")

	if format != "table" && format != "jsonl" {
		return clierrors.NewArgumentErrorWithUsage(
			fmt.Sprintf("unknown output format %q", format),
			cmd.UseLine(),
			"Use --output table or --output jsonl",
		)
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	entries, err := a.Store.ListEntries(cmd.Context())
	if err != nil {
		return err
	}

	if format == "jsonl" {
		return render.PendingJSONL(cmd.OutOrStdout(), entries)
	}
	render.PendingTable(cmd.OutOrStdout(), entries, time.Now())
	return nil
}
