package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	clierrors "github.com/ariel-frischer/chlog/internal/errors"
	"github.com/ariel-frischer/chlog/internal/record"
)

var addCmd = &cobra.Command{
	Use:   "add [message]",
	Short: "Record a change in the pending pool",
	Long: `Record a change in the pending pool.

A change has four fields: the version bump it calls for, a category, a type
(new, change, removed or fix) and a message. All four are required; an
incomplete change is rejected and nothing is written.

The message can be given with --message or as the single argument.`,
	Example: `  chlog add --bump minor --category Application --type new --message "Dark mode"
  chlog add -b patch -k Content -t fix "Fix typo on the about page"`,
	Args: argsWithUsage(cobra.MaximumNArgs(1)),
	RunE: runAdd,
}

func init() {
	addCmd.GroupID = GroupChanges
	addCmd.Flags().StringP("bump", "b", "", "Version bump this change calls for (major, minor, patch)")
	addCmd.Flags().StringP("category", "k", "", "Change category, e.g. Application")
	addCmd.Flags().StringP("type", "t", "", "Change type (new, change, removed, fix)")
	addCmd.Flags().StringP("message", "m", "", "Change description")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	change, err := changeFromFlags(cmd, args)
	if err != nil {
		return err
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	if err := record.Check(change, a.Config.CheckOptions()); err != nil {
		return clierrors.InvalidChange(err)
	}

	id, err := a.Store.Append(cmd.Context(), change)
	if err != nil {
		return err
	}

	a.Log.WithField("id", id).Debug("change recorded")
	printer(cmd).Success("%s", record.Format(change))
	fmt.Fprintf(cmd.OutOrStdout(), "  id: %s\n", id)
	return nil
}

func changeFromFlags(cmd *cobra.Command, args []string) (record.Change, error) {
	bump, _ := cmd.Flags().GetString("bump")
	category, _ := cmd.Flags().GetString("category")
	kind, _ := cmd.Flags().GetString("type")
	message, _ := cmd.Flags().GetString("message")

	if len(args) == 1 {
		if message != "" {
			return record.Change{}, clierrors.NewArgumentErrorWithUsage(
				"message given both as --message and as an argument",
				cmd.UseLine(),
				"Use only one of them",
			)
		}
		message = args[0]
	}

	return record.Change{
		VersionType: strings.ToLower(strings.TrimSpace(bump)),
		Category:    strings.TrimSpace(category),
		Type:        strings.TrimSpace(kind),
		Message:     strings.TrimSpace(message),
	}, nil
}
