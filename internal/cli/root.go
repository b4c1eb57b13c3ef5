// Package cli implements the chlog command line: recording changes into the
// pending pool, cutting releases, and viewing or rendering the history.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/chlog/internal/app"
	clierrors "github.com/ariel-frischer/chlog/internal/errors"
	"github.com/ariel-frischer/chlog/internal/output"
	"github.com/ariel-frischer/chlog/internal/workspace"
)

// Command group IDs shown in help output.
const (
	GroupChanges       = "changes"
	GroupReleases      = "releases"
	GroupConfiguration = "configuration"
)

var rootCmd = &cobra.Command{
	Use:   "chlog",
	Short: "Structured changelog: record changes, cut releases",
	Long: `chlog records each change as a small JSON file in a pending pool and
later bundles the whole pool into an immutable release artifact named after
its version, e.g. .changelog/1.3.0.json.

The current version is always derived from the release artifacts on disk.`,
	Example: `  # Record a change
  chlog add --bump minor --category Application --type new --message "Dark mode"

  # Review the pending pool
  chlog pending

  # Cut a minor release from everything pending
  chlog release minor

  # Write CHANGELOG.md
  chlog render -o CHANGELOG.md`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			errOut := cmd.ErrOrStderr()
			workspace.SetDebugLogger(func(format string, args ...any) {
				fmt.Fprintf(errOut, "[DEBUG] "+format+"\n", args...)
			})
		}
	},
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupChanges, Title: "Changes:"},
		&cobra.Group{ID: GroupReleases, Title: "Releases:"},
		&cobra.Group{ID: GroupConfiguration, Title: "Configuration:"},
	)

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to an extra config file layered over the project config")
	rootCmd.PersistentFlags().StringP("dir", "C", "", "Start project root discovery here (default: current directory)")
	rootCmd.PersistentFlags().Bool("plain", false, "Plain output (no colors/icons)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return clierrors.NewArgumentErrorWithUsage(err.Error(), cmd.UseLine())
	})
}

// Execute runs the root command and reports any error on stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		reportError(rootCmd, err)
	}
	return err
}

// reportError prints err unless it was already reported by the command.
func reportError(cmd *cobra.Command, err error) {
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return
	}
	plain, _ := cmd.PersistentFlags().GetBool("plain")
	clierrors.FprintError(cmd.ErrOrStderr(), clierrors.FromDomain(err), plain)
}

// loadApp resolves the components for cmd from the persistent flags.
func loadApp(cmd *cobra.Command) (*app.App, error) {
	dir, _ := cmd.Flags().GetString("dir")
	configPath, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	return app.Build(app.Options{
		Dir:        dir,
		ConfigPath: configPath,
		Debug:      debug,
		Stderr:     cmd.ErrOrStderr(),
	})
}

// printer returns a status printer for cmd's stdout.
func printer(cmd *cobra.Command) output.Printer {
	return output.Printer{Out: cmd.OutOrStdout(), Plain: plainOutput(cmd)}
}

// plainOutput reports whether cmd should avoid colors.
func plainOutput(cmd *cobra.Command) bool {
	plain, _ := cmd.Flags().GetBool("plain")
	return output.UsePlain(cmd.OutOrStdout(), plain)
}

// argsWithUsage turns positional argument errors into argument errors that
// carry the command's usage line.
func argsWithUsage(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return clierrors.NewArgumentErrorWithUsage(err.Error(), cmd.UseLine())
		}
		return nil
	}
}
