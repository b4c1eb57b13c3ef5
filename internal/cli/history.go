package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	clierrors "github.com/ariel-frischer/chlog/internal/errors"
	"github.com/ariel-frischer/chlog/internal/fsutil"
	"github.com/ariel-frischer/chlog/internal/record"
	"github.com/ariel-frischer/chlog/internal/render"
	"github.com/ariel-frischer/chlog/internal/tracker"
)

var currentCmd = &cobra.Command{
	Use:   "current",
	Short: "Print the current release version",
	Long: `Print the version the next release will be bumped from.

It is derived from the release artifacts on disk each time; with no releases
the baseline 0.0. is printed.`,
	Args: argsWithUsage(cobra.NoArgs),
	RunE: runCurrent,
}

var releasesCmd = &cobra.Command{
	Use:   "releases",
	Short: "List release versions",
	Long: `List every release artifact version in ascending order. The current
release is marked with "*".`,
	Args: argsWithUsage(cobra.NoArgs),
	RunE: runReleases,
}

var showCmd = &cobra.Command{
	Use:   "show [version|unreleased]",
	Short: "Show the changes of a release",
	Long: `Show the changes bundled in a release, grouped by type.

Without an argument the current release is shown. "unreleased" shows the
pending pool in the same format. The v prefix is optional.`,
	Example: `  chlog show
  chlog show 1.2.4
  chlog show v1.3.rc1
  chlog show unreleased
  chlog show 1.2.4 --json`,
	Args: argsWithUsage(cobra.MaximumNArgs(1)),
	RunE: runShow,
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the full history as a Keep a Changelog markdown file",
	Long: `Render every release, newest first, as a Keep a Changelog document.

Change types map to sections: new to Added, change to Changed, removed to
Removed, fix to Fixed, anything else to Other. Unreadable release artifacts
are skipped with a warning.`,
	Example: `  chlog render
  chlog render --unreleased -o CHANGELOG.md`,
	Args: argsWithUsage(cobra.NoArgs),
	RunE: runRender,
}

func init() {
	currentCmd.GroupID = GroupReleases
	releasesCmd.GroupID = GroupReleases
	showCmd.GroupID = GroupReleases
	renderCmd.GroupID = GroupReleases

	showCmd.Flags().Bool("json", false, "Print the raw release artifact JSON")
	renderCmd.Flags().Bool("unreleased", false, "Include pending changes as an Unreleased section")
	renderCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	renderCmd.Flags().String("project", "", "Project name for the header (default: project directory name)")

	rootCmd.AddCommand(currentCmd, releasesCmd, showCmd, renderCmd)
}

func runCurrent(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	current, err := a.Tracker.CurrentRelease(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), current.String())
	return nil
}

func runReleases(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	releases, err := a.Tracker.Releases(ctx)
	if err != nil {
		return err
	}
	current, err := a.Tracker.CurrentRelease(ctx)
	if err != nil {
		return err
	}
	render.ReleaseList(cmd.OutOrStdout(), releases, current)
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var heading string
	var changes []record.Change
	switch {
	case len(args) == 1 && strings.EqualFold(args[0], "unreleased"):
		heading = "Unreleased"
		changes, err = a.Store.ListPending(ctx)
	case len(args) == 1:
		if _, perr := record.ParseVersion(args[0]); perr != nil {
			return clierrors.NewArgumentErrorWithUsage(perr.Error(), cmd.UseLine(),
				"List existing releases with: chlog releases")
		}
		var r record.Release
		r, err = a.Tracker.Load(ctx, args[0])
		heading, changes = render.ReleaseHeading(r), r.Changes
	default:
		var current record.Release
		current, err = a.Tracker.CurrentRelease(ctx)
		if err == nil {
			var loaded record.Release
			loaded, err = a.Tracker.Load(ctx, current.String())
			if errors.Is(err, tracker.ErrReleaseNotFound) && current.IsZero() {
				err = nil
			} else {
				current = loaded
			}
		}
		heading, changes = render.ReleaseHeading(current), current.Changes
	}
	if err != nil {
		return err
	}

	if asJSON {
		data, err := record.EncodeArtifact(changes)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	return render.Terminal(cmd.OutOrStdout(), heading, changes, render.FormatOptions{Plain: plainOutput(cmd)})
}

func runRender(cmd *cobra.Command, _ []string) error {
	unreleased, _ := cmd.Flags().GetBool("unreleased")
	outPath, _ := cmd.Flags().GetString("output")
	project, _ := cmd.Flags().GetString("project")

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	doc := render.Document{Project: project}
	if doc.Project == "" {
		doc.Project = filepath.Base(string(a.Root))
	}
	if doc.Releases, err = a.Tracker.LoadAll(ctx); err != nil {
		return err
	}
	if unreleased {
		if doc.Unreleased, err = a.Store.ListPending(ctx); err != nil {
			return err
		}
	}

	content, err := render.MarkdownString(doc)
	if err != nil {
		return err
	}

	if outPath == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), content)
		return err
	}
	if err := writeOutputFile(outPath, []byte(content)); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	printer(cmd).Success("changelog written to %s", outPath)
	return nil
}

// writeOutputFile atomically replaces path, relative to the working directory.
func writeOutputFile(path string, data []byte) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if _, err := os.Stat(dir); err != nil {
		return err
	}
	return fsutil.WriteAtomic(osfs.New(dir), filepath.Base(abs), data)
}
