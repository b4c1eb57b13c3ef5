package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	clierrors "github.com/ariel-frischer/chlog/internal/errors"
	"github.com/ariel-frischer/chlog/internal/record"
	"github.com/ariel-frischer/chlog/internal/release"
	"github.com/ariel-frischer/chlog/internal/render"
)

var releaseCmd = &cobra.Command{
	Use:   "release <major|minor|patch> [patch-value]",
	Short: "Bundle all pending changes into a new release",
	Long: `Bundle all pending changes into a new release artifact.

The new version is the current release with one component changed:
  major  increments the major number
  minor  increments the minor number
  patch  replaces the patch component with the given value, e.g. rc1

Other components are not reset. The pending pool is cleared only after the
artifact has been written; if writing fails nothing is lost.`,
	Example: `  chlog release minor
  chlog release patch rc1
  chlog release major --dry-run`,
	Args: argsWithUsage(releaseArgs),
	RunE: runRelease,
}

func init() {
	releaseCmd.GroupID = GroupReleases
	releaseCmd.Flags().Bool("dry-run", false, "Show the release that would be created without writing anything")
	rootCmd.AddCommand(releaseCmd)
}

// releaseArgs requires a bump kind, and a patch value exactly when the kind is patch.
func releaseArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("requires a bump kind: major, minor or patch")
	}
	kind, err := record.ParseBumpKind(args[0])
	if err != nil {
		return err
	}
	switch {
	case kind == record.BumpPatch && len(args) != 2:
		return fmt.Errorf("patch requires exactly one patch value, e.g. %q", "chlog release patch rc1")
	case kind != record.BumpPatch && len(args) != 1:
		return fmt.Errorf("%s takes no patch value", kind)
	}
	return nil
}

func runRelease(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	kind, err := record.ParseBumpKind(args[0])
	if err != nil {
		return clierrors.UnknownBump(args[0])
	}
	req := release.Request{Bump: kind, DryRun: dryRun}
	if kind == record.BumpPatch {
		req.Patch = args[1]
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	res, err := a.Assembler.Create(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	p := printer(cmd)
	if res.DryRun {
		fmt.Fprintf(out, "Would release %s (current %s) with %d change(s):\n\n",
			res.Release.String(), res.Previous.String(), len(res.Release.Changes))
		if res.Overwrote {
			p.Warning("%s already exists and would be overwritten", res.ArtifactPath)
		}
		return render.Terminal(out, render.ReleaseHeading(res.Release), res.Release.Changes,
			render.FormatOptions{Plain: plainOutput(cmd)})
	}

	p.Success("released %s (%d change(s)) -> %s", res.Release.String(), len(res.Release.Changes), res.ArtifactPath)
	return nil
}
