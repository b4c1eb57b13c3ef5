package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ariel-frischer/chlog/internal/config"
	"github.com/ariel-frischer/chlog/internal/workspace"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage chlog configuration",
	Long: `Manage chlog configuration settings.

Configuration is loaded with the following priority (highest to lowest):
  1. Environment variables (CHLOG_*)
  2. File given with --config
  3. Project config (.changelog/config.yml)
  4. User config (~/.config/chlog/config.yml)
  5. Built-in defaults`,
	Example: `  # Show the effective configuration and where each value came from
  chlog config show

  # Create .changelog/config.yml with commented defaults
  chlog config init

  # Restrict categories
  chlog config set categories "Application, Content"`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  argsWithUsage(cobra.NoArgs),
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default project config",
	Args:  argsWithUsage(cobra.NoArgs),
	RunE:  runConfigInit,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the project config, or the user config
with --user. List values are comma separated.`,
	Example: `  chlog config set version_order legacy
  chlog config set strict_kinds true --user`,
	Args: argsWithUsage(cobra.ExactArgs(2)),
	RunE: runConfigSet,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List configuration keys",
	Args:  argsWithUsage(cobra.NoArgs),
	RunE:  runConfigKeys,
}

var configMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Convert a legacy .changelog/config.json to YAML",
	Args:  argsWithUsage(cobra.NoArgs),
	RunE:  runConfigMigrate,
}

func init() {
	configCmd.GroupID = GroupConfiguration
	configInitCmd.Flags().BoolP("force", "f", false, "Overwrite an existing project config")
	configSetCmd.Flags().Bool("user", false, "Write to the user config instead of the project config")
	configMigrateCmd.Flags().Bool("dry-run", false, "Show what would be written without changing files")

	configCmd.AddCommand(configShowCmd, configInitCmd, configSetCmd, configKeysCmd, configMigrateCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printSectionHeader(out, "Configuration Sources", plainOutput(cmd))
	fmt.Fprintf(out, "  project root: %s\n", a.Root)
	fmt.Fprintf(out, "  releases:     %s\n", a.Layout.ReleasesDir())
	fmt.Fprintf(out, "  pending:      %s\n\n", a.Layout.PendingDir())

	data, err := yaml.Marshal(a.Config)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	fmt.Fprint(out, string(data))

	fmt.Fprintln(out)
	for _, key := range config.SortedKeys() {
		fmt.Fprintf(out, "  %-18s %s\n", key, a.Config.Sources[key])
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")

	root, err := projectRoot(cmd)
	if err != nil {
		return err
	}
	path := config.ProjectConfigPath(root)

	written, err := config.WriteTemplate(path, force)
	if err != nil {
		return err
	}
	if !written {
		printer(cmd).Warning("%s already exists (use --force to overwrite)", path)
		return nil
	}
	printer(cmd).Success("created %s", path)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	user, _ := cmd.Flags().GetBool("user")

	var path, scope string
	if user {
		p, err := config.UserConfigPath()
		if err != nil {
			return err
		}
		path, scope = p, "user"
	} else {
		root, err := projectRoot(cmd)
		if err != nil {
			return err
		}
		path, scope = config.ProjectConfigPath(root), "project"
	}

	parsed, err := config.SetValue(path, args[0], args[1])
	if err != nil {
		return err
	}
	printer(cmd).Success("Set %s = %v in %s config", args[0], parsed.Parsed, scope)
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	for _, key := range config.SortedKeys() {
		schema := config.KnownKeys[key]
		line := fmt.Sprintf("%-18s %-6s %s", key, schema.Type, schema.Description)
		if len(schema.AllowedValues) > 0 {
			line += fmt.Sprintf(" (%s)", strings.Join(schema.AllowedValues, ", "))
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func runConfigMigrate(cmd *cobra.Command, _ []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	root, err := projectRoot(cmd)
	if err != nil {
		return err
	}

	res, err := config.MigrateProjectConfig(root, dryRun)
	if err != nil {
		return err
	}
	if !res.Success {
		fmt.Fprintln(cmd.OutOrStdout(), res.Message)
		return nil
	}
	if dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), res.Message)
		return nil
	}
	if err := config.RemoveLegacyConfig(res.SourcePath, false); err != nil {
		return err
	}
	printer(cmd).Success("%s", res.Message)
	return nil
}

// projectRoot finds the project root without loading the configuration,
// so config commands work even when the current config is invalid.
func projectRoot(cmd *cobra.Command) (string, error) {
	dir, _ := cmd.Flags().GetString("dir")
	return workspace.FindProjectRoot(dir)
}

func printSectionHeader(out io.Writer, title string, plain bool) {
	if plain {
		fmt.Fprintf(out, "%s:\n", title)
		return
	}
	fmt.Fprintf(out, "%s:\n", color.New(color.Bold).Sprint(title))
}
