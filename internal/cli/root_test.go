// Package cli tests the root command, shared flags and exit codes for chlog.
// Related: internal/cli/root.go, internal/cli/exit_codes.go

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clierrors "github.com/ariel-frischer/chlog/internal/errors"
	"github.com/ariel-frischer/chlog/internal/record"
	"github.com/ariel-frischer/chlog/internal/release"
	"github.com/ariel-frischer/chlog/internal/store"
	"github.com/ariel-frischer/chlog/internal/version"
)

// executeCommand runs rootCmd against the project in dir with plain output.
// It cannot run in parallel: rootCmd and the environment are shared.
func executeCommand(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()

	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("HOME", home)
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--dir", dir, "--plain"}, args...))

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// resetFlags restores every flag in the tree to its default so values do
// not leak between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func findCommand(t *testing.T, name string) *cobra.Command {
	t.Helper()

	cmd, _, err := rootCmd.Find([]string{name})
	require.NoError(t, err)
	require.Equal(t, name, cmd.Name())
	return cmd
}

func TestRootCmd_Structure(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "chlog", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.NotEmpty(t, rootCmd.Example)
	assert.True(t, rootCmd.SilenceErrors)
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		flagName  string
		shorthand string
	}{
		"config flag exists": {flagName: "config", shorthand: "c"},
		"dir flag exists":    {flagName: "dir", shorthand: "C"},
		"plain flag exists":  {flagName: "plain"},
		"debug flag exists":  {flagName: "debug"},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			flag := rootCmd.PersistentFlags().Lookup(tt.flagName)
			require.NotNil(t, flag, "Flag %s should exist", tt.flagName)
			assert.Equal(t, tt.shorthand, flag.Shorthand)
		})
	}
}

func TestRootCmd_SubcommandGroups(t *testing.T) {
	t.Parallel()

	groups := make(map[string]bool)
	for _, g := range rootCmd.Groups() {
		groups[g.ID] = true
	}
	assert.True(t, groups[GroupChanges])
	assert.True(t, groups[GroupReleases])
	assert.True(t, groups[GroupConfiguration])

	tests := map[string]string{
		"add":      GroupChanges,
		"pending":  GroupChanges,
		"release":  GroupReleases,
		"current":  GroupReleases,
		"releases": GroupReleases,
		"show":     GroupReleases,
		"render":   GroupReleases,
		"config":   GroupConfiguration,
	}
	for name, group := range tests {
		assert.Equal(t, group, findCommand(t, name).GroupID, "command %s", name)
	}
}

func TestReleaseArgs(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		args    []string
		wantErr bool
	}{
		"no args":           {args: nil, wantErr: true},
		"major":             {args: []string{"major"}},
		"minor upper case":  {args: []string{"MINOR"}},
		"patch with value":  {args: []string{"patch", "rc1"}},
		"patch empty value": {args: []string{"patch", ""}},
		"patch no value":    {args: []string{"patch"}, wantErr: true},
		"minor with value":  {args: []string{"minor", "3"}, wantErr: true},
		"unknown kind":      {args: []string{"huge"}, wantErr: true},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := releaseArgs(releaseCmd, tt.args)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewExitError(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		code int
	}{
		"success":             {code: ExitSuccess},
		"validation failed":   {code: ExitValidationFailed},
		"release incomplete":  {code: ExitReleaseIncomplete},
		"invalid args":        {code: ExitInvalidArguments},
		"storage unavailable": {code: ExitStorageUnavailable},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := NewExitError(tt.code)
			assert.Equal(t, fmt.Sprintf("exit code %d", tt.code), err.Error())
			assert.Equal(t, tt.code, ExitCode(err))
		})
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  error
		want int
	}{
		"nil error":           {err: nil, want: ExitSuccess},
		"wrapped exit error":  {err: fmt.Errorf("ctx: %w", NewExitError(4)), want: 4},
		"invalid change":      {err: fmt.Errorf("%w: message is required", record.ErrInvalidChange), want: ExitValidationFailed},
		"argument error":      {err: clierrors.NewArgumentError("bad"), want: ExitInvalidArguments},
		"storage unavailable": {err: fmt.Errorf("%w: denied", store.ErrStorageUnavailable), want: ExitStorageUnavailable},
		"write failure":       {err: fmt.Errorf("%w: full", release.ErrWriteFailure), want: ExitStorageUnavailable},
		"clear failure":       {err: fmt.Errorf("%w: busy", release.ErrClearFailure), want: ExitReleaseIncomplete},
		"generic error":       {err: errors.New("generic error"), want: ExitValidationFailed},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestVersionCmd(t *testing.T) {
	stdout, _, err := executeCommand(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "chlog "+version.Version+"\n"))
	assert.Contains(t, stdout, "Go: ")
	assert.Contains(t, stdout, "Platform: ")
}
