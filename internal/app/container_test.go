package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	logger "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/dig"

	"github.com/ariel-frischer/chlog/internal/config"
	"github.com/ariel-frischer/chlog/internal/record"
	"github.com/ariel-frischer/chlog/internal/release"
	"github.com/ariel-frischer/chlog/internal/tracker"
	"github.com/ariel-frischer/chlog/internal/workspace"
)

func TestBuild_EndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var stderr bytes.Buffer
	a, err := Build(Options{Dir: dir, Stderr: &stderr, SkipUserConfig: true})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = a.Store.Append(ctx, record.Change{
		VersionType: "minor", Category: "Application", Type: "new", Message: "dark mode",
	})
	require.NoError(t, err)

	res, err := a.Assembler.Create(ctx, release.Request{Bump: record.BumpMinor})
	require.NoError(t, err)
	assert.Equal(t, "0.1.", res.Release.String())

	_, err = os.Stat(filepath.Join(dir, ".changelog", "0.1..json"))
	assert.NoError(t, err)

	current, err := a.Tracker.CurrentRelease(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0.1.", current.String())
}

func TestBuild_ProjectConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgDir := filepath.Join(dir, ".changelog")
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.yml"),
		[]byte("changelog_dir: docs/changes\nunreleased_dir: next\nversion_order: legacy\n"), 0o644))

	fsys := memfs.New()
	a, err := Build(Options{Dir: dir, Filesystem: fsys, Stderr: &bytes.Buffer{}, SkipUserConfig: true})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("docs", "changes", "next"), a.Store.Dir())
	assert.Equal(t, filepath.Join("docs", "changes"), a.Tracker.Root())
	assert.Equal(t, tracker.OrderLegacy, a.Tracker.Order())

	_, err = a.Store.Append(context.Background(), record.Change{
		VersionType: "patch", Category: "Docs", Type: "fix", Message: "typo",
	})
	require.NoError(t, err)
	infos, err := fsys.ReadDir(filepath.Join("docs", "changes", "next"))
	require.NoError(t, err)
	assert.Len(t, infos, 1, "the injected filesystem is used")
}

func TestBuild_InvalidConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgDir := filepath.Join(dir, ".changelog")
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.yml"), []byte("version_order: newest\n"), 0o644))

	_, err := Build(Options{Dir: dir, Stderr: &bytes.Buffer{}, SkipUserConfig: true})
	var verr *config.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "version_order", verr.Field)
}

func TestBuild_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := Build(Options{Dir: filepath.Join(t.TempDir(), "missing"), Stderr: &bytes.Buffer{}, SkipUserConfig: true})
	assert.ErrorIs(t, err, workspace.ErrNoWorkspace)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		level   string
		debug   bool
		wantLvl string
	}{
		"config level":      {level: "warn", wantLvl: "warning"},
		"debug flag wins":   {level: "error", debug: true, wantLvl: "debug"},
		"info from config":  {level: "info", wantLvl: "info"},
		"error from config": {level: "error", wantLvl: "error"},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			log, err := NewLogger(Options{Stderr: &buf, Debug: tt.debug}, &config.Configuration{LogLevel: tt.level})
			require.NoError(t, err)

			l, ok := log.(*logger.Logger)
			require.True(t, ok)
			assert.Equal(t, tt.wantLvl, l.GetLevel().String())
		})
	}
}

func TestRegisterProviders_BindsInterfaces(t *testing.T) {
	t.Parallel()

	container := dig.New()
	require.NoError(t, RegisterProviders(container, Options{
		Dir:            t.TempDir(),
		Filesystem:     memfs.New(),
		Stderr:         &bytes.Buffer{},
		SkipUserConfig: true,
	}))

	err := container.Invoke(func(pool release.PendingPool, versions release.VersionSource) {
		assert.NotNil(t, pool)
		assert.NotNil(t, versions)
	})
	require.NoError(t, err)
}
