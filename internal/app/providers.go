package app

import (
	"fmt"

	"github.com/go-git/go-billy/v5"
	logger "github.com/sirupsen/logrus"

	"github.com/ariel-frischer/chlog/internal/config"
	"github.com/ariel-frischer/chlog/internal/release"
	"github.com/ariel-frischer/chlog/internal/store"
	"github.com/ariel-frischer/chlog/internal/tracker"
	"github.com/ariel-frischer/chlog/internal/workspace"
)

// NewProjectRoot discovers the project root from opts.Dir.
func NewProjectRoot(opts Options) (ProjectRoot, error) {
	root, err := workspace.FindProjectRoot(opts.Dir)
	if err != nil {
		return "", err
	}
	return ProjectRoot(root), nil
}

// NewConfig loads the layered configuration for the project.
func NewConfig(opts Options, root ProjectRoot) (*config.Configuration, error) {
	return config.LoadWithOptions(config.LoadOptions{
		ProjectRoot:    string(root),
		ConfigPath:     opts.ConfigPath,
		WarningWriter:  opts.Stderr,
		SkipUserConfig: opts.SkipUserConfig,
	})
}

// NewLogger builds the process logger. --debug wins over log_level.
func NewLogger(opts Options, cfg *config.Configuration) (logger.FieldLogger, error) {
	log := logger.New()
	log.SetOutput(opts.Stderr)
	//nolint:exhaustruct // Minimal TextFormatter initialization with required fields only
	log.SetFormatter(&logger.TextFormatter{
		DisableTimestamp: true,
	})

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	if opts.Debug {
		level = logger.DebugLevel
	}
	log.SetLevel(level)
	return log, nil
}

// NewLayout resolves the changelog directories for the project.
func NewLayout(root ProjectRoot, cfg *config.Configuration) (workspace.Layout, error) {
	layout := workspace.NewLayout(string(root), cfg.ChangelogDir, cfg.UnreleasedDir)
	if err := layout.Validate(); err != nil {
		return workspace.Layout{}, &config.ValidationError{FilePath: "config", Field: "changelog_dir", Message: err.Error()}
	}
	return layout, nil
}

// NewFilesystem returns the injected filesystem, or the OS filesystem bound
// to the project root.
func NewFilesystem(opts Options, layout workspace.Layout) billy.Filesystem {
	if opts.Filesystem != nil {
		return opts.Filesystem
	}
	return layout.Filesystem()
}

// NewStore opens the pending pool.
func NewStore(fsys billy.Filesystem, layout workspace.Layout, cfg *config.Configuration, log logger.FieldLogger) *store.Store {
	return store.New(fsys, layout.PendingDir(),
		store.WithLogger(log),
		store.WithReadConcurrency(cfg.ReadConcurrency),
	)
}

// NewTracker opens the release history under the changelog root.
func NewTracker(fsys billy.Filesystem, layout workspace.Layout, cfg *config.Configuration, log logger.FieldLogger) (*tracker.Tracker, error) {
	order, err := tracker.ParseOrder(cfg.VersionOrder)
	if err != nil {
		return nil, err
	}
	return tracker.New(fsys, layout.ReleasesDir(), order, log), nil
}

// NewAssembler builds the release assembler over the pool and tracker.
func NewAssembler(fsys billy.Filesystem, layout workspace.Layout, pool release.PendingPool, versions release.VersionSource, log logger.FieldLogger) *release.Assembler {
	return release.NewAssembler(fsys, layout.ReleasesDir(), pool, versions, log)
}
