// Package app wires chlog's components together with a dig container:
// project root discovery, configuration, logging, the filesystem, and the
// store, tracker and release assembler built on top of them.
package app

import (
	"io"
	"os"

	"github.com/go-git/go-billy/v5"
	logger "github.com/sirupsen/logrus"
	"go.uber.org/dig"

	"github.com/ariel-frischer/chlog/internal/config"
	"github.com/ariel-frischer/chlog/internal/release"
	"github.com/ariel-frischer/chlog/internal/store"
	"github.com/ariel-frischer/chlog/internal/tracker"
	"github.com/ariel-frischer/chlog/internal/workspace"
)

// Options are the process-level inputs, normally taken from persistent CLI flags.
type Options struct {
	// Dir is where project root discovery starts. Empty means the working directory.
	Dir string
	// ConfigPath is an explicit config file layered over the project config.
	ConfigPath string
	// Debug forces debug logging regardless of log_level.
	Debug bool
	// Stderr receives log output and config warnings. Defaults to os.Stderr.
	Stderr io.Writer
	// Filesystem replaces the OS filesystem rooted at the project root.
	Filesystem billy.Filesystem
	// SkipUserConfig ignores the user-level config file.
	SkipUserConfig bool
}

// ProjectRoot is the absolute path of the project a changelog belongs to.
type ProjectRoot string

// App holds the resolved components for one command invocation.
type App struct {
	Root      ProjectRoot
	Config    *config.Configuration
	Layout    workspace.Layout
	Log       logger.FieldLogger
	Store     *store.Store
	Tracker   *tracker.Tracker
	Assembler *release.Assembler
}

// NewApp collects the components into an App.
func NewApp(
	root ProjectRoot,
	cfg *config.Configuration,
	layout workspace.Layout,
	log logger.FieldLogger,
	pool *store.Store,
	versions *tracker.Tracker,
	assembler *release.Assembler,
) *App {
	return &App{
		Root:      root,
		Config:    cfg,
		Layout:    layout,
		Log:       log,
		Store:     pool,
		Tracker:   versions,
		Assembler: assembler,
	}
}

// RegisterProviders registers all providers with the dig container.
func RegisterProviders(container *dig.Container, opts Options) error {
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	providers := []interface{}{
		func() Options { return opts },
		NewProjectRoot,
		NewConfig,
		NewLogger,
		NewLayout,
		NewFilesystem,
		NewStore,
		NewTracker,
		NewAssembler,
		NewApp,
	}
	for _, p := range providers {
		if err := container.Provide(p); err != nil {
			return err
		}
	}

	// Bind interfaces to implementations
	if err := container.Provide(func(impl *store.Store) release.PendingPool {
		return impl
	}); err != nil {
		return err
	}
	if err := container.Provide(func(impl *tracker.Tracker) release.VersionSource {
		return impl
	}); err != nil {
		return err
	}

	return nil
}

// Build creates a container for opts and resolves the App.
func Build(opts Options) (*App, error) {
	container := dig.New()
	if err := RegisterProviders(container, opts); err != nil {
		return nil, err
	}

	var a *App
	if err := container.Invoke(func(resolved *App) {
		a = resolved
	}); err != nil {
		return nil, dig.RootCause(err)
	}
	return a, nil
}
