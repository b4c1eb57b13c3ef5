// Package workspace locates the project a changelog belongs to and describes
// the on-disk layout of its changelog root.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
)

// Default directory names, relative to the project root.
const (
	DefaultChangelogDir  = ".changelog"
	DefaultUnreleasedDir = "unreleased"
)

// ErrNoWorkspace is returned when the starting directory does not exist or
// is not a directory.
var ErrNoWorkspace = errors.New("no workspace")

// debugLogger is a no-op until SetDebugLogger is called.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures debug output for root discovery.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// FindProjectRoot returns the root of the git worktree containing start. When
// start is not inside a git repository, start itself (made absolute) is the
// project root. An empty start means the current working directory.
func FindProjectRoot(start string) (string, error) {
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("%w: getting current directory: %v", ErrNoWorkspace, err)
		}
		start = wd
	}

	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("%w: resolving %s: %v", ErrNoWorkspace, start, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoWorkspace, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrNoWorkspace, abs)
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		logDebug("[workspace] %s is not inside a git repository (%v), using it as project root", abs, err)
		return abs, nil
	}

	wt, err := repo.Worktree()
	if err != nil {
		// Bare repositories have no worktree.
		logDebug("[workspace] repository at %s has no worktree, using start directory", abs)
		return abs, nil
	}

	root := wt.Filesystem.Root()
	logDebug("[workspace] project root: %s", root)
	return root, nil
}

// Layout is the changelog directory structure of one project.
type Layout struct {
	// ProjectRoot is an absolute path.
	ProjectRoot string
	// ChangelogDir holds release artifacts, relative to ProjectRoot.
	ChangelogDir string
	// UnreleasedDir is the pending pool, relative to ChangelogDir.
	UnreleasedDir string
}

// NewLayout returns a layout with default directory names for empty values.
func NewLayout(projectRoot, changelogDir, unreleasedDir string) Layout {
	if changelogDir == "" {
		changelogDir = DefaultChangelogDir
	}
	if unreleasedDir == "" {
		unreleasedDir = DefaultUnreleasedDir
	}
	return Layout{
		ProjectRoot:   projectRoot,
		ChangelogDir:  filepath.Clean(changelogDir),
		UnreleasedDir: filepath.Clean(unreleasedDir),
	}
}

// ReleasesDir is the changelog root relative to the project root.
func (l Layout) ReleasesDir() string {
	return l.ChangelogDir
}

// PendingDir is the pending pool relative to the project root.
func (l Layout) PendingDir() string {
	return filepath.Join(l.ChangelogDir, l.UnreleasedDir)
}

// Validate rejects directory names that escape the project root.
func (l Layout) Validate() error {
	for _, dir := range []string{l.ChangelogDir, l.PendingDir()} {
		if filepath.IsAbs(dir) || dir == ".." || strings.HasPrefix(dir, ".."+string(filepath.Separator)) {
			return fmt.Errorf("directory %q must be relative to the project root", dir)
		}
	}
	if l.PendingDir() == l.ChangelogDir {
		return fmt.Errorf("unreleased directory must differ from the changelog directory")
	}
	return nil
}

// Filesystem returns an OS filesystem rooted at the project root. Paths
// cannot escape the root.
func (l Layout) Filesystem() billy.Filesystem {
	return osfs.New(l.ProjectRoot, osfs.WithBoundOS())
}
