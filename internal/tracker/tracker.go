// Package tracker derives release history from the artifacts in the changelog
// root. There is no cached "current version": every query rescans the directory,
// so the answer always reflects what is on disk.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"slices"

	"github.com/go-git/go-billy/v5"
	"github.com/sirupsen/logrus"

	"github.com/ariel-frischer/chlog/internal/fsutil"
	"github.com/ariel-frischer/chlog/internal/record"
)

var (
	// ErrReleaseNotFound is returned by Load when no artifact exists for a version.
	ErrReleaseNotFound = errors.New("release not found")
	// ErrStorageUnavailable is returned when the changelog root cannot be listed.
	ErrStorageUnavailable = errors.New("changelog root unavailable")
)

// Order selects how the current release is chosen among existing artifacts.
type Order string

const (
	// OrderSemantic picks the greatest release by numeric major/minor and
	// semver-aware patch ordering.
	OrderSemantic Order = "semantic"
	// OrderLegacy picks the release whose filename sorts first, byte by byte.
	// Kept for repositories that depend on the historical selection.
	OrderLegacy Order = "legacy"
)

// ParseOrder validates an ordering name. An empty string selects OrderSemantic.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case "", OrderSemantic:
		return OrderSemantic, nil
	case OrderLegacy:
		return OrderLegacy, nil
	default:
		return "", fmt.Errorf("unknown version order %q (expected %s or %s)", s, OrderSemantic, OrderLegacy)
	}
}

// Tracker scans release artifacts under root.
type Tracker struct {
	fs    billy.Filesystem
	root  string
	order Order
	log   logrus.FieldLogger
}

// New creates a tracker for the changelog root directory.
func New(fsys billy.Filesystem, root string, order Order, log logrus.FieldLogger) *Tracker {
	if order == "" {
		order = OrderSemantic
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Tracker{fs: fsys, root: root, order: order, log: log}
}

// Root returns the changelog root directory.
func (t *Tracker) Root() string {
	return t.root
}

// Order returns the configured ordering.
func (t *Tracker) Order() Order {
	return t.order
}

// PathFor returns the artifact path of r.
func (t *Tracker) PathFor(r record.Release) string {
	return t.fs.Join(t.root, r.FileName())
}

// Releases returns the versions of all artifacts, ascending under the
// configured order. Changes are not loaded. Files whose names do not parse as
// "{major}.{minor}.{patch}.json" are ignored.
func (t *Tracker) Releases(ctx context.Context) ([]record.Release, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	infos, err := t.fs.ReadDir(t.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrStorageUnavailable, t.root, err)
	}

	var releases []record.Release
	for _, info := range infos {
		if info.IsDir() || fsutil.IsTemp(info.Name()) {
			continue
		}
		r, ok := record.ParseReleaseName(info.Name())
		if !ok {
			continue
		}
		releases = append(releases, r)
	}

	slices.SortStableFunc(releases, t.compare)
	return releases, nil
}

// CurrentRelease returns the release a new bump starts from. With no artifacts
// the baseline is 0.0 with an empty patch.
//
// Under OrderSemantic this is the greatest release. Under OrderLegacy it is the
// first release in byte order of the version string, which is not necessarily
// the newest one.
func (t *Tracker) CurrentRelease(ctx context.Context) (record.Release, error) {
	releases, err := t.Releases(ctx)
	if err != nil {
		return record.Release{}, err
	}
	if len(releases) == 0 {
		return record.Release{}, nil
	}

	switch t.order {
	case OrderLegacy:
		return releases[0], nil
	default:
		return releases[len(releases)-1], nil
	}
}

// Load reads a single release artifact with its changes.
func (t *Tracker) Load(ctx context.Context, version string) (record.Release, error) {
	if err := ctx.Err(); err != nil {
		return record.Release{}, err
	}

	r, err := record.ParseVersion(version)
	if err != nil {
		return record.Release{}, err
	}

	path := t.PathFor(r)
	data, err := fsutil.ReadFile(t.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return record.Release{}, fmt.Errorf("%w: %s", ErrReleaseNotFound, r)
	}
	if err != nil {
		return record.Release{}, fmt.Errorf("%w: reading %s: %v", ErrStorageUnavailable, path, err)
	}

	changes, err := record.DecodeArtifact(data)
	if err != nil {
		return record.Release{}, fmt.Errorf("release %s: %w", r, err)
	}

	r.Changes = changes
	return r, nil
}

// LoadAll loads every release with its changes, newest first. Corrupt
// artifacts are skipped with a warning.
func (t *Tracker) LoadAll(ctx context.Context) ([]record.Release, error) {
	releases, err := t.Releases(ctx)
	if err != nil {
		return nil, err
	}

	loaded := make([]record.Release, 0, len(releases))
	for i := len(releases) - 1; i >= 0; i-- {
		r, err := t.Load(ctx, releases[i].String())
		if errors.Is(err, record.ErrCorruptRecord) {
			t.log.WithField("file", t.PathFor(releases[i])).WithError(err).Warn("skipping corrupt release artifact")
			continue
		}
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, r)
	}
	return loaded, nil
}

func (t *Tracker) compare(a, b record.Release) int {
	if t.order == OrderLegacy {
		return record.CompareLegacy(a, b)
	}
	return record.Compare(a, b)
}
