package record

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrUnknownBump is returned when a bump selection is not major, minor, or patch.
var ErrUnknownBump = errors.New("unknown bump kind")

// BumpKind selects which version component a release increments.
type BumpKind string

const (
	BumpMajor BumpKind = "major"
	BumpMinor BumpKind = "minor"
	BumpPatch BumpKind = "patch"
)

// ArtifactExt is the extension of release artifacts and pending records.
const ArtifactExt = ".json"

// ParseBumpKind converts user input into a BumpKind. Matching is case-insensitive.
func ParseBumpKind(s string) (BumpKind, error) {
	switch BumpKind(strings.ToLower(strings.TrimSpace(s))) {
	case BumpMajor:
		return BumpMajor, nil
	case BumpMinor:
		return BumpMinor, nil
	case BumpPatch:
		return BumpPatch, nil
	default:
		return "", fmt.Errorf("%w %q (expected one of %s)", ErrUnknownBump, s, strings.Join(bumpKindNames(), ", "))
	}
}

func bumpKindNames() []string {
	return []string{string(BumpMajor), string(BumpMinor), string(BumpPatch)}
}

// Release is an immutable, versioned bundle of changes. Patch is a string so
// that values such as "rc1" are representable.
type Release struct {
	Major   int      `json:"major" yaml:"major"`
	Minor   int      `json:"minor" yaml:"minor"`
	Patch   string   `json:"patch" yaml:"patch"`
	Changes []Change `json:"changes,omitempty" yaml:"changes,omitempty"`
}

// String renders "{major}.{minor}.{patch}". An empty patch is rendered literally,
// so the baseline release prints as "0.0.".
func (r Release) String() string {
	return fmt.Sprintf("%d.%d.%s", r.Major, r.Minor, r.Patch)
}

// FileName returns the artifact filename for the release.
func (r Release) FileName() string {
	return r.String() + ArtifactExt
}

// IsZero reports whether r is the empty baseline 0.0."".
func (r Release) IsZero() bool {
	return r.Major == 0 && r.Minor == 0 && r.Patch == ""
}

// Bump derives the next release from r. Only the targeted component changes:
// a major bump does not reset minor or patch, and a minor bump does not reset
// patch. For a patch bump the caller supplies the literal replacement value.
// The returned release carries no changes.
func Bump(r Release, kind BumpKind, patch string) (Release, error) {
	next := Release{Major: r.Major, Minor: r.Minor, Patch: r.Patch}

	switch kind {
	case BumpMajor:
		next.Major++
	case BumpMinor:
		next.Minor++
	case BumpPatch:
		if strings.ContainsAny(patch, `/\`) {
			return Release{}, fmt.Errorf("patch %q must not contain path separators", patch)
		}
		next.Patch = patch
	default:
		return Release{}, fmt.Errorf("%w %q", ErrUnknownBump, kind)
	}

	return next, nil
}

// releaseNamePattern matches "{major}.{minor}.{patch}.json". The patch part may
// be empty or any run of characters without a path separator.
var releaseNamePattern = regexp.MustCompile(`^(\d+)\.(\d+)\.([^/\\]*)\.json$`)

// ParseReleaseName parses an artifact filename. Names that do not match the
// pattern are reported with ok == false rather than as an error.
func ParseReleaseName(name string) (Release, bool) {
	m := releaseNamePattern.FindStringSubmatch(name)
	if m == nil {
		return Release{}, false
	}

	major, err := strconv.Atoi(m[1])
	if err != nil {
		return Release{}, false
	}
	minor, err := strconv.Atoi(m[2])
	if err != nil {
		return Release{}, false
	}

	return Release{Major: major, Minor: minor, Patch: m[3]}, true
}

// ParseVersion parses "{major}.{minor}.{patch}" with an optional "v" prefix.
func ParseVersion(s string) (Release, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	r, ok := ParseReleaseName(s + ArtifactExt)
	if !ok {
		return Release{}, fmt.Errorf("invalid version %q (expected: MAJOR.MINOR.PATCH)", s)
	}
	return r, nil
}

// Compare orders releases numerically on major and minor. Patches are ordered
// with semver precedence: an empty patch sorts first, then non-numeric values
// such as "rc1" (treated like pre-releases), then numeric patches by value.
// It returns -1, 0, or +1.
func Compare(a, b Release) int {
	return semverOf(a).Compare(semverOf(b))
}

// CompareLegacy orders releases by their version string, byte by byte. This
// reproduces the historical ordering where "10.0.0" sorts before "2.0.0".
func CompareLegacy(a, b Release) int {
	return strings.Compare(a.String(), b.String())
}

func semverOf(r Release) *semver.Version {
	major, minor := uint64(max(r.Major, 0)), uint64(max(r.Minor, 0))

	if r.Patch == "" {
		return semver.New(major, minor, 0, "0", "")
	}
	if n, err := strconv.ParseUint(r.Patch, 10, 64); err == nil {
		return semver.New(major, minor, n, "", "")
	}
	return semver.New(major, minor, 0, r.Patch, "")
}
