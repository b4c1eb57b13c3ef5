// Package version holds chlog build information, set via ldflags:
//
//	go build -ldflags "-X github.com/ariel-frischer/chlog/internal/version.Version=v1.2.0"
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// IsDevBuild reports whether this binary was built without release ldflags.
func IsDevBuild() bool {
	return Version == "dev"
}

// Info is a labelled build property in display order.
type Info struct {
	Label string
	Value string
}

// Details returns the build properties shown by "chlog version".
func Details() []Info {
	return []Info{
		{"Version", Version},
		{"Commit", ShortCommit(Commit)},
		{"Built", BuildDate},
		{"Go", runtime.Version()},
		{"Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)},
	}
}

// ShortCommit truncates a commit hash to 8 characters.
func ShortCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}
