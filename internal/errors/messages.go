package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/ariel-frischer/chlog/internal/config"
	"github.com/ariel-frischer/chlog/internal/record"
	"github.com/ariel-frischer/chlog/internal/release"
	"github.com/ariel-frischer/chlog/internal/store"
	"github.com/ariel-frischer/chlog/internal/tracker"
	"github.com/ariel-frischer/chlog/internal/workspace"
)

// Common error messages for the chlog CLI.

// InvalidChange creates an error for a change that failed validation.
func InvalidChange(err error) *CLIError {
	return WrapWithMessage(err, Validation,
		"change was not recorded",
		"Provide all four fields: --bump, --category, --type and --message",
		"Check allowed categories and kinds with: chlog config show",
	)
}

// UnknownBump creates an error for a bump kind outside major, minor, patch.
func UnknownBump(provided string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("unknown bump kind: %q", provided),
		"chlog release <major|minor|patch> [patch-value]",
		"Use one of: major, minor, patch",
	)
}

// ReleaseNotFound creates an error for a version with no artifact.
func ReleaseNotFound(version string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("release %s not found", version),
		"List existing releases with: chlog releases",
	)
}

// VersionNotIncreasing creates an error for a bump that would sort below the
// current release.
func VersionNotIncreasing(err error) *CLIError {
	return WrapWithMessage(err, Argument,
		"release would not succeed the current release",
		"Check the current release with: chlog current",
		"Choose a patch value that sorts after it, or bump minor or major",
	)
}

// StorageUnavailable creates an error when the changelog directory cannot be used.
func StorageUnavailable(err error) *CLIError {
	return WrapWithMessage(err, Storage,
		"changelog storage unavailable",
		"Check that the changelog directory exists and is writable",
		"Run chlog from inside your project, or pass --dir",
	)
}

// ReleaseWriteFailed creates an error when the release artifact could not be written.
func ReleaseWriteFailed(err error) *CLIError {
	return WrapWithMessage(err, Storage,
		"release was not created",
		"No pending changes were removed; fix the problem and run the release again",
	)
}

// PendingNotCleared creates an error when the artifact was written but the pool was not cleared.
func PendingNotCleared(err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		"release written but pending changes remain",
		"Do not release again before clearing the pool",
		"Remove the files left in the pending directory by hand",
	)
}

// ReleaseInProgress creates an error when another release holds the lock.
func ReleaseInProgress(err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		"another release is running",
		"Wait for the other release to finish",
		"If no release is running, delete the .release.lock file in the changelog directory",
	)
}

// ConfigInvalid creates an error for a configuration that failed to load.
func ConfigInvalid(err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		"invalid configuration",
		"Inspect the effective configuration with: chlog config show",
		"List valid keys with: chlog config keys",
	)
}

// FromDomain maps an error returned by the chlog packages to a categorized
// CLIError. CLIErrors pass through unchanged and unknown errors become
// Runtime errors. Returns nil for a nil error.
func FromDomain(err error) *CLIError {
	if err == nil {
		return nil
	}
	if cliErr := AsCLIError(err); cliErr != nil {
		return cliErr
	}

	var cfgErr *config.ValidationError
	var keyErr config.ErrUnknownKey

	switch {
	case stderrors.Is(err, record.ErrInvalidChange):
		return InvalidChange(err)
	case stderrors.Is(err, record.ErrUnknownBump):
		return Wrap(err, Argument, "Use one of: major, minor, patch")
	case stderrors.Is(err, tracker.ErrReleaseNotFound):
		return Wrap(err, Argument, "List existing releases with: chlog releases")
	case stderrors.Is(err, release.ErrVersionNotIncreasing):
		return VersionNotIncreasing(err)
	case stderrors.Is(err, release.ErrReleaseInProgress):
		return ReleaseInProgress(err)
	case stderrors.Is(err, release.ErrWriteFailure):
		return ReleaseWriteFailed(err)
	case stderrors.Is(err, release.ErrClearFailure):
		return PendingNotCleared(err)
	case stderrors.Is(err, record.ErrCorruptRecord):
		return Wrap(err, Storage, "Inspect or delete the unreadable file in the changelog directory")
	case stderrors.Is(err, store.ErrStorageUnavailable),
		stderrors.Is(err, tracker.ErrStorageUnavailable),
		stderrors.Is(err, workspace.ErrNoWorkspace):
		return StorageUnavailable(err)
	case stderrors.As(err, &cfgErr), stderrors.As(err, &keyErr):
		return ConfigInvalid(err)
	default:
		return Wrap(err, Runtime)
	}
}
