package cli

import (
	"errors"
	"fmt"

	clierrors "github.com/ariel-frischer/chlog/internal/errors"
	"github.com/ariel-frischer/chlog/internal/release"
)

// Exit codes for the chlog CLI
// These codes support programmatic composition and CI/CD integration
const (
	// ExitSuccess indicates successful command execution
	ExitSuccess = 0

	// ExitValidationFailed indicates a change or configuration failed validation
	ExitValidationFailed = 1

	// ExitReleaseIncomplete indicates the release artifact was written but
	// the pending pool could not be cleared
	ExitReleaseIncomplete = 2

	// ExitInvalidArguments indicates invalid command arguments
	ExitInvalidArguments = 3

	// ExitStorageUnavailable indicates the changelog directory could not be read or written
	ExitStorageUnavailable = 4
)

// exitError is an error that was already reported and only carries an exit code.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

// NewExitError returns an error that makes the process exit with code.
func NewExitError(code int) error {
	return &exitError{code: code}
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	if errors.Is(err, release.ErrClearFailure) {
		return ExitReleaseIncomplete
	}

	cliErr := clierrors.FromDomain(err)
	switch cliErr.Category {
	case clierrors.Argument:
		return ExitInvalidArguments
	case clierrors.Storage:
		return ExitStorageUnavailable
	default:
		return ExitValidationFailed
	}
}
