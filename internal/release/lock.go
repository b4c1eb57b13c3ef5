package release

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
	"time"

	"github.com/go-git/go-billy/v5"
	"gopkg.in/yaml.v3"

	"github.com/ariel-frischer/chlog/internal/fsutil"
)

// LockFileName is the advisory lock held for the duration of a release.
const LockFileName = ".release.lock"

// ErrReleaseInProgress is returned when another live process holds the release lock.
var ErrReleaseInProgress = errors.New("another release is in progress")

// Lock is the content of the release lock file.
type Lock struct {
	// PID is the process ID holding the lock.
	PID int `yaml:"pid"`
	// Bump is the requested bump kind.
	Bump string `yaml:"bump"`
	// StartedAt is when the lock was acquired.
	StartedAt time.Time `yaml:"started_at"`
}

// lockGracePeriod is how long an empty or unparsable lock file counts as held.
// A holder creates the file exclusively and writes its content right after,
// so a young incomplete lock belongs to a release that is still starting.
const lockGracePeriod = 10 * time.Second

// AcquireLock creates the lock file in root. A lock left behind by a process
// that is no longer running is removed and the acquisition retried once. An
// empty or unparsable lock is treated the same way only once it is older than
// the grace period.
//
// Removing a stale lock and recreating it is not atomic: two processes that
// find the same stale lock at the same moment can both proceed.
func AcquireLock(fsys billy.Filesystem, root, bump string) (*Lock, error) {
	if err := fsutil.EnsureDir(fsys, root); err != nil {
		return nil, err
	}

	lock := &Lock{PID: os.Getpid(), Bump: bump, StartedAt: time.Now()}
	data, err := yaml.Marshal(lock)
	if err != nil {
		return nil, fmt.Errorf("marshaling lock: %w", err)
	}

	path := fsys.Join(root, LockFileName)
	for attempt := 0; attempt < 2; attempt++ {
		err = createExclusive(fsys, path, data)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("creating lock file: %w", err)
		}

		held, loadErr := LoadLock(fsys, root)
		if loadErr == nil && held == nil {
			// Released between our create and read.
			continue
		}

		incomplete := loadErr != nil || held.PID <= 0
		if incomplete {
			young, statErr := lockIsYoung(fsys, path)
			if statErr != nil {
				return nil, fmt.Errorf("checking lock file: %w", statErr)
			}
			if young {
				return nil, fmt.Errorf("%w: lock file %s is still being written", ErrReleaseInProgress, path)
			}
		} else if !IsLockStale(held) {
			return nil, fmt.Errorf("%w: %s release held by PID %d since %s",
				ErrReleaseInProgress, held.Bump, held.PID, held.StartedAt.Format(time.RFC3339))
		}

		if err := ReleaseLock(fsys, root); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: lock file keeps reappearing", ErrReleaseInProgress)
}

// lockIsYoung reports whether the lock file at path was modified within the
// grace period. A lock that disappeared is not young.
func lockIsYoung(fsys billy.Filesystem, path string) (bool, error) {
	info, err := fsys.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return time.Since(info.ModTime()) < lockGracePeriod, nil
}

// ReleaseLock removes the lock file. A missing lock is not an error.
func ReleaseLock(fsys billy.Filesystem, root string) error {
	if err := fsys.Remove(fsys.Join(root, LockFileName)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing lock file: %w", err)
	}
	return nil
}

// LoadLock reads the lock file. Returns nil and no error if it doesn't exist.
func LoadLock(fsys billy.Filesystem, root string) (*Lock, error) {
	data, err := fsutil.ReadFile(fsys, fsys.Join(root, LockFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading lock file: %w", err)
	}

	var lock Lock
	if err := yaml.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("parsing lock file: %w", err)
	}
	return &lock, nil
}

// IsLockStale reports whether the process that created lock is gone.
func IsLockStale(lock *Lock) bool {
	if lock == nil || lock.PID <= 0 {
		return true
	}
	return !isProcessRunning(lock.PID)
}

func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix, FindProcess always succeeds. Send signal 0 to check existence.
	return process.Signal(syscall.Signal(0)) == nil
}

func createExclusive(fsys billy.Filesystem, path string, data []byte) error {
	f, err := fsys.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = fsys.Remove(path)
		return err
	}
	return f.Close()
}
