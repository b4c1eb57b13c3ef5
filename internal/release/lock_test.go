package release

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ariel-frischer/chlog/internal/fsutil"
)

func TestAcquireLock(t *testing.T) {
	t.Parallel()

	live := mustYAML(t, Lock{PID: os.Getpid(), Bump: "major", StartedAt: time.Now()})
	dead := mustYAML(t, Lock{PID: 0, Bump: "major", StartedAt: time.Now().Add(-time.Hour)})

	tests := map[string]struct {
		existing  []byte
		age       time.Duration
		expectErr error
	}{
		"no existing lock": {},
		"live holder": {
			existing:  live,
			expectErr: ErrReleaseInProgress,
		},
		"live holder with old lock": {
			existing:  live,
			age:       time.Hour,
			expectErr: ErrReleaseInProgress,
		},
		"stale holder": {
			existing: dead,
			age:      time.Hour,
		},
		"fresh lock without pid": {
			existing:  dead,
			expectErr: ErrReleaseInProgress,
		},
		"fresh empty lock": {
			existing:  []byte{},
			expectErr: ErrReleaseInProgress,
		},
		"old empty lock": {
			existing: []byte{},
			age:      time.Minute,
		},
		"fresh unparsable lock": {
			existing:  []byte("pid: [not a number"),
			expectErr: ErrReleaseInProgress,
		},
		"old unparsable lock": {
			existing: []byte("pid: [not a number"),
			age:      time.Minute,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			fsys := osfs.New(dir, osfs.WithBoundOS())
			if tt.existing != nil {
				require.NoError(t, fsutil.WriteAtomic(fsys, filepath.Join(root, LockFileName), tt.existing))
				if tt.age > 0 {
					mtime := time.Now().Add(-tt.age)
					require.NoError(t, os.Chtimes(filepath.Join(dir, root, LockFileName), mtime, mtime))
				}
			}

			lock, err := AcquireLock(fsys, root, "minor")
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)

				data, readErr := fsutil.ReadFile(fsys, filepath.Join(root, LockFileName))
				require.NoError(t, readErr)
				assert.Equal(t, tt.existing, data, "a held lock is left in place")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, os.Getpid(), lock.PID)

			loaded, err := LoadLock(fsys, root)
			require.NoError(t, err)
			require.NotNil(t, loaded)
			assert.Equal(t, "minor", loaded.Bump)
			assert.Equal(t, os.Getpid(), loaded.PID)
		})
	}
}

func TestReleaseLock(t *testing.T) {
	t.Parallel()

	fsys := memfs.New()
	require.NoError(t, ReleaseLock(fsys, root), "releasing a missing lock is a no-op")

	_, err := AcquireLock(fsys, root, "patch")
	require.NoError(t, err)
	require.NoError(t, ReleaseLock(fsys, root))

	lock, err := LoadLock(fsys, root)
	require.NoError(t, err)
	assert.Nil(t, lock)
}

func TestIsLockStale(t *testing.T) {
	t.Parallel()

	assert.True(t, IsLockStale(nil))
	assert.True(t, IsLockStale(&Lock{PID: 0}))
	assert.False(t, IsLockStale(&Lock{PID: os.Getpid()}))
}

func mustYAML(t *testing.T, lock Lock) []byte {
	t.Helper()

	data, err := yaml.Marshal(lock)
	require.NoError(t, err)
	return data
}
