package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindProjectRoot(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		setup  func(t *testing.T) (start, expect string)
		expErr error
	}{
		"git repository root": {
			setup: func(t *testing.T) (string, string) {
				dir := resolved(t, t.TempDir())
				_, err := git.PlainInit(dir, false)
				require.NoError(t, err)
				return dir, dir
			},
		},
		"nested directory inside repository": {
			setup: func(t *testing.T) (string, string) {
				dir := resolved(t, t.TempDir())
				_, err := git.PlainInit(dir, false)
				require.NoError(t, err)
				nested := filepath.Join(dir, "src", "pkg")
				require.NoError(t, os.MkdirAll(nested, 0o755))
				return nested, dir
			},
		},
		"outside git repository": {
			setup: func(t *testing.T) (string, string) {
				dir := resolved(t, t.TempDir())
				return dir, dir
			},
		},
		"missing directory": {
			setup: func(t *testing.T) (string, string) {
				return filepath.Join(t.TempDir(), "missing"), ""
			},
			expErr: ErrNoWorkspace,
		},
		"file instead of directory": {
			setup: func(t *testing.T) (string, string) {
				file := filepath.Join(t.TempDir(), "file.txt")
				require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
				return file, ""
			},
			expErr: ErrNoWorkspace,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			start, expect := tt.setup(t)
			got, err := FindProjectRoot(start)
			if tt.expErr != nil {
				assert.ErrorIs(t, err, tt.expErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, expect, resolved(t, got))
		})
	}
}

func TestLayout(t *testing.T) {
	t.Parallel()

	l := NewLayout("/project", "", "")
	assert.Equal(t, ".changelog", l.ReleasesDir())
	assert.Equal(t, filepath.Join(".changelog", "unreleased"), l.PendingDir())
	require.NoError(t, l.Validate())

	custom := NewLayout("/project", "docs/changes/", "pending")
	assert.Equal(t, filepath.Join("docs", "changes"), custom.ReleasesDir())
	assert.Equal(t, filepath.Join("docs", "changes", "pending"), custom.PendingDir())
}

func TestLayout_Validate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		changelogDir  string
		unreleasedDir string
		wantErr       bool
	}{
		"defaults":            {},
		"absolute changelog":  {changelogDir: "/tmp/changelog", wantErr: true},
		"escaping changelog":  {changelogDir: "../elsewhere", wantErr: true},
		"parent only":         {changelogDir: "..", wantErr: true},
		"same as changelog":   {unreleasedDir: ".", wantErr: true},
		"nested unreleased":   {unreleasedDir: "queue/next"},
		"dotted but relative": {changelogDir: "..changes"},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := NewLayout("/project", tt.changelogDir, tt.unreleasedDir).Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLayout_Filesystem(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fsys := NewLayout(dir, "", "").Filesystem()

	require.NoError(t, fsys.MkdirAll(".changelog", 0o755))
	_, err := os.Stat(filepath.Join(dir, ".changelog"))
	assert.NoError(t, err)
}

// resolved follows symlinks so temp dirs compare equal on macOS.
func resolved(t *testing.T, path string) string {
	t.Helper()

	p, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	return p
}
