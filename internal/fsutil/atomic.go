// Package fsutil holds the crash-safe write helpers shared by the change store
// and the release assembler. All helpers operate on a go-billy filesystem so the
// same code runs against the OS and against in-memory filesystems in tests.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"
)

// TempSuffix marks in-flight writes. Readers must ignore files ending with it.
const TempSuffix = ".tmp"

const (
	dirMode  = 0o755
	fileMode = 0o644
)

// syncer is implemented by OS-backed billy files (they embed *os.File).
type syncer interface {
	Sync() error
}

// EnsureDir creates dir and any parents if they do not exist yet.
func EnsureDir(fsys billy.Filesystem, dir string) error {
	if dir == "." || dir == "" {
		return nil
	}
	if err := fsys.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return nil
}

// WriteAtomic writes data to name using a temp file + fsync + rename so a crash
// mid-write never leaves a half-written file under the final name. An existing
// file at name is replaced.
func WriteAtomic(fsys billy.Filesystem, name string, data []byte) error {
	dir := filepath.Dir(name)
	if err := EnsureDir(fsys, dir); err != nil {
		return err
	}

	tmpName := TempName(name)
	if err := writeSynced(fsys, tmpName, data); err != nil {
		_ = fsys.Remove(tmpName) // best effort cleanup
		return err
	}

	if err := fsys.Rename(tmpName, name); err != nil {
		_ = fsys.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// CreateAtomic behaves like WriteAtomic but refuses to replace an existing
// file, returning an error wrapping fs.ErrExist.
func CreateAtomic(fsys billy.Filesystem, name string, data []byte) error {
	exists, err := Exists(fsys, name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("creating %s: %w", name, fs.ErrExist)
	}
	return WriteAtomic(fsys, name, data)
}

// TempName returns a unique hidden sibling of name used for in-flight writes.
func TempName(name string) string {
	dir, base := filepath.Split(name)
	return filepath.Join(dir, "."+base+"."+uuid.NewString()[:8]+TempSuffix)
}

// IsTemp reports whether a directory entry is an in-flight or abandoned write.
func IsTemp(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, TempSuffix)
}

// Exists reports whether name exists. Errors other than not-exist are returned.
func Exists(fsys billy.Filesystem, name string) (bool, error) {
	_, err := fsys.Stat(name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("checking %s: %w", name, err)
}

// ReadFile reads the whole file.
func ReadFile(fsys billy.Filesystem, name string) ([]byte, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

func writeSynced(fsys billy.Filesystem, name string, data []byte) (err error) {
	f, err := fsys.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, fileMode)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing temp file: %w", cerr)
		}
	}()

	n, err := f.Write(data)
	if err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if n < len(data) {
		return fmt.Errorf("writing temp file: %w", io.ErrShortWrite)
	}

	if s, ok := f.(syncer); ok {
		if err := s.Sync(); err != nil {
			return fmt.Errorf("syncing temp file: %w", err)
		}
	}

	return nil
}
