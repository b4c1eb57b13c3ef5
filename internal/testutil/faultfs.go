// Package testutil provides test utilities and helpers for chlog tests.
package testutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
)

// ErrInjected is the error returned by operations that a FaultFS was told to fail.
var ErrInjected = errors.New("injected I/O failure")

// Op names the filesystem operations a FaultFS can fail.
type Op string

const (
	OpOpenFile Op = "openfile"
	OpRename   Op = "rename"
	OpRemove   Op = "remove"
	OpReadDir  Op = "readdir"
	OpMkdirAll Op = "mkdirall"
)

// CallRecord is a single recorded filesystem operation.
type CallRecord struct {
	Op   Op
	Path string
	Err  error
}

// Fault describes when an operation fails: Op must match and, when PathContains
// is set, the (target) path must contain it.
type Fault struct {
	Op           Op
	PathContains string
}

// FaultFS wraps a billy.Filesystem, recording calls and failing the ones that
// match a registered Fault.
type FaultFS struct {
	billy.Filesystem

	mu     sync.Mutex
	faults []Fault
	calls  []CallRecord
}

// NewFaultFS wraps fsys. A nil fsys gets a fresh in-memory filesystem.
func NewFaultFS(fsys billy.Filesystem) *FaultFS {
	if fsys == nil {
		fsys = memfs.New()
	}
	return &FaultFS{Filesystem: fsys}
}

// FailOn registers a fault.
func (f *FaultFS) FailOn(op Op, pathContains string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults = append(f.faults, Fault{Op: op, PathContains: pathContains})
}

// Heal removes every registered fault.
func (f *FaultFS) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults = nil
}

// Calls returns a copy of the recorded operations.
func (f *FaultFS) Calls() []CallRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]CallRecord, len(f.calls))
	copy(out, f.calls)
	return out
}

// CountOps returns how many times op was called, failed or not.
func (f *FaultFS) CountOps(op Op) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (f *FaultFS) check(op Op, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var err error
	for _, fault := range f.faults {
		if fault.Op == op && (fault.PathContains == "" || strings.Contains(filepath.ToSlash(path), fault.PathContains)) {
			err = &os.PathError{Op: string(op), Path: path, Err: ErrInjected}
			break
		}
	}
	f.calls = append(f.calls, CallRecord{Op: op, Path: path, Err: err})
	return err
}

func (f *FaultFS) Create(filename string) (billy.File, error) {
	return f.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
}

func (f *FaultFS) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	if flag&(os.O_CREATE|os.O_WRONLY|os.O_RDWR) != 0 {
		if err := f.check(OpOpenFile, filename); err != nil {
			return nil, err
		}
	}
	return f.Filesystem.OpenFile(filename, flag, perm)
}

func (f *FaultFS) Rename(oldpath, newpath string) error {
	if err := f.check(OpRename, newpath); err != nil {
		return err
	}
	return f.Filesystem.Rename(oldpath, newpath)
}

func (f *FaultFS) Remove(filename string) error {
	if err := f.check(OpRemove, filename); err != nil {
		return err
	}
	return f.Filesystem.Remove(filename)
}

func (f *FaultFS) ReadDir(path string) ([]os.FileInfo, error) {
	if err := f.check(OpReadDir, path); err != nil {
		return nil, err
	}
	return f.Filesystem.ReadDir(path)
}

func (f *FaultFS) MkdirAll(filename string, perm os.FileMode) error {
	if err := f.check(OpMkdirAll, filename); err != nil {
		return err
	}
	return f.Filesystem.MkdirAll(filename, perm)
}
