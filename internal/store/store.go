// Package store implements the pending pool: an append-only directory holding
// one JSON file per unreleased change, named by a random UUID.
//
// The store is a narrow persistence primitive. It does not validate changes on
// append (callers do that with record.Check) and it never orders records beyond
// directory enumeration order.
package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ariel-frischer/chlog/internal/fsutil"
	"github.com/ariel-frischer/chlog/internal/record"
)

var (
	// ErrStorageUnavailable is returned when the pool directory cannot be
	// created, listed, or written.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// DefaultReadConcurrency bounds how many pending files are read at once.
const DefaultReadConcurrency = 8

// Entry is a pending change together with its on-disk identity.
type Entry struct {
	ID      string
	Path    string
	ModTime time.Time
	Change  record.Change
}

// Store is the pending pool rooted at Dir inside a billy filesystem.
type Store struct {
	fs              billy.Filesystem
	dir             string
	log             logrus.FieldLogger
	readConcurrency int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for non-fatal warnings.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithReadConcurrency bounds concurrent file reads during listing.
func WithReadConcurrency(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.readConcurrency = n
		}
	}
}

// New creates a store for the pool directory dir (relative to fsys).
func New(fsys billy.Filesystem, dir string, opts ...Option) *Store {
	s := &Store{
		fs:              fsys,
		dir:             dir,
		log:             logrus.StandardLogger(),
		readConcurrency: DefaultReadConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the pool directory.
func (s *Store) Dir() string {
	return s.dir
}

// Append persists c as a new file named "{uuid}.json" and returns the id.
// The pool directory is created on first use. Concurrent appends never collide:
// every call uses a freshly generated id and the write refuses to replace an
// existing file.
func (s *Store) Append(ctx context.Context, c record.Change) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := fsutil.EnsureDir(s.fs, s.dir); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	data, err := record.EncodeChange(c)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	path := s.pathFor(id)
	if err := fsutil.CreateAtomic(s.fs, path, data); err != nil {
		return "", fmt.Errorf("%w: writing %s: %w", ErrStorageUnavailable, path, err)
	}

	s.log.WithField("id", id).Debug("appended pending change")
	return id, nil
}

// ListPending returns every readable pending change in directory enumeration
// order. Unreadable or corrupt files are skipped with a warning. A missing pool
// directory yields an empty list.
func (s *Store) ListPending(ctx context.Context) ([]record.Change, error) {
	entries, err := s.ListEntries(ctx)
	if err != nil {
		return nil, err
	}

	changes := make([]record.Change, 0, len(entries))
	for _, e := range entries {
		changes = append(changes, e.Change)
	}
	return changes, nil
}

// ListEntries is ListPending keeping each record's id, path, and mtime.
func (s *Store) ListEntries(ctx context.Context) ([]Entry, error) {
	infos, err := s.readPoolDir()
	if err != nil {
		return nil, err
	}

	candidates := make([]fs.FileInfo, 0, len(infos))
	for _, info := range infos {
		if isRecordFile(info) {
			candidates = append(candidates, info)
		}
	}

	results := make([]*Entry, len(candidates))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.readConcurrency)

	for i, info := range candidates {
		i, info := i, info
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = s.readEntry(info)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(results))
	for _, e := range results {
		if e != nil {
			entries = append(entries, *e)
		}
	}
	return entries, nil
}

// Clear deletes every file in the pool directory, including corrupt records
// and abandoned temp files. Clearing an empty or missing pool is a no-op.
// Only the release assembler calls it, after the artifact has been written.
func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	infos, err := s.readPoolDir()
	if err != nil {
		return err
	}

	var errs []error
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		path := s.fs.Join(s.dir, info.Name())
		if err := s.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("removing %s: %w", path, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: clearing pending pool: %w", ErrStorageUnavailable, errors.Join(errs...))
	}
	return nil
}

func (s *Store) readPoolDir() ([]fs.FileInfo, error) {
	infos, err := s.fs.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrStorageUnavailable, s.dir, err)
	}
	return infos, nil
}

func (s *Store) readEntry(info fs.FileInfo) *Entry {
	path := s.fs.Join(s.dir, info.Name())
	log := s.log.WithField("file", path)

	data, err := fsutil.ReadFile(s.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug("pending change disappeared while listing")
		return nil
	}
	if err != nil {
		log.WithError(err).Warn("skipping unreadable pending change")
		return nil
	}

	c, err := record.DecodeChange(data)
	if err != nil {
		log.WithError(err).Warn("skipping corrupt pending change")
		return nil
	}

	return &Entry{
		ID:      strings.TrimSuffix(info.Name(), record.ArtifactExt),
		Path:    path,
		ModTime: info.ModTime(),
		Change:  c,
	}
}

func (s *Store) pathFor(id string) string {
	return s.fs.Join(s.dir, id+record.ArtifactExt)
}

func isRecordFile(info fs.FileInfo) bool {
	name := info.Name()
	return !info.IsDir() && !fsutil.IsTemp(name) && filepath.Ext(name) == record.ArtifactExt
}
