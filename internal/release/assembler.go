// Package release turns the pending pool into a frozen release artifact.
//
// A release is created by one strictly ordered transaction:
//
//  1. determine the baseline from the version tracker
//  2. apply the requested bump, refusing a version below the baseline
//  3. read the whole pending pool
//  4. write {root}/{version}.json durably
//  5. clear the pending pool
//
// The pool is only cleared after the artifact write succeeded, so a failed
// write leaves everything in place for a retry.
//
// Known race: an append that lands between step 3 and step 5 is deleted by
// the clear without being part of the artifact. Appends take no lock.
package release

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-billy/v5"
	"github.com/sirupsen/logrus"

	"github.com/ariel-frischer/chlog/internal/fsutil"
	"github.com/ariel-frischer/chlog/internal/record"
)

var (
	// ErrWriteFailure is returned when the release artifact could not be
	// written. The pending pool is untouched.
	ErrWriteFailure = errors.New("release artifact write failed")
	// ErrClearFailure is returned when the artifact was written but the
	// pending pool could not be cleared. The artifact stays in place.
	ErrClearFailure = errors.New("pending pool clear failed")
	// ErrVersionNotIncreasing is returned when the bumped version sorts below
	// the current release. Nothing is written.
	ErrVersionNotIncreasing = errors.New("release version does not increase")
)

// Stage is a step of a release-creation attempt.
type Stage string

const (
	StageIdle            Stage = "idle"
	StageBumpingVersion  Stage = "bumping_version"
	StageReadingPending  Stage = "reading_pending"
	StageWritingArtifact Stage = "writing_artifact"
	StageClearingPending Stage = "clearing_pending"
	StageDone            Stage = "done"
	StageAborted         Stage = "aborted"
)

// PendingPool is the subset of the change store the assembler needs.
type PendingPool interface {
	ListPending(ctx context.Context) ([]record.Change, error)
	Clear(ctx context.Context) error
}

// VersionSource supplies the baseline release.
type VersionSource interface {
	CurrentRelease(ctx context.Context) (record.Release, error)
}

// Request selects the bump to apply.
type Request struct {
	Bump record.BumpKind
	// Patch is the literal replacement for a patch bump.
	Patch string
	// DryRun stops after reading the pending pool. Nothing is written.
	DryRun bool
}

// Result describes a release-creation attempt.
type Result struct {
	Release      record.Release
	Previous     record.Release
	ArtifactPath string
	// Overwrote is true when an artifact for the same version already existed.
	Overwrote bool
	DryRun    bool
	Stages    []Stage
}

// Stage returns the last stage reached.
func (r *Result) Stage() Stage {
	if len(r.Stages) == 0 {
		return StageIdle
	}
	return r.Stages[len(r.Stages)-1]
}

func (r *Result) enter(s Stage) {
	r.Stages = append(r.Stages, s)
}

// Assembler runs release transactions for one changelog root.
type Assembler struct {
	fs       billy.Filesystem
	root     string
	pool     PendingPool
	versions VersionSource
	log      logrus.FieldLogger
}

// NewAssembler creates an assembler writing artifacts to root.
func NewAssembler(fsys billy.Filesystem, root string, pool PendingPool, versions VersionSource, log logrus.FieldLogger) *Assembler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Assembler{fs: fsys, root: root, pool: pool, versions: versions, log: log}
}

// Create runs one release transaction. The returned Result is never nil, even
// on failure, and records the stages that were entered.
func (a *Assembler) Create(ctx context.Context, req Request) (*Result, error) {
	res := &Result{DryRun: req.DryRun}
	res.enter(StageIdle)

	if err := ctx.Err(); err != nil {
		res.enter(StageAborted)
		return res, err
	}

	if !req.DryRun {
		if _, err := AcquireLock(a.fs, a.root, string(req.Bump)); err != nil {
			res.enter(StageAborted)
			return res, err
		}
		defer func() {
			if err := ReleaseLock(a.fs, a.root); err != nil {
				a.log.WithError(err).Warn("failed to remove release lock")
			}
		}()
	}

	res.enter(StageBumpingVersion)
	previous, err := a.versions.CurrentRelease(ctx)
	if err != nil {
		res.enter(StageAborted)
		return res, fmt.Errorf("determining current release: %w", err)
	}
	next, err := record.Bump(previous, req.Bump, req.Patch)
	if err != nil {
		res.enter(StageAborted)
		return res, err
	}
	res.Previous = previous
	res.Release = next
	res.ArtifactPath = a.fs.Join(a.root, next.FileName())

	// An equal version is a duplicate release and takes the overwrite path.
	if record.Compare(next, previous) < 0 {
		res.enter(StageAborted)
		return res, fmt.Errorf("%w: %s sorts below the current release %s", ErrVersionNotIncreasing, next, previous)
	}

	log := a.log.WithFields(logrus.Fields{
		"previous": previous.String(),
		"release":  next.String(),
	})

	res.enter(StageReadingPending)
	changes, err := a.pool.ListPending(ctx)
	if err != nil {
		res.enter(StageAborted)
		return res, fmt.Errorf("reading pending changes: %w", err)
	}
	res.Release.Changes = changes

	if len(changes) == 0 {
		log.Warn("creating release with no pending changes")
	}

	exists, err := fsutil.Exists(a.fs, res.ArtifactPath)
	if err != nil {
		res.enter(StageAborted)
		return res, fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}
	res.Overwrote = exists

	if req.DryRun {
		return res, nil
	}

	res.enter(StageWritingArtifact)
	if exists {
		log.WithField("file", res.ArtifactPath).Warn("release artifact already exists, overwriting")
	}

	data, err := record.EncodeArtifact(changes)
	if err != nil {
		res.enter(StageAborted)
		return res, fmt.Errorf("%w: %w", ErrWriteFailure, err)
	}
	if err := fsutil.WriteAtomic(a.fs, res.ArtifactPath, data); err != nil {
		res.enter(StageAborted)
		return res, fmt.Errorf("%w: %s: %w", ErrWriteFailure, res.ArtifactPath, err)
	}

	res.enter(StageClearingPending)
	if err := a.pool.Clear(ctx); err != nil {
		return res, fmt.Errorf("%w: release %s was written to %s: %w", ErrClearFailure, next, res.ArtifactPath, err)
	}

	res.enter(StageDone)
	log.WithField("changes", len(changes)).Info("release created")
	return res, nil
}
