// Package triage decides, per entity, whether to archive, soft-delete,
// or retain, and carries out the decision.
package triage

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/Nemelio/downsweep/internal/fsops"
	"github.com/Nemelio/downsweep/internal/model"
)

// Action is the triage outcome for one entity.
type Action string

const (
	// ActionRetain leaves a non-stale entity in place.
	ActionRetain Action = "retain"
	// ActionArchive moves a stale-but-valuable entity into the dated
	// archive folder for this run.
	ActionArchive Action = "archive"
	// ActionTrash soft-deletes a stale, non-valuable entity.
	ActionTrash Action = "trash"
)

// StampLayout names the per-run archive subdirectory. Filesystem-safe
// on every platform, unlike the legacy wall-clock string.
const StampLayout = "20060102T150405Z"

// Policy holds the classification knobs, fixed at construction.
type Policy struct {
	// Window is the retention window; older last-access means stale.
	Window time.Duration
	// Threshold is the importance score at which an entity is valuable.
	Threshold int
}

// Result is the outcome of triaging one entity.
type Result struct {
	Record model.Record
	Action Action
	// Dest is where the entity was moved, empty for retain/trash.
	Dest string
}

// EntityError wraps a stat/move/trash failure with the entity it hit.
// The orchestrator logs these and continues; one inaccessible entity
// does not abort the run.
type EntityError struct {
	Identity string
	Op       string
	Err      error
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Identity, e.Err)
}

func (e *EntityError) Unwrap() error { return e.Err }

// Engine triages entities against the previous run's snapshot. It
// reads the snapshot, never writes it.
type Engine struct {
	fs          fsops.Provider
	policy      Policy
	archiveRoot string
	runStamp    string
	dryRun      bool
}

// New builds an Engine. runStart names the archive subdirectory shared
// by everything archived in this run.
func New(fs fsops.Provider, policy Policy, archiveRoot string, runStart time.Time, dryRun bool) *Engine {
	return &Engine{
		fs:          fs,
		policy:      policy,
		archiveRoot: archiveRoot,
		runStamp:    runStart.UTC().Format(StampLayout),
		dryRun:      dryRun,
	}
}

// Triage runs the per-entity state machine: stat, accrue importance
// from the previous snapshot, classify at now, dispatch. Non-stale
// entities are untouched on disk. In dry-run mode the returned Action
// says what would have happened but nothing moves.
func (e *Engine) Triage(path string, prev map[string]model.Record, now time.Time) (Result, error) {
	meta, err := e.fs.Stat(path)
	if err != nil {
		return Result{}, &EntityError{Identity: path, Op: "stat", Err: err}
	}

	rec := model.Record{
		Identity:       path,
		CreatedAt:      meta.CreatedAt,
		LastAccessedAt: meta.LastAccessedAt,
	}
	if old, ok := prev[path]; ok {
		rec = rec.Accrue(old)
	}

	res := Result{Record: rec, Action: ActionRetain}
	if !rec.IsStale(now, e.policy.Window) {
		return res, nil
	}

	if rec.IsValuable(e.policy.Threshold) {
		res.Action = ActionArchive
		res.Dest = filepath.Join(e.archiveRoot, e.runStamp, filepath.Base(path))
		if e.dryRun {
			return res, nil
		}
		if err := e.fs.Move(path, res.Dest); err != nil {
			return res, &EntityError{Identity: path, Op: "archive", Err: err}
		}
		return res, nil
	}

	res.Action = ActionTrash
	if e.dryRun {
		return res, nil
	}
	if err := e.fs.Trash(path); err != nil {
		return res, &EntityError{Identity: path, Op: "trash", Err: err}
	}
	return res, nil
}
