// Package sweep orchestrates one maintenance run: load history, triage
// every immediate child of the root, rewrite the snapshot, journal the
// outcome.
package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/Nemelio/downsweep/internal/fsops"
	"github.com/Nemelio/downsweep/internal/journal"
	"github.com/Nemelio/downsweep/internal/model"
	"github.com/Nemelio/downsweep/internal/snapshot"
	"github.com/Nemelio/downsweep/internal/triage"
)

// Options wires one run. FS, Store, and Policy are required; Journal is
// optional and Now defaults to the wall clock.
type Options struct {
	Root        string
	ArchiveRoot string
	Policy      triage.Policy
	DryRun      bool
	FS          fsops.Provider
	Store       *snapshot.Store
	Journal     *journal.Journal
	Now         func() time.Time
}

// Report summarizes a completed run.
type Report struct {
	RunID      string          `json:"run_id,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Root       string          `json:"root"`
	DryRun     bool            `json:"dry_run"`
	Scanned    int             `json:"scanned"`
	Archived   int             `json:"archived"`
	Trashed    int             `json:"trashed"`
	Retained   int             `json:"retained"`
	Skipped    int             `json:"skipped"`
	Actions    []journal.Entry `json:"actions,omitempty"`
	// JournalError is set when the advisory journal write failed; the
	// sweep itself still succeeded.
	JournalError string `json:"journal_error,omitempty"`
}

// Run executes one sweep. Per-entity failures are counted as skipped
// and reported, not fatal; history load and snapshot write failures
// abort the run. The context is checked between entities, never
// mid-move.
func Run(ctx context.Context, opts Options) (*Report, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	start := now()

	prev, err := opts.Store.Load()
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	children, err := opts.FS.List(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("scan root: %w", err)
	}

	engine := triage.New(opts.FS, opts.Policy, opts.ArchiveRoot, start, opts.DryRun)
	report := &Report{StartedAt: start, Root: opts.Root, DryRun: opts.DryRun}

	var keep []model.Record
	for _, path := range children {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report.Scanned++

		res, err := engine.Triage(path, prev, now())
		if err != nil {
			report.Skipped++
			report.Actions = append(report.Actions, journal.Entry{
				Identity:       path,
				Action:         "skip",
				Importance:     res.Record.Importance,
				LastAccessedAt: res.Record.LastAccessedAt,
				Detail:         err.Error(),
			})
			continue
		}

		switch res.Action {
		case triage.ActionRetain:
			report.Retained++
			// Only retained entities carry history into the next run;
			// archived and trashed ones are intentionally forgotten.
			keep = append(keep, res.Record)
		case triage.ActionArchive:
			report.Archived++
			report.Actions = append(report.Actions, journal.Entry{
				Identity:       path,
				Action:         string(res.Action),
				Importance:     res.Record.Importance,
				LastAccessedAt: res.Record.LastAccessedAt,
				Detail:         res.Dest,
			})
		case triage.ActionTrash:
			report.Trashed++
			report.Actions = append(report.Actions, journal.Entry{
				Identity:       path,
				Action:         string(res.Action),
				Importance:     res.Record.Importance,
				LastAccessedAt: res.Record.LastAccessedAt,
			})
		}
	}

	report.FinishedAt = now()

	if !opts.DryRun {
		if err := opts.Store.Replace(keep, report.FinishedAt, opts.Policy.Window); err != nil {
			return nil, fmt.Errorf("persist snapshot: %w", err)
		}
	}

	if opts.Journal != nil {
		id, err := opts.Journal.Record(ctx, journal.Run{
			StartedAt:  report.StartedAt,
			FinishedAt: report.FinishedAt,
			Root:       opts.Root,
			DryRun:     opts.DryRun,
			Scanned:    report.Scanned,
			Archived:   report.Archived,
			Trashed:    report.Trashed,
			Retained:   report.Retained,
			Skipped:    report.Skipped,
		}, report.Actions)
		if err != nil {
			report.JournalError = err.Error()
		} else {
			report.RunID = id
		}
	}

	return report, nil
}
