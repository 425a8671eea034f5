// Package journal keeps an append-only SQLite history of sweep runs.
// The journal is advisory: the snapshot file and the filesystem are the
// source of truth, and a journal failure never aborts a sweep.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Journal records runs and the actions they took.
type Journal struct {
	db      *sql.DB
	entropy *rand.Rand
}

// Run is one recorded sweep.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Root       string    `json:"root"`
	DryRun     bool      `json:"dry_run"`
	Scanned    int       `json:"scanned"`
	Archived   int       `json:"archived"`
	Trashed    int       `json:"trashed"`
	Retained   int       `json:"retained"`
	Skipped    int       `json:"skipped"`
}

// Entry is one recorded per-entity action within a run.
type Entry struct {
	RunID          string    `json:"run_id,omitempty"`
	Identity       string    `json:"identity"`
	Action         string    `json:"action"`
	Importance     int       `json:"importance"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	Detail         string    `json:"detail,omitempty"`
}

// Open opens or creates the journal database at the given path.
func Open(dbPath string) (*Journal, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	j := &Journal{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return j, nil
}

func (j *Journal) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		started_at  TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		root        TEXT NOT NULL,
		dry_run     INTEGER NOT NULL DEFAULT 0,
		scanned     INTEGER NOT NULL DEFAULT 0,
		archived    INTEGER NOT NULL DEFAULT 0,
		trashed     INTEGER NOT NULL DEFAULT 0,
		retained    INTEGER NOT NULL DEFAULT 0,
		skipped     INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS actions (
		run_id           TEXT NOT NULL REFERENCES runs(id),
		identity         TEXT NOT NULL,
		action           TEXT NOT NULL,
		importance       INTEGER NOT NULL DEFAULT 0,
		last_accessed_at TEXT NOT NULL,
		detail           TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_actions_run ON actions(run_id);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) newID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), j.entropy).String()
}

// Record appends one run and its entries. Entries with action "retain"
// are not stored; the journal tracks what changed, not what didn't.
func (j *Journal) Record(ctx context.Context, run Run, entries []Entry) (string, error) {
	id := j.newID(run.StartedAt)

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, root, dry_run, scanned, archived, trashed, retained, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.Root,
		boolInt(run.DryRun),
		run.Scanned, run.Archived, run.Trashed, run.Retained, run.Skipped,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, e := range entries {
		if e.Action == "retain" {
			continue
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO actions (run_id, identity, action, importance, last_accessed_at, detail)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id, e.Identity, e.Action, e.Importance,
			e.LastAccessedAt.UTC().Format(time.RFC3339Nano), e.Detail,
		)
		if err != nil {
			return "", fmt.Errorf("insert action for %s: %w", e.Identity, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// Recent returns the latest runs, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, root, dry_run, scanned, archived, trashed, retained, skipped
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		var dry int
		if err := rows.Scan(&r.ID, &started, &finished, &r.Root, &dry,
			&r.Scanned, &r.Archived, &r.Trashed, &r.Retained, &r.Skipped); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		r.DryRun = dry != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Actions returns the recorded actions for one run.
func (j *Journal) Actions(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, identity, action, importance, last_accessed_at, detail
		FROM actions WHERE run_id = ? ORDER BY identity`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var accessed string
		var detail sql.NullString
		if err := rows.Scan(&e.RunID, &e.Identity, &e.Action, &e.Importance, &accessed, &detail); err != nil {
			return nil, err
		}
		e.LastAccessedAt, _ = time.Parse(time.RFC3339Nano, accessed)
		e.Detail = detail.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
