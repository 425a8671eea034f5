// Package snapshot persists the identity→record mapping between runs
// as a flat CSV file. The whole file is read at run start and rewritten
// at run end; there is no incremental update path.
package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Nemelio/downsweep/internal/model"
)

// Sentinel errors for the store failure taxonomy. Callers match with
// errors.Is.
var (
	// ErrStorageUnavailable means the snapshot file exists but cannot
	// be read, or its header does not match the expected schema.
	ErrStorageUnavailable = errors.New("snapshot storage unavailable")

	// ErrMalformedRecord means a row failed type coercion, e.g. a
	// non-numeric timestamp. Fatal at load time; rows are not skipped.
	ErrMalformedRecord = errors.New("malformed snapshot record")

	// ErrStorageWrite means the snapshot rewrite failed. The previous
	// snapshot file is left untouched when this is returned.
	ErrStorageWrite = errors.New("snapshot write failed")
)

var header = []string{"identity", "created_at", "last_accessed_at", "importance"}

// Store reads and rewrites one snapshot file. Not safe for concurrent
// use; two simultaneous runs against the same file race on
// read-then-overwrite.
type Store struct {
	path string
}

// New returns a Store backed by the CSV file at path. The file need not
// exist yet; a missing file loads as empty history.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load reads the entire snapshot into memory, keyed by identity. A row
// repeating an identity overwrites the earlier one. A missing file is
// first-run bootstrap and yields an empty map.
func (s *Store) Load() (map[string]model.Record, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]model.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)

	head, err := r.Read()
	if errors.Is(err, io.EOF) {
		// Zero-byte file, e.g. an interrupted legacy write. Treat as empty.
		return map[string]model.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrStorageUnavailable, err)
	}
	for i, name := range header {
		if head[i] != name {
			return nil, fmt.Errorf("%w: unexpected header %q", ErrStorageUnavailable, strings.Join(head, ","))
		}
	}

	records := make(map[string]model.Record)
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, line, err)
		}
		rec, err := decodeRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, line, err)
		}
		records[rec.Identity] = rec
	}
	return records, nil
}

// Replace atomically overwrites the snapshot with exactly the given
// records, dropping any record that is stale at now. The new content is
// written to a temp file in the same directory and renamed over the
// target, so a crash mid-write leaves the old snapshot intact.
func (s *Store) Replace(records []model.Record, now time.Time, window time.Duration) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create snapshot dir: %v", ErrStorageWrite, err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.csv")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrStorageWrite, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write header: %v", ErrStorageWrite, err)
	}
	for _, rec := range records {
		if rec.IsStale(now, window) {
			continue
		}
		if err := w.Write(encodeRow(rec)); err != nil {
			tmp.Close()
			return fmt.Errorf("%w: write row for %s: %v", ErrStorageWrite, rec.Identity, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: flush: %v", ErrStorageWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp file: %v", ErrStorageWrite, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: rename into place: %v", ErrStorageWrite, err)
	}
	return nil
}

func encodeRow(rec model.Record) []string {
	return []string{
		rec.Identity,
		formatEpoch(rec.CreatedAt),
		formatEpoch(rec.LastAccessedAt),
		strconv.Itoa(rec.Importance),
	}
}

func decodeRow(row []string) (model.Record, error) {
	created, err := parseEpoch(row[1])
	if err != nil {
		return model.Record{}, fmt.Errorf("created_at: %v", err)
	}
	accessed, err := parseEpoch(row[2])
	if err != nil {
		return model.Record{}, fmt.Errorf("last_accessed_at: %v", err)
	}
	importance, err := strconv.Atoi(row[3])
	if err != nil {
		return model.Record{}, fmt.Errorf("importance: %v", err)
	}
	if importance < 0 {
		return model.Record{}, fmt.Errorf("importance: negative value %d", importance)
	}
	return model.Record{
		Identity:       row[0],
		CreatedAt:      created,
		LastAccessedAt: accessed,
		Importance:     importance,
	}, nil
}

// formatEpoch renders a timestamp as decimal seconds since the Unix
// epoch. The fractional part is integer nanoseconds, never a float, so
// parseEpoch round-trips exactly.
func formatEpoch(t time.Time) string {
	sec := t.Unix()
	nanos := t.Nanosecond()
	if nanos == 0 {
		return strconv.FormatInt(sec, 10)
	}
	frac := strings.TrimRight(fmt.Sprintf("%09d", nanos), "0")
	return strconv.FormatInt(sec, 10) + "." + frac
}

func parseEpoch(s string) (time.Time, error) {
	whole, frac, hasFrac := strings.Cut(s, ".")
	sec, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid seconds %q", s)
	}
	var nanos int64
	if hasFrac {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		padded := frac + strings.Repeat("0", 9-len(frac))
		nanos, err = strconv.ParseInt(padded, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid fraction %q", s)
		}
	}
	return time.Unix(sec, nanos).UTC(), nil
}
