package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Nemelio/downsweep/internal/model"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const week = 7 * 24 * time.Hour

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "snapshot.csv"))
}

func TestLoadMissingFileIsEmptyHistory(t *testing.T) {
	s := newTestStore(t)

	records, err := s.Load()
	if err != nil {
		t.Fatalf("load on missing file: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty history, got %d records", len(records))
	}
}

func TestReplaceThenLoadRoundTrips(t *testing.T) {
	s := newTestStore(t)

	in := []model.Record{
		{
			Identity:       "/downloads/report.pdf",
			CreatedAt:      now.Add(-30 * 24 * time.Hour),
			LastAccessedAt: now.Add(-time.Hour),
			Importance:     2,
		},
		{
			Identity:       `/downloads/weird, "name".txt`,
			CreatedAt:      time.Unix(1693400000, 123456789).UTC(),
			LastAccessedAt: time.Unix(1693400000, 500).UTC(),
			Importance:     0,
		},
	}

	if err := s.Replace(in, now, week); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	for _, want := range in {
		rec, ok := got[want.Identity]
		if !ok {
			t.Fatalf("identity %q missing after round trip", want.Identity)
		}
		if !rec.CreatedAt.Equal(want.CreatedAt) {
			t.Errorf("%s: created_at %v != %v", want.Identity, rec.CreatedAt, want.CreatedAt)
		}
		if !rec.LastAccessedAt.Equal(want.LastAccessedAt) {
			t.Errorf("%s: last_accessed_at %v != %v", want.Identity, rec.LastAccessedAt, want.LastAccessedAt)
		}
		if rec.Importance != want.Importance {
			t.Errorf("%s: importance %d != %d", want.Identity, rec.Importance, want.Importance)
		}
	}
}

func TestReplaceDropsStaleRecords(t *testing.T) {
	s := newTestStore(t)

	in := []model.Record{
		{Identity: "fresh", LastAccessedAt: now.Add(-24 * time.Hour)},
		{Identity: "stale", LastAccessedAt: now.Add(-8 * 24 * time.Hour)},
	}
	if err := s.Replace(in, now, week); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := got["stale"]; ok {
		t.Error("stale record survived replace")
	}
	if _, ok := got["fresh"]; !ok {
		t.Error("fresh record dropped by replace")
	}
	for id, rec := range got {
		if rec.IsStale(now, week) {
			t.Errorf("persisted record %q is stale at write time", id)
		}
	}
}

func TestReplaceIsFullRewrite(t *testing.T) {
	s := newTestStore(t)

	first := []model.Record{{Identity: "a", LastAccessedAt: now}, {Identity: "b", LastAccessedAt: now}}
	if err := s.Replace(first, now, week); err != nil {
		t.Fatalf("first replace: %v", err)
	}
	second := []model.Record{{Identity: "b", LastAccessedAt: now}}
	if err := s.Replace(second, now, week); err != nil {
		t.Fatalf("second replace: %v", err)
	}

	got, _ := s.Load()
	if len(got) != 1 {
		t.Fatalf("expected 1 record after full rewrite, got %d", len(got))
	}
	if _, ok := got["a"]; ok {
		t.Error("identity absent from the new set must disappear from the store")
	}
}

func TestLoadMalformedTimestamp(t *testing.T) {
	s := newTestStore(t)
	content := "identity,created_at,last_accessed_at,importance\n" +
		"/downloads/x,not-a-number,1693400000,1\n"
	if err := os.WriteFile(s.Path(), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := s.Load()
	if !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
}

func TestLoadMalformedImportance(t *testing.T) {
	s := newTestStore(t)
	content := "identity,created_at,last_accessed_at,importance\n" +
		"/downloads/x,1693400000,1693400000,many\n"
	if err := os.WriteFile(s.Path(), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := s.Load()
	if !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
}

func TestLoadWrongHeader(t *testing.T) {
	s := newTestStore(t)
	content := "path,birth,access,score\n/downloads/x,1,2,3\n"
	if err := os.WriteFile(s.Path(), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := s.Load()
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(s.Path(), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := s.Load()
	if err != nil {
		t.Fatalf("load on empty file: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestDuplicateIdentityLastRowWins(t *testing.T) {
	s := newTestStore(t)
	content := "identity,created_at,last_accessed_at,importance\n" +
		"/downloads/x,1693400000,1693400000,1\n" +
		"/downloads/x,1693400000,1693400000,4\n"
	if err := os.WriteFile(s.Path(), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got["/downloads/x"].Importance != 4 {
		t.Errorf("expected later row to win, importance %d", got["/downloads/x"].Importance)
	}
}

func TestEpochCodec(t *testing.T) {
	cases := []time.Time{
		time.Unix(0, 0).UTC(),
		time.Unix(1693400000, 0).UTC(),
		time.Unix(1693400000, 123456789).UTC(),
		time.Unix(1693400000, 1).UTC(),
		time.Unix(1693400000, 999999999).UTC(),
	}
	for _, want := range cases {
		s := formatEpoch(want)
		got, err := parseEpoch(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		if !got.Equal(want) {
			t.Errorf("round trip %q: got %v, want %v", s, got, want)
		}
		if strings.HasSuffix(s, ".") {
			t.Errorf("dangling decimal point in %q", s)
		}
	}

	// Python emitted plain float reprs; those still parse.
	got, err := parseEpoch("1693400000.5")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !got.Equal(time.Unix(1693400000, 500000000).UTC()) {
		t.Errorf("fraction padding wrong: %v", got)
	}
}
