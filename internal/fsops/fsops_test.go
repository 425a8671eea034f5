package fsops

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStatMissingPath(t *testing.T) {
	var p OS
	if _, err := p.Stat(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestStatReadsTimes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	var p OS
	m, err := p.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if m.LastAccessedAt.IsZero() || m.CreatedAt.IsZero() {
		t.Error("expected non-zero timestamps")
	}
	if m.IsDir {
		t.Error("regular file reported as directory")
	}

	dm, err := p.Stat(dir)
	if err != nil {
		t.Fatalf("stat dir: %v", err)
	}
	if !dm.IsDir {
		t.Error("directory not reported as directory")
	}
}

func TestMoveCreatesParents(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "archive", "2026", "src.txt")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	var p OS
	if err := p.Move(src, dst); err != nil {
		t.Fatalf("move: %v", err)
	}
	b, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read moved file: %v", err)
	}
	if string(b) != "payload" {
		t.Errorf("content changed in move: %q", b)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source still exists after move")
	}
}

func TestTrashLayout(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "junk.bin")
	if err := os.WriteFile(src, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	trash := filepath.Join(dir, "Trash")
	p := OS{TrashDir: trash}
	if err := p.Trash(src); err != nil {
		t.Fatalf("trash: %v", err)
	}

	if _, err := os.Stat(filepath.Join(trash, "files", "junk.bin")); err != nil {
		t.Errorf("trashed file not under files/: %v", err)
	}
	info, err := os.ReadFile(filepath.Join(trash, "info", "junk.bin.trashinfo"))
	if err != nil {
		t.Fatalf("trashinfo missing: %v", err)
	}
	if !strings.Contains(string(info), "[Trash Info]") {
		t.Errorf("trashinfo missing section header: %q", info)
	}
	if !strings.Contains(string(info), "Path=") || !strings.Contains(string(info), "DeletionDate=") {
		t.Errorf("trashinfo incomplete: %q", info)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source still exists after trash")
	}
}

func TestTrashNameCollision(t *testing.T) {
	dir := t.TempDir()
	trash := filepath.Join(dir, "Trash")
	p := OS{TrashDir: trash}

	for i := 0; i < 2; i++ {
		src := filepath.Join(dir, "dup.txt")
		if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := p.Trash(src); err != nil {
			t.Fatalf("trash #%d: %v", i+1, err)
		}
	}

	if _, err := os.Stat(filepath.Join(trash, "files", "dup.txt")); err != nil {
		t.Errorf("first trashed name missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(trash, "files", "dup (2).txt")); err != nil {
		t.Errorf("second trashed name not suffixed: %v", err)
	}
}

func TestFakeProvider(t *testing.T) {
	f := NewFake()
	f.Entities["/dl/a"] = Meta{}

	if err := f.Move("/dl/a", "/arc/a"); err != nil {
		t.Fatalf("move: %v", err)
	}
	if _, err := f.Stat("/dl/a"); err == nil {
		t.Error("moved entity still stats at old path")
	}
	if _, err := f.Stat("/arc/a"); err != nil {
		t.Errorf("moved entity missing at new path: %v", err)
	}

	f.Entities["/dl/b"] = Meta{}
	if err := f.Trash("/dl/b"); err != nil {
		t.Fatalf("trash: %v", err)
	}
	if len(f.Trashed) != 1 || f.Trashed[0] != "/dl/b" {
		t.Errorf("trash not recorded: %v", f.Trashed)
	}
}
