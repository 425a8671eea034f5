// Package fsops isolates the filesystem operations the sweep depends
// on: metadata reads and the two mutations (archive move, soft delete).
package fsops

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// Meta is the stat data a sweep needs from one entity.
type Meta struct {
	CreatedAt      time.Time
	LastAccessedAt time.Time
	IsDir          bool
}

// Provider abstracts list/stat/move/trash so the triage engine and
// orchestrator can be tested without touching a real filesystem.
type Provider interface {
	// List returns the full paths of root's immediate children, files
	// and directories alike. Never recursive.
	List(root string) ([]string, error)
	// Stat returns metadata for path, or an error if it is inaccessible.
	Stat(path string) (Meta, error)
	// Move renames src to dst, creating dst's parent directories.
	Move(src, dst string) error
	// Trash soft-deletes path into a recoverable trash location.
	Trash(path string) error
}

// OS is the real-filesystem Provider.
//
// TrashDir overrides the trash root; when empty, the freedesktop
// location ($XDG_DATA_HOME/Trash or ~/.local/share/Trash) is used.
type OS struct {
	TrashDir string
}

func (o OS) List(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", root, err)
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, filepath.Join(root, e.Name()))
	}
	return paths, nil
}

func (o OS) Stat(path string) (Meta, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Meta{}, fmt.Errorf("stat %s: %w", path, err)
	}
	m := Meta{
		CreatedAt:      info.ModTime(),
		LastAccessedAt: info.ModTime(),
		IsDir:          info.IsDir(),
	}
	// Linux stat carries atime and ctime beyond what FileInfo exposes.
	// ctime is the closest available stand-in for a birth time.
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		m.LastAccessedAt = time.Unix(st.Atim.Sec, st.Atim.Nsec)
		m.CreatedAt = time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	}
	return m, nil
}

func (o OS) Move(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", dst, err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("move %s to %s: %w", src, dst, err)
	}
	return nil
}

// Trash moves path into the freedesktop trash layout: the entity goes
// under files/ and a .trashinfo sidecar records the origin so desktop
// environments can restore it.
func (o OS) Trash(path string) error {
	root, err := o.trashRoot()
	if err != nil {
		return err
	}
	filesDir := filepath.Join(root, "files")
	infoDir := filepath.Join(root, "info")
	for _, d := range []string{filesDir, infoDir} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return fmt.Errorf("create trash dir: %w", err)
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	name := trashName(filesDir, infoDir, filepath.Base(abs))
	// Percent-encode the path per the trashinfo format, keeping "/".
	escaped := (&url.URL{Path: abs}).EscapedPath()
	info := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		escaped, time.Now().Format("2006-01-02T15:04:05"))
	infoPath := filepath.Join(infoDir, name+".trashinfo")
	if err := os.WriteFile(infoPath, []byte(info), 0o600); err != nil {
		return fmt.Errorf("write trash info for %s: %w", path, err)
	}
	if err := os.Rename(abs, filepath.Join(filesDir, name)); err != nil {
		os.Remove(infoPath)
		return fmt.Errorf("trash %s: %w", path, err)
	}
	return nil
}

func (o OS) trashRoot() (string, error) {
	if o.TrashDir != "" {
		return o.TrashDir, nil
	}
	if data := os.Getenv("XDG_DATA_HOME"); data != "" {
		return filepath.Join(data, "Trash"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate trash: %w", err)
	}
	return filepath.Join(home, ".local", "share", "Trash"), nil
}

// trashName picks a name not already present in files/ or info/,
// suffixing " (n)" the way desktop trash implementations do.
func trashName(filesDir, infoDir, base string) string {
	name := base
	for n := 2; ; n++ {
		_, errF := os.Lstat(filepath.Join(filesDir, name))
		_, errI := os.Lstat(filepath.Join(infoDir, name+".trashinfo"))
		if os.IsNotExist(errF) && os.IsNotExist(errI) {
			return name
		}
		ext := filepath.Ext(base)
		name = fmt.Sprintf("%s (%d)%s", base[:len(base)-len(ext)], n, ext)
	}
}
