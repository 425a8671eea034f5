package fsops

import (
	"fmt"
	"path/filepath"
	"sort"
)

// Fake is an in-memory Provider for tests. Entities live in a flat
// path→Meta map; Move and Trash record what happened instead of
// touching disk.
type Fake struct {
	Entities map[string]Meta
	Moved    map[string]string // src → dst
	Trashed  []string

	// FailStat, FailMove, FailTrash name paths whose operations error.
	FailStat  map[string]bool
	FailMove  map[string]bool
	FailTrash map[string]bool
	FailList  bool
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{
		Entities: map[string]Meta{},
		Moved:    map[string]string{},
	}
}

// FailList, when set, makes List error for any root.
func (f *Fake) List(root string) ([]string, error) {
	if f.FailList {
		return nil, fmt.Errorf("list %s: permission denied", root)
	}
	var paths []string
	for p := range f.Entities {
		if filepath.Dir(p) == root {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (f *Fake) Stat(path string) (Meta, error) {
	if f.FailStat[path] {
		return Meta{}, fmt.Errorf("stat %s: permission denied", path)
	}
	m, ok := f.Entities[path]
	if !ok {
		return Meta{}, fmt.Errorf("stat %s: no such entity", path)
	}
	return m, nil
}

func (f *Fake) Move(src, dst string) error {
	if f.FailMove[src] {
		return fmt.Errorf("move %s: device busy", src)
	}
	m, ok := f.Entities[src]
	if !ok {
		return fmt.Errorf("move %s: no such entity", src)
	}
	delete(f.Entities, src)
	f.Entities[dst] = m
	f.Moved[src] = dst
	return nil
}

func (f *Fake) Trash(path string) error {
	if f.FailTrash[path] {
		return fmt.Errorf("trash %s: not permitted", path)
	}
	if _, ok := f.Entities[path]; !ok {
		return fmt.Errorf("trash %s: no such entity", path)
	}
	delete(f.Entities, path)
	f.Trashed = append(f.Trashed, path)
	return nil
}

// Paths returns the live entity paths in sorted order.
func (f *Fake) Paths() []string {
	paths := make([]string, 0, len(f.Entities))
	for p := range f.Entities {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
