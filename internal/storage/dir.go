package storage

import (
	"os"
	"path/filepath"
)

// Dir is a Device backed by a plain directory. It is always available;
// used for non-removable roots and as the test double.
type Dir struct {
	root string
}

// NewDir creates a directory-backed device rooted at root.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

func (d *Dir) Mount() bool     { return true }
func (d *Dir) Unmount()        {}
func (d *Dir) Available() bool { return true }

func (d *Dir) Exists(path string) bool {
	_, err := os.Stat(d.abs(path))
	return err == nil
}

func (d *Dir) MkdirAll(path string) error {
	return os.MkdirAll(d.abs(path), 0o755)
}

func (d *Dir) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(d.abs(path))
}

func (d *Dir) WriteFile(path string, data []byte) error {
	return os.WriteFile(d.abs(path), data, 0o644)
}

func (d *Dir) Rename(oldpath, newpath string) error {
	return os.Rename(d.abs(oldpath), d.abs(newpath))
}

func (d *Dir) Remove(path string) error {
	return os.Remove(d.abs(path))
}

func (d *Dir) abs(path string) string {
	return filepath.Join(d.root, path)
}
