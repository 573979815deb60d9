package model

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathPair stores an absolute path together with the base directory and
// relative path it was derived from. Relative paths are generally relative
// to a sandbox's "exe" directory, which is what the simulation binary
// resolves its inputs against.
type PathPair struct {
	Base string
	Rel  string
	Abs  string
}

// NewPathPair derives the absolute path from base and rel. The filesystem
// is not touched.
func NewPathPair(base, rel string) PathPair {
	return PathPair{
		Base: base,
		Rel:  filepath.ToSlash(rel),
		Abs:  filepath.Clean(filepath.Join(base, rel)),
	}
}

// NewPathPairDir is NewPathPair plus creation of the absolute path as a
// directory when it does not exist yet.
func NewPathPairDir(base, rel string) (PathPair, error) {
	p := NewPathPair(base, rel)
	if err := os.MkdirAll(p.Abs, 0o755); err != nil {
		return PathPair{}, fmt.Errorf("create %s: %w", p.Abs, err)
	}

	return p, nil
}

// Basename returns the final element of the absolute path.
func (p PathPair) Basename() string {
	return filepath.Base(p.Abs)
}

// LExists reports whether the absolute path exists, without following a
// trailing symlink.
func (p PathPair) LExists() bool {
	_, err := os.Lstat(p.Abs)
	return err == nil
}

func (p PathPair) String() string {
	return fmt.Sprintf("<PathPair base=%q rel=%q>", p.Base, p.Rel)
}

// MakeDirPath joins the given elements, skipping empty ones, and creates
// the resulting directory when create is true.
func MakeDirPath(create bool, elements ...string) (string, error) {
	parts := make([]string, 0, len(elements))
	for _, e := range elements {
		if e != "" {
			parts = append(parts, e)
		}
	}

	path := filepath.Clean(filepath.Join(parts...))
	if create {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return "", fmt.Errorf("create %s: %w", path, err)
		}
	}

	return path, nil
}
