// Package adapter contains filesystem and document-store adapters for the
// simstage CLI.
package adapter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// WorkspaceFS abstracts the filesystem operations used while materializing
// workspaces and sandboxes. It hides direct `os` access so the domain
// logic can be exercised against temporary trees in tests.
type WorkspaceFS interface {
	// LExists reports existence without following a trailing symlink.
	LExists(path string) bool

	// SameFile reports whether two paths refer to the same filesystem object.
	SameFile(a, b string) bool

	// CopyFile copies a regular file, preserving its permission bits.
	CopyFile(src, dst string) error

	// CopyFileOrTree copies a file, or a directory tree recursively.
	CopyFileOrTree(src, dst string) error

	// Symlink creates a symbolic link at dst pointing to src.
	Symlink(src, dst string) error

	// SymlinksSupported probes whether symlinks can be created under dir.
	SymlinksSupported(dir string) bool

	// RemoveFileOrTree removes a file, link, or directory tree.
	RemoveFileOrTree(path string) error

	// RemoveTreeBestEffort removes a tree, logging and ignoring failures.
	RemoveTreeBestEffort(path string)

	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path string) error

	// Touch creates an empty file, truncating any existing one.
	Touch(path string) error

	// Remove removes a single file or empty directory.
	Remove(path string) error
}

// LocalWorkspaceFS is the os-backed WorkspaceFS implementation.
type LocalWorkspaceFS struct{}

// NewLocalWorkspaceFS constructs a LocalWorkspaceFS.
func NewLocalWorkspaceFS() *LocalWorkspaceFS {
	return &LocalWorkspaceFS{}
}

// LExists reports whether path exists, without following a trailing symlink.
func (a *LocalWorkspaceFS) LExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// SameFile reports whether a and b resolve to the same filesystem object.
func (a *LocalWorkspaceFS) SameFile(pathA, pathB string) bool {
	infoA, errA := os.Stat(pathA)
	infoB, errB := os.Stat(pathB)

	if errA != nil || errB != nil {
		return false
	}

	return os.SameFile(infoA, infoB)
}

// CopyFile copies src to dst, creating parent directories and preserving
// the source permission bits.
func (a *LocalWorkspaceFS) CopyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", dst, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}

	return os.Chmod(dst, info.Mode().Perm())
}

// CopyFileOrTree copies a single file or a whole directory tree.
func (a *LocalWorkspaceFS) CopyFileOrTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	if !info.IsDir() {
		return a.CopyFile(src, dst)
	}

	return filepath.Walk(src, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		target := filepath.Join(dst, rel)
		if fi.IsDir() {
			return os.MkdirAll(target, fi.Mode().Perm())
		}

		return a.CopyFile(path, target)
	})
}

// Symlink creates a symbolic link at dst pointing to src. A relative src
// would resolve against the link's own directory, not the caller's, so
// the target is absolutized first.
func (a *LocalWorkspaceFS) Symlink(src, dst string) error {
	target, err := filepath.Abs(src)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", src, err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", dst, err)
	}

	if err := os.Symlink(target, dst); err != nil {
		return fmt.Errorf("link %s to %s: %w", dst, target, err)
	}

	return nil
}

// SymlinksSupported creates and removes a throwaway link under dir. The
// probe runs once at startup; the result is carried as a capability flag
// rather than re-checked per file.
func (a *LocalWorkspaceFS) SymlinksSupported(dir string) bool {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false
	}

	probe := filepath.Join(dir, ".symlink-probe")
	_ = os.Remove(probe)

	if err := os.Symlink(dir, probe); err != nil {
		return false
	}

	_ = os.Remove(probe)

	return true
}

// RemoveFileOrTree removes path, whatever it is.
func (a *LocalWorkspaceFS) RemoveFileOrTree(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("lstat %s: %w", path, err)
	}

	if info.IsDir() {
		return os.RemoveAll(path)
	}

	return os.Remove(path)
}

// RemoveTreeBestEffort removes a tree, tolerating partially-missing or
// undeletable entries. Failures are logged and ignored.
func (a *LocalWorkspaceFS) RemoveTreeBestEffort(path string) {
	if err := os.RemoveAll(path); err != nil {
		slog.Warn("could not fully remove tree", "path", path, "error", err)
	}
}

// MkdirAll creates path and any missing parents.
func (a *LocalWorkspaceFS) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

// Touch creates an empty file at path.
func (a *LocalWorkspaceFS) Touch(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	return f.Close()
}

// Remove removes a single file or empty directory.
func (a *LocalWorkspaceFS) Remove(path string) error {
	return os.Remove(path)
}
