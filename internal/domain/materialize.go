package domain

import (
	"log/slog"
	"os"
	"path/filepath"

	"simstage.dev/pkg/simstage/internal/adapter"
	m "simstage.dev/pkg/simstage/internal/model"
)

// SemaphoreName is the empty sentinel file written into a workspace while
// it is being built. A workspace still carrying it was left by an
// interrupted build and is not trusted.
const SemaphoreName = ".creation-semaphore"

// Materializer builds the shared reference workspace and per-scenario
// sandboxes, choosing copy vs. symlink per file. Symlink capability is
// probed once at construction, not per file.
type Materializer struct {
	cfg        *Config
	fs         adapter.WorkspaceFS
	symlinksOK bool
}

// NewMaterializer constructs a Materializer, running the symlink probe
// under the sandbox root.
func NewMaterializer(cfg *Config, fs adapter.WorkspaceFS) *Materializer {
	return &Materializer{
		cfg:        cfg,
		fs:         fs,
		symlinksOK: fs.SymlinksSupported(cfg.SandboxRoot),
	}
}

// EnsureReferenceWorkspace makes sure the shared workspace copy of the
// reference tree exists and is trustworthy. When the workspace exists, no
// semaphore is present and force is false, this is a pure existence check.
//
// The rebuild protocol writes the semaphore before any destructive action
// and removes it only after every required file succeeds, so a later
// invocation that observes the semaphore rebuilds unconditionally.
//
// The semaphore does not serialize concurrent builders: two processes that
// both observe a stale marker will both rebuild. Run the workspace build
// ahead of dependent array jobs.
func (mz *Materializer) EnsureReferenceWorkspace(force bool) error {
	ref := mz.cfg.RefWorkspace
	workspace := mz.cfg.WorkspacePath()

	if mz.fs.LExists(workspace) && mz.fs.SameFile(workspace, ref) {
		return m.NewConfigurationError(
			"sandbox workspace %q is the reference workspace itself; no setup performed", workspace)
	}

	semaphore := filepath.Join(workspace, SemaphoreName)

	if err := mz.fs.Remove(semaphore); err == nil {
		// Removing it succeeded, so the last build never finished.
		slog.Warn("rebuilding workspace", "cause", &m.StaleBuildError{Workspace: workspace})
		force = true
	} else if !os.IsNotExist(err) {
		return err
	}

	exists := mz.fs.LExists(workspace)
	if exists && !force {
		slog.Debug("workspace already exists", "path", workspace)
		return nil
	}

	slog.Info("building reference workspace", "from", ref, "to", workspace)

	if exists {
		mz.fs.RemoveTreeBestEffort(workspace)
	}

	if err := mz.fs.MkdirAll(workspace); err != nil {
		return err
	}

	if err := mz.fs.Touch(semaphore); err != nil {
		return err
	}

	if err := mz.populate(ref, workspace); err != nil {
		return err
	}

	// Only a fully-populated workspace sheds its semaphore.
	return mz.fs.Remove(semaphore)
}

// MaterializeSandbox creates the scenario's directory tree, places the
// required files into it, and wires the configuration-overlay relationship
// to its parent for non-baselines.
func (mz *Materializer) MaterializeSandbox(fm *FileMapper) error {
	workspace := mz.cfg.WorkspacePath()

	if mz.fs.LExists(fm.ScenarioDir) && mz.fs.SameFile(fm.ScenarioDir, workspace) {
		return m.NewConfigurationError(
			"scenario directory %q is the sandbox workspace itself", fm.ScenarioDir)
	}

	slog.Info("materializing sandbox",
		"group", fm.Group.Name, "scenario", fm.Scenario.Name, "dir", fm.ScenarioDir)

	for _, dir := range fm.RuntimeDirs() {
		if _, err := m.NewPathPairDir(dir.Base, dir.Rel); err != nil {
			return err
		}
	}

	if err := mz.fs.MkdirAll(fm.LocalDir); err != nil {
		return err
	}

	if err := mz.populate(workspace, fm.ScenarioDir); err != nil {
		return err
	}

	if !fm.ExePath.LExists() {
		slog.Warn("simulation binary not present in sandbox",
			"scenario", fm.Scenario.Name, "path", fm.ExePath.Abs)
	}

	if fm.Parent != nil {
		// The overlay chain walks the parent's local dir; make sure it
		// exists even when the parent sandbox has not been built here.
		if err := mz.fs.MkdirAll(fm.Parent.LocalDir); err != nil {
			return err
		}

		slog.Debug("sandbox overlays parent",
			"scenario", fm.Scenario.Name, "parent", fm.Parent.Scenario.Name)
	}

	return nil
}

// populate places every required-files entry into dst, copying or linking
// from src according to the link subset and the global copy policy.
func (mz *Materializer) populate(src, dst string) error {
	toCopy, toLink := mz.filesToCopyAndLink()

	for _, rel := range toCopy {
		if err := mz.linkOrCopy(src, dst, rel, true); err != nil {
			return err
		}
	}

	for _, rel := range toLink {
		copyIt := mz.cfg.CopyAllFiles || !mz.symlinksOK
		if err := mz.linkOrCopy(src, dst, rel, copyIt); err != nil {
			return err
		}
	}

	return nil
}

// filesToCopyAndLink splits the required-files list into the entries to
// copy and the entries to link. Link entries that are not required files
// are ignored with a warning.
func (mz *Materializer) filesToCopyAndLink() (toCopy, toLink []string) {
	required := map[string]bool{}
	for _, f := range mz.cfg.RequiredFiles {
		required[f] = true
	}

	linked := map[string]bool{}

	for _, f := range mz.cfg.FilesToLink {
		if !required[f] {
			slog.Warn("ignoring unknown file in link list", "file", f)
			continue
		}

		linked[f] = true
		toLink = append(toLink, f)
	}

	for _, f := range mz.cfg.RequiredFiles {
		if !linked[f] {
			toCopy = append(toCopy, f)
		}
	}

	return toCopy, toLink
}

// linkOrCopy places one required-files entry into dstBase. A relative
// entry keeps its relative path under both trees; an absolute entry lands
// under dstBase by basename.
func (mz *Materializer) linkOrCopy(srcBase, dstBase, entry string, copyIt bool) error {
	var srcPath, dstPath string

	if filepath.IsAbs(entry) {
		srcPath = entry
		dstPath = filepath.Join(dstBase, filepath.Base(filepath.Clean(entry)))
	} else {
		srcPath = filepath.Join(srcBase, entry)
		dstPath = filepath.Join(dstBase, entry)
	}

	if mz.fs.LExists(dstPath) {
		if err := mz.fs.RemoveFileOrTree(dstPath); err != nil {
			return err
		}
	}

	if copyIt {
		slog.Debug("copying", "src", srcPath, "dst", dstPath)
		return mz.fs.CopyFileOrTree(srcPath, dstPath)
	}

	slog.Debug("linking", "src", srcPath, "dst", dstPath)

	return mz.fs.Symlink(srcPath, dstPath)
}
