package domain

import (
	"log/slog"
	"path/filepath"

	"simstage.dev/pkg/simstage/internal/adapter"
	m "simstage.dev/pkg/simstage/internal/model"
)

// OverlayResolver resolves relative paths against a scenario's ancestor
// chain. Reads return the nearest existing copy; the first write copies
// the resolved file into the scenario's own directory so a derived
// scenario stores only its diffs against its baseline.
type OverlayResolver struct {
	fs       adapter.WorkspaceFS
	localDir string
	chain    []string // localDir first, reference root last
}

// NewOverlayResolver builds a resolver over the given search chain. The
// chain must start with the scenario's own directory; duplicate entries
// indicate a self-referential ancestor chain and are rejected.
func NewOverlayResolver(fs adapter.WorkspaceFS, chain []string) (*OverlayResolver, error) {
	if len(chain) == 0 {
		return nil, m.NewConfigurationError("overlay chain is empty")
	}

	seen := map[string]bool{}
	for _, dir := range chain {
		key := filepath.Clean(dir)
		if seen[key] {
			return nil, m.NewConfigurationError("overlay chain contains %q twice", dir)
		}

		seen[key] = true
	}

	return &OverlayResolver{fs: fs, localDir: chain[0], chain: chain}, nil
}

// NewScenarioOverlay builds the resolver for one mapped scenario.
func NewScenarioOverlay(fs adapter.WorkspaceFS, fm *FileMapper) (*OverlayResolver, error) {
	return NewOverlayResolver(fs, fm.OverlayDirs())
}

// LocalDir returns the scenario-owned directory writes resolve into.
func (r *OverlayResolver) LocalDir() string {
	return r.localDir
}

// ResolveForRead returns the absolute path of the nearest existing copy of
// rel, searching the scenario's own directory, then each ancestor, then
// the reference root. The chain is walked iteratively and never yields a
// path outside it.
func (r *OverlayResolver) ResolveForRead(rel string) (string, error) {
	for _, dir := range r.chain {
		candidate := filepath.Join(dir, rel)
		if r.fs.LExists(candidate) {
			return candidate, nil
		}
	}

	return "", &m.NotFoundError{Rel: rel, Searched: r.chain}
}

// ResolveForWrite returns a path for rel inside the scenario's own
// directory, copying the nearest existing version there first if no local
// copy exists yet. Repeated calls return the same path and copy at most
// once.
func (r *OverlayResolver) ResolveForWrite(rel string) (string, error) {
	local := filepath.Join(r.localDir, rel)
	if r.fs.LExists(local) {
		return local, nil
	}

	src, err := r.ResolveForRead(rel)
	if err != nil {
		return "", err
	}

	slog.Debug("copying up for write", "src", src, "dst", local)

	if err := r.fs.CopyFile(src, local); err != nil {
		return "", err
	}

	return local, nil
}
