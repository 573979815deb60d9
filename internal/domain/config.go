// Package domain implements scenario expansion, overlay resolution, and
// sandbox materialization.
package domain

import (
	"path/filepath"

	m "simstage.dev/pkg/simstage/internal/model"
)

// Config carries every runtime parameter the engine needs. It is built
// once per command from the parameter file and passed by reference; core
// packages hold no global state.
type Config struct {
	// ProjectName names the project; it appears in logs only.
	ProjectName string

	// ScenariosFile is the path to the scenario definition document.
	ScenariosFile string

	// DefaultGroup overrides the definition's default group when set.
	DefaultGroup string

	// RefWorkspace is the read-only reference tree the shared workspace
	// is built from.
	RefWorkspace string

	// SandboxRoot is the directory under which all sandboxes are created.
	SandboxRoot string

	// SandboxWorkspace is the shared reference workspace copy. When empty
	// it defaults to SandboxRoot/workspace.
	SandboxWorkspace string

	// ConfigFileName is the name of the structured configuration document
	// within a scenario's local directory.
	ConfigFileName string

	// RequiredFiles lists the workspace-relative entries every sandbox
	// needs. FilesToLink is the subset that may be symlinked; the rest
	// are always copied.
	RequiredFiles []string
	FilesToLink   []string

	// CopyAllFiles disables symlinking entirely.
	CopyAllFiles bool

	// Executable is the simulation binary name inside the exe directory.
	Executable string

	// MaxTrialDirs bounds the fan-out of each trial shard level. Must be
	// a power of ten.
	MaxTrialDirs int
}

// WorkspacePath returns the shared reference workspace copy location.
func (c *Config) WorkspacePath() string {
	if c.SandboxWorkspace != "" {
		return c.SandboxWorkspace
	}

	return filepath.Join(c.SandboxRoot, "workspace")
}

// Validate checks the parameters that have structural invariants.
func (c *Config) Validate() error {
	if c.RefWorkspace == "" {
		return m.NewConfigurationError("reference workspace is not configured")
	}

	if c.SandboxRoot == "" {
		return m.NewConfigurationError("sandbox root is not configured")
	}

	if _, err := shardDigits(c.MaxTrialDirs); err != nil {
		return err
	}

	return nil
}
