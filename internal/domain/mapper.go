package domain

import (
	"fmt"
	"path/filepath"

	m "simstage.dev/pkg/simstage/internal/model"
)

// Names of the runtime directories inside a scenario sandbox.
const (
	ExeDirName          = "exe"
	OutputDirName       = "output"
	LogDirName          = "logs"
	RestartDirName      = "restart"
	QueryResultsDirName = "query-results"
	DiffsDirName        = "diffs"

	localDirName = "local"
	simsDirName  = "sims"
)

// FileMapper derives every path one (group, scenario, trial) sandbox run
// needs. It is constructed per invocation and never persisted. A
// non-baseline mapper links to its parent's mapper, forming the ancestor
// chain that overlay resolution walks.
type FileMapper struct {
	Config   *Config
	Group    *FinalGroup
	Scenario *m.Scenario
	Trial    int // negative outside Monte Carlo runs
	Parent   *FileMapper

	SandboxDir  string // group-level directory holding scenario dirs
	ScenarioDir string

	// Runtime directories, as pairs rooted at ScenarioDir.
	ExeDir          m.PathPair
	OutputDir       m.PathPair
	LogDir          m.PathPair
	RestartDir      m.PathPair
	QueryResultsDir m.PathPair
	DiffsDir        m.PathPair

	ExePath m.PathPair // simulation binary, relative to the exe dir

	LocalRoot  string // group-level overlay root
	LocalDir   string // this scenario's own overlay directory
	ConfigPath string // structured configuration document inside LocalDir
}

// NewFileMapper constructs the mapper for one scenario, recursively
// constructing parent mappers up the baseline chain. The chain is built
// iteratively with a visited set so a self-referential configuration
// fails instead of looping.
func NewFileMapper(cfg *Config, exp *Expansion, groupName, scenarioName string, trial int) (*FileMapper, error) {
	group, err := exp.Group(groupName)
	if err != nil {
		return nil, err
	}

	if scenarioName == "" {
		scenarioName = group.Baseline
	}

	scenario, err := group.Scenario(scenarioName)
	if err != nil {
		return nil, err
	}

	mapper, err := newMapper(cfg, group, scenario, trial)
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{chainKey(group, scenario): true}

	for cur := mapper; ; {
		parentGroup, parentScenario, err := parentOf(exp, cur)
		if err != nil {
			return nil, err
		}

		if parentScenario == nil {
			break
		}

		key := chainKey(parentGroup, parentScenario)
		if visited[key] {
			return nil, m.NewConfigurationError("baseline chain cycles through scenario %q", parentScenario.Name)
		}

		visited[key] = true

		parent, err := newMapper(cfg, parentGroup, parentScenario, trial)
		if err != nil {
			return nil, err
		}

		cur.Parent = parent
		cur = parent
	}

	return mapper, nil
}

func chainKey(group *FinalGroup, sc *m.Scenario) string {
	return group.Name + "/" + sc.Name
}

// parentOf returns the next scenario up the baseline chain: the group's
// own baseline for derived scenarios, or the baseline-source target for a
// baseline whose group chains to another group.
func parentOf(exp *Expansion, fm *FileMapper) (*FinalGroup, *m.Scenario, error) {
	if !fm.Scenario.Baseline {
		if fm.Group.Baseline != "" {
			sc, err := fm.Group.Scenario(fm.Group.Baseline)
			return fm.Group, sc, err
		}
		// The group's baseline lives in another group.
		group, sc, err := exp.baselineSourceTarget(fm.Group)
		return group, sc, err
	}

	if fm.Group.BaselineSource != "" {
		group, sc, err := exp.baselineSourceTarget(fm.Group)
		return group, sc, err
	}

	return nil, nil, nil
}

func newMapper(cfg *Config, group *FinalGroup, scenario *m.Scenario, trial int) (*FileMapper, error) {
	base := cfg.SandboxRoot

	if trial >= 0 {
		trialDir, err := TrialDir(filepath.Join(base, simsDirName), trial, cfg.MaxTrialDirs)
		if err != nil {
			return nil, err
		}

		base = trialDir
	}

	groupSubdir := ""
	if group.UseGroupDir {
		groupSubdir = group.Name
	}

	sandboxDir, err := m.MakeDirPath(false, base, groupSubdir)
	if err != nil {
		return nil, err
	}

	scenarioDir := filepath.Join(sandboxDir, scenario.Subdir)
	localRoot := filepath.Join(sandboxDir, localDirName)
	localDir := filepath.Join(localRoot, scenario.Subdir)

	fm := &FileMapper{
		Config:          cfg,
		Group:           group,
		Scenario:        scenario,
		Trial:           trial,
		SandboxDir:      sandboxDir,
		ScenarioDir:     scenarioDir,
		ExeDir:          m.NewPathPair(scenarioDir, ExeDirName),
		OutputDir:       m.NewPathPair(scenarioDir, OutputDirName),
		LogDir:          m.NewPathPair(scenarioDir, LogDirName),
		RestartDir:      m.NewPathPair(scenarioDir, RestartDirName),
		QueryResultsDir: m.NewPathPair(scenarioDir, QueryResultsDirName),
		DiffsDir:        m.NewPathPair(scenarioDir, DiffsDirName),
		LocalRoot:       localRoot,
		LocalDir:        localDir,
		ConfigPath:      filepath.Join(localDir, cfg.ConfigFileName),
	}

	fm.ExePath = fm.ExePathPair(cfg.Executable)

	return fm, nil
}

// RuntimeDirs lists the directories MaterializeSandbox creates.
func (fm *FileMapper) RuntimeDirs() []m.PathPair {
	return []m.PathPair{
		fm.ExeDir,
		fm.OutputDir,
		fm.LogDir,
		fm.RestartDir,
		fm.QueryResultsDir,
		fm.DiffsDir,
	}
}

// OverlayDirs returns the overlay search chain for this scenario: its own
// local directory, each ancestor's local directory in order, and finally
// the shared reference workspace.
func (fm *FileMapper) OverlayDirs() []string {
	dirs := []string{fm.LocalDir}
	for p := fm.Parent; p != nil; p = p.Parent {
		dirs = append(dirs, p.LocalDir)
	}

	return append(dirs, fm.Config.WorkspacePath())
}

// ExePathPair returns the pair (exe dir, rel) for a path relative to the
// sandbox exe directory.
func (fm *FileMapper) ExePathPair(rel string) m.PathPair {
	return m.NewPathPair(fm.ExeDir.Abs, rel)
}

// DirectoryContext binds the run-time directory placeholders for action
// content: paths relative to the exe directory, which is what the
// configuration document stores.
func (fm *FileMapper) DirectoryContext() (map[string]string, error) {
	ctx := map[string]string{}

	scenarioRel, err := filepath.Rel(fm.ExeDir.Abs, fm.LocalDir)
	if err != nil {
		return nil, fmt.Errorf("relativize %s: %w", fm.LocalDir, err)
	}

	ctx["scenarioDir"] = filepath.ToSlash(scenarioRel)

	if fm.Parent != nil {
		baselineRel, err := filepath.Rel(fm.ExeDir.Abs, fm.Parent.LocalDir)
		if err != nil {
			return nil, fmt.Errorf("relativize %s: %w", fm.Parent.LocalDir, err)
		}

		ctx["baselineDir"] = filepath.ToSlash(baselineRel)
	}

	return ctx, nil
}
