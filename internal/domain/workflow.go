package domain

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"simstage.dev/pkg/simstage/internal/adapter"
)

// Workflow wires the expansion, materialization and configuration pieces
// into the per-run flow: ensure the shared workspace, build the sandbox,
// resolve and edit the scenario's configuration document.
type Workflow struct {
	cfg   *Config
	fs    adapter.WorkspaceFS
	cache *adapter.DocumentCache
	mz    *Materializer
}

// NewWorkflow constructs a Workflow over the given adapters.
func NewWorkflow(cfg *Config, fs adapter.WorkspaceFS, cache *adapter.DocumentCache) *Workflow {
	return &Workflow{
		cfg:   cfg,
		fs:    fs,
		cache: cache,
		mz:    NewMaterializer(cfg, fs),
	}
}

// Materializer exposes the workspace materializer for commands that
// operate on the shared workspace directly.
func (w *Workflow) Materializer() *Materializer {
	return w.mz
}

// SetupArgs selects what one setup invocation builds.
type SetupArgs struct {
	Group    string
	Scenario string // empty means the group's baseline
	Trial    int    // negative outside Monte Carlo runs
	Dynamic  bool   // apply the dynamic action phase instead of static
	All      bool   // set up every active scenario in the group
	Parallel int    // fan-out for All
	Force    bool   // force the reference workspace rebuild
}

// Setup is the top-level flow: ensure the shared reference workspace once,
// then materialize one scenario or every active scenario in the group.
func (w *Workflow) Setup(ctx context.Context, exp *Expansion, args SetupArgs) error {
	if err := w.mz.EnsureReferenceWorkspace(args.Force); err != nil {
		return err
	}

	if !args.All {
		if _, err := w.SetupScenario(exp, args.Group, args.Scenario, args.Trial, args.Dynamic); err != nil {
			return err
		}

		return w.cache.FlushAll()
	}

	group, err := exp.Group(args.Group)
	if err != nil {
		return err
	}

	// The baseline must exist before derived scenarios copy their
	// configuration up from it, so it is built first, alone.
	if group.Baseline != "" {
		if _, err := w.SetupScenario(exp, group.Name, group.Baseline, args.Trial, args.Dynamic); err != nil {
			return err
		}
	}

	g, _ := errgroup.WithContext(ctx)
	if args.Parallel > 0 {
		g.SetLimit(args.Parallel)
	}

	for _, sc := range group.Scenarios {
		if sc.Name == group.Baseline {
			continue
		}

		if !sc.IsActive() {
			slog.Debug("skipping inactive scenario", "scenario", sc.Name)
			continue
		}

		sc := sc
		g.Go(func() error {
			_, err := w.SetupScenario(exp, group.Name, sc.Name, args.Trial, args.Dynamic)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	return w.cache.FlushAll()
}

// SetupScenario materializes one scenario's sandbox and applies the
// requested phase of its config actions. It returns the mapper so callers
// can report the resolved paths.
func (w *Workflow) SetupScenario(exp *Expansion, groupName, scenarioName string, trial int, dynamic bool) (*FileMapper, error) {
	fm, err := NewFileMapper(w.cfg, exp, groupName, scenarioName, trial)
	if err != nil {
		return nil, err
	}

	if err := w.mz.MaterializeSandbox(fm); err != nil {
		return nil, err
	}

	resolver, err := NewScenarioOverlay(w.fs, fm)
	if err != nil {
		return nil, err
	}

	chain, err := NewConfigChain(w.cache, resolver, w.cfg.ConfigFileName)
	if err != nil {
		return nil, err
	}

	dirs, err := fm.DirectoryContext()
	if err != nil {
		return nil, err
	}

	if err := ApplyActions(chain, fm.Scenario.Actions, dirs, dynamic); err != nil {
		return nil, err
	}

	if err := chain.Flush(); err != nil {
		return nil, err
	}

	slog.Info("scenario ready",
		"scenario", fm.Scenario.Name, "config", chain.Path(), "sandbox", fm.ScenarioDir)

	return fm, nil
}
