package domain

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"simstage.dev/pkg/simstage/internal/adapter"
)

func workflowConfig(t *testing.T) *Config {
	t.Helper()

	root := t.TempDir()
	ref := filepath.Join(root, "ref")

	writeFile(t, filepath.Join(ref, "config.yaml"), baseConfigDoc)
	writeFile(t, filepath.Join(ref, "input", "energy.yaml"), "energy data")

	return &Config{
		RefWorkspace:   ref,
		SandboxRoot:    filepath.Join(root, "sandboxes"),
		ConfigFileName: "config.yaml",
		RequiredFiles:  []string{"config.yaml", "input/energy.yaml"},
		Executable:     "run-model",
		MaxTrialDirs:   1000,
	}
}

const workflowDefinition = `
iterators:
  - name: rate
    values: ["10", "20"]
groups:
  - name: main
    scenarios:
      - name: base
        baseline: true
      - name: "tax-{rate}"
        iterator: rate
        actions:
          - action: add
            name: carbon-tax
            content: "{scenarioDir}/tax-{rate}.yaml"
      - name: off
        active: false
`

func newTestWorkflow(t *testing.T) (*Workflow, *Expansion, *Config) {
	t.Helper()

	cfg := workflowConfig(t)
	exp, err := Expand(parseDefinition(t, workflowDefinition))
	require.NoError(t, err)

	wf := NewWorkflow(cfg, adapter.NewLocalWorkspaceFS(), adapter.NewDocumentCache())

	return wf, exp, cfg
}

func TestSetupSingleScenario(t *testing.T) {
	wf, exp, cfg := newTestWorkflow(t)

	err := wf.Setup(context.Background(), exp, SetupArgs{
		Group:    "main",
		Scenario: "tax-10",
		Trial:    -1,
	})
	require.NoError(t, err)

	// The scenario's local config carries its own edits on top of the
	// reference document.
	configPath := filepath.Join(cfg.SandboxRoot, "local", "tax-10", "config.yaml")
	doc := parseConfigFile(t, configPath)

	require.Equal(t, []string{"energy", "land", "carbon-tax"}, componentNames(doc))

	i := doc.ComponentIndex("carbon-tax")
	require.Equal(t, "../../local/tax-10/tax-10.yaml", doc.Components[i].File)

	// Required files landed in the sandbox.
	require.Equal(t, "energy data",
		readFile(t, filepath.Join(cfg.SandboxRoot, "tax-10", "input", "energy.yaml")))
}

func TestSetupDefaultsToBaseline(t *testing.T) {
	wf, exp, cfg := newTestWorkflow(t)

	err := wf.Setup(context.Background(), exp, SetupArgs{Group: "main", Trial: -1})
	require.NoError(t, err)

	fs := adapter.NewLocalWorkspaceFS()
	require.True(t, fs.LExists(filepath.Join(cfg.SandboxRoot, "base", "exe")))
}

func TestSetupAllSkipsInactive(t *testing.T) {
	wf, exp, cfg := newTestWorkflow(t)

	err := wf.Setup(context.Background(), exp, SetupArgs{
		Group:    "main",
		Trial:    -1,
		All:      true,
		Parallel: 2,
	})
	require.NoError(t, err)

	fs := adapter.NewLocalWorkspaceFS()
	for _, name := range []string{"base", "tax-10", "tax-20"} {
		require.True(t, fs.LExists(filepath.Join(cfg.SandboxRoot, name, "exe")), name)
	}

	require.False(t, fs.LExists(filepath.Join(cfg.SandboxRoot, "off")))
}

func TestSetupAllFlushesEveryConfig(t *testing.T) {
	wf, exp, cfg := newTestWorkflow(t)

	err := wf.Setup(context.Background(), exp, SetupArgs{
		Group: "main",
		Trial: -1,
		All:   true,
	})
	require.NoError(t, err)

	for _, name := range []string{"tax-10", "tax-20"} {
		doc := parseConfigFile(t, filepath.Join(cfg.SandboxRoot, "local", name, "config.yaml"))
		require.NotEqual(t, -1, doc.ComponentIndex("carbon-tax"), name)
	}

	// The baseline keeps the untouched reference document.
	doc := parseConfigFile(t, filepath.Join(cfg.SandboxRoot, "local", "base", "config.yaml"))
	require.Equal(t, -1, doc.ComponentIndex("carbon-tax"))
}

func TestSetupTrialNestsSandbox(t *testing.T) {
	wf, exp, cfg := newTestWorkflow(t)

	err := wf.Setup(context.Background(), exp, SetupArgs{
		Group:    "main",
		Scenario: "tax-10",
		Trial:    42,
	})
	require.NoError(t, err)

	fs := adapter.NewLocalWorkspaceFS()
	require.True(t, fs.LExists(
		filepath.Join(cfg.SandboxRoot, "sims", "000", "042", "tax-10", "exe")))
}

func TestSetupDynamicPhase(t *testing.T) {
	cfg := workflowConfig(t)
	exp, err := Expand(parseDefinition(t, `
groups:
  - name: main
    scenarios:
      - name: base
        baseline: true
      - name: tax
        actions:
          - action: add
            name: static-part
            content: s.yaml
          - action: add
            name: dynamic-part
            content: d.yaml
            dynamic: true
`))
	require.NoError(t, err)

	wf := NewWorkflow(cfg, adapter.NewLocalWorkspaceFS(), adapter.NewDocumentCache())

	require.NoError(t, wf.Setup(context.Background(), exp, SetupArgs{
		Group:    "main",
		Scenario: "tax",
		Trial:    -1,
	}))

	configPath := filepath.Join(cfg.SandboxRoot, "local", "tax", "config.yaml")
	doc := parseConfigFile(t, configPath)
	require.NotEqual(t, -1, doc.ComponentIndex("static-part"))
	require.Equal(t, -1, doc.ComponentIndex("dynamic-part"))

	require.NoError(t, wf.Setup(context.Background(), exp, SetupArgs{
		Group:    "main",
		Scenario: "tax",
		Trial:    -1,
		Dynamic:  true,
	}))

	doc = parseConfigFile(t, configPath)
	require.NotEqual(t, -1, doc.ComponentIndex("dynamic-part"))
}

func TestSetupUnknownScenario(t *testing.T) {
	wf, exp, _ := newTestWorkflow(t)

	err := wf.Setup(context.Background(), exp, SetupArgs{
		Group:    "main",
		Scenario: "nope",
		Trial:    -1,
	})
	require.Error(t, err)
}
