package domain

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	m "simstage.dev/pkg/simstage/internal/model"
)

var testDirs = map[string]string{
	"scenarioDir": "../../local/tax",
	"baselineDir": "../../local/base",
}

func TestApplyActionsBindsDirectories(t *testing.T) {
	chain, _, _ := newTestChain(t)

	actions := []m.ConfigAction{
		{Kind: m.ActionAdd, Name: "carbon-tax", Content: "{scenarioDir}/tax.yaml"},
	}

	require.NoError(t, ApplyActions(chain, actions, testDirs, false))

	file, err := chain.GetComponent("carbon-tax")
	require.NoError(t, err)
	require.Equal(t, "../../local/tax/tax.yaml", file)
}

func TestApplyActionsPhaseFilter(t *testing.T) {
	chain, _, _ := newTestChain(t)

	actions := []m.ConfigAction{
		{Kind: m.ActionAdd, Name: "static-part", Content: "s.yaml"},
		{Kind: m.ActionAdd, Name: "dynamic-part", Content: "d.yaml", Dynamic: true},
	}

	require.NoError(t, ApplyActions(chain, actions, testDirs, false))

	_, err := chain.GetComponent("static-part")
	require.NoError(t, err)
	_, err = chain.GetComponent("dynamic-part")
	require.Error(t, err)

	require.NoError(t, ApplyActions(chain, actions, testDirs, true))

	_, err = chain.GetComponent("dynamic-part")
	require.NoError(t, err)
}

func TestApplyActionsStopsAtFirstError(t *testing.T) {
	chain, _, _ := newTestChain(t)

	actions := []m.ConfigAction{
		{Kind: m.ActionDelete, Name: "nope"},
		{Kind: m.ActionAdd, Name: "never", Content: "n.yaml"},
	}

	require.Error(t, ApplyActions(chain, actions, testDirs, false))

	_, err := chain.GetComponent("never")
	require.Error(t, err)
}

func TestApplyConditionalMatches(t *testing.T) {
	chain, _, _ := newTestChain(t)

	actions := []m.ConfigAction{
		{
			Kind:    m.ActionConditional,
			Value1:  "tax-10",
			Value2:  "tax-10, tax-20",
			Matches: true,
			Actions: []m.ConfigAction{
				{Kind: m.ActionDelete, Name: "land"},
			},
		},
	}

	require.NoError(t, ApplyActions(chain, actions, testDirs, false))

	_, err := chain.GetComponent("land")
	require.Error(t, err)
}

func TestApplyConditionalNoMatchSkips(t *testing.T) {
	chain, _, _ := newTestChain(t)

	actions := []m.ConfigAction{
		{
			Kind:    m.ActionConditional,
			Value1:  "subsidy",
			Value2:  "tax-10, tax-20",
			Matches: true,
			Actions: []m.ConfigAction{
				{Kind: m.ActionDelete, Name: "land"},
			},
		},
	}

	require.NoError(t, ApplyActions(chain, actions, testDirs, false))

	_, err := chain.GetComponent("land")
	require.NoError(t, err)
}

func TestApplyConditionalInverted(t *testing.T) {
	chain, _, _ := newTestChain(t)

	actions := []m.ConfigAction{
		{
			Kind:    m.ActionConditional,
			Value1:  "subsidy",
			Value2:  "tax-10, tax-20",
			Matches: false,
			Actions: []m.ConfigAction{
				{Kind: m.ActionDelete, Name: "land"},
			},
		},
	}

	require.NoError(t, ApplyActions(chain, actions, testDirs, false))

	_, err := chain.GetComponent("land")
	require.Error(t, err)
}

func TestApplyConditionalFiltersNestedPhases(t *testing.T) {
	chain, _, _ := newTestChain(t)

	actions := []m.ConfigAction{
		{
			Kind:    m.ActionConditional,
			Value1:  "a",
			Value2:  "a",
			Matches: true,
			Actions: []m.ConfigAction{
				{Kind: m.ActionAdd, Name: "dyn", Content: "d.yaml", Dynamic: true},
			},
		},
	}

	// Static phase: the conditional itself runs but its dynamic child is
	// filtered out.
	require.NoError(t, ApplyActions(chain, actions, testDirs, false))
	_, err := chain.GetComponent("dyn")
	require.Error(t, err)

	require.NoError(t, ApplyActions(chain, actions, testDirs, true))
	_, err = chain.GetComponent("dyn")
	require.NoError(t, err)
}

func TestFunctionActionSetValue(t *testing.T) {
	chain, _, _ := newTestChain(t)

	actions := []m.ConfigAction{
		{Kind: m.ActionFunction, Name: "set-value", Content: "solver, tolerance, 1e-6"},
	}

	require.NoError(t, ApplyActions(chain, actions, testDirs, false))

	value, ok := chain.GetValue("solver", "tolerance")
	require.True(t, ok)
	require.Equal(t, "1e-6", value)
}

func TestFunctionActionDeleteValue(t *testing.T) {
	chain, _, _ := newTestChain(t)

	actions := []m.ConfigAction{
		{Kind: m.ActionFunction, Name: "delete-value", Content: "model, stop-year"},
	}

	require.NoError(t, ApplyActions(chain, actions, testDirs, false))

	_, ok := chain.GetValue("model", "stop-year")
	require.False(t, ok)
}

func TestFunctionActionReplaceString(t *testing.T) {
	chain, _, local := newTestChain(t)

	writeFile(t, filepath.Join(local, "..", "base", "energy.yaml"), "demand: reference\n")

	actions := []m.ConfigAction{
		{Kind: m.ActionFunction, Name: "replace-string", Content: "energy.yaml, reference, high-growth"},
	}

	require.NoError(t, ApplyActions(chain, actions, testDirs, false))

	// The edit landed in the scenario's own overlay copy, not the source.
	require.Equal(t, "demand: high-growth\n", readFile(t, filepath.Join(local, "energy.yaml")))
	require.Equal(t, "demand: reference\n", readFile(t, filepath.Join(local, "..", "base", "energy.yaml")))
}

func TestFunctionActionUnknownName(t *testing.T) {
	chain, _, _ := newTestChain(t)

	err := CallEditorFunction(chain, "os-system", "rm -rf /")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not callable")
}

func TestFunctionActionArity(t *testing.T) {
	chain, _, _ := newTestChain(t)

	require.Error(t, CallEditorFunction(chain, "set-value", "only, two"))
	require.Error(t, CallEditorFunction(chain, "delete-value", "one"))
	require.Error(t, CallEditorFunction(chain, "delete-value", "model, unset-name"))
}
