package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const storeTestDefinition = `
name: demo
default-group: main
iterators:
  - name: policy
    values: [tax, subsidy]
groups:
  - name: main
    scenarios:
      - name: base
        baseline: true
`

func TestScenarioStoreLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenarios.yaml")
	require.NoError(t, os.WriteFile(path, []byte(storeTestDefinition), 0o644))

	store := NewScenarioStore()

	def, err := store.Load(path)
	require.NoError(t, err)
	require.Equal(t, "demo", def.Name)
	require.Equal(t, "main", def.DefaultGroup)
	require.Len(t, def.Groups, 1)

	it, err := def.IteratorByName("policy")
	require.NoError(t, err)
	require.Equal(t, []string{"tax", "subsidy"}, it.Values)
}

func TestScenarioStoreCachesByPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenarios.yaml")
	require.NoError(t, os.WriteFile(path, []byte(storeTestDefinition), 0o644))

	store := NewScenarioStore()

	first, err := store.Load(path)
	require.NoError(t, err)

	// A later rewrite is not observed: the parse is cached for the life
	// of the store.
	require.NoError(t, os.WriteFile(path, []byte(`name: other`), 0o644))

	second, err := store.Load(path)
	require.NoError(t, err)
	require.Same(t, first, second)
}

func TestScenarioStoreErrors(t *testing.T) {
	store := NewScenarioStore()

	_, err := store.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("groups: [{scenarios: {bad: map}}]"), 0o644))

	_, err = store.Load(bad)
	require.Error(t, err)
}
