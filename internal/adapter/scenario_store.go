package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	m "simstage.dev/pkg/simstage/internal/model"
)

// ScenarioStore loads scenario definition documents and caches the parsed
// result by canonical absolute path. The cache is an explicit object owned
// by the command, not package state, so one invocation cannot leak parsed
// documents into the next.
type ScenarioStore struct {
	mu    sync.Mutex
	cache map[string]*m.ScenarioDefinition
}

// NewScenarioStore constructs an empty ScenarioStore.
func NewScenarioStore() *ScenarioStore {
	return &ScenarioStore{cache: map[string]*m.ScenarioDefinition{}}
}

// Load parses the scenario definition at path, reusing a cached parse for
// repeated loads of the same file.
func (s *ScenarioStore) Load(path string) (*m.ScenarioDefinition, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if def, ok := s.cache[abs]; ok {
		return def, nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read scenario definition: %w", err)
	}

	var def m.ScenarioDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse %s: %w", abs, err)
	}

	s.cache[abs] = &def

	return &def, nil
}
