package model

// ConfigComponent is one named entry in the ordered component list of a
// configuration document. File is a path relative to the sandbox exe
// directory.
type ConfigComponent struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
}

// ConfigDocument is the parsed structured configuration for one scenario.
// Component order is significant: the simulation binary loads components
// in sequence, so insert-after edits are positional.
type ConfigDocument struct {
	Components []ConfigComponent            `yaml:"scenario-components"`
	Settings   map[string]map[string]string `yaml:"settings,omitempty"`
}

// ComponentIndex returns the position of the named component, or -1.
func (d *ConfigDocument) ComponentIndex(name string) int {
	for i := range d.Components {
		if d.Components[i].Name == name {
			return i
		}
	}

	return -1
}
