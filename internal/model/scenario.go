// Package model defines the data structures for scenario expansion and
// sandbox materialization.
package model

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// IteratorKind selects how an iterator produces its value sequence.
type IteratorKind string

const (
	// IteratorList enumerates an explicit, ordered list of values.
	IteratorList IteratorKind = "list"
	// IteratorInt enumerates an inclusive integer range.
	IteratorInt IteratorKind = "int"
	// IteratorFloat enumerates an inclusive float range.
	IteratorFloat IteratorKind = "float"
)

// Iterator is a named, ordered, immutable sequence of string values used
// to expand scenario templates. Numeric ranges are stop-inclusive: the
// terminal condition is "<= max", not "< max".
type Iterator struct {
	Name   string
	Kind   IteratorKind
	Values []string
}

type rawIterator struct {
	Name   string   `yaml:"name"`
	Type   string   `yaml:"type"`
	Values []any    `yaml:"values"`
	Min    *float64 `yaml:"min"`
	Max    *float64 `yaml:"max"`
	Step   *float64 `yaml:"step"`
	Format string   `yaml:"format"`
}

// UnmarshalYAML validates the declaration and computes the value sequence
// eagerly so malformed iterators fail at load time.
func (it *Iterator) UnmarshalYAML(node *yaml.Node) error {
	var raw rawIterator
	if err := node.Decode(&raw); err != nil {
		return err
	}

	if raw.Name == "" {
		return NewConfigurationError("iterator is missing a name")
	}

	kind := IteratorKind(raw.Type)
	if raw.Type == "" {
		kind = IteratorList
	}

	it.Name = raw.Name
	it.Kind = kind

	switch kind {
	case IteratorList:
		if len(raw.Values) == 0 {
			return NewConfigurationError("list iterator %q must provide values", raw.Name)
		}

		it.Values = make([]string, 0, len(raw.Values))
		for _, v := range raw.Values {
			it.Values = append(it.Values, strings.TrimSpace(fmt.Sprint(v)))
		}

	case IteratorInt, IteratorFloat:
		if raw.Min == nil || raw.Max == nil {
			return NewConfigurationError("%s iterator %q must provide min and max", kind, raw.Name)
		}

		if raw.Step != nil {
			if *raw.Step <= 0 {
				return NewConfigurationError("%s iterator %q step must be positive, got %v", kind, raw.Name, *raw.Step)
			}

			// An int step below 1 would truncate to 0 and never advance.
			if kind == IteratorInt && int64(*raw.Step) < 1 {
				return NewConfigurationError("int iterator %q step must be at least 1, got %v", raw.Name, *raw.Step)
			}
		}

		it.Values = rangeValues(kind, *raw.Min, *raw.Max, raw.Step, raw.Format)

	default:
		return NewConfigurationError("iterator %q has unknown type %q", raw.Name, raw.Type)
	}

	return nil
}

func rangeValues(kind IteratorKind, min, max float64, step *float64, format string) []string {
	var values []string

	if kind == IteratorInt {
		inc := int64(1)
		if step != nil {
			inc = int64(*step)
		}

		if format == "" {
			format = "%d"
		}

		for v := int64(min); v <= int64(max); v += inc {
			values = append(values, fmt.Sprintf(format, v))
		}

		return values
	}

	inc := 1.0
	if step != nil {
		inc = *step
	}

	if format == "" {
		format = "%.1f"
	}

	for v := min; v <= max; v += inc {
		values = append(values, fmt.Sprintf(format, v))
	}

	return values
}

// ActionKind is the closed set of config actions a scenario may declare.
type ActionKind string

const (
	ActionAdd         ActionKind = "add"
	ActionReplace     ActionKind = "replace"
	ActionDelete      ActionKind = "delete"
	ActionInsertAfter ActionKind = "insert-after"
	ActionConditional ActionKind = "if"
	ActionFunction    ActionKind = "function"
)

// ConfigAction is one edit applied to a scenario's configuration document.
// The Kind discriminates which of the optional fields are meaningful.
type ConfigAction struct {
	Kind    ActionKind
	Name    string
	Content string
	Dynamic bool
	After   string // insert-after only

	// Conditional only.
	Value1  string
	Value2  string
	Matches bool
	Actions []ConfigAction
}

type rawAction struct {
	Action  string         `yaml:"action"`
	Name    string         `yaml:"name"`
	Content string         `yaml:"content"`
	Dynamic bool           `yaml:"dynamic"`
	After   string         `yaml:"after"`
	Value1  string         `yaml:"value1"`
	Value2  string         `yaml:"value2"`
	Matches *bool          `yaml:"matches"`
	Actions []ConfigAction `yaml:"actions"`
}

// UnmarshalYAML enforces the closed action set and per-kind required fields.
func (a *ConfigAction) UnmarshalYAML(node *yaml.Node) error {
	var raw rawAction
	if err := node.Decode(&raw); err != nil {
		return err
	}

	a.Kind = ActionKind(raw.Action)
	a.Name = raw.Name
	a.Content = strings.TrimSpace(raw.Content)
	a.Dynamic = raw.Dynamic
	a.After = raw.After
	a.Value1 = raw.Value1
	a.Value2 = raw.Value2
	a.Matches = raw.Matches == nil || *raw.Matches
	a.Actions = raw.Actions

	switch a.Kind {
	case ActionAdd, ActionReplace:
		if a.Name == "" || a.Content == "" {
			return NewConfigurationError("%s action requires name and content", a.Kind)
		}

	case ActionDelete:
		if a.Name == "" {
			return NewConfigurationError("delete action requires a name")
		}

	case ActionInsertAfter:
		if a.Name == "" || a.Content == "" || a.After == "" {
			return NewConfigurationError("insert-after action requires name, content and after")
		}

	case ActionConditional:
		if raw.Value1 == "" || raw.Value2 == "" {
			return NewConfigurationError("if action requires value1 and value2")
		}

		if len(a.Actions) == 0 {
			return NewConfigurationError("if action requires nested actions")
		}

	case ActionFunction:
		if a.Name == "" {
			return NewConfigurationError("function action requires a name")
		}

	default:
		return NewConfigurationError("unknown action %q", raw.Action)
	}

	return nil
}

// Scenario is one named configuration variant. Before expansion the name,
// subdir and action contents may contain {var} placeholders; afterwards a
// Scenario is concrete and immutable.
type Scenario struct {
	Name     string         `yaml:"name"`
	Baseline bool           `yaml:"baseline"`
	Active   *bool          `yaml:"active"`
	Iterator string         `yaml:"iterator"`
	Subdir   string         `yaml:"subdir"`
	Actions  []ConfigAction `yaml:"actions"`
}

// IsActive reports whether the scenario participates in group-wide runs.
// Scenarios are active unless explicitly disabled.
func (s *Scenario) IsActive() bool {
	return s.Active == nil || *s.Active
}

// ScenarioGroup is a named set of scenarios sharing one baseline. Before
// expansion the name may contain {var} placeholders and Iterator may name
// a comma-delimited list of iterators.
type ScenarioGroup struct {
	Name           string     `yaml:"name"`
	Iterator       string     `yaml:"iterator"`
	UseGroupDir    bool       `yaml:"use-group-dir"`
	Default        bool       `yaml:"default"`
	BaselineSource string     `yaml:"baseline-source"`
	Scenarios      []Scenario `yaml:"scenarios"`
}

// ScenarioDefinition is the parsed scenario definition document.
type ScenarioDefinition struct {
	Name         string          `yaml:"name"`
	DefaultGroup string          `yaml:"default-group"`
	Iterators    []Iterator      `yaml:"iterators"`
	Groups       []ScenarioGroup `yaml:"groups"`
}

// IteratorByName returns the named iterator declaration.
func (d *ScenarioDefinition) IteratorByName(name string) (*Iterator, error) {
	for i := range d.Iterators {
		if d.Iterators[i].Name == name {
			return &d.Iterators[i], nil
		}
	}

	return nil, NewConfigurationError("iterator %q is not defined", name)
}
