package domain

import (
	"strings"

	m "simstage.dev/pkg/simstage/internal/model"
)

// FinalGroup is a scenario group after template expansion: concrete name,
// concrete scenarios, and a resolved baseline.
type FinalGroup struct {
	Name           string
	UseGroupDir    bool
	BaselineSource string
	Baseline       string
	Scenarios      []*m.Scenario

	byName map[string]*m.Scenario
}

// Scenario returns the named finalized scenario in the group.
func (g *FinalGroup) Scenario(name string) (*m.Scenario, error) {
	if sc, ok := g.byName[name]; ok {
		return sc, nil
	}

	return nil, m.NewConfigurationError("scenario %q was not found in group %q", name, g.Name)
}

// Expansion is the complete, finalized scenario set produced from one
// definition document. It is immutable after Expand returns.
type Expansion struct {
	groups       []*FinalGroup
	byName       map[string]*FinalGroup
	defaultGroup string
}

// Groups returns the finalized groups in declaration order.
func (e *Expansion) Groups() []*FinalGroup {
	return e.groups
}

// Group returns the named group, or the default group for an empty name.
func (e *Expansion) Group(name string) (*FinalGroup, error) {
	if name == "" {
		name = e.defaultGroup
	}

	if name == "" {
		return nil, m.NewConfigurationError("no scenario group named and no default group declared")
	}

	if g, ok := e.byName[name]; ok {
		return g, nil
	}

	return nil, m.NewConfigurationError("scenario group %q is not defined", name)
}

// Expand turns iterator declarations and group/scenario templates into the
// concrete scenario set: an N-way nested loop over each template's
// comma-delimited iterator list, instantiating one object per value tuple.
// Duplicate resulting names are fatal, never deduplicated. Exactly one
// baseline per group is enforced here.
func Expand(def *m.ScenarioDefinition) (*Expansion, error) {
	exp := &Expansion{
		byName:       map[string]*FinalGroup{},
		defaultGroup: def.DefaultGroup,
	}

	// Directory placeholders pass through expansion unchanged; they are
	// bound when the scenario runs and the sandbox layout is known.
	ctx := map[string]string{
		"scenarioDir": "{scenarioDir}",
		"baselineDir": "{baselineDir}",
	}

	for gi := range def.Groups {
		tmpl := &def.Groups[gi]

		expandOnce := func() error {
			return exp.expandGroup(def, tmpl, ctx)
		}

		if err := iterate(def, tmpl.Iterator, ctx, expandOnce); err != nil {
			return nil, err
		}
	}

	if err := exp.resolveBaselineSources(); err != nil {
		return nil, err
	}

	return exp, nil
}

// iterate recursively binds each of the named iterators' values into ctx,
// invoking fn once per combination at the innermost level. An empty
// iterator spec runs fn exactly once.
func iterate(def *m.ScenarioDefinition, iteratorSpec string, ctx map[string]string, fn func() error) error {
	names := SplitAndStrip(iteratorSpec, ",")
	if len(names) == 0 {
		return fn()
	}

	it, err := def.IteratorByName(names[0])
	if err != nil {
		return err
	}

	rest := strings.Join(names[1:], ",")

	for _, value := range it.Values {
		ctx[it.Name] = value

		if err := iterate(def, rest, ctx, fn); err != nil {
			return err
		}
	}

	return nil
}

func (e *Expansion) expandGroup(def *m.ScenarioDefinition, tmpl *m.ScenarioGroup, ctx map[string]string) error {
	name, err := FormatTemplate(tmpl.Name, ctx)
	if err != nil {
		return err
	}

	if _, exists := e.byName[name]; exists {
		return m.NewConfigurationError("expansion produced duplicate scenario group %q", name)
	}

	group := &FinalGroup{
		Name:           name,
		UseGroupDir:    tmpl.UseGroupDir,
		BaselineSource: tmpl.BaselineSource,
		byName:         map[string]*m.Scenario{},
	}

	for si := range tmpl.Scenarios {
		scTmpl := &tmpl.Scenarios[si]

		expandOnce := func() error {
			return group.expandScenario(scTmpl, ctx)
		}

		if err := iterate(def, scTmpl.Iterator, ctx, expandOnce); err != nil {
			return err
		}
	}

	if group.Baseline == "" && group.BaselineSource == "" {
		return m.NewConfigurationError("group %q declares no baseline", name)
	}

	e.groups = append(e.groups, group)
	e.byName[name] = group

	if tmpl.Default && e.defaultGroup == "" {
		e.defaultGroup = name
	}

	return nil
}

func (g *FinalGroup) expandScenario(tmpl *m.Scenario, ctx map[string]string) error {
	name, err := FormatTemplate(tmpl.Name, ctx)
	if err != nil {
		return err
	}

	if _, exists := g.byName[name]; exists {
		return m.NewConfigurationError("expansion produced duplicate scenario %q in group %q", name, g.Name)
	}

	subdir := tmpl.Subdir
	if subdir == "" {
		subdir = tmpl.Name
	}

	if subdir, err = FormatTemplate(subdir, ctx); err != nil {
		return err
	}

	actions, err := formatActions(tmpl.Actions, ctx)
	if err != nil {
		return err
	}

	final := &m.Scenario{
		Name:     name,
		Baseline: tmpl.Baseline,
		Active:   tmpl.Active,
		Subdir:   subdir,
		Actions:  actions,
	}

	if final.Baseline {
		if g.Baseline != "" {
			return m.NewConfigurationError("group %q declares multiple baselines (%q and %q)",
				g.Name, g.Baseline, name)
		}

		g.Baseline = name
	}

	g.Scenarios = append(g.Scenarios, final)
	g.byName[name] = final

	return nil
}

// formatActions resolves iterator placeholders in action content, leaving
// the directory placeholders for run time.
func formatActions(actions []m.ConfigAction, ctx map[string]string) ([]m.ConfigAction, error) {
	out := make([]m.ConfigAction, len(actions))

	for i, a := range actions {
		var err error

		if a.Content != "" {
			if a.Content, err = FormatTemplate(a.Content, ctx); err != nil {
				return nil, err
			}
		}

		if a.Kind == m.ActionConditional {
			if a.Value1, err = FormatTemplate(a.Value1, ctx); err != nil {
				return nil, err
			}

			if a.Value2, err = FormatTemplate(a.Value2, ctx); err != nil {
				return nil, err
			}

			if a.Actions, err = formatActions(a.Actions, ctx); err != nil {
				return nil, err
			}
		}

		out[i] = a
	}

	return out, nil
}

// resolveBaselineSources validates every group's baseline-source reference
// and rejects reference cycles.
func (e *Expansion) resolveBaselineSources() error {
	for _, group := range e.groups {
		if group.BaselineSource == "" {
			continue
		}

		if _, _, err := e.baselineSourceTarget(group); err != nil {
			return err
		}

		// Walk the chain of group references with a visited set.
		seen := map[string]bool{group.Name: true}
		cur := group

		for cur.BaselineSource != "" {
			next, _, err := e.baselineSourceTarget(cur)
			if err != nil {
				return err
			}

			if seen[next.Name] {
				return m.NewConfigurationError("baseline-source cycle through group %q", next.Name)
			}

			seen[next.Name] = true
			cur = next
		}
	}

	return nil
}

// baselineSourceTarget parses a "group/scenario" reference and returns the
// referenced group and baseline scenario.
func (e *Expansion) baselineSourceTarget(group *FinalGroup) (*FinalGroup, *m.Scenario, error) {
	parts := strings.SplitN(group.BaselineSource, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, nil, m.NewConfigurationError(
			"group %q: baseline-source %q should be of the form group/scenario",
			group.Name, group.BaselineSource)
	}

	target, ok := e.byName[parts[0]]
	if !ok {
		return nil, nil, m.NewConfigurationError(
			"group %q: baseline-source names unknown group %q", group.Name, parts[0])
	}

	sc, err := target.Scenario(parts[1])
	if err != nil {
		return nil, nil, err
	}

	if !sc.Baseline {
		return nil, nil, m.NewConfigurationError(
			"group %q: baseline-source %q is not a baseline scenario",
			group.Name, group.BaselineSource)
	}

	return target, sc, nil
}
