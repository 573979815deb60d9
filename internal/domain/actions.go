package domain

import (
	"log/slog"
	"slices"

	m "simstage.dev/pkg/simstage/internal/model"
)

// ApplyActions runs a scenario's config actions against its chain, in
// declaration order. Actions whose dynamic flag does not match the
// requested phase are skipped; conditionals run in both phases and filter
// their nested actions. Content is formatted against dirs, which binds
// {scenarioDir} and {baselineDir} now that the sandbox layout is known.
func ApplyActions(chain *ConfigChain, actions []m.ConfigAction, dirs map[string]string, dynamic bool) error {
	for _, action := range actions {
		if err := applyAction(chain, action, dirs, dynamic); err != nil {
			return err
		}
	}

	return nil
}

func applyAction(chain *ConfigChain, action m.ConfigAction, dirs map[string]string, dynamic bool) error {
	if action.Kind == m.ActionConditional {
		return applyConditional(chain, action, dirs, dynamic)
	}

	if action.Dynamic != dynamic {
		return nil
	}

	content, err := FormatTemplate(action.Content, dirs)
	if err != nil {
		return err
	}

	slog.Debug("applying config action",
		"action", string(action.Kind), "name", action.Name, "config", chain.Path())

	switch action.Kind {
	case m.ActionAdd:
		return chain.AddComponent(action.Name, content)

	case m.ActionReplace:
		return chain.ReplaceComponent(action.Name, content)

	case m.ActionDelete:
		return chain.DeleteComponent(action.Name)

	case m.ActionInsertAfter:
		return chain.InsertComponentAfter(action.Name, content, action.After)

	case m.ActionFunction:
		return CallEditorFunction(chain, action.Name, content)
	}

	return m.NewConfigurationError("unknown action %q", action.Kind)
}

// applyConditional compares the formatted value1 against the
// comma-delimited value2 set and applies the nested actions when
// membership equals the matches flag.
func applyConditional(chain *ConfigChain, action m.ConfigAction, dirs map[string]string, dynamic bool) error {
	value1, err := FormatTemplate(action.Value1, dirs)
	if err != nil {
		return err
	}

	value2, err := FormatTemplate(action.Value2, dirs)
	if err != nil {
		return err
	}

	if slices.Contains(SplitAndStrip(value2, ","), value1) != action.Matches {
		return nil
	}

	return ApplyActions(chain, action.Actions, dirs, dynamic)
}
