package domain

import (
	"fmt"
	"os"
	"strings"

	m "simstage.dev/pkg/simstage/internal/model"
)

// EditorFunc is an editor method callable from a function action. The
// args come from the action's comma-delimited content.
type EditorFunc func(chain *ConfigChain, args []string) error

// editorFunctions is the closed registry of methods a function action may
// name. There is no dynamic evaluation: an unknown name is a fatal
// configuration error.
var editorFunctions = map[string]EditorFunc{
	"set-value":      setValueFunc,
	"delete-value":   deleteValueFunc,
	"replace-string": replaceStringFunc,
}

// CallEditorFunction dispatches a function action against the chain.
func CallEditorFunction(chain *ConfigChain, name, content string) error {
	fn, ok := editorFunctions[name]
	if !ok {
		return m.NewConfigurationError("function %q doesn't exist or is not callable from a scenario file", name)
	}

	return fn(chain, SplitAndStrip(content, ","))
}

// setValueFunc sets a scalar configuration setting: set-value(section,
// name, value).
func setValueFunc(chain *ConfigChain, args []string) error {
	if len(args) != 3 {
		return m.NewConfigurationError("set-value requires (section, name, value), got %v", args)
	}

	chain.SetValue(args[0], args[1], args[2])

	return nil
}

// deleteValueFunc removes a scalar configuration setting: delete-value
// (section, name).
func deleteValueFunc(chain *ConfigChain, args []string) error {
	if len(args) != 2 {
		return m.NewConfigurationError("delete-value requires (section, name), got %v", args)
	}

	if _, ok := chain.GetValue(args[0], args[1]); !ok {
		return m.NewConfigurationError("delete-value: %s/%s is not set", args[0], args[1])
	}

	cfg := chain.doc.Config()
	delete(cfg.Settings[args[0]], args[1])
	chain.doc.MarkDirty()

	return nil
}

// replaceStringFunc substitutes a literal string in a sandbox file:
// replace-string(file, old, new). The file resolves through the overlay,
// so the edit always lands in the scenario's own copy.
func replaceStringFunc(chain *ConfigChain, args []string) error {
	if len(args) != 3 {
		return m.NewConfigurationError("replace-string requires (file, old, new), got %v", args)
	}

	path, err := chain.resolver.ResolveForWrite(args[0])
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	edited := strings.ReplaceAll(string(data), args[1], args[2])
	if edited == string(data) {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if err := os.WriteFile(path, []byte(edited), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}
