package domain

import (
	"regexp"
	"strings"

	m "simstage.dev/pkg/simstage/internal/model"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// FormatTemplate substitutes every {name} placeholder in s from ctx. A
// placeholder with no binding is a configuration error, never silently
// left in place; callers that want pass-through bind the name to itself.
func FormatTemplate(s string, ctx map[string]string) (string, error) {
	var missing string

	out := placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[1 : len(match)-1]
		if value, ok := ctx[name]; ok {
			return value
		}

		if missing == "" {
			missing = name
		}

		return match
	})

	if missing != "" {
		return "", m.NewConfigurationError("unresolved placeholder {%s} in %q", missing, s)
	}

	return out, nil
}

// SplitAndStrip splits s on sep and trims whitespace, dropping empties.
func SplitAndStrip(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
