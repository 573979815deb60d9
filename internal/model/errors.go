package model

import "fmt"

// ConfigurationError reports a malformed project or scenario definition:
// duplicate or missing baselines, unresolved references, unknown iterators,
// invalid shard widths. It is always fatal and never retried.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return e.Msg
}

// NewConfigurationError formats a ConfigurationError.
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports that a relative path was absent throughout a
// scenario's ancestor chain and the reference tree.
type NotFoundError struct {
	Rel      string
	Searched []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%q not found in any of %v", e.Rel, e.Searched)
}

// StaleBuildError reports that a workspace carries a creation semaphore,
// meaning a previous build was interrupted. It triggers a rebuild and is
// fatal only if the forced rebuild itself fails.
type StaleBuildError struct {
	Workspace string
}

func (e *StaleBuildError) Error() string {
	return fmt.Sprintf("workspace %q has a stale creation semaphore", e.Workspace)
}
