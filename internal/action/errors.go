package action

import "fmt"

// ConfigurationError reports a malformed or unusable action table. It is
// fatal: surfaced at load or build time and never retried.
type ConfigurationError struct {
	Reason string
	Path   string
}

func (e *ConfigurationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("action table configuration: %s (%s)", e.Reason, e.Path)
	}
	return fmt.Sprintf("action table configuration: %s", e.Reason)
}

// UnknownActionError reports a policy action index with no table entry.
// For a policy trained against the same table this never happens, so it
// signals table/policy version skew and must be surfaced, not retried.
type UnknownActionError struct {
	Index int
	Size  int
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("no action mapping for index %d (table has indices 0..%d)", e.Index, e.Size-1)
}
