package mode

import (
	"fmt"
	"strings"
)

// ValidationError reports an axis value a mode refused.
type ValidationError struct {
	Param  string
	Value  string
	Reason string
	// Valid lists accepted values when the mode can enumerate them.
	Valid []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid parameter '%s' as '%s'", e.Param, e.Value)
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	if len(e.Valid) > 0 {
		fmt.Fprintf(&b, " - valid: [%s]", strings.Join(e.Valid, ", "))
	}
	return b.String()
}

// ConfigurationError reports a broken mode catalog: a duplicate
// registration, or an axis naming a mode that does not exist.
type ConfigurationError struct {
	Name   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("setting mode '%s': %s", e.Name, e.Reason)
}
