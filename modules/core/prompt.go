package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/axisgrid/internal/mode"
)

// MultiReplaceToken separates several replacements in one value.
const MultiReplaceToken = "&&"

// ParsePromptReplace splits "a=b && c=d" into its substitutions, in order.
func ParsePromptReplace(value any) ([]mode.Substitution, error) {
	text, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("prompt replace value must be text, got %T", value)
	}
	var subs []mode.Substitution
	for _, instruction := range strings.Split(text, MultiReplaceToken) {
		instruction = strings.TrimSpace(instruction)
		match, replace, found := strings.Cut(instruction, "=")
		if !found {
			return nil, fmt.Errorf("invalid prompt replace, missing '=' symbol, for '%s'", instruction)
		}
		subs = append(subs, mode.Substitution{
			Match:   strings.TrimSpace(match),
			Replace: strings.TrimSpace(replace),
		})
	}
	return subs, nil
}

func cleanPromptReplace(_ context.Context, _ mode.Env, name string, value any) (any, error) {
	subs, err := ParsePromptReplace(value)
	if err != nil {
		return nil, &mode.ValidationError{Param: name, Value: fmt.Sprint(value), Reason: err.Error()}
	}
	for _, s := range subs {
		if s.Match == "" {
			return nil, &mode.ValidationError{Param: name, Value: fmt.Sprint(value), Reason: "empty match text"}
		}
	}
	return value, nil
}

// ParsePromptReplaceList expands the shorthand axis form. When no value
// contains '=', the first value is the text to replace and every value
// (including the first) becomes "first=value", titled by the value itself.
func ParsePromptReplaceList(values []string) []mode.ListEntry {
	entries := make([]mode.ListEntry, len(values))
	shorthand := len(values) > 0
	for _, v := range values {
		if strings.Contains(v, "=") {
			shorthand = false
			break
		}
	}
	for i, v := range values {
		entries[i] = mode.ListEntry{Title: v}
		if shorthand {
			entries[i].Params = map[string]string{"promptreplace": values[0] + "=" + v}
		}
	}
	return entries
}
