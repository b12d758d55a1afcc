package mode

import (
	"path/filepath"
	"strings"
	"unicode"
)

// Normalize turns a parameter name into its registry key: trimmed, lower
// case, with whitespace and underscores removed.
func Normalize(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '_' {
			return -1
		}
		return unicode.ToLower(r)
	}, name)
}

// CleanName is the looser form used to compare catalog entries: Normalize
// plus the removal of square brackets.
func CleanName(name string) string {
	return strings.NewReplacer("[", "", "]", "").Replace(Normalize(name))
}

// BestInList returns the entry of list that name refers to: an exact match
// on cleaned names, otherwise the shortest entry containing the cleaned
// name. It returns "" when nothing matches.
func BestInList(name string, list []string) string {
	want := CleanName(name)
	if want == "" {
		return ""
	}

	backup := ""
	bestLen := -1
	for _, entry := range list {
		clean := CleanName(entry)
		if clean == want {
			return entry
		}
		if strings.Contains(clean, want) && (bestLen < 0 || len(clean) < bestLen) {
			backup = entry
			bestLen = len(clean)
		}
	}
	return backup
}

// ChooseBetterFileName picks the friendlier of what the user typed and the
// catalog's full name: the raw text when it already looks like a path or
// is at least as long as the bare file name, otherwise the bare file name.
func ChooseBetterFileName(raw, full string) string {
	base := filepath.Base(strings.ReplaceAll(full, "\\", "/"))
	partial := strings.TrimSuffix(base, filepath.Ext(base))
	if strings.ContainsAny(raw, "/\\.") || len(raw) >= len(partial) {
		return raw
	}
	return partial
}
