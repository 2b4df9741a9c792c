package health

import (
	"strings"
)

// AddToSet appends value to items if not already present, trimming
// whitespace. Used for side-effect and body-part lists so edits always
// produce a fresh deduplicated slice instead of mutating in place.
func AddToSet(items []string, value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return items
	}
	for _, existing := range items {
		if existing == value {
			return items
		}
	}
	out := make([]string, 0, len(items)+1)
	out = append(out, items...)
	return append(out, value)
}

// RemoveFromSet returns a new slice with value removed.
func RemoveFromSet(items []string, value string) []string {
	out := make([]string, 0, len(items))
	for _, existing := range items {
		if existing != value {
			out = append(out, existing)
		}
	}
	return out
}
